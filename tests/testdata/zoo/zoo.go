package zoo

import "github.com/funvibe/dyncast/pkg/dyncast"

//dyncast:type
type Animal struct {
	dyncast.Header
	Name string
}

//dyncast:type
type Swimmer struct {
	Depth int
	dyncast.Header
}

//dyncast:type
type Duck struct {
	Animal
	Swimmer
	Quacks int
}

//dyncast:type
type Decoy struct {
	dyncast.Header
	Painted bool
	*Duck
}

//dyncast:type
type Robot struct {
	dyncast.Header
}
