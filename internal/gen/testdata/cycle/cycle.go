package cycle

//dyncast:type
type A struct {
	*B
}

//dyncast:type
type B struct {
	*A
}
