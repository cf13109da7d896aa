package gen

import (
	"go/parser"
	"go/token"
	"path/filepath"
	"strings"
	"testing"

	"github.com/funvibe/dyncast/internal/config"
)

func shapesPackage(dir string) *PackageInfo {
	return &PackageInfo{
		Spec:    PackageSpec{Path: "./shapes", Output: config.DefaultOutputFile},
		Name:    "shapes",
		PkgPath: "example.com/app/shapes",
		Dir:     dir,
		Types: []*TypeInfo{
			{Name: "Shape", PkgPath: "example.com/app/shapes", HasHeader: true},
			{
				Name: "Circle", PkgPath: "example.com/app/shapes",
				Supers: []*SuperInfo{
					{Field: "Shape", Name: "Shape", PkgPath: "example.com/app/shapes", PkgName: "shapes"},
					{Field: "Style", Name: "Style", PkgPath: "example.com/app/paint", PkgName: "paint"},
				},
			},
			{
				Name: "Ref", PkgPath: "example.com/app/shapes",
				Supers: []*SuperInfo{
					{Field: "Circle", Name: "Circle", PkgPath: "example.com/app/shapes", PkgName: "shapes", Pointer: true},
				},
			},
			{Name: "Custom", PkgPath: "example.com/app/shapes", Manual: true},
		},
	}
}

func TestGenerate_Methods(t *testing.T) {
	dir := t.TempDir()
	files, err := NewCodeGenerator(config.RuntimePackage).Generate(shapesPackage(dir))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}

	f := files[0]
	if f.Path != filepath.Join(dir, config.DefaultOutputFile) {
		t.Errorf("path = %q", f.Path)
	}
	src := string(f.Content)

	wants := []string{
		"// Code generated by dyncastgen. DO NOT EDIT.",
		"package shapes",
		`"unsafe"`,
		`"github.com/funvibe/dyncast/pkg/dyncast"`,
		`"example.com/app/paint"`,
		"func (Shape) Bases() []dyncast.Base {",
		"dyncast.HeaderAt(unsafe.Offsetof(Shape{}.Header)),",
		"func (x *Shape) DynamicType() dyncast.Tag { return dyncast.TagOf(x) }",
		"dyncast.Embedded[Shape](unsafe.Offsetof(Circle{}.Shape)),",
		"dyncast.Embedded[paint.Style](unsafe.Offsetof(Circle{}.Style)),",
		"dyncast.Pointer[Circle](unsafe.Offsetof(Ref{}.Circle)),",
		"func (x *Ref) DynamicType() dyncast.Tag",
	}
	for _, want := range wants {
		if !strings.Contains(src, want) {
			t.Errorf("generated code missing %q\n%s", want, src)
		}
	}
	if strings.Contains(src, "Custom") {
		t.Errorf("generated code includes the hand-written type Custom\n%s", src)
	}

	if _, err := parser.ParseFile(token.NewFileSet(), f.Path, f.Content, 0); err != nil {
		t.Errorf("generated code does not parse: %v", err)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	dir := t.TempDir()
	cg := NewCodeGenerator(config.RuntimePackage)

	first, err := cg.Generate(shapesPackage(dir))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := cg.Generate(shapesPackage(dir))
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if string(again[0].Content) != string(first[0].Content) {
			t.Fatalf("output differs between runs:\n%s\n---\n%s", first[0].Content, again[0].Content)
		}
	}
}

func TestGenerate_Tests(t *testing.T) {
	dir := t.TempDir()
	pkg := shapesPackage(dir)
	pkg.Spec.Tests = true

	files, err := NewCodeGenerator(config.RuntimePackage).Generate(pkg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}

	test := files[1]
	if filepath.Base(test.Path) != config.TestOutputFile {
		t.Errorf("test file = %q", test.Path)
	}
	src := string(test.Content)
	for _, name := range []string{"Shape", "Circle", "Ref", "Custom"} {
		want := `{"` + name + `", dyncast.Verify[` + name + `]},`
		if !strings.Contains(src, want) {
			t.Errorf("test file missing %q\n%s", want, src)
		}
	}
}

func TestGenerate_OnlyManual(t *testing.T) {
	pkg := &PackageInfo{
		Spec:    PackageSpec{Output: config.DefaultOutputFile},
		Name:    "m",
		PkgPath: "example.com/m",
		Dir:     t.TempDir(),
		Types:   []*TypeInfo{{Name: "M", PkgPath: "example.com/m", Manual: true}},
	}
	files, err := NewCodeGenerator(config.RuntimePackage).Generate(pkg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected no files, got %d", len(files))
	}
}

func TestImportAliasCollision(t *testing.T) {
	pkg := &PackageInfo{
		Spec:    PackageSpec{Output: config.DefaultOutputFile},
		Name:    "model",
		PkgPath: "example.com/a/model",
		Dir:     t.TempDir(),
		Types: []*TypeInfo{{
			Name: "Node", PkgPath: "example.com/a/model",
			Supers: []*SuperInfo{
				{Field: "Base", Name: "Base", PkgPath: "example.com/b/model", PkgName: "model"},
				{Field: "Meta", Name: "Meta", PkgPath: "example.com/c/dyncast", PkgName: "dyncast"},
			},
		}},
	}

	ctx := NewCodeGenerator(config.RuntimePackage).newContext(pkg)
	got := map[string]string{}
	for _, imp := range ctx.Imports {
		got[imp.Path] = imp.Alias
	}
	if got["example.com/b/model"] != "model2" {
		t.Errorf("alias of example.com/b/model = %q, want model2", got["example.com/b/model"])
	}
	if got["example.com/c/dyncast"] != "dyncast2" {
		t.Errorf("alias of example.com/c/dyncast = %q, want dyncast2", got["example.com/c/dyncast"])
	}
}
