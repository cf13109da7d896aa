package gen

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"text/template"

	"golang.org/x/tools/imports"

	"github.com/funvibe/dyncast/internal/config"
)

// CodeGenerator renders the contract methods of a package.
type CodeGenerator struct {
	// runtimePath is the import path of the runtime package.
	runtimePath string
}

// NewCodeGenerator creates a code generator importing the runtime from
// runtimePath.
func NewCodeGenerator(runtimePath string) *CodeGenerator {
	return &CodeGenerator{runtimePath: runtimePath}
}

// GeneratedFile represents a generated Go source file.
type GeneratedFile struct {
	// Path is the absolute file path.
	Path string

	// Content is the formatted Go source.
	Content []byte
}

// Generate produces the files for pkg: the methods file, and the Verify
// test when the package spec asks for one.
func (cg *CodeGenerator) Generate(pkg *PackageInfo) ([]GeneratedFile, error) {
	ctx := cg.newContext(pkg)

	var files []GeneratedFile
	if len(ctx.Types) > 0 {
		f, err := cg.render(filepath.Join(pkg.Dir, pkg.Spec.Output), methodsTemplate, ctx)
		if err != nil {
			return nil, fmt.Errorf("generating %s: %w", pkg.Spec.Output, err)
		}
		files = append(files, f)
	}

	if pkg.Spec.Tests {
		f, err := cg.render(filepath.Join(pkg.Dir, config.TestOutputFile), testTemplate, ctx)
		if err != nil {
			return nil, fmt.Errorf("generating %s: %w", config.TestOutputFile, err)
		}
		files = append(files, f)
	}
	return files, nil
}

type fileContext struct {
	Package string
	Runtime string
	Imports []importSpec
	// Types are the types to generate methods for.
	Types []typeContext
	// Verified are all participating types.
	Verified []string
}

type importSpec struct {
	Alias string
	Path  string
}

type typeContext struct {
	Name      string
	HasHeader bool
	Supers    []superContext
}

type superContext struct {
	Field   string
	Type    string
	Pointer bool
}

func (cg *CodeGenerator) newContext(pkg *PackageInfo) *fileContext {
	ctx := &fileContext{Package: pkg.Name, Runtime: cg.runtimePath}

	aliases := make(map[string]string) // path -> alias
	taken := map[string]bool{
		config.RuntimePackageAlias: true,
		"unsafe":                   true,
		"testing":                  true,
		pkg.Name:                   true,
	}
	alias := func(s *SuperInfo) string {
		if s.PkgPath == pkg.PkgPath {
			return ""
		}
		if a, ok := aliases[s.PkgPath]; ok {
			return a
		}
		a := s.PkgName
		for i := 2; taken[a]; i++ {
			a = s.PkgName + strconv.Itoa(i)
		}
		taken[a] = true
		aliases[s.PkgPath] = a
		return a
	}

	for _, t := range pkg.Types {
		ctx.Verified = append(ctx.Verified, t.Name)
		if t.Manual {
			continue
		}
		tc := typeContext{Name: t.Name, HasHeader: t.HasHeader}
		for _, s := range t.Supers {
			typ := s.Name
			if a := alias(s); a != "" {
				typ = a + "." + s.Name
			}
			tc.Supers = append(tc.Supers, superContext{Field: s.Field, Type: typ, Pointer: s.Pointer})
		}
		ctx.Types = append(ctx.Types, tc)
	}

	for path, a := range aliases {
		ctx.Imports = append(ctx.Imports, importSpec{Alias: a, Path: path})
	}
	sort.Slice(ctx.Imports, func(i, j int) bool {
		return ctx.Imports[i].Path < ctx.Imports[j].Path
	})
	return ctx
}

func (cg *CodeGenerator) render(path string, tmpl *template.Template, ctx *fileContext) (GeneratedFile, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return GeneratedFile{}, fmt.Errorf("executing template: %w", err)
	}

	src, err := imports.Process(path, buf.Bytes(), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: false,
	})
	if err != nil {
		return GeneratedFile{}, fmt.Errorf("formatting: %w\n%s", err, buf.String())
	}
	return GeneratedFile{Path: path, Content: src}, nil
}

var methodsTemplate = template.Must(template.New("methods").Parse(`// Code generated by dyncastgen. DO NOT EDIT.

package {{.Package}}

import (
	"unsafe"

	dyncast "{{.Runtime}}"
{{- range .Imports}}
	{{.Alias}} "{{.Path}}"
{{- end}}
)
{{range .Types}}{{$t := .}}
func ({{.Name}}) Bases() []dyncast.Base {
	return []dyncast.Base{
{{- if .HasHeader}}
		dyncast.HeaderAt(unsafe.Offsetof({{$t.Name}}{}.Header)),
{{- end}}
{{- range .Supers}}
		dyncast.{{if .Pointer}}Pointer{{else}}Embedded{{end}}[{{.Type}}](unsafe.Offsetof({{$t.Name}}{}.{{.Field}})),
{{- end}}
	}
}

func (x *{{.Name}}) DynamicType() dyncast.Tag { return dyncast.TagOf(x) }
{{end}}`))

var testTemplate = template.Must(template.New("tests").Parse(`// Code generated by dyncastgen. DO NOT EDIT.

package {{.Package}}

import (
	"testing"

	dyncast "{{.Runtime}}"
)

func TestDyncastContracts(t *testing.T) {
	tests := []struct {
		name   string
		verify func() error
	}{
{{- range .Verified}}
		{"{{.}}", dyncast.Verify[{{.}}]},
{{- end}}
	}

	for _, tt := range tests {
		if err := tt.verify(); err != nil {
			t.Errorf("%s: %v", tt.name, err)
		}
	}
}
`))
