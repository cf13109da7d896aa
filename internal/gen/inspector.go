package gen

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/funvibe/dyncast/internal/config"
)

// ErrNoTypes is returned for a package with no participating types.
var ErrNoTypes = errors.New("no participating types")

// InspectResult holds the participating types of every configured package.
type InspectResult struct {
	// Packages is ordered by import path.
	Packages []*PackageInfo

	// Warnings are problems that do not stop generation.
	Warnings []string
}

// PackageInfo describes one loaded package.
type PackageInfo struct {
	// Spec is the config entry that selected the package.
	Spec PackageSpec

	// Name is the package name.
	Name string

	// PkgPath is the import path.
	PkgPath string

	// Dir is the directory the generated files are written to.
	Dir string

	// Files are the package's Go sources minus generated output.
	Files []string

	// Types are the participating types in source order.
	Types []*TypeInfo
}

// TypeInfo describes a participating struct type.
type TypeInfo struct {
	// Name is the Go type name.
	Name string

	// PkgPath is the import path of the declaring package.
	PkgPath string

	// Pos is the declaration position, for diagnostics.
	Pos token.Position

	// HasHeader is true if the struct embeds dyncast.Header.
	HasHeader bool

	// Manual is true if Bases and DynamicType are written by hand.
	// Nothing is generated for it, but it is still verified.
	Manual bool

	// Supers are the embedded supertypes in field order.
	Supers []*SuperInfo
}

// Key identifies the type across packages.
func (t *TypeInfo) Key() string {
	return t.PkgPath + "." + t.Name
}

// SuperInfo describes one embedded supertype.
type SuperInfo struct {
	// Field is the embedded field name, used with unsafe.Offsetof.
	Field string

	// Name is the supertype's name.
	Name string

	// PkgPath is the supertype's import path.
	PkgPath string

	// PkgName is the supertype's package name.
	PkgName string

	// Pointer is true if the field embeds *T.
	Pointer bool
}

// Key identifies the supertype across packages.
func (s *SuperInfo) Key() string {
	return s.PkgPath + "." + s.Name
}

// Inspector loads packages and extracts their participating types.
type Inspector struct {
	// dir is the directory package patterns are resolved against.
	dir string
}

// NewInspector creates an Inspector resolving patterns against dir.
func NewInspector(dir string) *Inspector {
	return &Inspector{dir: dir}
}

// Inspect loads every package named by cfg and extracts participating
// types and their supertypes.
func (ins *Inspector) Inspect(ctx context.Context, cfg *Config) (*InspectResult, error) {
	type selected struct {
		spec PackageSpec
		pkg  *packages.Package
	}

	result := &InspectResult{}

	// Step 1: load every pattern
	var all []selected
	seen := make(map[string]string) // import path -> pattern
	for _, spec := range cfg.Packages {
		pkgs, warnings, err := ins.loadPackages(ctx, spec.Path)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", spec.Path, err)
		}
		result.Warnings = append(result.Warnings, warnings...)
		for _, pkg := range pkgs {
			if prev, ok := seen[pkg.PkgPath]; ok {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("%s: matched by %s and %s; using %s", pkg.PkgPath, prev, spec.Path, prev))
				continue
			}
			seen[pkg.PkgPath] = spec.Path
			all = append(all, selected{spec: spec, pkg: pkg})
		}
	}

	// Step 2: find participants, so supertypes in other configured
	// packages are recognized before their code exists. Each pattern is
	// loaded separately, so types are matched by key, not by object.
	participants := make(map[string]bool)
	for _, s := range all {
		for _, obj := range ins.participants(s.spec, s.pkg) {
			participants[objKey(obj)] = true
		}
	}

	// Step 3: describe each participant
	for _, s := range all {
		info, warnings, err := ins.describePackage(s.spec, s.pkg, participants)
		if err != nil {
			return nil, err
		}
		result.Packages = append(result.Packages, info)
		result.Warnings = append(result.Warnings, warnings...)
	}

	sort.Slice(result.Packages, func(i, j int) bool {
		return result.Packages[i].PkgPath < result.Packages[j].PkgPath
	})
	return result, nil
}

func (ins *Inspector) loadPackages(ctx context.Context, pattern string) ([]*packages.Package, []string, error) {
	cfg := &packages.Config{
		Context: ctx,
		Mode: packages.NeedName |
			packages.NeedFiles |
			packages.NeedTypes |
			packages.NeedTypesInfo |
			packages.NeedSyntax |
			packages.NeedImports |
			packages.NeedDeps,
		Dir: ins.dir,
		Env: append(os.Environ(), "GOWORK=off"),
	}

	pkgs, err := packages.Load(cfg, pattern)
	if err != nil {
		return nil, nil, err
	}

	// Type errors are expected while generated code is stale; the type
	// information is still complete enough for the struct layouts.
	var errs, warnings []string
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			msg := fmt.Sprintf("%s: %s", pkg.PkgPath, e.Msg)
			if e.Kind == packages.TypeError {
				warnings = append(warnings, msg)
				continue
			}
			errs = append(errs, msg)
		}
	}
	if len(errs) > 0 {
		return nil, nil, fmt.Errorf("package errors:\n  %s", strings.Join(errs, "\n  "))
	}
	if len(pkgs) == 0 {
		return nil, nil, errors.New("pattern matched no packages")
	}
	return pkgs, warnings, nil
}

// participants returns the struct types of pkg selected by spec.
func (ins *Inspector) participants(spec PackageSpec, pkg *packages.Package) []*types.TypeName {
	marked := make(map[string]bool)
	for _, file := range pkg.Syntax {
		for _, decl := range file.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok || gd.Tok != token.TYPE {
				continue
			}
			for _, s := range gd.Specs {
				ts := s.(*ast.TypeSpec)
				doc := ts.Doc
				if doc == nil && len(gd.Specs) == 1 {
					doc = gd.Doc
				}
				if hasDirective(doc) {
					marked[ts.Name.Name] = true
				}
			}
		}
	}

	var out []*types.TypeName
	scope := pkg.Types.Scope()
	for _, name := range scope.Names() {
		obj, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || obj.IsAlias() {
			continue
		}
		if !marked[name] && !spec.IsListed(name) {
			continue
		}
		if spec.IsExcluded(name) {
			continue
		}
		out = append(out, obj)
	}
	return out
}

func hasDirective(doc *ast.CommentGroup) bool {
	if doc == nil {
		return false
	}
	for _, c := range doc.List {
		if c.Text == config.Directive || strings.HasPrefix(c.Text, config.Directive+" ") {
			return true
		}
	}
	return false
}

func (ins *Inspector) describePackage(spec PackageSpec, pkg *packages.Package, participants map[string]bool) (*PackageInfo, []string, error) {
	info := &PackageInfo{
		Spec:    spec,
		Name:    pkg.Name,
		PkgPath: pkg.PkgPath,
	}
	for _, f := range pkg.GoFiles {
		if info.Dir == "" {
			info.Dir = filepath.Dir(f)
		}
		if filepath.Base(f) == spec.Output {
			continue
		}
		info.Files = append(info.Files, f)
	}
	sort.Strings(info.Files)

	for _, name := range spec.Types {
		obj, ok := pkg.Types.Scope().Lookup(name).(*types.TypeName)
		if !ok || !participants[objKey(obj)] {
			return nil, nil, fmt.Errorf("%s: type %s listed in config not found", pkg.PkgPath, name)
		}
	}

	var warnings []string
	for _, obj := range ins.participants(spec, pkg) {
		t, w, err := ins.describeType(pkg, obj, participants)
		if err != nil {
			return nil, nil, err
		}
		info.Types = append(info.Types, t)
		warnings = append(warnings, w...)
	}
	if len(info.Types) == 0 {
		return nil, nil, fmt.Errorf("%s: %w", pkg.PkgPath, ErrNoTypes)
	}

	sort.SliceStable(info.Types, func(i, j int) bool {
		a, b := info.Types[i].Pos, info.Types[j].Pos
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		return a.Offset < b.Offset
	})
	return info, warnings, nil
}

func (ins *Inspector) describeType(pkg *packages.Package, obj *types.TypeName, participants map[string]bool) (*TypeInfo, []string, error) {
	pos := pkg.Fset.Position(obj.Pos())
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%s: %s: %s", pos, obj.Name(), fmt.Sprintf(format, args...))
	}

	named, ok := obj.Type().(*types.Named)
	if !ok {
		return nil, nil, fail("not a defined type")
	}
	if named.TypeParams().Len() > 0 {
		return nil, nil, fail("generic types cannot participate")
	}
	st, ok := named.Underlying().(*types.Struct)
	if !ok {
		return nil, nil, fail("only struct types can participate")
	}

	t := &TypeInfo{Name: obj.Name(), PkgPath: pkg.PkgPath, Pos: pos}

	bases, dyn := ins.handWritten(pkg, named)
	switch {
	case bases && dyn:
		t.Manual = true
	case bases:
		return nil, nil, fail("declares %s by hand but not %s", config.BasesMethodName, config.DynamicTypeMethod)
	case dyn:
		return nil, nil, fail("declares %s by hand but not %s", config.DynamicTypeMethod, config.BasesMethodName)
	}

	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		if !f.Embedded() {
			continue
		}

		ft, ptr := f.Type(), false
		if p, ok := ft.(*types.Pointer); ok {
			ft, ptr = p.Elem(), true
		}
		fn, ok := ft.(*types.Named)
		if !ok {
			continue
		}
		fobj := fn.Obj()

		if isHeader(fobj) {
			if ptr {
				return nil, nil, fail("embeds *%s.%s; embed it by value", config.RuntimePackageAlias, config.HeaderTypeName)
			}
			if t.HasHeader {
				return nil, nil, fail("embeds %s.%s twice", config.RuntimePackageAlias, config.HeaderTypeName)
			}
			t.HasHeader = true
			continue
		}

		if fobj.Pkg() == nil {
			continue
		}
		if !participants[objKey(fobj)] && !declaresBases(fn) {
			continue
		}
		t.Supers = append(t.Supers, &SuperInfo{
			Field:   f.Name(),
			Name:    fobj.Name(),
			PkgPath: fobj.Pkg().Path(),
			PkgName: fobj.Pkg().Name(),
			Pointer: ptr,
		})
	}

	var warnings []string
	switch {
	case t.HasHeader:
	case len(t.Supers) == 0:
		warnings = append(warnings, fmt.Sprintf("%s: root type %s embeds no %s.%s; its views report their static type",
			pos, t.Name, config.RuntimePackageAlias, config.HeaderTypeName))
	case !embedsByValue(t.Supers):
		warnings = append(warnings, fmt.Sprintf("%s: %s embeds supertypes only by pointer and no %s.%s; its views report their static type",
			pos, t.Name, config.RuntimePackageAlias, config.HeaderTypeName))
	}
	return t, warnings, nil
}

func embedsByValue(supers []*SuperInfo) bool {
	for _, s := range supers {
		if !s.Pointer {
			return true
		}
	}
	return false
}

// handWritten reports which contract methods named declares outside
// the generated file.
func (ins *Inspector) handWritten(pkg *packages.Package, named *types.Named) (bases, dyn bool) {
	for i := 0; i < named.NumMethods(); i++ {
		m := named.Method(i)
		file := filepath.Base(pkg.Fset.Position(m.Pos()).Filename)
		if isGeneratedFile(pkg, file) {
			continue
		}
		switch m.Name() {
		case config.BasesMethodName:
			bases = true
		case config.DynamicTypeMethod:
			dyn = true
		}
	}
	return bases, dyn
}

// isGeneratedFile reports whether file carries the generated-code marker.
func isGeneratedFile(pkg *packages.Package, file string) bool {
	for _, f := range pkg.Syntax {
		if filepath.Base(pkg.Fset.Position(f.Package).Filename) == file {
			return ast.IsGenerated(f)
		}
	}
	return false
}

func objKey(obj *types.TypeName) string {
	return obj.Pkg().Path() + "." + obj.Name()
}

func isHeader(obj *types.TypeName) bool {
	return obj.Pkg() != nil &&
		obj.Pkg().Path() == config.RuntimePackage &&
		obj.Name() == config.HeaderTypeName
}

// declaresBases reports whether t itself declares Bases() []dyncast.Base.
// Promoted methods do not count.
func declaresBases(t *types.Named) bool {
	for i := 0; i < t.NumMethods(); i++ {
		m := t.Method(i)
		if m.Name() != config.BasesMethodName {
			continue
		}
		sig := m.Type().(*types.Signature)
		if sig.Params().Len() != 0 || sig.Results().Len() != 1 {
			return false
		}
		sl, ok := sig.Results().At(0).Type().(*types.Slice)
		if !ok {
			return false
		}
		elem, ok := sl.Elem().(*types.Named)
		return ok && elem.Obj().Pkg() != nil &&
			elem.Obj().Pkg().Path() == config.RuntimePackage &&
			elem.Obj().Name() == config.BaseTypeName
	}
	return false
}
