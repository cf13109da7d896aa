package gen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/funvibe/dyncast/internal/config"
)

// Generator runs the pipeline for one config file.
type Generator struct {
	configPath string
	configData []byte
	cfg        *Config

	verbose bool
	force   bool
	dryRun  bool
	log     io.Writer
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithVerbose enables progress logging.
func WithVerbose(v bool) GeneratorOption {
	return func(g *Generator) { g.verbose = v }
}

// WithForce regenerates packages the ledger reports as up to date.
func WithForce(v bool) GeneratorOption {
	return func(g *Generator) { g.force = v }
}

// WithDryRun computes everything but writes no files and records nothing.
func WithDryRun(v bool) GeneratorOption {
	return func(g *Generator) { g.dryRun = v }
}

// WithLog sets the destination of verbose output. Defaults to stderr.
func WithLog(w io.Writer) GeneratorOption {
	return func(g *Generator) { g.log = w }
}

// Report summarizes a run.
type Report struct {
	// RunID is the ledger run id, empty when the ledger is off.
	RunID string

	// Order lists every type with supertypes first.
	Order []string

	// Written are the files written (or, for a dry run or check, the
	// files that would be).
	Written []string

	// Skipped are packages the ledger reported as up to date.
	Skipped []string

	// Stale are generated files whose content differs from disk.
	Stale []string

	// Warnings are non-fatal problems.
	Warnings []string

	// Types is the number of participating types.
	Types int
}

// NewGenerator loads the config at configPath.
func NewGenerator(configPath string, opts ...GeneratorOption) (*Generator, error) {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", abs, err)
	}
	cfg, err := ParseConfig(data, abs)
	if err != nil {
		return nil, err
	}

	g := &Generator{
		configPath: abs,
		configData: data,
		cfg:        cfg,
		log:        os.Stderr,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// ProjectDir returns the directory containing the config file.
func (g *Generator) ProjectDir() string {
	return filepath.Dir(g.configPath)
}

func (g *Generator) logf(format string, args ...any) {
	if g.verbose {
		fmt.Fprintf(g.log, "[dyncastgen] "+format+"\n", args...)
	}
}

// analyze inspects the packages and checks the hierarchy.
func (g *Generator) analyze(ctx context.Context) (*InspectResult, *Report, error) {
	g.logf("loading packages from %s", g.configPath)
	result, err := NewInspector(g.ProjectDir()).Inspect(ctx, g.cfg)
	if err != nil {
		return nil, nil, err
	}

	report := &Report{Warnings: result.Warnings}
	for _, pkg := range result.Packages {
		report.Types += len(pkg.Types)
		g.logf("%s: %d types", pkg.PkgPath, len(pkg.Types))
	}

	h := NewHierarchy(result)
	order, err := h.Order()
	if err != nil {
		return nil, nil, err
	}
	report.Order = order
	for _, d := range h.Diamonds() {
		report.Warnings = append(report.Warnings, d.String())
	}
	return result, report, nil
}

// Generate writes the generated files of every package that changed
// since its last generation.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	result, report, err := g.analyze(ctx)
	if err != nil {
		return nil, err
	}

	var ledger *Ledger
	if g.cfg.LedgerEnabled() && !g.dryRun {
		ledger, err = OpenLedger(ctx, g.ProjectDir())
		if err != nil {
			return nil, err
		}
		defer ledger.Close()

		report.RunID, err = ledger.BeginRun(ctx, g.configPath)
		if err != nil {
			return nil, err
		}
		g.logf("run %s", report.RunID)
	}

	cg := NewCodeGenerator(config.RuntimePackage)
	for _, pkg := range result.Packages {
		fp, err := Fingerprint(g.configData, pkg)
		if err != nil {
			return nil, err
		}

		if ledger != nil && !g.force {
			fresh, err := ledger.Fresh(ctx, pkg.PkgPath, fp)
			if err != nil {
				return nil, err
			}
			if fresh && outputsExist(pkg) {
				g.logf("%s: up to date", pkg.PkgPath)
				report.Skipped = append(report.Skipped, pkg.PkgPath)
				continue
			}
		}

		files, err := cg.Generate(pkg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", pkg.PkgPath, err)
		}
		for _, f := range files {
			report.Written = append(report.Written, f.Path)
			if g.dryRun {
				g.logf("would write %s", f.Path)
				continue
			}
			if err := os.WriteFile(f.Path, f.Content, 0o644); err != nil {
				return nil, fmt.Errorf("writing %s: %w", f.Path, err)
			}
			g.logf("wrote %s", f.Path)
		}

		if ledger != nil {
			err := ledger.Record(ctx, report.RunID, LedgerEntry{
				PkgPath:     pkg.PkgPath,
				Fingerprint: fp,
				Output:      pkg.Spec.Output,
				Types:       len(pkg.Types),
			})
			if err != nil {
				return nil, err
			}
		}
	}
	return report, nil
}

// Check analyzes the packages and reports generated files that are
// missing or out of date. It writes nothing.
func (g *Generator) Check(ctx context.Context) (*Report, error) {
	result, report, err := g.analyze(ctx)
	if err != nil {
		return nil, err
	}

	cg := NewCodeGenerator(config.RuntimePackage)
	for _, pkg := range result.Packages {
		files, err := cg.Generate(pkg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", pkg.PkgPath, err)
		}
		for _, f := range files {
			report.Written = append(report.Written, f.Path)
			onDisk, err := os.ReadFile(f.Path)
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("reading %s: %w", f.Path, err)
			}
			if !bytes.Equal(onDisk, f.Content) {
				g.logf("stale %s", f.Path)
				report.Stale = append(report.Stale, f.Path)
			}
		}
	}
	return report, nil
}

func outputsExist(pkg *PackageInfo) bool {
	names := []string{pkg.Spec.Output}
	if pkg.Spec.Tests {
		names = append(names, config.TestOutputFile)
	}
	for _, name := range names {
		if _, err := os.Stat(filepath.Join(pkg.Dir, name)); err != nil {
			return false
		}
	}
	return true
}
