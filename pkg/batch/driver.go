// Package batch drives a redaction run over a set of input files: it
// enumerates candidates, builds and executes a plan per file, and writes
// the output tree, CSV manifest, and (on any incomprehensible plan) a
// quarantine tree with a YAML failure manifest, per spec.md §4.10.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/clinical-imaging/slideredact/pkg/logging"
	"github.com/clinical-imaging/slideredact/pkg/plan"
	"github.com/clinical-imaging/slideredact/pkg/rule"
	"github.com/clinical-imaging/slideredact/pkg/uidmap"
)

// RunConfig holds one batch invocation's resolved parameters. Rules is
// already the flattened table returned by rule.Merge; ProfileName and
// OverrideRulesPath are kept only so a failure manifest's resume command
// can reconstruct the original flags.
type RunConfig struct {
	InputPaths        []string
	OutputDir         string
	Rules             rule.Set
	ProfileName       string
	OverrideRulesPath string
	Recursive         bool
	Rename            bool
	Overwrite         bool
	Index             int
}

// Summary reports the outcome of one batch run.
type Summary struct {
	OutputDir       string
	ManifestPath    string
	Succeeded       int
	Failed          int
	FailureManifest string // empty if no file failed comprehensiveness
}

// Driver runs a batch sequentially, per §5: single-threaded, no locks,
// with the UID map as the only state shared across files.
type Driver struct {
	Logger   *slog.Logger
	UIDMap   *uidmap.Map
	progress chan Progress
}

// NewDriver constructs a Driver with its own UID map and progress
// channel, ready for one or more Run calls.
func NewDriver(logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		Logger:   logger,
		UIDMap:   uidmap.New(),
		progress: make(chan Progress, 1),
	}
}

// TryPop returns the most recently pushed progress record without
// blocking, matching §5's single-producer/single-consumer contract: a
// consumer (the GUI) polls rather than waiting on the channel.
func (d *Driver) TryPop() (Progress, bool) {
	select {
	case p := <-d.progress:
		return p, true
	default:
		return Progress{}, false
	}
}

func (d *Driver) pushProgress(p Progress) {
	select {
	case d.progress <- p:
	default:
		select {
		case <-d.progress:
		default:
		}
		d.progress <- p
	}
}

// Run executes cfg to completion. A *plan.ConfigError, a failure to
// create the output directory, an input directory that cannot be listed,
// or a manifest file that cannot be created aborts the whole batch; every
// other problem is recorded as a manifest row and the batch proceeds.
func (d *Driver) Run(ctx context.Context, cfg RunConfig) (Summary, error) {
	return d.run(ctx, cfg, time.Now())
}

func (d *Driver) run(ctx context.Context, cfg RunConfig, now time.Time) (Summary, error) {
	candidates, err := enumerate(d.Logger, cfg.InputPaths, cfg.Recursive)
	if err != nil {
		return Summary{}, err
	}

	ts := now.Format("2006-01-02_15-04-05")
	outDir := filepath.Join(cfg.OutputDir, "Redacted_"+ts)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("creating output directory %s: %w", outDir, err)
	}

	manifestPath := filepath.Join(cfg.OutputDir, "Redacted_"+ts+"_manifest.csv")
	mw, err := newManifestWriter(manifestPath)
	if err != nil {
		return Summary{}, err
	}
	defer mw.Close()

	failDir := filepath.Join(cfg.OutputDir, "Failed_"+ts)
	var failures []failureEntry

	total := len(candidates)
	padWidth := len(strconv.Itoa(total))
	index := cfg.Index
	succeeded := 0

	for i, c := range candidates {
		ctx := logging.AppendCtx(ctx, slog.String("input_path", c.path))
		d.pushProgress(Progress{Index: i, Total: total, OutputDir: outDir})

		data, err := os.ReadFile(c.path)
		if err != nil {
			d.Logger.WarnContext(ctx, "skipping unreadable file", "error", err)
			mw.add(manifestRow{InputPath: c.path, Detail: err.Error()})
			continue
		}

		p, _, err := plan.Build(c.path, data, cfg.Rules, d.UIDMap)
		var cfgErr *plan.ConfigError
		if errors.As(err, &cfgErr) {
			return Summary{}, cfgErr
		}
		if err != nil {
			d.Logger.WarnContext(ctx, "skipping file: could not build plan", "error", err)
			mw.add(manifestRow{InputPath: c.path, Detail: err.Error()})
			continue
		}

		if !p.Comprehensive() {
			if err := d.quarantineFailure(failDir, c); err != nil {
				d.Logger.ErrorContext(ctx, "failed to quarantine incomprehensible input", "error", err)
			}
			failures = append(failures, failureEntry{
				basename:    filepath.Base(c.path),
				missingTags: missingTagsOf(p),
			})
			mw.add(manifestRow{InputPath: c.path, Detail: "incomprehensible plan: missing rules for some elements"})
			continue
		}

		out, ok, err := plan.Execute(p)
		if err != nil {
			d.Logger.WarnContext(ctx, "skipping file: execution failed", "error", err)
			mw.add(manifestRow{InputPath: c.path, Detail: err.Error()})
			continue
		}
		if !ok {
			mw.add(manifestRow{InputPath: c.path, Detail: "own associated-image rule is delete; no output written"})
			continue
		}

		outPath := outputPath(outDir, c, cfg, index, padWidth)
		if _, err := os.Stat(outPath); err == nil && !cfg.Overwrite {
			d.Logger.InfoContext(ctx, "skipping existing output", "path", outPath)
			mw.add(manifestRow{InputPath: c.path, Detail: "output exists and overwrite is disabled"})
			continue
		}
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			d.Logger.WarnContext(ctx, "skipping file: could not create output subdirectory", "error", err)
			mw.add(manifestRow{InputPath: c.path, Detail: err.Error()})
			continue
		}
		if err := os.WriteFile(outPath, out, 0o644); err != nil {
			d.Logger.WarnContext(ctx, "skipping file: could not write output", "error", err)
			mw.add(manifestRow{InputPath: c.path, Detail: err.Error()})
			continue
		}

		mw.add(manifestRow{InputPath: c.path, OutputPath: outPath})
		succeeded++
		index++
	}

	d.pushProgress(Progress{Index: total, Total: total, OutputDir: outDir})

	summary := Summary{
		OutputDir:    outDir,
		ManifestPath: manifestPath,
		Succeeded:    succeeded,
		Failed:       len(failures),
	}

	if len(failures) > 0 {
		fmPath := filepath.Join(failDir, "failure_manifest.yaml")
		cmd := resumeCommand(cfg, failDir, index)
		if err := writeFailureManifest(fmPath, failures, cmd); err != nil {
			d.Logger.Error("failed to write failure manifest", "error", err)
		} else {
			summary.FailureManifest = fmPath
		}
	}

	return summary, nil
}

func (d *Driver) quarantineFailure(failDir string, c candidate) error {
	return quarantine(filepath.Join(failDir, c.relPath), c.path)
}

// outputPath computes where a successfully redacted file lands: under
// outDir directly, or (recursive mode) under outDir at the candidate's
// original relative directory; renamed to <base>_<padded index><ext> if
// cfg.Rename, otherwise left at its original basename.
func outputPath(outDir string, c candidate, cfg RunConfig, index, padWidth int) string {
	dir := outDir
	if cfg.Recursive {
		dir = filepath.Join(outDir, filepath.Dir(c.relPath))
	}

	name := filepath.Base(c.path)
	if cfg.Rename {
		ext := filepath.Ext(name)
		base := cfg.Rules.OutputFileNameBase
		if base == "" {
			base = "redacted"
		}
		name = fmt.Sprintf("%s_%0*d%s", base, padWidth, index, ext)
	}
	return filepath.Join(dir, name)
}

// missingTagsOf flattens a plan's unmatched-element lists regardless of
// its container family.
func missingTagsOf(p plan.Plan) []string {
	switch v := p.(type) {
	case *plan.TIFFPlan:
		out := append([]string{}, v.NoMatchTags...)
		return append(out, v.NoMatchDescriptionKeys...)
	case *plan.DICOMPlan:
		return append([]string{}, v.NoMatchTags...)
	default:
		return nil
	}
}

// resumeCommand builds the invocation recorded in a failure manifest: it
// reruns against the quarantine tree, continuing the index sequence and
// preserving override, overwrite, profile, recursive, and rename flags,
// per §4.10 step 4.
func resumeCommand(cfg RunConfig, failDir string, nextIndex int) string {
	parts := []string{"slideredactctl", "run", failDir, "--output-dir", cfg.OutputDir, "--index", strconv.Itoa(nextIndex)}
	if cfg.OverrideRulesPath != "" {
		parts = append(parts, "--override-rules", cfg.OverrideRulesPath)
	}
	if cfg.ProfileName != "" {
		parts = append(parts, "--profile", cfg.ProfileName)
	}
	if cfg.Recursive {
		parts = append(parts, "--recursive")
	}
	if cfg.Rename {
		parts = append(parts, "--rename")
	} else {
		parts = append(parts, "--skip-rename")
	}
	if cfg.Overwrite {
		parts = append(parts, "--overwrite-existing-output")
	}
	return strings.Join(parts, " ")
}
