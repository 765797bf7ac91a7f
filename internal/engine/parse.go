package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/specmacro/internal/config"
	"github.com/leapstack-labs/specmacro/internal/macro"
	"github.com/leapstack-labs/specmacro/internal/spec"
	"github.com/leapstack-labs/specmacro/internal/state"
)

// ParseOptions controls how spec files are read.
type ParseOptions struct {
	Strip spec.StripMode

	// Archs re-parses every file once per listed architecture. Empty means
	// a single pass for the configured target.
	Archs []string
}

// ParseResult is the outcome of reading one spec file for one
// architecture.
type ParseResult struct {
	File string
	Arch string

	// Lines are the logical lines in order. Lines from inactive branches
	// are empty.
	Lines []string

	// Parsed is the reader's parsed log.
	Parsed string

	// Errors counts undefined macros reported as errors.
	Errors int

	// Macros is the context the file was parsed with.
	Macros *macro.Context
}

// UndefinedMacrosError reports a spec file that referenced undefined
// macros where they count as errors.
type UndefinedMacrosError struct {
	File  string
	Count int
}

func (e *UndefinedMacrosError) Error() string {
	return fmt.Sprintf("%s: %d undefined macro errors", e.File, e.Count)
}

// ParseSpecs reads every file concurrently. Each file gets its own copy of
// the global context so definitions made by one spec never leak into
// another. Results are returned in the order of paths.
func (e *Engine) ParseSpecs(ctx context.Context, paths []string, opts ParseOptions) ([]*ParseResult, error) {
	var results []*ParseResult

	err := e.record("parse", e.global, func() (state.RunStats, error) {
		perFile := make([][]*ParseResult, len(paths))

		g, gctx := errgroup.WithContext(ctx)
		for i, path := range paths {
			g.Go(func() error {
				res, err := e.parseArchs(gctx, e.global.Clone(), path, opts)
				perFile[i] = res
				return err
			})
		}
		err := g.Wait()

		var stats state.RunStats
		for _, res := range perFile {
			for _, r := range res {
				results = append(results, r)
				stats.Lines += len(r.Lines)
				stats.Errors += r.Errors
			}
		}
		if err != nil {
			return stats, err
		}
		for _, r := range results {
			if r.Errors > 0 && !e.force {
				return stats, &UndefinedMacrosError{File: r.File, Count: r.Errors}
			}
		}
		return stats, nil
	})
	return results, err
}

// parseArchs reads path once, or once per architecture in opts.Archs.
func (e *Engine) parseArchs(ctx context.Context, c *macro.Context, path string, opts ParseOptions) ([]*ParseResult, error) {
	if len(opts.Archs) == 0 {
		res, err := e.parseFile(ctx, c, path, opts.Strip)
		if res != nil {
			res.Arch = e.project.TargetCPU
		}
		return []*ParseResult{res}, err
	}

	var results []*ParseResult
	err := spec.ForEachTargetArch(c, opts.Archs, config.KnownArch, func(arch string) error {
		e.logger.Debug("parsing for architecture", slog.String("file", path), slog.String("arch", arch))
		res, err := e.parseFile(ctx, c.Clone(), path, opts.Strip)
		if res != nil {
			res.Arch = arch
			results = append(results, res)
		}
		return err
	})
	return results, err
}

// parseFile reads every logical line of path, tracking the current section
// so the undefined macro policy applies per section.
func (e *Engine) parseFile(ctx context.Context, c *macro.Context, path string, strip spec.StripMode) (*ParseResult, error) {
	r := spec.NewReader(path, e.NewExpander(c), spec.Options{
		Force:  e.force,
		Logger: e.logger,
	})
	defer func() { _ = r.Close() }()

	res := &ParseResult{File: path, Macros: c}
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		line, err := r.ReadLine(strip)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			res.Parsed = r.Parsed()
			res.Errors = r.Errors()
			return res, err
		}
		if part := spec.IsPart(line); part != spec.PartNone {
			r.Part = part
		}
		res.Lines = append(res.Lines, line)
	}

	res.Parsed = r.Parsed()
	res.Errors = r.Errors()
	e.logger.Debug("parsed spec file",
		slog.String("file", path),
		slog.Int("lines", len(res.Lines)),
		slog.Int("errors", res.Errors))
	return res, nil
}
