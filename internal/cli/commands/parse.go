package commands

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/leapstack-labs/specmacro/internal/cli/output"
	"github.com/leapstack-labs/specmacro/internal/engine"
	"github.com/leapstack-labs/specmacro/internal/spec"
	"github.com/spf13/cobra"
)

// watchDebounce collapses bursts of file events into one re-parse.
const watchDebounce = 150 * time.Millisecond

// ParseOutput is the structured form of one parsed spec file.
type ParseOutput struct {
	File   string   `json:"file" yaml:"file"`
	Arch   string   `json:"arch" yaml:"arch"`
	Lines  []string `json:"lines" yaml:"lines"`
	Errors int      `json:"errors" yaml:"errors"`
}

// ParseOptions holds the parse command flags.
type ParseOptions struct {
	StripComments bool
	StripSpace    bool
	Parsed        bool
	Watch         bool
}

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	opts := &ParseOptions{}

	cmd := &cobra.Command{
		Use:   "parse <specfile>...",
		Short: "Read spec files as expanded logical lines",
		Long: `Read spec files through the logical line reader.

Physical lines are joined while a %{ or %( is open or a line ends in a
backslash, then expanded. Conditionals (%if, %ifarch, %ifnarch, %ifos,
%ifnos, %else, %endif) and %include are interpreted; lines in inactive
branches print as empty lines so line counts stay aligned.

Several files are parsed concurrently, each with its own copy of the
macro context. With --arch every file is parsed once per architecture.`,
		Example: `  # Print the logical lines of a spec
  specmacro parse package.spec

  # Drop comments and trailing whitespace
  specmacro parse --strip-comments --strip-space package.spec

  # Parse for two architectures
  specmacro parse --arch x86_64,aarch64 package.spec

  # Re-parse whenever the file changes
  specmacro parse --watch package.spec`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.StripComments, "strip-comments", false, "Empty lines whose first non-blank character is #")
	cmd.Flags().BoolVar(&opts.StripSpace, "strip-space", false, "Remove trailing whitespace from each line")
	cmd.Flags().BoolVar(&opts.Parsed, "parsed", false, "Print the parsed log instead of the logical lines")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-parse when a spec file changes")
	cmd.Flags().StringSlice("arch", nil, "Architectures to parse for (default: the target cpu)")

	return cmd
}

func (o *ParseOptions) stripMode() spec.StripMode {
	mode := spec.StripNone
	if o.StripComments {
		mode |= spec.StripComments
	}
	if o.StripSpace {
		mode |= spec.StripTrailingSpace
	}
	return mode
}

func runParse(cmd *cobra.Command, args []string, opts *ParseOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	parseOpts := engine.ParseOptions{
		Strip: opts.stripMode(),
		Archs: cmdCtx.Cfg.Archs,
	}

	if opts.Watch {
		return watchSpecs(cmd.Context(), cmdCtx, args, parseOpts, opts.Parsed)
	}

	results, err := cmdCtx.Engine.ParseSpecs(cmd.Context(), args, parseOpts)
	if rerr := renderParse(cmdCtx.Renderer, results, opts.Parsed); rerr != nil {
		return rerr
	}
	return err
}

func renderParse(r *output.Renderer, results []*engine.ParseResult, parsed bool) error {
	structured := make([]ParseOutput, 0, len(results))
	for _, res := range results {
		if res == nil {
			continue
		}
		structured = append(structured, ParseOutput{
			File:   res.File,
			Arch:   res.Arch,
			Lines:  res.Lines,
			Errors: res.Errors,
		})
	}
	if ok, err := r.Structured(structured); ok {
		return err
	}

	markdown := r.EffectiveMode() == output.ModeMarkdown
	for _, res := range results {
		if res == nil {
			continue
		}
		body := res.Parsed
		if !parsed {
			body = strings.Join(res.Lines, "\n")
			if len(res.Lines) > 0 {
				body += "\n"
			}
		}
		title := fmt.Sprintf("%s (%s)", res.File, res.Arch)

		if markdown {
			r.Println(output.FormatHeader(2, title))
			r.Println("")
			r.Println(output.FormatCodeBlock("spec", body))
			r.Println("")
			continue
		}
		if len(results) > 1 {
			r.Println(r.Styles().Header2.Render("==> " + title + " <=="))
		}
		r.Printf("%s", body)
	}
	return nil
}

// watchSpecs parses paths, then parses them again after every change until
// ctx is done. Parse errors are reported and watching continues.
func watchSpecs(ctx context.Context, cmdCtx *CommandContext, paths []string, opts engine.ParseOptions, parsed bool) error {
	r := cmdCtx.Renderer

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Directories are watched so editors that replace files are seen.
	targets := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		targets[abs] = true
		dir := filepath.Dir(abs)
		if !dirs[dir] {
			if err := watcher.Add(dir); err != nil {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
			dirs[dir] = true
		}
	}

	run := func() {
		results, err := cmdCtx.Engine.ParseSpecs(ctx, paths, opts)
		if rerr := renderParse(r, results, parsed); rerr != nil {
			r.Error(rerr.Error())
		}
		if err != nil && ctx.Err() == nil {
			r.Error(err.Error())
		}
	}
	run()

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !targets[filepath.Clean(ev.Name)] || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			cmdCtx.Logger.Debug("spec file changed", slog.String("file", ev.Name), slog.String("op", ev.Op.String()))
			fire = time.After(watchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cmdCtx.Logger.Warn("watch error", slog.Any("error", err))

		case <-fire:
			fire = nil
			r.Muted(fmt.Sprintf("--- re-parsing at %s", time.Now().Format(time.TimeOnly)))
			run()
		}
	}
}
