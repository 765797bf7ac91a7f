package commands

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/leapstack-labs/specmacro/internal/cli/output"
	"github.com/leapstack-labs/specmacro/internal/macro"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// bodyWidth caps the body column of the text table.
const bodyWidth = 60

// MacroInfo is the structured form of one macro table entry.
type MacroInfo struct {
	Name       string `json:"name" yaml:"name"`
	Opts       string `json:"opts,omitempty" yaml:"opts,omitempty"`
	Parametric bool   `json:"parametric" yaml:"parametric"`
	Body       string `json:"body" yaml:"body"`
	Level      int    `json:"level" yaml:"level"`
	Scope      string `json:"scope" yaml:"scope"`
	Used       int    `json:"used" yaml:"used"`
	Shadowed   bool   `json:"shadowed,omitempty" yaml:"shadowed,omitempty"`
}

// DumpOptions holds the dump command flags.
type DumpOptions struct {
	All bool
	Raw bool
}

// NewDumpCommand creates the dump command.
func NewDumpCommand() *cobra.Command {
	opts := &DumpOptions{}

	cmd := &cobra.Command{
		Use:   "dump [pattern]",
		Short: "Show the macro table",
		Long: `Show the macro table after macro files and --define options are loaded.

An optional glob pattern selects macros by name. By default only the
visible definition of each name is listed; --all adds the definitions
it shadows. --raw prints the table in the classic %dump layout.`,
		Example: `  # Every visible macro
  specmacro dump

  # Only macros whose name starts with _target
  specmacro dump '_target*'

  # Classic layout, shadowed definitions included
  specmacro dump --raw`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := ""
			if len(args) == 1 {
				pattern = args[0]
			}
			return runDump(cmd, pattern, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.All, "all", "a", false, "Include shadowed definitions")
	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "Print in the %dump layout")

	return cmd
}

func runDump(cmd *cobra.Command, pattern string, opts *DumpOptions) error {
	if pattern != "" {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if opts.Raw {
		return cmdCtx.Engine.Context().Dump(cmdCtx.Renderer.Writer())
	}
	return renderDump(cmdCtx.Renderer, collectMacros(cmdCtx.Engine.Context(), pattern, opts.All))
}

// collectMacros lists the entries of c whose name matches pattern.
func collectMacros(c *macro.Context, pattern string, all bool) []MacroInfo {
	var macros []MacroInfo
	prev := ""
	c.ForEach(func(e *macro.Entry) {
		shadowed := e.Name == prev
		prev = e.Name
		if shadowed && !all {
			return
		}
		if pattern != "" {
			if ok, _ := filepath.Match(pattern, e.Name); !ok {
				return
			}
		}
		macros = append(macros, MacroInfo{
			Name:       e.Name,
			Opts:       e.Opts,
			Parametric: e.Parametric,
			Body:       e.Body,
			Level:      e.Level,
			Scope:      macro.LevelName(e.Level),
			Used:       e.Used,
			Shadowed:   shadowed,
		})
	})
	return macros
}

func renderDump(r *output.Renderer, macros []MacroInfo) error {
	if ok, err := r.Structured(macros); ok {
		return err
	}

	if len(macros) == 0 {
		r.Println("(no macros)")
		return nil
	}

	titleCaser := cases.Title(language.English)
	styles := r.Styles()

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Name", "Opts", "Scope", "Used", "Body"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Body", WidthMax: bodyWidth, WidthMaxEnforcer: text.WrapSoft},
	})

	markdown := r.EffectiveMode() == output.ModeMarkdown
	for _, m := range macros {
		name := m.Name
		if m.Shadowed {
			name = "  " + name
		}
		opts := ""
		if m.Parametric {
			opts = "(" + m.Opts + ")"
		}
		scope := titleCaser.String(m.Scope) + " (" + strconv.Itoa(m.Level) + ")"
		if !markdown {
			name = styles.MacroName.Render(name)
		}
		t.AppendRow(table.Row{name, opts, scope, m.Used, m.Body})
	}

	if markdown {
		r.Println(t.RenderMarkdown())
	} else {
		r.Println(t.Render())
	}
	r.Printf("(%d macros)\n", len(macros))
	return nil
}
