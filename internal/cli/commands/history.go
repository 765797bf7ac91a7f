package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/specmacro/internal/cli/output"
	"github.com/leapstack-labs/specmacro/internal/macro"
	"github.com/leapstack-labs/specmacro/internal/state"
	"github.com/spf13/cobra"
)

// RunInfo is the structured form of a recorded run.
type RunInfo struct {
	ID          string     `json:"id" yaml:"id"`
	Command     string     `json:"command" yaml:"command"`
	Target      string     `json:"target" yaml:"target"`
	Status      string     `json:"status" yaml:"status"`
	StartedAt   time.Time  `json:"started_at" yaml:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Lines       int        `json:"lines" yaml:"lines"`
	Errors      int        `json:"errors" yaml:"errors"`
	Error       string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// HistoryOptions holds the history command flags.
type HistoryOptions struct {
	Limit int
	Show  string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `List the eval, parse and shell runs recorded in the state database.

Runs are recorded when --record is set (or record: true in the config
file). --show prints the macro table a run ended with.`,
		Example: `  # Last ten runs
  specmacro history --limit 10

  # Macro table at the end of a run
  specmacro history --show 3f2c9a10-...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")
	cmd.Flags().StringVar(&opts.Show, "show", "", "Show the macro snapshot of a run")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	r := cmdCtx.Renderer

	statePath := cmdCtx.Cfg.StatePath
	if _, err := os.Stat(statePath); os.IsNotExist(err) {
		return fmt.Errorf("no state database at %s\nHint: record runs with --record", statePath)
	}

	store := state.NewSQLiteStore(cmdCtx.Logger)
	if err := store.Open(statePath); err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if opts.Show != "" {
		run, err := store.GetRun(opts.Show)
		if err != nil {
			return err
		}
		snapshot, err := store.GetMacroSnapshot(run.ID)
		if err != nil {
			return err
		}
		return renderSnapshot(r, snapshot)
	}

	runs, err := store.ListRuns(opts.Limit)
	if err != nil {
		return err
	}
	return renderHistory(r, runs)
}

func renderHistory(r *output.Renderer, runs []*state.Run) error {
	infos := make([]RunInfo, len(runs))
	for i, run := range runs {
		infos[i] = RunInfo{
			ID:          run.ID,
			Command:     run.Command,
			Target:      run.Target,
			Status:      string(run.Status),
			StartedAt:   run.StartedAt,
			CompletedAt: run.CompletedAt,
			Lines:       run.Lines,
			Errors:      run.Errors,
			Error:       run.Error,
		}
	}
	if ok, err := r.Structured(infos); ok {
		return err
	}

	if len(runs) == 0 {
		r.Println("(no runs)")
		return nil
	}

	markdown := r.EffectiveMode() == output.ModeMarkdown
	styles := r.Styles()

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Command", "Target", "Status", "Started", "Duration", "Lines", "Errors"})
	for _, run := range runs {
		status := string(run.Status)
		if !markdown {
			switch run.Status {
			case state.RunStatusCompleted:
				status = styles.StatusSuccess.String() + " " + status
			case state.RunStatusFailed:
				status = styles.StatusFailed.String() + " " + status
			default:
				status = styles.StatusRunning.String() + " " + status
			}
		}
		duration := "-"
		if run.CompletedAt != nil {
			duration = run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
		}
		t.AppendRow(table.Row{
			shortID(run.ID),
			run.Command,
			run.Target,
			status,
			run.StartedAt.Local().Format(time.DateTime),
			duration,
			run.Lines,
			run.Errors,
		})
	}

	if markdown {
		r.Println(t.RenderMarkdown())
	} else {
		r.Println(t.Render())
	}
	return nil
}

func renderSnapshot(r *output.Renderer, snapshot []state.MacroSnapshot) error {
	macros := make([]MacroInfo, 0, len(snapshot))
	prev := ""
	for _, m := range snapshot {
		macros = append(macros, MacroInfo{
			Name:       m.Name,
			Opts:       m.Opts,
			Parametric: m.Parametric,
			Body:       m.Body,
			Level:      m.Level,
			Scope:      macro.LevelName(m.Level),
			Used:       m.Used,
			Shadowed:   m.Name == prev,
		})
		prev = m.Name
	}
	return renderDump(r, macros)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
