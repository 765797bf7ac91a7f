package commands

import (
	"github.com/leapstack-labs/specmacro/internal/cli/output"
	"github.com/spf13/cobra"
)

// EvalResult is one expanded expression.
type EvalResult struct {
	Expr   string `json:"expr" yaml:"expr"`
	Result string `json:"result" yaml:"result"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "eval <expr>...",
		Short: "Expand macro expressions",
		Long: `Expand each argument against the loaded macro files, like rpm --eval.

Arguments are expanded in order and share one macro context, so a
%define in one argument is visible to the next. Text and Markdown output
print each result on its own line so the command composes in shell
scripts; json and yaml pair each expression with its result.`,
		Example: `  # Print the library directory
  specmacro eval '%{_libdir}'

  # Override a macro for one invocation
  specmacro -D '_prefix /opt' eval '%{_bindir}'

  # Structured output
  specmacro eval -o json '%{_target_cpu}' '%{?dist}'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, args)
		},
	}
}

func runEval(cmd *cobra.Command, args []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	results, err := cmdCtx.Engine.Eval(cmd.Context(), args)
	if err != nil {
		return err
	}
	return renderEval(cmdCtx.Renderer, args, results)
}

func renderEval(r *output.Renderer, exprs, results []string) error {
	out := make([]EvalResult, len(results))
	for i, res := range results {
		out[i] = EvalResult{Expr: exprs[i], Result: res}
	}
	if ok, err := r.Structured(out); ok {
		return err
	}
	for _, res := range results {
		r.Println(res)
	}
	return nil
}
