package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/leapstack-labs/specmacro/internal/engine"
	"github.com/leapstack-labs/specmacro/internal/macro"
	"github.com/spf13/cobra"
)

const (
	shellPrompt         = "specmacro> "
	shellContinuePrompt = "       ...> "
)

// NewShellCommand creates the shell command.
func NewShellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive macro shell",
		Long: `Start an interactive shell that expands each line it reads.

Definitions persist for the whole session. A line ending in a backslash
continues on the next line. Type .help for the dot-commands.`,
		Example: `  specmacro shell
  specmacro> %define greeting hello
  specmacro> %{greeting} from %{_target_cpu}
  hello from x86_64`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd)
		},
	}
}

func runShell(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	eng := cmdCtx.Engine
	session := newShellSession(eng, cmd.OutOrStdout(), cmd.ErrOrStderr())

	// Setup history file next to the state database when that exists
	historyFile := ""
	if dir := filepath.Dir(cmdCtx.Cfg.StatePath); dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			historyFile = filepath.Join(dir, "shell_history")
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          shellPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    newMacroCompleter(eng.Context()),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize shell: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "specmacro shell (target %s, %d macro files)\n",
		eng.Project().Target(), len(eng.LoadedFiles()))
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")

	return eng.RecordSession(func() (int, error) {
		for {
			line, err := rl.Readline()
			if errors.Is(err, readline.ErrInterrupt) {
				session.reset()
				rl.SetPrompt(shellPrompt)
				continue
			}
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return session.lines, err
			}

			if session.feed(line) {
				break
			}
			if session.continuing() {
				rl.SetPrompt(shellContinuePrompt)
			} else {
				rl.SetPrompt(shellPrompt)
			}
		}
		return session.lines, nil
	})
}

// shellSession holds the state of an interactive session apart from the
// terminal, so the command logic runs without one.
type shellSession struct {
	eng     *engine.Engine
	exp     *macro.Expander
	out     io.Writer
	errOut  io.Writer
	pending strings.Builder

	// lines counts expanded inputs.
	lines int
}

func newShellSession(eng *engine.Engine, out, errOut io.Writer) *shellSession {
	return &shellSession{
		eng:    eng,
		exp:    eng.NewExpander(eng.Context()),
		out:    out,
		errOut: errOut,
	}
}

func (s *shellSession) continuing() bool {
	return s.pending.Len() > 0
}

func (s *shellSession) reset() {
	s.pending.Reset()
}

// feed handles one line of input and reports whether the session should
// end.
func (s *shellSession) feed(line string) bool {
	if body, ok := strings.CutSuffix(line, "\\"); ok {
		s.pending.WriteString(body)
		s.pending.WriteByte('\n')
		return false
	}
	if s.continuing() {
		s.pending.WriteString(line)
		line = s.pending.String()
		s.pending.Reset()
	} else if trimmed := strings.TrimSpace(line); strings.HasPrefix(trimmed, ".") {
		return s.dotCommand(trimmed)
	}

	if strings.TrimSpace(line) == "" {
		return false
	}
	s.lines++
	res, err := s.exp.ExpandString(line)
	if err != nil {
		s.errorf("%v", err)
		return false
	}
	_, _ = fmt.Fprintln(s.out, res)
	return false
}

func (s *shellSession) dotCommand(line string) bool {
	command, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(command) {
	case ".quit", ".exit":
		return true

	case ".help":
		printShellHelp(s.out)

	case ".define":
		if rest == "" {
			s.errorf("Usage: .define <name>[(opts)] <body>")
			return false
		}
		if err := s.eng.Define(rest); err != nil {
			s.errorf("%v", err)
		}

	case ".undefine":
		names, err := shellquote.Split(rest)
		if err != nil || len(names) == 0 {
			s.errorf("Usage: .undefine <name>...")
			return false
		}
		for _, name := range names {
			s.eng.Undefine(strings.TrimPrefix(name, "%"))
		}

	case ".load":
		files, err := shellquote.Split(rest)
		if err != nil || len(files) == 0 {
			s.errorf("Usage: .load <file>...")
			return false
		}
		for _, f := range files {
			n, err := macro.LoadFile(s.eng.Context(), f)
			if err != nil {
				s.errorf("%v", err)
			}
			_, _ = fmt.Fprintf(s.out, "%s: %d definitions\n", f, n)
		}

	case ".dump":
		if err := s.eng.Context().Dump(s.out); err != nil {
			s.errorf("%v", err)
		}

	default:
		s.errorf("Unknown command: %s (type .help for commands)", command)
	}
	return false
}

func (s *shellSession) errorf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.errOut, "Error: "+format+"\n", args...)
}

func printShellHelp(w io.Writer) {
	help := `
Commands:
  .help                      Show this help message
  .define <name> <body>      Define a macro at command-line level
  .undefine <name>...        Remove the innermost definition of each name
  .load <file>...            Read a macro file
  .dump                      Print the macro table
  .quit / .exit              Exit the shell

Tips:
  - Any other line is expanded and printed
  - End a line with \ to continue it on the next line
  - Use arrow keys to navigate history
`
	_, _ = fmt.Fprintln(w, help)
}

// newMacroCompleter completes dot-commands and, after .undefine, macro
// names.
func newMacroCompleter(c *macro.Context) *readline.PrefixCompleter {
	names := func(string) []string {
		return c.Names()
	}
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".define"),
		readline.PcItem(".undefine", readline.PcItemDynamic(names)),
		readline.PcItem(".load"),
		readline.PcItem(".dump"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
