package macro

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// backupSuffixes name files left behind by package upgrades. They are never
// read as macro files.
var backupSuffixes = []string{".rpmnew", ".rpmsave", ".rpmorig"}

// Loader reads macro files named by a colon-separated list of glob
// patterns.
type Loader struct {
	path   string
	logger *slog.Logger
}

// NewLoader creates a loader for path, e.g.
// "/usr/lib/rpm/macros:/usr/lib/rpm/macros.d/macros.*:~/.rpmmacros".
func NewLoader(path string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{path: path, logger: logger}
}

// LoadedFile records one macro file that was read.
type LoadedFile struct {
	Path    string
	Defined int
}

// Files returns the files the loader's path currently matches, in load
// order.
func (l *Loader) Files() []string {
	var files []string
	for _, pattern := range strings.Split(l.path, ":") {
		if pattern == "" {
			continue
		}
		matches, err := filepath.Glob(expandHome(pattern))
		if err != nil {
			l.logger.Warn("bad macro file pattern", slog.String("pattern", pattern), slog.Any("error", err))
			continue
		}
		for _, m := range matches {
			if !hasBackupSuffix(m) {
				files = append(files, m)
			}
		}
	}
	return files
}

// Load reads every macro file into c at LevelMacroFiles, then reloads the
// visible definitions of cli at LevelCmdline so that command-line overrides
// win over anything a file defined. cli may be nil.
//
// Unreadable files and bad definitions do not stop loading; they are
// returned together once every file has been read.
func (l *Loader) Load(c, cli *Context) ([]LoadedFile, error) {
	var (
		loaded []LoadedFile
		errs   []error
	)
	for _, path := range l.Files() {
		n, err := LoadFile(c, path)
		if err != nil {
			errs = append(errs, err)
		}
		if n > 0 || err == nil {
			loaded = append(loaded, LoadedFile{Path: path, Defined: n})
		}
		l.logger.Debug("loaded macro file", slog.String("path", path), slog.Int("defined", n))
	}
	if cli != nil {
		cli.LoadInto(c, LevelCmdline)
	}
	return loaded, errors.Join(errs...)
}

// LoadFile reads the definitions in path into c at LevelMacroFiles and
// returns how many were stored. Only logical lines whose first non-blank
// byte is '%' are definitions; everything else is ignored.
func LoadFile(c *Context, path string) (int, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from the configured macro path
	if err != nil {
		return 0, &LoadError{File: path, Message: fmt.Sprintf("failed to open file: %v", err)}
	}
	defer f.Close()

	var errs []error
	defined := 0
	r := bufio.NewReader(f)
	line := 0
	for {
		text, start, n, rerr := readContinued(r, line)
		line += n
		if text != "" {
			i := skipBlank(text, 0)
			if i < len(text) && text[i] == '%' {
				if err := DefineString(c, text[i+1:], LevelMacroFiles); err != nil {
					errs = append(errs, &LoadError{File: path, Line: start, Message: err.Error()})
				} else {
					defined++
				}
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			errs = append(errs, &LoadError{File: path, Line: line, Message: rerr.Error()})
			break
		}
	}
	return defined, errors.Join(errs...)
}

// readContinued reads one logical line. A physical line continues onto the
// next when it ends in a backslash or leaves a %{ or %( open; the newline
// between them is kept. An empty physical line always ends the logical
// line. It returns the text, the number of its first physical line, and
// how many physical lines were consumed.
func readContinued(r *bufio.Reader, line int) (string, int, int, error) {
	var (
		sb     strings.Builder
		bc, pc int
		n      int
	)
	for {
		raw, err := r.ReadString('\n')
		if raw == "" && err != nil {
			return sb.String(), line + 1, n, err
		}
		n++
		phys := strings.TrimRight(raw, "\r\n")
		for i := 0; i < len(phys); i++ {
			switch phys[i] {
			case '\\':
				i++
			case '%':
				if i+1 < len(phys) {
					switch phys[i+1] {
					case '{':
						i++
						bc++
					case '(':
						i++
						pc++
					case '%':
						i++
					}
				}
			case '{':
				if bc > 0 {
					bc++
				}
			case '}':
				if bc > 0 {
					bc--
				}
			case '(':
				if pc > 0 {
					pc++
				}
			case ')':
				if pc > 0 {
					pc--
				}
			}
		}
		sb.WriteString(phys)
		if phys == "" || (!strings.HasSuffix(phys, "\\") && bc == 0 && pc == 0) || err != nil {
			return sb.String(), line + 1, n, err
		}
		sb.WriteByte('\n')
	}
}

func hasBackupSuffix(path string) bool {
	for _, suffix := range backupSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(pattern string) string {
	if pattern != "~" && !strings.HasPrefix(pattern, "~/") {
		return pattern
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return pattern
	}
	return filepath.Join(home, pattern[1:])
}

// LoadError represents an error loading a macro file.
type LoadError struct {
	File    string
	Line    int
	Message string
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}
