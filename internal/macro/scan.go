package macro

func isBlank(c byte) bool { return c == ' ' || c == '\t' }

func isEOL(c byte) bool { return c == '\n' || c == '\r' }

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isAlnum(c byte) bool { return isAlpha(c) || isDigit(c) }

func isNameChar(c byte) bool { return isAlnum(c) || c == '_' }

func skipBlank(s string, i int) int {
	for i < len(s) && isBlank(s[i]) {
		i++
	}
	return i
}

func skipEOL(s string, i int) int {
	for i < len(s) && isEOL(s[i]) {
		i++
	}
	return i
}

// matchChar returns the index of the close delimiter balancing the open
// delimiter at s[i], or -1. A backslash hides the byte that follows it.
func matchChar(s string, i int, open, close byte) int {
	lvl := 0
	for ; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case close:
			lvl--
			if lvl <= 0 {
				return i
			}
		case open:
			lvl++
		}
	}
	return -1
}

// validName reports whether name may be defined or undefined: it must start
// with a letter or underscore and be at least three bytes long.
func validName(name string) bool {
	return len(name) > 2 && (isAlpha(name[0]) || name[0] == '_')
}

// allDigits reports whether s holds only decimal digits. The empty string
// qualifies.
func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}
