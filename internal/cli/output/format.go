package output

import (
	"fmt"
	"strings"
)

// FormatHeader returns a Markdown header.
func FormatHeader(level int, text string) string {
	if level < 1 {
		level = 1
	}
	return strings.Repeat("#", level) + " " + text
}

// FormatKeyValue returns a Markdown list item with a bold key.
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("- **%s**: %s", key, value)
}

// FormatCodeBlock fences content as a Markdown code block. The fence grows
// when content itself contains backticks.
func FormatCodeBlock(lang, content string) string {
	fence := "```"
	for strings.Contains(content, fence) {
		fence += "`"
	}
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return fence + lang + "\n" + content + fence
}
