package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// truncateText shortens text to the given display width, marking the cut
// with an ellipsis.
func truncateText(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(text) <= width {
		return text
	}
	if width <= 3 {
		return runewidth.Truncate(text, width, "")
	}
	return runewidth.Truncate(text, width, "...")
}

// wrapText word-wraps text into at most maxLines lines of the given width.
// The last line is truncated with an ellipsis when text does not fit.
func wrapText(text string, width, maxLines int) []string {
	if width <= 0 || maxLines <= 0 {
		return []string{""}
	}

	words := strings.Fields(strings.ReplaceAll(text, "\n", " "))
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	var line strings.Builder
	for i, word := range words {
		if runewidth.StringWidth(word) > width {
			word = truncateText(word, width)
		}
		switch {
		case line.Len() == 0:
			line.WriteString(word)
		case runewidth.StringWidth(line.String())+1+runewidth.StringWidth(word) > width:
			lines = append(lines, line.String())
			line.Reset()
			if len(lines) == maxLines {
				last := lines[maxLines-1]
				lines[maxLines-1] = truncateText(last+" "+strings.Join(words[i:], " "), width)
				return lines
			}
			line.WriteString(word)
		default:
			line.WriteByte(' ')
			line.WriteString(word)
		}
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}

func padLines(lines []string, n int) []string {
	for len(lines) < n {
		lines = append(lines, "")
	}
	return lines
}
