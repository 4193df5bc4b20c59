package analysis

import (
	"fmt"
	"strings"
)

// TruncatedMarker is appended by Cap when a message is cut.
const TruncatedMarker = "\n... (메시지가 너무 길어 생략됨)"

// TruncateNames joins up to limit names and notes how many were left out.
func TruncateNames(names []string, limit int) string {
	if limit <= 0 || len(names) <= limit {
		return strings.Join(names, ", ")
	}
	return fmt.Sprintf("%s 외 %d명", strings.Join(names[:limit], ", "), len(names)-limit)
}

// BatchNames splits names into lines of at most perLine names.
func BatchNames(names []string, perLine int) []string {
	if len(names) == 0 {
		return nil
	}
	if perLine <= 0 {
		return []string{strings.Join(names, ", ")}
	}
	lines := make([]string, 0, (len(names)+perLine-1)/perLine)
	for i := 0; i < len(names); i += perLine {
		end := i + perLine
		if end > len(names) {
			end = len(names)
		}
		lines = append(lines, strings.Join(names[i:end], ", "))
	}
	return lines
}

// Cap limits text to max characters (runes), appending TruncatedMarker when
// anything was dropped. max <= 0 disables the cap.
func Cap(text string, max int) string {
	if max <= 0 {
		return text
	}
	n := 0
	for i := range text {
		if n == max {
			return text[:i] + TruncatedMarker
		}
		n++
	}
	return text
}

func safeVal(s string) string { return strings.ReplaceAll(s, "\n", " ") }
