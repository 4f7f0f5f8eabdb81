// Package diff renders unified diffs for file-mutating steps so dry-run and
// verify can preview what would change.
package diff

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	maxLines        = 2000
	truncateMessage = "... (diff truncated) ..."
)

// Unified compares current and desired content and renders a unified-style
// diff. Returns the empty string when the contents are identical.
func Unified(current, desired []byte, currentLabel, desiredLabel string) string {
	if bytes.Equal(current, desired) {
		return ""
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(string(current), string(desired), false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "--- %s\n", currentLabel)
	fmt.Fprintf(&buf, "+++ %s\n", desiredLabel)

	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range splitKeepingContent(d.Text) {
			buf.WriteString(prefix)
			buf.WriteString(line)
			buf.WriteString("\n")
		}
	}

	result := buf.String()
	lines := strings.Split(result, "\n")
	if len(lines) > maxLines {
		return strings.Join(lines[:maxLines], "\n") + "\n" + truncateMessage + "\n"
	}
	return result
}

func splitKeepingContent(text string) []string {
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" && strings.HasSuffix(text, "\n") {
		lines = lines[:len(lines)-1]
	}
	return lines
}
