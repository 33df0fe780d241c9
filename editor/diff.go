package editor

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Diff renders the change from before to after as a patch with file headers
// and counts the added and deleted lines. Identical texts yield "".
func Diff(fileName, before, after string) (patch string, additions, deletions int) {
	if before == after {
		return "", 0, 0
	}

	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			additions += countLines(d.Text)
		case diffmatchpatch.DiffDelete:
			deletions += countLines(d.Text)
		}
	}

	text := dmp.PatchToText(dmp.PatchMake(before, diffs))
	if text == "" {
		return "", additions, deletions
	}
	var sb strings.Builder
	if fileName != "" {
		fmt.Fprintf(&sb, "--- %s\n+++ %s\n", fileName, fileName)
	}
	sb.WriteString(text)
	return sb.String(), additions, deletions
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	lines := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		lines++
	}
	return lines
}
