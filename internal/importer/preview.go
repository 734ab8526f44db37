package importer

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/syou6162/git-patch-import/internal/patchfmt"
)

// Preview returns a line diff from original to rewritten.
// Each line is prefixed with "-", "+" or " ".
func Preview(original, rewritten patchfmt.PatchText) []string {
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(string(original.Bytes()), string(rewritten.Bytes()))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	var out []string
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out = append(out, prefix+strings.TrimSuffix(line, "\n"))
		}
	}
	return out
}
