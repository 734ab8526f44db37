package patchfmt

import (
	"fmt"
	"strings"
)

const modernPrefix = "src/"

// RewritePaths rewrites every embedded path of lines from one layout to another.
// Only the path tokens of diff-introduction lines and unified-diff markers change;
// every other byte of every line is copied. Equal layouts return a copy of lines.
func RewritePaths(lines PatchText, from, to PathLayout, dialect DiffDialect) (PatchText, error) {
	return layoutDetector.Rewrite(lines, from, to, dialect)
}

// Rewrite implements RewritePaths
func (d *PathLayoutDetector) Rewrite(lines PatchText, from, to PathLayout, dialect DiffDialect) (PatchText, error) {
	if from == LayoutUnspecified || to == LayoutUnspecified {
		return nil, NewUnsupportedConversionError(fmt.Sprintf("path format %s to %s", from, to))
	}
	if from == to {
		return lines.clone(), nil
	}

	var mapPath func(string) (string, error)
	switch {
	case from == LayoutLegacy && to == LayoutModern:
		mapPath = d.legacyToModern
	case from == LayoutModern && to == LayoutLegacy:
		mapPath = modernToLegacy
	default:
		return nil, NewUnsupportedConversionError(fmt.Sprintf("path format %s to %s", from, to))
	}

	out := make(PatchText, 0, len(lines))
	for _, line := range lines {
		rewritten, err := d.rewriteLine(line, dialect, mapPath)
		if err != nil {
			return nil, err
		}
		out = append(out, rewritten)
	}
	return out, nil
}

// rewriteLine replaces each path token of line independently, copying the text around them
func (d *PathLayoutDetector) rewriteLine(line string, dialect DiffDialect, mapPath func(string) (string, error)) (string, error) {
	spans, err := d.pathSpans(line, dialect)
	if err != nil || len(spans) == 0 {
		return line, err
	}

	var b strings.Builder
	last := 0
	for _, span := range spans {
		mapped, err := mapPath(line[span[0]:span[1]])
		if err != nil {
			return "", err
		}
		b.WriteString(line[last:span[0]])
		b.WriteString(mapped)
		last = span[1]
	}
	b.WriteString(line[last:])
	return b.String(), nil
}

func (d *PathLayoutDetector) legacyToModern(path string) (string, error) {
	layout, err := d.Classify(path)
	if err != nil || layout != LayoutLegacy {
		return "", NewUnsupportedConversionError(fmt.Sprintf("mapping path `%s` to the %s layout", path, LayoutModern)).
			WithContext("path", path)
	}
	return modernPrefix + path, nil
}

func modernToLegacy(path string) (string, error) {
	if !strings.HasPrefix(path, modernPrefix) {
		return "", NewUnsupportedConversionError(fmt.Sprintf("mapping path `%s` to the %s layout", path, LayoutLegacy)).
			WithContext("path", path)
	}
	return strings.TrimPrefix(path, modernPrefix), nil
}
