package patchfmt

import (
	"regexp"
	"strings"
)

// layoutRule pairs the path prefixes that identify a layout with the layout
type layoutRule struct {
	layout   PathLayout
	prefixes []string
}

// PathLayoutDetector classifies the embedded paths of a patch
type PathLayoutDetector struct {
	diffs   *DiffFormatDetector
	markers *regexp.Regexp
	rules   []layoutRule
}

// NewPathLayoutDetector creates a detector for the legacy and modern repository layouts
func NewPathLayoutDetector() *PathLayoutDetector {
	return &PathLayoutDetector{
		diffs: NewDiffFormatDetector(),
		// "--- a/<path>" and "+++ b/<path>", optionally followed by a tab or space and a timestamp.
		markers: regexp.MustCompile(`^(?:\+\+\+|---) [ab]/(\S*)(?:\s.*)?$`),
		rules: []layoutRule{
			{layout: LayoutLegacy, prefixes: []string{"sage/", "doc/", "module_list.py", "setup.py", "c_lib/"}},
			{layout: LayoutModern, prefixes: []string{"src/"}},
		},
	}
}

var layoutDetector = NewPathLayoutDetector()

// DetectPathLayout classifies lines with the default detector
func DetectPathLayout(lines PatchText, dialect DiffDialect) (PathLayout, error) {
	return layoutDetector.Detect(lines, dialect)
}

// ClassifyPath reports the layout of a single repository-relative path
func ClassifyPath(path string) (PathLayout, error) {
	return layoutDetector.Classify(path)
}

// Detect extracts every path token of the dialect's diff-introduction lines and
// of the unified-diff markers. The first classified path fixes the layout.
func (d *PathLayoutDetector) Detect(lines PatchText, dialect DiffDialect) (PathLayout, error) {
	found := LayoutUnspecified
	for _, line := range lines {
		spans, err := d.pathSpans(line, dialect)
		if err != nil {
			return LayoutUnspecified, err
		}
		for _, span := range spans {
			path := line[span[0]:span[1]]
			layout, err := d.Classify(path)
			if err != nil {
				return LayoutUnspecified, err
			}
			if found == LayoutUnspecified {
				found = layout
				continue
			}
			if found != layout {
				return LayoutUnspecified, NewMixedFormatError(AxisPath, found, layout, line)
			}
		}
	}

	if found == LayoutUnspecified {
		return LayoutUnspecified, NewUnknownFormatError(AxisPath, "no file paths found")
	}
	return found, nil
}

// Classify reports the layout of path, or an UnknownFormat error naming it
func (d *PathLayoutDetector) Classify(path string) (PathLayout, error) {
	for _, rule := range d.rules {
		for _, prefix := range rule.prefixes {
			if strings.HasPrefix(path, prefix) {
				return rule.layout, nil
			}
		}
	}
	return LayoutUnspecified, NewUnknownFormatError(AxisPath, "unrecognized path `"+path+"`").
		WithContext("path", path)
}

// pathSpans returns the byte offsets of every path token on line.
// Lines that are neither diff-introduction lines of dialect nor unified markers have none.
func (d *PathLayoutDetector) pathSpans(line string, dialect DiffDialect) ([][2]int, error) {
	intro, err := d.diffs.introPattern(dialect)
	if err != nil {
		return nil, err
	}
	for _, pattern := range []*regexp.Regexp{intro, d.markers} {
		loc := pattern.FindStringSubmatchIndex(line)
		if loc == nil {
			continue
		}
		var spans [][2]int
		for i := 2; i+1 < len(loc); i += 2 {
			if loc[i] < 0 {
				continue
			}
			spans = append(spans, [2]int{loc[i], loc[i+1]})
		}
		return spans, nil
	}
	return nil, nil
}
