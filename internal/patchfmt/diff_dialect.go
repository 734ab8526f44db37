package patchfmt

import (
	"regexp"
)

// diffRule pairs a diff-introduction pattern with the dialect it identifies.
// Every capture group of pattern is a path token.
type diffRule struct {
	dialect DiffDialect
	pattern *regexp.Regexp
}

// DiffFormatDetector classifies the diff-introduction lines of a patch
type DiffFormatDetector struct {
	rules []diffRule
}

// NewDiffFormatDetector creates a detector for the Mercurial and Git diff dialects
func NewDiffFormatDetector() *DiffFormatDetector {
	return &DiffFormatDetector{
		rules: []diffRule{
			{dialect: DiffMercurial, pattern: regexp.MustCompile(`^diff -r [0-9a-f]+ -r [0-9a-f]+ (.*)$`)},
			// Paths with spaces are ambiguous here; the patches this tool handles have none.
			{dialect: DiffGit, pattern: regexp.MustCompile(`^diff --git a/(.*) b/(.*)$`)},
		},
	}
}

var diffDetector = NewDiffFormatDetector()

// DetectDiffDialect classifies lines with the default detector
func DetectDiffDialect(lines PatchText) (DiffDialect, error) {
	return diffDetector.Detect(lines)
}

// Detect scans every line. The first diff-introduction line fixes the dialect;
// a later line of the other dialect is a MixedFormat error.
func (d *DiffFormatDetector) Detect(lines PatchText) (DiffDialect, error) {
	found := DiffUnspecified
	for _, line := range lines {
		dialect, ok := d.classify(line)
		if !ok {
			continue
		}
		if found == DiffUnspecified {
			found = dialect
			continue
		}
		if found != dialect {
			return DiffUnspecified, NewMixedFormatError(AxisDiff, found, dialect, line)
		}
	}

	if found == DiffUnspecified {
		return DiffUnspecified, NewUnknownFormatError(AxisDiff, "no diff markers found")
	}
	return found, nil
}

// classify reports the dialect of a single diff-introduction line
func (d *DiffFormatDetector) classify(line string) (DiffDialect, bool) {
	for _, rule := range d.rules {
		if rule.pattern.MatchString(line) {
			return rule.dialect, true
		}
	}
	return DiffUnspecified, false
}

// IsIntroduction reports whether line introduces a per-file hunk in any dialect
func (d *DiffFormatDetector) IsIntroduction(line string) bool {
	_, ok := d.classify(line)
	return ok
}

// introPattern returns the diff-introduction pattern of dialect
func (d *DiffFormatDetector) introPattern(dialect DiffDialect) (*regexp.Regexp, error) {
	for _, rule := range d.rules {
		if rule.dialect == dialect {
			return rule.pattern, nil
		}
	}
	return nil, NewUnsupportedConversionError("diff format " + dialect.String())
}
