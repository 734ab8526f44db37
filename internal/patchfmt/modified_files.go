package patchfmt

import (
	"sort"
	"strings"
)

// ModifiedFiles returns the basenames of the files introduced by the
// diff-introduction lines of dialect, deduplicated and sorted.
// An unspecified dialect is detected first.
func ModifiedFiles(lines PatchText, dialect DiffDialect) ([]string, error) {
	if dialect == DiffUnspecified {
		detected, err := DetectDiffDialect(lines)
		if err != nil {
			return nil, err
		}
		dialect = detected
	}

	pattern, err := diffDetector.introPattern(dialect)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for _, line := range lines {
		m := pattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		for _, path := range m[1:] {
			seen[path[strings.LastIndex(path, "/")+1:]] = true
		}
	}

	files := make([]string, 0, len(seen))
	for name := range seen {
		files = append(files, name)
	}
	sort.Strings(files)
	return files, nil
}

// modifiedSubject synthesizes a subject line for patches whose header carries none
func modifiedSubject(lines PatchText, dialect DiffDialect) (string, error) {
	files, err := ModifiedFiles(lines, dialect)
	if err != nil {
		return "", err
	}
	return "No Subject. Modified: " + strings.Join(files, ", "), nil
}
