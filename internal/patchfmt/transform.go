package patchfmt

// Source describes the format of an input patch. Unspecified fields are detected.
type Source struct {
	Diff   DiffDialect
	Header HeaderDialect
	Layout PathLayout
}

// Target describes the format a patch is rewritten into
type Target struct {
	Header HeaderDialect
	Layout PathLayout
}

// GitTarget is the format applied to the working tree: a mailbox patch with src/ paths
var GitTarget = Target{Header: HeaderGitMailbox, Layout: LayoutModern}

// Transform rewrites the header of lines and then its embedded paths.
// Each step short-circuits on failure; lines is never modified.
func (r *Rewriter) Transform(lines PatchText, target Target, source Source) (PatchText, error) {
	if target.Header == HeaderUnspecified || target.Layout == LayoutUnspecified {
		return nil, NewInvalidArgumentError("target header and path formats must be specified")
	}

	dialect := source.Diff
	if dialect == DiffUnspecified {
		detected, err := r.diffs.Detect(lines)
		if err != nil {
			return nil, err
		}
		dialect = detected
	}

	rewritten, err := r.rewriteHeader(lines, target.Header, source.Header, dialect)
	if err != nil {
		return nil, err
	}

	layout := source.Layout
	if layout == LayoutUnspecified {
		detected, err := layoutDetector.Detect(rewritten, dialect)
		if err != nil {
			return nil, err
		}
		layout = detected
	}

	return layoutDetector.Rewrite(rewritten, layout, target.Layout, dialect)
}

var defaultRewriter = NewRewriter()

// Transform rewrites lines with a Rewriter using the wall clock
func Transform(lines PatchText, target Target, source Source) (PatchText, error) {
	return defaultRewriter.Transform(lines, target, source)
}

// RewriteHeader converts the header of lines with a Rewriter using the wall clock
func RewriteHeader(lines PatchText, to, from HeaderDialect) (PatchText, error) {
	return defaultRewriter.RewriteHeader(lines, to, from)
}
