package patchfmt

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

// hgExportPatch is an "hg export" of a single legacy-layout change
var hgExportPatch = PatchText{
	"# HG changeset patch",
	"# User David Roe <roed@math.harvard.edu>",
	"# Date 1330837723 28800",
	"# Node ID 264dcd0442d217ff8762bcc068fbb6fc12cf5367",
	"# Parent  05fca316b08fe56c8eec85151d9a6dde6f435d46",
	"#12555: fixed modulus templates",
	"",
	"diff --git a/sage/rings/padics/FM_template.pxi b/sage/rings/padics/FM_template.pxi",
	"--- a/sage/rings/padics/FM_template.pxi",
	"+++ b/sage/rings/padics/FM_template.pxi",
	"@@ -1 +1 @@",
	"-cdef class FMElement",
	"+cdef class FMElement(pAdicTemplateElement)",
}

var rawDiffPatch = PatchText{
	"diff --git a/sage/a.py b/sage/a.py",
	"--- a/sage/a.py",
	"+++ b/sage/a.py",
	"@@ -1 +1 @@",
	"-x = 1",
	"+x = 2",
	"diff --git a/sage/misc/b.py b/sage/misc/b.py",
	"--- a/sage/misc/b.py",
	"+++ b/sage/misc/b.py",
	"@@ -1 +1 @@",
	"-y = 1",
	"+y = 2",
}

func newTestRewriter() (*Rewriter, *clock.Mock) {
	mock := clock.NewMock()
	mock.Set(time.Date(2013, time.January, 2, 3, 4, 5, 0, time.UTC))
	return NewRewriter(WithClock(mock)), mock
}

func TestDetectHeaderDialect(t *testing.T) {
	tests := []struct {
		name    string
		lines   PatchText
		want    HeaderDialect
		wantErr error
	}{
		{
			name:  "mercurial plain",
			lines: PatchText{"# HG changeset patch", "# Parent 05fca316b08fe56c8eec85151d9a6dde6f435d46"},
			want:  HeaderMercurialPlain,
		},
		{
			name:  "mercurial export",
			lines: PatchText{"# HG changeset patch", "# User foo@bar.com"},
			want:  HeaderMercurialExport,
		},
		{
			name:  "git mailbox",
			lines: PatchText{"From: foo@bar"},
			want:  HeaderGitMailbox,
		},
		{
			name:  "raw git diff",
			lines: PatchText{"diff --git a/sage/a.py b/sage/a.py"},
			want:  HeaderRawDiff,
		},
		{
			name:  "raw mercurial diff",
			lines: PatchText{"diff -r 1492e39aff50 -r 5803166c5b11 sage/a.py"},
			want:  HeaderRawDiff,
		},
		{
			name:    "banner without second line",
			lines:   PatchText{"# HG changeset patch"},
			wantErr: ErrUnknownFormat,
		},
		{
			name:    "banner followed by a date",
			lines:   PatchText{"# HG changeset patch", "# Date 1330837723 28800"},
			wantErr: ErrUnknownFormat,
		},
		{
			name: "format-patch mbox separator",
			lines: PatchText{
				"From 264dcd0442d217ff8762bcc068fbb6fc12cf5367 Mon Sep 17 00:00:00 2001",
				"From: David Roe <roed@math.harvard.edu>",
				"Date: Sat, 03 Mar 2012 21:08:43 -0800",
				"Subject: [PATCH] #12555: fixed modulus templates",
			},
			wantErr: ErrUnknownFormat,
		},
		{
			name:    "unrelated text",
			lines:   PatchText{"Hello", "diff --git a/sage/a.py b/sage/a.py"},
			wantErr: ErrUnknownFormat,
		},
		{
			name:    "empty",
			lines:   PatchText{},
			wantErr: ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectHeaderDialect(tt.lines)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("DetectHeaderDialect() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DetectHeaderDialect() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("DetectHeaderDialect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRewriteHeader_MercurialExportToGit(t *testing.T) {
	r, _ := newTestRewriter()

	got, err := r.RewriteHeader(hgExportPatch, HeaderGitMailbox, HeaderUnspecified)
	if err != nil {
		t.Fatalf("RewriteHeader() unexpected error: %v", err)
	}

	want := append(PatchText{
		"From: David Roe <roed@math.harvard.edu>",
		"Subject: #12555: fixed modulus templates",
		"Date: Sat, 03 Mar 2012 21:08:43 -0800",
		"",
		"",
	}, hgExportPatch[7:]...)
	if !slices.Equal(got, want) {
		t.Errorf("RewriteHeader() =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestRewriteHeader_RoundTripReplacesHashes(t *testing.T) {
	r, _ := newTestRewriter()

	git, err := r.RewriteHeader(hgExportPatch, HeaderGitMailbox, HeaderMercurialExport)
	if err != nil {
		t.Fatalf("to git: %v", err)
	}
	back, err := r.RewriteHeader(git, HeaderMercurialExport, HeaderGitMailbox)
	if err != nil {
		t.Fatalf("back to hg-export: %v", err)
	}

	want := slices.Clone(hgExportPatch)
	want[3] = "# Node ID " + PlaceholderHash
	want[4] = "# Parent  " + PlaceholderHash
	if !slices.Equal(back, want) {
		t.Errorf("round trip =\n%s\nwant\n%s", strings.Join(back, "\n"), strings.Join(want, "\n"))
	}

	// subject and body survive unchanged
	before, _, err := r.Parse(hgExportPatch, HeaderMercurialExport)
	if err != nil {
		t.Fatalf("Parse(original) unexpected error: %v", err)
	}
	after, _, err := r.Parse(back, HeaderMercurialExport)
	if err != nil {
		t.Fatalf("Parse(round trip) unexpected error: %v", err)
	}
	if before.Subject != after.Subject {
		t.Errorf("Subject = %q, want %q", after.Subject, before.Subject)
	}
	if !slices.Equal(before.Body, after.Body) {
		t.Errorf("Body = %q, want %q", after.Body, before.Body)
	}
	if before.Date != after.Date {
		t.Errorf("Date = %q, want %q", after.Date, before.Date)
	}
}

func TestParse_MessageEndsAtAnyDiffLine(t *testing.T) {
	r, _ := newTestRewriter()

	// a working-copy diff names a single revision
	lines := PatchText{
		"# HG changeset patch",
		"# User David Roe <roed@math.harvard.edu>",
		"# Date 1330837723 28800",
		"# Node ID 264dcd0442d217ff8762bcc068fbb6fc12cf5367",
		"# Parent  05fca316b08fe56c8eec85151d9a6dde6f435d46",
		"#12555: fixed modulus templates",
		"",
		"diff -r 05fca316b08f sage/rings/foo.py",
		"--- a/sage/rings/foo.py",
		"+++ b/sage/rings/foo.py",
	}

	fields, diff, err := r.Parse(lines, HeaderMercurialExport)
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}
	if fields.Subject != "#12555: fixed modulus templates" {
		t.Errorf("Subject = %q", fields.Subject)
	}
	for _, line := range fields.Body {
		if strings.HasPrefix(line, "diff -") {
			t.Errorf("Body contains diff line %q", line)
		}
	}
	if !slices.Equal(diff, lines[7:]) {
		t.Errorf("diff = %q, want %q", diff, lines[7:])
	}
}

func TestRewriteHeader_GitRoundTrip(t *testing.T) {
	r, _ := newTestRewriter()
	git := PatchText{
		"From: Jane Doe <jane@example.org>",
		"Subject: trac #14001: speed up padics",
		"Date: Tue, 19 Feb 2013 10:11:12 +0100",
		"",
		"Longer description",
		"spanning two lines.",
		"",
		"diff --git a/src/sage/rings/padics/padic_base_leaf.py b/src/sage/rings/padics/padic_base_leaf.py",
		"--- a/src/sage/rings/padics/padic_base_leaf.py",
		"+++ b/src/sage/rings/padics/padic_base_leaf.py",
	}

	hg, err := r.RewriteHeader(git, HeaderMercurialExport, HeaderUnspecified)
	if err != nil {
		t.Fatalf("to hg-export: %v", err)
	}
	if hg[2] != "# Date 1361265072 -3600" {
		t.Errorf("date line = %q, want %q", hg[2], "# Date 1361265072 -3600")
	}
	if hg[5] != "trac #14001: speed up padics" {
		t.Errorf("subject line = %q", hg[5])
	}

	back, err := r.RewriteHeader(hg, HeaderGitMailbox, HeaderUnspecified)
	if err != nil {
		t.Fatalf("back to git: %v", err)
	}
	if !slices.Equal(back, git) {
		t.Errorf("round trip =\n%s\nwant\n%s", strings.Join(back, "\n"), strings.Join(git, "\n"))
	}
}

func TestRewriteHeader_SynthesizedSubject(t *testing.T) {
	r, _ := newTestRewriter()

	got, err := r.RewriteHeader(rawDiffPatch, HeaderGitMailbox, HeaderUnspecified)
	if err != nil {
		t.Fatalf("RewriteHeader() unexpected error: %v", err)
	}

	want := append(PatchText{
		"From: " + PlaceholderAuthor,
		"Subject: No Subject. Modified: a.py, b.py",
		"Date: Wed, 02 Jan 2013 03:04:05 +0000",
		"",
	}, rawDiffPatch...)
	if !slices.Equal(got, want) {
		t.Errorf("RewriteHeader() =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestRewriteHeader_MercurialPlain(t *testing.T) {
	r, _ := newTestRewriter()

	tests := []struct {
		name        string
		lines       PatchText
		wantSubject string
		wantBody    []string
	}{
		{
			name: "with message",
			lines: PatchText{
				"# HG changeset patch",
				"# Parent 05fca316b08fe56c8eec85151d9a6dde6f435d46",
				"#13000: better docs",
				"",
				"diff -r 05fca316b08f -r 264dcd0442d2 sage/misc/misc.py",
			},
			wantSubject: "#13000: better docs",
			wantBody:    []string{""},
		},
		{
			name: "without message",
			lines: PatchText{
				"# HG changeset patch",
				"# Parent 05fca316b08fe56c8eec85151d9a6dde6f435d46",
				"diff -r 05fca316b08f -r 264dcd0442d2 sage/misc/misc.py",
			},
			wantSubject: "No Subject. Modified: misc.py",
			wantBody:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.RewriteHeader(tt.lines, HeaderGitMailbox, HeaderUnspecified)
			if err != nil {
				t.Fatalf("RewriteHeader() unexpected error: %v", err)
			}

			fields, diff, err := r.Parse(got, HeaderGitMailbox)
			if err != nil {
				t.Fatalf("Parse() unexpected error: %v", err)
			}
			if fields.Author != PlaceholderAuthor {
				t.Errorf("Author = %q, want %q", fields.Author, PlaceholderAuthor)
			}
			if fields.Subject != tt.wantSubject {
				t.Errorf("Subject = %q, want %q", fields.Subject, tt.wantSubject)
			}
			if fields.Date != "Wed, 02 Jan 2013 03:04:05 +0000" {
				t.Errorf("Date = %q", fields.Date)
			}
			if !slices.Equal(fields.Body, tt.wantBody) {
				t.Errorf("Body = %q, want %q", fields.Body, tt.wantBody)
			}
			if len(diff) != 1 || diff[0] != tt.lines[len(tt.lines)-1] {
				t.Errorf("diff = %q", diff)
			}
		})
	}
}

func TestRewriteHeader_Identity(t *testing.T) {
	r, _ := newTestRewriter()

	patches := map[HeaderDialect]PatchText{
		HeaderMercurialExport: hgExportPatch,
		HeaderMercurialPlain: {
			"# HG changeset patch",
			"# Parent 05fca316b08fe56c8eec85151d9a6dde6f435d46",
			"diff -r 05fca316b08f -r 264dcd0442d2 sage/misc/misc.py",
		},
		HeaderGitMailbox: {
			"From: foo@bar",
			"Subject: fix",
			"Date: Sun, 04 Mar 2012 05:08:43 -0000",
			"",
			"diff --git a/sage/a.py b/sage/a.py",
		},
		HeaderRawDiff: rawDiffPatch,
	}

	for dialect, patch := range patches {
		t.Run(dialect.String(), func(t *testing.T) {
			for _, from := range []HeaderDialect{dialect, HeaderUnspecified} {
				got, err := r.RewriteHeader(patch, dialect, from)
				if err != nil {
					t.Fatalf("RewriteHeader(%v, from %v) unexpected error: %v", dialect, from, err)
				}
				if !slices.Equal(got, patch) {
					t.Errorf("RewriteHeader(%v, from %v) changed the patch:\n%s", dialect, from, strings.Join(got, "\n"))
				}
			}
		})
	}
}

func TestRewriteHeader_Errors(t *testing.T) {
	r, _ := newTestRewriter()

	tests := []struct {
		name    string
		lines   PatchText
		to      HeaderDialect
		from    HeaderDialect
		wantErr error
	}{
		{
			name:    "mercurial plain is not a target",
			lines:   hgExportPatch,
			to:      HeaderMercurialPlain,
			wantErr: ErrUnsupportedConversion,
		},
		{
			name:    "raw diff is not a target",
			lines:   hgExportPatch,
			to:      HeaderRawDiff,
			wantErr: ErrUnsupportedConversion,
		},
		{
			name: "export missing node id",
			lines: PatchText{
				"# HG changeset patch",
				"# User foo@bar.com",
				"# Date 1330837723 28800",
				"# Parent  05fca316b08fe56c8eec85151d9a6dde6f435d46",
				"diff --git a/sage/a.py b/sage/a.py",
			},
			to:      HeaderGitMailbox,
			wantErr: ErrMalformedHeader,
		},
		{
			name:    "export too short",
			lines:   PatchText{"# HG changeset patch", "# User foo@bar.com"},
			to:      HeaderGitMailbox,
			wantErr: ErrMalformedHeader,
		},
		{
			name: "mailbox fields out of order",
			lines: PatchText{
				"From: foo@bar",
				"Date: Sun, 04 Mar 2012 05:08:43 -0000",
				"Subject: fix",
				"diff --git a/sage/a.py b/sage/a.py",
			},
			to:      HeaderMercurialExport,
			wantErr: ErrMalformedHeader,
		},
		{
			name: "mailbox date not parseable",
			lines: PatchText{
				"From: foo@bar",
				"Subject: fix",
				"Date: yesterday",
				"diff --git a/sage/a.py b/sage/a.py",
			},
			to:      HeaderMercurialExport,
			wantErr: ErrMalformedHeader,
		},
		{
			name: "declared dialect does not match",
			lines: PatchText{
				"From: foo@bar",
				"diff --git a/sage/a.py b/sage/a.py",
			},
			to:      HeaderGitMailbox,
			from:    HeaderMercurialPlain,
			wantErr: ErrMalformedHeader,
		},
		{
			name: "no subject and no diff markers",
			lines: PatchText{
				"# HG changeset patch",
				"# Parent 05fca316b08fe56c8eec85151d9a6dde6f435d46",
			},
			to:      HeaderGitMailbox,
			wantErr: ErrUnknownFormat,
		},
		{
			name:    "empty",
			lines:   PatchText{},
			to:      HeaderGitMailbox,
			wantErr: ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.RewriteHeader(tt.lines, tt.to, tt.from)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("RewriteHeader() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRender_UnsupportedTarget(t *testing.T) {
	r, _ := newTestRewriter()
	fields := HeaderFields{
		Author:  "foo@bar",
		Subject: "fix",
		Date:    "Sun, 04 Mar 2012 05:08:43 -0000",
	}

	for _, dialect := range []HeaderDialect{HeaderMercurialPlain, HeaderRawDiff, HeaderUnspecified} {
		if _, err := r.Render(fields, dialect, nil); !errors.Is(err, ErrUnsupportedConversion) {
			t.Errorf("Render(%v) error = %v, want UnsupportedConversion", dialect, err)
		}
	}
}
