package patchfmt

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

const (
	// PlaceholderAuthor is the author of patches whose header names none
	PlaceholderAuthor = `"Unknown User" <unknown@sagemath.org>`
	// PlaceholderHash replaces the node and parent of a Mercurial export rendered from a canonical header.
	// The original hashes are not recoverable once a header passes through HeaderFields.
	PlaceholderHash = "0000000000000000000000000000000000000000"

	noSubject = "No Subject"
)

// HeaderFields is the dialect-independent form every header is converted through
type HeaderFields struct {
	Author  string
	Subject string
	// Date is an RFC 2822 date
	Date string
	Body []string
}

// Rewriter converts patch headers between dialects and drives whole-patch transforms.
// A Rewriter is immutable and safe for concurrent use.
type Rewriter struct {
	clock    clock.Clock
	diffs    *DiffFormatDetector
	headers  *HeaderDialectDetector
	patterns headerPatterns
}

// Option configures a Rewriter
type Option func(*Rewriter)

// WithClock sets the clock used to date patches whose header carries no date
func WithClock(c clock.Clock) Option {
	return func(r *Rewriter) {
		r.clock = c
	}
}

// NewRewriter creates a new Rewriter
func NewRewriter(opts ...Option) *Rewriter {
	r := &Rewriter{
		clock:    clock.New(),
		diffs:    NewDiffFormatDetector(),
		headers:  NewHeaderDialectDetector(),
		patterns: newHeaderPatterns(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RewriteHeader converts the header of lines into the to dialect.
// An unspecified from dialect is detected. Equal dialects return a copy of lines.
func (r *Rewriter) RewriteHeader(lines PatchText, to, from HeaderDialect) (PatchText, error) {
	return r.rewriteHeader(lines, to, from, DiffUnspecified)
}

func (r *Rewriter) rewriteHeader(lines PatchText, to, from HeaderDialect, dialect DiffDialect) (PatchText, error) {
	if len(lines) == 0 {
		return nil, NewInvalidArgumentError("patch is empty")
	}
	if from == HeaderUnspecified {
		detected, err := r.headers.Detect(lines)
		if err != nil {
			return nil, err
		}
		from = detected
	}
	if from == to {
		return lines.clone(), nil
	}
	if !renderable(to) {
		return nil, NewUnsupportedConversionError(fmt.Sprintf("header format %s to %s", from, to))
	}

	fields, diff, err := r.parseHeader(lines, from, dialect)
	if err != nil {
		return nil, err
	}
	return r.Render(fields, to, diff)
}

// Parse converts the header of lines in dialect into canonical form.
// It returns the fields and the diff lines following the header.
func (r *Rewriter) Parse(lines PatchText, dialect HeaderDialect) (HeaderFields, PatchText, error) {
	return r.parseHeader(lines, dialect, DiffUnspecified)
}

func (r *Rewriter) parseHeader(lines PatchText, dialect HeaderDialect, diffDialect DiffDialect) (HeaderFields, PatchText, error) {
	message, diff, err := r.splitHeader(lines, dialect)
	if err != nil {
		return HeaderFields{}, nil, err
	}

	switch dialect {
	case HeaderMercurialExport:
		date, err := r.mercurialDate(lines[2])
		if err != nil {
			return HeaderFields{}, nil, err
		}
		subject, body := splitMessage(message)
		if len(message) == 0 {
			subject = noSubject
		}
		return HeaderFields{
			Author:  r.patterns.user.FindStringSubmatch(lines[1])[1],
			Subject: subject,
			Date:    date,
			Body:    body,
		}, diff, nil

	case HeaderMercurialPlain, HeaderRawDiff:
		subject, body := splitMessage(message)
		if len(message) == 0 {
			subject, err = modifiedSubject(lines, diffDialect)
			if err != nil {
				return HeaderFields{}, nil, err
			}
		}
		return HeaderFields{
			Author:  PlaceholderAuthor,
			Subject: subject,
			Date:    r.clock.Now().UTC().Format(time.RFC1123Z),
			Body:    body,
		}, diff, nil

	case HeaderGitMailbox:
		body := message
		if len(body) > 0 && body[0] == "" {
			body = body[1:]
		}
		return HeaderFields{
			Author:  r.patterns.from.FindStringSubmatch(lines[0])[1],
			Subject: r.patterns.subject.FindStringSubmatch(lines[1])[1],
			Date:    r.patterns.mailDate.FindStringSubmatch(lines[2])[1],
			Body:    append([]string{}, body...),
		}, diff, nil
	}

	return HeaderFields{}, nil, NewUnsupportedConversionError("parsing header format " + dialect.String())
}

const diffLinePrefix = "diff -"

// splitHeader validates the fixed header lines of dialect and separates the
// free-form message from the diff. The message ends at the first line starting
// with "diff -", whether or not it is a well-formed introduction line.
func (r *Rewriter) splitHeader(lines PatchText, dialect HeaderDialect) (message, diff PatchText, err error) {
	fixed := r.patterns.fixedLines(dialect)
	if len(lines) < len(fixed) {
		return nil, nil, NewError(ErrorTypeMalformedHeader,
			fmt.Sprintf("malformed %s header: patch must have at least %d lines", dialect, len(fixed)), nil).
			WithContext("dialect", dialect)
	}
	for i, pattern := range fixed {
		if !pattern.MatchString(lines[i]) {
			return nil, nil, NewMalformedHeaderError(dialect, i, lines[i], pattern.String())
		}
	}

	end := len(lines)
	for i := len(fixed); i < len(lines); i++ {
		if strings.HasPrefix(lines[i], diffLinePrefix) {
			end = i
			break
		}
	}
	return lines[len(fixed):end].clone(), lines[end:].clone(), nil
}

// splitMessage takes line 0 of a Mercurial commit message as the subject
func splitMessage(message PatchText) (string, []string) {
	if len(message) == 0 {
		return "", []string{}
	}
	return message[0], append([]string{}, message[1:]...)
}

// mercurialDate converts "# Date <epoch> <offset>" to RFC 2822.
// Mercurial offsets are seconds west of UTC.
func (r *Rewriter) mercurialDate(line string) (string, error) {
	m := r.patterns.hgDate.FindStringSubmatch(line)
	epoch, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return "", NewMalformedHeaderError(HeaderMercurialExport, 2, line, r.patterns.hgDate.String())
	}
	offset, err := strconv.Atoi(m[2])
	if err != nil {
		return "", NewMalformedHeaderError(HeaderMercurialExport, 2, line, r.patterns.hgDate.String())
	}
	zone := time.FixedZone("", -offset)
	return time.Unix(epoch, 0).In(zone).Format(time.RFC1123Z), nil
}

// Render converts canonical fields into a header of dialect followed by diff.
// Only GitMailbox and MercurialExport are render targets.
func (r *Rewriter) Render(fields HeaderFields, dialect HeaderDialect, diff PatchText) (PatchText, error) {
	var out PatchText
	switch dialect {
	case HeaderGitMailbox:
		out = PatchText{
			"From: " + fields.Author,
			"Subject: " + fields.Subject,
			"Date: " + fields.Date,
			"",
		}
	case HeaderMercurialExport:
		date, err := gitdiff.ParsePatchDate(fields.Date)
		if err != nil || fields.Date == "" {
			return nil, NewError(ErrorTypeMalformedHeader,
				fmt.Sprintf("malformed date %q", fields.Date), err).
				WithContext("date", fields.Date)
		}
		_, east := date.Zone()
		out = PatchText{
			"# HG changeset patch",
			"# User " + fields.Author,
			fmt.Sprintf("# Date %d %d", date.Unix(), -east),
			"# Node ID " + PlaceholderHash,
			"# Parent  " + PlaceholderHash,
			fields.Subject,
		}
	default:
		return nil, NewUnsupportedConversionError("rendering a header as " + dialect.String())
	}

	out = append(out, fields.Body...)
	out = append(out, diff...)
	return out, nil
}

func renderable(dialect HeaderDialect) bool {
	return dialect == HeaderGitMailbox || dialect == HeaderMercurialExport
}
