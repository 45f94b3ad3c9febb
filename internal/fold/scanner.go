package fold

import (
	"fmt"
	"strings"
)

// StartMatch selects how the opening line of a JSDoc block is recognised.
type StartMatch int

const (
	// MatchExact requires the trimmed line to be exactly "/**".
	MatchExact StartMatch = iota

	// MatchPrefix accepts any trimmed line starting with "/**".
	MatchPrefix
)

// String returns the configuration name of the rule.
func (m StartMatch) String() string {
	switch m {
	case MatchExact:
		return "exact"
	case MatchPrefix:
		return "prefix"
	default:
		return "unknown"
	}
}

// ParseStartMatch parses "exact" or "prefix".
func ParseStartMatch(s string) (StartMatch, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exact":
		return MatchExact, nil
	case "prefix":
		return MatchPrefix, nil
	default:
		return MatchExact, fmt.Errorf("%w: %q", ErrUnknownStartMatch, s)
	}
}

const (
	jsdocOpen  = "/**"
	blockClose = "*/"
	classKw    = "class "
)

// DefaultAttachPrefixes are the line prefixes that attach a JSDoc block to
// the declaration below it.
var DefaultAttachPrefixes = []string{"class", "export", "module.exports"}

// AttachRule is an extra attachment check applied to the trimmed line that
// follows a JSDoc block.
type AttachRule interface {
	Attached(next string) bool
}

// AttachRuleFunc adapts a function to AttachRule.
type AttachRuleFunc func(next string) bool

// Attached implements AttachRule.
func (f AttachRuleFunc) Attached(next string) bool { return f(next) }

// Scanner finds JSDoc blocks and class bodies in a Document.
// A Scanner is immutable and safe for concurrent use.
type Scanner struct {
	match    StartMatch
	prefixes []string
	rules    []AttachRule
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithStartMatch sets the opening line rule.
func WithStartMatch(m StartMatch) ScannerOption {
	return func(s *Scanner) {
		s.match = m
	}
}

// WithAttachPrefixes replaces the attachment prefixes.
func WithAttachPrefixes(prefixes ...string) ScannerOption {
	return func(s *Scanner) {
		s.prefixes = append([]string(nil), prefixes...)
	}
}

// WithAttachRule adds an attachment rule checked after the prefixes.
func WithAttachRule(rule AttachRule) ScannerOption {
	return func(s *Scanner) {
		if rule != nil {
			s.rules = append(s.rules, rule)
		}
	}
}

// NewScanner creates a scanner. Without options it matches "/**" exactly
// and uses DefaultAttachPrefixes.
func NewScanner(opts ...ScannerOption) *Scanner {
	s := &Scanner{
		match:    MatchExact,
		prefixes: DefaultAttachPrefixes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartMatch returns the opening line rule.
func (s *Scanner) StartMatch() StartMatch {
	return s.match
}

// JSDoc returns the range of every terminated JSDoc block, top to bottom.
//
// A block opens on a line matching the start rule and closes on the first
// later line whose trimmed text ends with "*/". Blocks never nest: an opener
// inside an open block is scanned past. A block still open at the end of
// the document is dropped.
func (s *Scanner) JSDoc(doc Document) []LineRange {
	n := doc.LineCount()
	var ranges []LineRange

	for i := 0; i < n; i++ {
		text := strings.TrimSpace(doc.Line(i))
		if !s.opens(text) {
			continue
		}
		// "/** one-liner */" has nothing to fold
		if len(text) > len(jsdocOpen) && strings.HasSuffix(text, blockClose) {
			continue
		}

		end := closingLine(doc, i+1)
		if end < 0 {
			break
		}
		ranges = append(ranges, LineRange{
			Start:     i,
			End:       end,
			EndColumn: len(doc.Line(end)),
		})
		i = end
	}

	return ranges
}

func (s *Scanner) opens(trimmed string) bool {
	if s.match == MatchPrefix {
		return strings.HasPrefix(trimmed, jsdocOpen)
	}
	return trimmed == jsdocOpen
}

// closingLine returns the first line at or after from ending with "*/", or -1.
func closingLine(doc Document, from int) int {
	for j := from; j < doc.LineCount(); j++ {
		if strings.HasSuffix(strings.TrimSpace(doc.Line(j)), blockClose) {
			return j
		}
	}
	return -1
}

// Classes returns the body range of every class declaration.
//
// A declaration is a line whose trimmed text starts with "class ". Braces
// are counted from the first "{" on or after that line and the range ends
// on the line where the count returns to zero. Braces inside strings and
// comments are counted too. Unbalanced declarations are dropped.
func (s *Scanner) Classes(doc Document) []LineRange {
	var ranges []LineRange
	for i := 0; i < doc.LineCount(); i++ {
		if !strings.HasPrefix(strings.TrimSpace(doc.Line(i)), classKw) {
			continue
		}
		if r, ok := classBody(doc, i); ok {
			ranges = append(ranges, r)
		}
	}
	return ranges
}

func classBody(doc Document, start int) (LineRange, bool) {
	depth := 0
	opened := false

	for j := start; j < doc.LineCount(); j++ {
		line := doc.Line(j)
		for k := 0; k < len(line); k++ {
			switch line[k] {
			case '{':
				depth++
				opened = true
			case '}':
				if !opened {
					continue
				}
				depth--
				if depth == 0 {
					return LineRange{Start: start, End: j, EndColumn: len(line)}, true
				}
			}
		}
	}

	return LineRange{}, false
}

// Attached reports whether the JSDoc block r documents a class or a module
// export. Only the line directly after the block is inspected; a blank line
// or the end of the document means the block is free-standing.
func (s *Scanner) Attached(doc Document, r LineRange) bool {
	next := r.End + 1
	if next >= doc.LineCount() {
		return false
	}

	text := strings.TrimSpace(doc.Line(next))
	if text == "" {
		return false
	}

	for _, prefix := range s.prefixes {
		if strings.HasPrefix(text, prefix) {
			return true
		}
	}
	for _, rule := range s.rules {
		if rule.Attached(text) {
			return true
		}
	}
	return false
}

// AttachedBlocks filters blocks down to the ones Attached reports.
func (s *Scanner) AttachedBlocks(doc Document, blocks []LineRange) []LineRange {
	var attached []LineRange
	for _, r := range blocks {
		if s.Attached(doc, r) {
			attached = append(attached, r)
		}
	}
	return attached
}
