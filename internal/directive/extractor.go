// Package directive turns a free-form model answer into file edit directives.
//
// An answer contains zero or more blocks of the form
//
//	New path/to/file.py:
//	<content>
//	Modified other/file.py:
//	<content>
//
// A block runs from its header line to the line before the next header, or
// to the end of the answer. Text that does not follow this shape is ignored.
package directive

import (
	"strings"

	"github.com/xiaot623/gogo/copilot/internal/domain"
)

const (
	keywordNew      = "New"
	keywordModified = "Modified"
)

// Header is a parsed directive header line.
type Header struct {
	Action domain.Action
	Path   string
	// Rest is whatever followed the colon on the header line.
	Rest string
}

// Extract returns the directives found in answer, in order of appearance.
// Duplicate paths are kept; the caller applies them in sequence.
func Extract(answer string) []domain.Directive {
	answer = strings.ReplaceAll(answer, "\r\n", "\n")
	answer = strings.TrimSuffix(answer, "\n")
	if answer == "" {
		return nil
	}

	var (
		directives []domain.Directive
		current    *domain.Directive
		body       []string
	)

	flush := func() {
		if current == nil {
			return
		}
		current.Content = strings.Join(body, "\n")
		directives = append(directives, *current)
		current = nil
		body = nil
	}

	for _, line := range strings.Split(answer, "\n") {
		if h, ok := ParseHeader(line); ok {
			flush()
			current = &domain.Directive{Action: h.Action, Path: h.Path}
			if rest := strings.TrimLeft(h.Rest, " \t"); rest != "" {
				body = append(body, rest)
			}
			continue
		}
		if current == nil {
			continue
		}
		if len(body) == 0 {
			// Whitespace between the colon and the first content is skipped.
			if strings.TrimSpace(line) == "" {
				continue
			}
			line = strings.TrimLeft(line, " \t")
		}
		body = append(body, line)
	}
	flush()

	return directives
}

// ParseHeader reports whether line opens a directive, and parses it if so.
// The keyword must start the line; indented lines are block content. The
// path is the longest run of path characters after the keyword, cut at the
// last colon inside that run.
func ParseHeader(line string) (Header, bool) {
	var h Header
	var rest string
	switch {
	case strings.HasPrefix(line, keywordModified):
		h.Action = domain.ActionModify
		rest = line[len(keywordModified):]
	case strings.HasPrefix(line, keywordNew):
		h.Action = domain.ActionCreate
		rest = line[len(keywordNew):]
	default:
		return Header{}, false
	}

	after := strings.TrimLeft(rest, " \t")
	if len(after) == len(rest) {
		return Header{}, false
	}

	n := 0
	for n < len(after) && isPathChar(after[n]) {
		n++
	}
	colon := strings.LastIndexByte(after[:n], ':')
	if colon < 0 {
		return Header{}, false
	}

	h.Path = strings.TrimRight(after[:colon], " ")
	if h.Path == "" {
		return Header{}, false
	}
	h.Rest = after[colon+1:]
	return h, true
}

func isPathChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '/', '\\', '_', '.', ':', ' ', '-':
		return true
	}
	return false
}
