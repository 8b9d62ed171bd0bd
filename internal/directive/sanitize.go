package directive

import "strings"

const fence = "```"

// DefaultLanguage is the fence tag recognized when no other is configured.
const DefaultLanguage = "python"

// Sanitizer strips code-fence artifacts from extracted content blocks.
// It only removes one closing fence at the very end and one opening fence at
// the very start; nothing else in the content is touched.
type Sanitizer struct {
	openers []string
}

// NewSanitizer returns a sanitizer recognizing the bare opening fence and the
// fences tagged with the given languages. With no languages it falls back to
// DefaultLanguage.
func NewSanitizer(languages ...string) *Sanitizer {
	if len(languages) == 0 {
		languages = []string{DefaultLanguage}
	}
	s := &Sanitizer{}
	for _, lang := range languages {
		lang = strings.TrimSpace(lang)
		if lang == "" {
			continue
		}
		s.openers = append(s.openers, fence+lang)
	}
	s.openers = append(s.openers, fence)
	return s
}

var defaultSanitizer = NewSanitizer()

// Sanitize strips fences using the default sanitizer.
func Sanitize(content string) string {
	return defaultSanitizer.Sanitize(content)
}

// Sanitize removes a trailing closing fence and a leading opening fence,
// together with the line break that belonged to each fence line.
func (s *Sanitizer) Sanitize(content string) string {
	if strings.HasSuffix(content, fence) {
		content = strings.TrimSuffix(content, fence)
		content = trimOneNewlineRight(content)
	}

	for _, opener := range s.openers {
		rest, ok := strings.CutPrefix(content, opener)
		if !ok {
			continue
		}
		if rest != "" && rest[0] != '\n' && rest[0] != '\r' {
			continue
		}
		content = trimOneNewlineLeft(rest)
		break
	}

	return content
}

// Clean is what gets written to disk for a raw content block: trimmed,
// sanitized, trimmed again.
func (s *Sanitizer) Clean(raw string) string {
	return strings.TrimSpace(s.Sanitize(strings.TrimSpace(raw)))
}

func trimOneNewlineRight(s string) string {
	if strings.HasSuffix(s, "\r\n") {
		return s[:len(s)-2]
	}
	return strings.TrimSuffix(s, "\n")
}

func trimOneNewlineLeft(s string) string {
	if strings.HasPrefix(s, "\r\n") {
		return s[2:]
	}
	return strings.TrimPrefix(s, "\n")
}
