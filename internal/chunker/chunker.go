// Package chunker splits a markdown document into titled sections small
// enough to store as individual memories.
package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Section is one heading and the text under it.
type Section struct {
	Title     string
	Body      string
	StartLine int
	EndLine   int
}

// Split breaks text on markdown headings. Text before the first heading is
// titled fallback. Bodies longer than maxRunes are split on line boundaries
// and numbered "Title (2)", "Title (3)" and so on. Sections with neither a
// title nor a body are dropped.
func Split(text, fallback string, maxRunes int) []Section {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var out []Section
	lines := strings.Split(text, "\n")
	title := fallback
	var body []string
	start := 1

	flush := func(end int) {
		b := strings.TrimSpace(strings.Join(body, "\n"))
		if b != "" || (title != fallback && title != "") {
			out = append(out, hardSplit(Section{Title: title, Body: b, StartLine: start, EndLine: end}, maxRunes)...)
		}
		body = nil
	}

	for i, line := range lines {
		if h, ok := heading(line); ok {
			flush(i)
			title = h
			start = i + 1
			continue
		}
		body = append(body, line)
	}
	flush(len(lines))
	return out
}

func heading(line string) (string, bool) {
	t := strings.TrimSpace(line)
	if !strings.HasPrefix(t, "#") {
		return "", false
	}
	h := strings.TrimLeft(t, "#")
	// "#tag" is not a heading
	if h != "" && h[0] != ' ' {
		return "", false
	}
	return strings.TrimSpace(h), true
}

// hardSplit breaks a section whose body exceeds maxRunes on line boundaries.
// A single line longer than maxRunes is cut mid-line.
func hardSplit(s Section, maxRunes int) []Section {
	if maxRunes <= 0 || utf8.RuneCountInString(s.Body) <= maxRunes {
		return []Section{s}
	}

	var bodies []string
	var cur []string
	curLen := 0
	emit := func() {
		if len(cur) > 0 {
			bodies = append(bodies, strings.TrimSpace(strings.Join(cur, "\n")))
			cur, curLen = nil, 0
		}
	}
	for _, line := range strings.Split(s.Body, "\n") {
		for utf8.RuneCountInString(line) > maxRunes {
			emit()
			r := []rune(line)
			bodies = append(bodies, string(r[:maxRunes]))
			line = string(r[maxRunes:])
		}
		n := utf8.RuneCountInString(line)
		if len(cur) > 0 && curLen+1+n > maxRunes {
			emit()
		}
		if len(cur) > 0 {
			curLen++
		}
		cur = append(cur, line)
		curLen += n
	}
	emit()

	parts := make([]Section, 0, len(bodies))
	for _, b := range bodies {
		if b == "" {
			continue
		}
		title := s.Title
		if len(parts) > 0 {
			title = fmt.Sprintf("%s (%d)", s.Title, len(parts)+1)
		}
		parts = append(parts, Section{Title: title, Body: b, StartLine: s.StartLine, EndLine: s.EndLine})
	}
	return parts
}
