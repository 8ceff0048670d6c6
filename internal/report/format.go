// Package report turns the free-form analysis text returned by the model into
// typed display blocks.
//
// The model is asked to use "---" separators, "- " bullets and **bold** spans
// but nothing enforces that, so Format is a best-effort display helper and
// never fails: text it does not recognise becomes a plain paragraph.
package report

import (
	"regexp"
	"strings"
)

// BlockKind names the kind of a display block.
type BlockKind string

const (
	BlockParagraph BlockKind = "paragraph"
	BlockBullets   BlockKind = "bullets"
	BlockHeading   BlockKind = "heading"
)

// Span is a run of inline text.
type Span struct {
	Text string `json:"text"`
	Bold bool   `json:"bold,omitempty"`
}

// Block is one rendered unit of the report.
type Block struct {
	Kind  BlockKind `json:"kind"`
	Level int       `json:"level,omitempty"`
	Spans []Span    `json:"spans,omitempty"`
	Items [][]Span  `json:"items,omitempty"`
}

var (
	boldRe    = regexp.MustCompile(`\*\*(.*?)\*\*`)
	headingRe = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
)

// Format splits text into blocks, one per non-empty line. Consecutive bullet
// lines are not merged.
func Format(text string) []Block {
	cleaned := strings.ReplaceAll(text, "---", "\n\n")

	var blocks []Block
	for _, line := range strings.Split(cleaned, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "- "):
			blocks = append(blocks, Block{
				Kind:  BlockBullets,
				Items: [][]Span{Spans(strings.TrimPrefix(line, "- "))},
			})
		case headingRe.MatchString(line):
			m := headingRe.FindStringSubmatch(line)
			blocks = append(blocks, Block{
				Kind:  BlockHeading,
				Level: len(m[1]),
				Spans: Spans(m[2]),
			})
		default:
			blocks = append(blocks, Block{Kind: BlockParagraph, Spans: Spans(line)})
		}
	}
	return blocks
}

// Spans splits a line on **bold** markers. Unmatched markers stay literal.
func Spans(line string) []Span {
	var spans []Span
	last := 0
	for _, m := range boldRe.FindAllStringSubmatchIndex(line, -1) {
		if m[0] > last {
			spans = append(spans, Span{Text: line[last:m[0]]})
		}
		if inner := line[m[2]:m[3]]; inner != "" {
			spans = append(spans, Span{Text: inner, Bold: true})
		}
		last = m[1]
	}
	if last < len(line) {
		spans = append(spans, Span{Text: line[last:]})
	}
	return spans
}

// PlainText joins spans without markup.
func PlainText(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.Text)
	}
	return b.String()
}
