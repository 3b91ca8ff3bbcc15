package render

import (
	"bytes"
	"html"
	"io"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/util"

	"github.com/hrygo/readle/ai/format"
)

// HTML renders each fragment as a block element. Fragment text is passed
// through goldmark so inline emphasis, code and links in replies survive;
// raw HTML in the reply is dropped by goldmark's default settings.
type HTML struct {
	md goldmark.Markdown
}

// NewHTML returns an HTML renderer whose goldmark parser knows paragraphs
// only. The formatter already decided which lines are list items, so a
// leftover "1." or "-" must not turn into a list, heading or quote again.
func NewHTML() *HTML {
	p := parser.NewParser(
		parser.WithBlockParsers(util.Prioritized(parser.NewParagraphParser(), 1000)),
		parser.WithInlineParsers(parser.DefaultInlineParsers()...),
		parser.WithParagraphTransformers(parser.DefaultParagraphTransformers()...),
	)
	return &HTML{md: goldmark.New(goldmark.WithParser(p))}
}

func (h *HTML) Render(w io.Writer, frags []format.Fragment) error {
	var buf bytes.Buffer
	buf.WriteString(`<div class="readle-message">` + "\n")
	for _, f := range frags {
		body, err := h.inline(f.Content())
		if err != nil {
			return err
		}
		switch v := f.(type) {
		case format.NumberedItem:
			buf.WriteString(`<div class="readle-numbered"><span class="readle-badge">` + html.EscapeString(v.Label) + `</span>`)
			buf.WriteString(`<div class="readle-body">` + body + "</div></div>\n")
		case format.BulletItem:
			buf.WriteString(`<div class="readle-bullet"><span class="readle-dot"></span>`)
			buf.WriteString(`<div class="readle-body">` + body + "</div></div>\n")
		case format.StepItem:
			buf.WriteString(`<div class="readle-step"><span class="readle-step-badge">` + html.EscapeString(v.Label) + `</span>`)
			buf.WriteString(`<div class="readle-body">` + body + "</div></div>\n")
		default:
			buf.WriteString(body)
		}
	}
	buf.WriteString("</div>\n")

	_, err := w.Write(buf.Bytes())
	return err
}

func (h *HTML) inline(text string) (string, error) {
	var out bytes.Buffer
	if err := h.md.Convert([]byte(text), &out); err != nil {
		return "", errors.Wrap(err, "failed to convert fragment markdown")
	}
	return out.String(), nil
}
