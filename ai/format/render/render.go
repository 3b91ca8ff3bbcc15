// Package render draws formatted chat fragments for a specific surface:
// plain text, a styled terminal, HTML or JSON.
package render

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/readle/ai/format"
)

// Renderer writes fragments to w.
type Renderer interface {
	Render(w io.Writer, frags []format.Fragment) error
}

// Names accepted by ByName.
const (
	NameText     = "text"
	NameTerminal = "terminal"
	NameHTML     = "html"
	NameJSON     = "json"
)

// ByName returns the renderer registered under name. width only affects the
// terminal renderer.
func ByName(name string, width int) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameText:
		return Text{}, nil
	case NameTerminal:
		return NewTerminal(width), nil
	case NameHTML:
		return NewHTML(), nil
	case NameJSON:
		return JSON{Indent: "  "}, nil
	default:
		return nil, errors.Errorf("unknown output %q (want text, terminal, html or json)", name)
	}
}

// Text renders fragments as plain text, keeping a visible marker for items.
type Text struct{}

func (Text) Render(w io.Writer, frags []format.Fragment) error {
	var sb strings.Builder
	for _, f := range frags {
		switch v := f.(type) {
		case format.NumberedItem:
			writeItem(&sb, v.Label+". ", v.Text)
		case format.BulletItem:
			writeItem(&sb, "• ", v.Text)
		case format.StepItem:
			writeItem(&sb, "[Step "+v.Label+"] ", v.Text)
		default:
			sb.WriteString(f.Content())
			sb.WriteString("\n")
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// writeItem writes the first line after prefix and indents continuation lines
// to line up with it.
func writeItem(sb *strings.Builder, prefix, text string) {
	indent := strings.Repeat(" ", len([]rune(prefix))+2)
	for i, line := range strings.Split(text, "\n") {
		if i == 0 {
			sb.WriteString("  " + prefix + line + "\n")
			continue
		}
		sb.WriteString(indent + line + "\n")
	}
}

// JSON renders fragments as a JSON array of {kind, label, text} objects.
type JSON struct {
	Indent string
}

func (j JSON) Render(w io.Writer, frags []format.Fragment) error {
	if frags == nil {
		frags = []format.Fragment{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", j.Indent)
	if err := enc.Encode(frags); err != nil {
		return errors.Wrap(err, "failed to encode fragments")
	}
	return nil
}
