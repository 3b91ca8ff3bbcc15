package format

import (
	"encoding/json"
)

// Kind identifies how a fragment should be rendered.
type Kind int

const (
	KindPlainText Kind = iota
	KindNumbered
	KindBullet
	KindStep
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindPlainText:
		return "plain"
	case KindNumbered:
		return "numbered"
	case KindBullet:
		return "bullet"
	case KindStep:
		return "step"
	default:
		return "unknown"
	}
}

// Fragment is one classified piece of a message. The set of implementations
// is closed: PlainText, NumberedItem, BulletItem and StepItem.
type Fragment interface {
	Kind() Kind
	// Content is the display text with its marker stripped.
	Content() string

	fragment()
}

// PlainText is prose without a list marker.
type PlainText struct {
	Text string
}

// NumberedItem is a line that started with "N." or "N)".
type NumberedItem struct {
	Label string
	Text  string
}

// BulletItem is a line that started with "-", "•" or "*".
type BulletItem struct {
	Text string
}

// StepItem is a line that started with "Step N".
type StepItem struct {
	Label string
	Text  string
}

func (PlainText) Kind() Kind    { return KindPlainText }
func (NumberedItem) Kind() Kind { return KindNumbered }
func (BulletItem) Kind() Kind   { return KindBullet }
func (StepItem) Kind() Kind     { return KindStep }

func (f PlainText) Content() string    { return f.Text }
func (f NumberedItem) Content() string { return f.Text }
func (f BulletItem) Content() string   { return f.Text }
func (f StepItem) Content() string     { return f.Text }

func (PlainText) fragment()    {}
func (NumberedItem) fragment() {}
func (BulletItem) fragment()   {}
func (StepItem) fragment()     {}

// Label returns the ordinal or step number of f, if it has one.
func Label(f Fragment) (string, bool) {
	switch v := f.(type) {
	case NumberedItem:
		return v.Label, true
	case StepItem:
		return v.Label, true
	default:
		return "", false
	}
}

type wireFragment struct {
	Kind  string `json:"kind"`
	Label string `json:"label,omitempty"`
	Text  string `json:"text"`
}

func toWire(f Fragment) wireFragment {
	label, _ := Label(f)
	return wireFragment{Kind: f.Kind().String(), Label: label, Text: f.Content()}
}

func (f PlainText) MarshalJSON() ([]byte, error)    { return json.Marshal(toWire(f)) }
func (f NumberedItem) MarshalJSON() ([]byte, error) { return json.Marshal(toWire(f)) }
func (f BulletItem) MarshalJSON() ([]byte, error)   { return json.Marshal(toWire(f)) }
func (f StepItem) MarshalJSON() ([]byte, error)     { return json.Marshal(toWire(f)) }
