// Package format classifies raw chat-assistant replies into typed fragments
// (plain text, numbered items, bullet items, step items) so a view can render
// each kind differently.
package format

import (
	"strings"
)

// DefaultMinListItems is the number of marker lines a message needs before it
// is treated as a single list as a whole.
const DefaultMinListItems = 2

// Options configures a Formatter.
type Options struct {
	// MinListItems is the whole-message threshold for the list strategies.
	// Values below 1 fall back to DefaultMinListItems.
	MinListItems int
}

// Result is the outcome of classifying one message.
type Result struct {
	Strategy  string // name of the strategy that matched, "" for blank input
	Fragments []Fragment
}

// Formatter turns a raw message into fragments by trying its strategies in
// order. It is immutable and safe for concurrent use.
type Formatter struct {
	strategies []Strategy
}

// New returns a Formatter using the default strategy chain.
func New(opts Options) *Formatter {
	return NewWithStrategies(DefaultStrategies(opts)...)
}

// NewWithStrategies returns a Formatter that tries the given strategies in
// order. If none of them match, the trimmed message becomes one PlainText.
func NewWithStrategies(strategies ...Strategy) *Formatter {
	s := make([]Strategy, len(strategies))
	copy(s, strategies)
	return &Formatter{strategies: s}
}

var defaultFormatter = New(Options{})

// Format classifies content with the default formatter.
func Format(content string) []Fragment {
	return defaultFormatter.Format(content)
}

// Format classifies content into an ordered list of fragments. Blank input
// yields an empty, non-nil slice.
func (f *Formatter) Format(content string) []Fragment {
	return f.Classify(content).Fragments
}

// Classify is Format that also reports which strategy produced the result.
func (f *Formatter) Classify(content string) Result {
	content = normalizeNewlines(content)
	if strings.TrimSpace(content) == "" {
		return Result{Fragments: []Fragment{}}
	}

	lines := strings.Split(content, "\n")
	for _, s := range f.strategies {
		if frags, ok := s.Apply(lines); ok && len(frags) > 0 {
			return Result{Strategy: s.Name(), Fragments: frags}
		}
	}
	return Result{
		Strategy:  "fallback",
		Fragments: []Fragment{PlainText{Text: strings.TrimSpace(content)}},
	}
}

// Join concatenates fragment texts with single spaces and collapses all
// whitespace runs, which is the normalized content of the original message
// minus its markers.
func Join(frags []Fragment) string {
	parts := make([]string, 0, len(frags))
	for _, fr := range frags {
		parts = append(parts, fr.Content())
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
