package format

import (
	"regexp"
	"strings"
)

// marker recognizes one kind of list marker at the start of a trimmed line.
type marker struct {
	kind  Kind
	re    *regexp.Regexp
	build func(label, text string) Fragment
}

var (
	numberedMarker = marker{
		kind: KindNumbered,
		re:   regexp.MustCompile(`^(\d+)[.)]\s+(\S.*)$`),
		build: func(label, text string) Fragment {
			return NumberedItem{Label: label, Text: text}
		},
	}
	bulletMarker = marker{
		kind: KindBullet,
		// The empty group keeps the text at submatch 2 like the other markers.
		re: regexp.MustCompile(`^()[-•*]\s+(\S.*)$`),
		build: func(_, text string) Fragment {
			return BulletItem{Text: text}
		},
	}
	stepMarker = marker{
		kind: KindStep,
		re:   regexp.MustCompile(`(?i)^step\s+(\d+)[:.]?\s+(\S.*)$`),
		build: func(label, text string) Fragment {
			return StepItem{Label: label, Text: text}
		},
	}

	// markers in precedence order.
	markers = []marker{numberedMarker, bulletMarker, stepMarker}
)

// match reports the label and stripped text of line if it carries this marker.
func (m marker) match(line string) (label, text string, ok bool) {
	sub := m.re.FindStringSubmatch(line)
	if sub == nil {
		return "", "", false
	}
	return sub[1], sub[2], true
}

// classifyLine returns the item fragment for a line that starts with a
// marker. Lines matching several markers resolve by precedence:
// numbered, then bullet, then step.
func classifyLine(line string) (Fragment, bool) {
	line = strings.TrimSpace(line)
	for _, m := range markers {
		if label, text, ok := m.match(line); ok {
			return m.build(label, text), true
		}
	}
	return nil, false
}

// lineKind is the kind a line classifies as on its own, KindPlainText when it
// has no marker.
func lineKind(line string) Kind {
	if f, ok := classifyLine(line); ok {
		return f.Kind()
	}
	return KindPlainText
}

// IsListItem reports whether line, once trimmed, starts with a numbered,
// bullet or step marker.
func IsListItem(line string) bool {
	return lineKind(line) != KindPlainText
}
