package format

import (
	"strings"
)

// Strategy names reported in Result.Strategy.
const (
	StrategyNumberedList = "numbered-list"
	StrategyBulletList   = "bullet-list"
	StrategyStepList     = "step-list"
	StrategyMixed        = "mixed"
)

// Strategy is one step of the classification chain. Apply receives the
// message split into lines and either claims the whole message or reports
// no match.
type Strategy interface {
	Name() string
	Apply(lines []string) ([]Fragment, bool)
}

// DefaultStrategies returns the chain used by New: numbered list, bullet
// list, step list, then the per-paragraph mixed pass.
func DefaultStrategies(opts Options) []Strategy {
	threshold := opts.MinListItems
	if threshold < 1 {
		threshold = DefaultMinListItems
	}
	return []Strategy{
		NumberedList(threshold),
		BulletList(threshold),
		StepList(threshold),
		Mixed(),
	}
}

// NumberedList claims messages with at least threshold numbered lines. Lines that
// follow an item without a blank line in between belong to that item.
func NumberedList(threshold int) Strategy {
	return &listStrategy{name: StrategyNumberedList, marker: numberedMarker, min: threshold, continuation: true}
}

// BulletList claims messages with at least threshold bullet lines. Other lines
// become PlainText.
func BulletList(threshold int) Strategy {
	return &listStrategy{name: StrategyBulletList, marker: bulletMarker, min: threshold}
}

// StepList claims messages with at least threshold "Step N" lines. Other lines
// become PlainText.
func StepList(threshold int) Strategy {
	return &listStrategy{name: StrategyStepList, marker: stepMarker, min: threshold}
}

type listStrategy struct {
	name         string
	marker       marker
	min          int
	continuation bool
}

func (s *listStrategy) Name() string { return s.name }

func (s *listStrategy) Apply(lines []string) ([]Fragment, bool) {
	count := 0
	for _, line := range lines {
		if lineKind(line) == s.marker.kind {
			count++
		}
	}
	if count < s.min {
		return nil, false
	}

	var (
		out       []Fragment
		prose     []string
		itemLabel string
		itemText  []string
		itemOpen  bool
	)
	flushProse := func() {
		if len(prose) > 0 {
			out = append(out, PlainText{Text: strings.Join(prose, "\n")})
			prose = nil
		}
	}
	flushItem := func() {
		if itemOpen {
			out = append(out, s.marker.build(itemLabel, strings.Join(itemText, "\n")))
			itemOpen = false
			itemText = nil
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			flushItem()
			flushProse()
		case lineKind(trimmed) == s.marker.kind:
			flushItem()
			flushProse()
			label, text, _ := s.marker.match(trimmed)
			itemLabel, itemText, itemOpen = label, []string{text}, true
		case itemOpen && s.continuation:
			itemText = append(itemText, trimmed)
		default:
			flushItem()
			prose = append(prose, trimmed)
		}
	}
	flushItem()
	flushProse()
	return out, true
}

// Mixed splits the message into blank-line separated paragraphs. A paragraph
// containing at least one marker line is emitted line by line; any other
// paragraph becomes a single PlainText. Mixed matches every non-blank message.
func Mixed() Strategy {
	return mixedStrategy{}
}

type mixedStrategy struct{}

func (mixedStrategy) Name() string { return StrategyMixed }

func (mixedStrategy) Apply(lines []string) ([]Fragment, bool) {
	var out []Fragment
	for _, para := range paragraphs(lines) {
		items := make([]Fragment, 0, len(para))
		hasMarker := false
		for _, line := range para {
			if f, ok := classifyLine(line); ok {
				items = append(items, f)
				hasMarker = true
				continue
			}
			items = append(items, PlainText{Text: strings.TrimSpace(line)})
		}
		if hasMarker {
			out = append(out, items...)
			continue
		}
		out = append(out, PlainText{Text: strings.TrimSpace(strings.Join(para, "\n"))})
	}
	return out, len(out) > 0
}

// paragraphs groups lines into runs of non-blank lines.
func paragraphs(lines []string) [][]string {
	var (
		out [][]string
		cur []string
	)
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, line)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}
