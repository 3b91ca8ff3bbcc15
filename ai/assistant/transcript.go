package assistant

import (
	"io"

	"github.com/hrygo/readle/ai/cache"
	"github.com/hrygo/readle/ai/format"
	"github.com/hrygo/readle/ai/format/render"
	"github.com/hrygo/readle/ai/metrics"
)

// Transcript renders conversation messages. Bot replies are split into
// fragments by the formatter; user messages stay one plain fragment.
type Transcript struct {
	formatter *cache.Formatter
	metrics   *metrics.PrometheusExporter
}

// NewTranscript renders through f, recording formatter metrics on m when
// it is non-nil. A nil f uses a default cached formatter.
func NewTranscript(f *cache.Formatter, m *metrics.PrometheusExporter) *Transcript {
	if f == nil {
		f = cache.NewFormatter(nil, 0)
	}
	return &Transcript{formatter: f, metrics: m}
}

// Fragments returns the display fragments of msg.
func (t *Transcript) Fragments(msg Message) []format.Fragment {
	if msg.Sender != SenderBot {
		return []format.Fragment{format.PlainText{Text: msg.Content}}
	}

	res, hit := t.formatter.Classify(msg.Content)
	if t.metrics != nil {
		t.metrics.RecordFormatCache(hit)
		kinds := make([]string, len(res.Fragments))
		for i, f := range res.Fragments {
			kinds[i] = f.Kind().String()
		}
		t.metrics.RecordFormat(res.Strategy, kinds)
	}
	return res.Fragments
}

// Render writes msg to w with r.
func (t *Transcript) Render(w io.Writer, r render.Renderer, msg Message) error {
	return r.Render(w, t.Fragments(msg))
}

// Stats reports formatter cache effectiveness.
func (t *Transcript) Stats() cache.Stats {
	return t.formatter.Stats()
}
