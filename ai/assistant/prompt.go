package assistant

import (
	"regexp"
	"strings"

	"github.com/hrygo/readle/ai/format"
)

// EmptyReplyFallback replaces a model reply that is blank after cleaning.
const EmptyReplyFallback = "I apologize, but I wasn't able to generate a proper response. Could you please try asking again?"

const systemPromptTemplate = `You are Readle, a helpful assistant designed to support children with dyslexia and their parents.

Key guidelines:
- Remember our conversation and refer back to previous messages when relevant
- Keep your language simple, encouraging, and supportive
- Use your general knowledge to provide helpful information about dyslexia, learning difficulties, and educational support
- Be encouraging and positive while providing accurate information
- Keep responses conversational and remember what we discussed before
- Provide complete, well-formed responses without cutting off mid-sentence
- Always finish your thoughts and end responses naturally
- If you're unsure about specific details, acknowledge this and suggest consulting with professionals
- {style}
- {layout}

Important: You can discuss general topics about dyslexia, learning strategies, educational support, and provide encouragement to families dealing with learning differences. Always provide complete responses.
`

// SystemPrompt builds the system message for a question analysed as a.
func SystemPrompt(a Analysis) string {
	layout := "Provide a clear, paragraph-based explanation."
	if a.Layout == LayoutList {
		layout = "Format your response as a clear, numbered list or bullet points."
	}
	return strings.NewReplacer(
		"{style}", "Keep your response "+a.Style+".",
		"{layout}", layout,
	).Replace(systemPromptTemplate)
}

var (
	spaceRun   = regexp.MustCompile(` +`)
	terminator = regexp.MustCompile(`[.!?:]`)
)

// CleanReply tidies a raw model reply: invalid UTF-8 is dropped, blank lines
// removed, each line trimmed with inner space runs collapsed. A trailing
// prose line cut off mid-sentence is shortened to its last complete
// sentence, or closed with a period when it has none. List item lines are
// left as they are so the formatter still sees their markers.
func CleanReply(text string) string {
	text = strings.ToValidUTF8(text, "")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, spaceRun.ReplaceAllString(line, " "))
	}
	if len(lines) == 0 {
		return EmptyReplyFallback
	}

	last := lines[len(lines)-1]
	if !strings.ContainsAny(last[len(last)-1:], ".!?:") && !format.IsListItem(last) {
		locs := terminator.FindAllStringIndex(last, -1)
		if n := len(locs); n > 0 && locs[n-1][1] > 1 {
			last = last[:locs[n-1][1]]
		} else {
			last += "."
		}
		lines[len(lines)-1] = last
	}
	return strings.Join(lines, "\n")
}
