package assistant

import (
	"strings"
	"unicode"
)

// Question types, ordered from shortest to longest expected answer.
const (
	TypeAcknowledgment = "acknowledgment"
	TypeSimple         = "simple"
	TypeModerate       = "moderate"
	TypeDetailed       = "detailed"
)

// Answer layouts requested from the model.
const (
	LayoutParagraph = "paragraph"
	LayoutList      = "list"
)

// Analysis sizes and shapes the answer to one user question.
type Analysis struct {
	Type      string
	MaxTokens int
	Style     string
	Layout    string
}

var (
	verySimplePhrases = []string{
		"yes", "no", "ok", "okay", "got it", "understood", "right", "correct",
	}
	simplePhrases = []string{
		"what is", "define", "meaning of", "yes or no", "can you", "do you",
		"is it", "are you", "hello", "hi", "thanks", "thank you", "bye",
		"how old", "when was", "where is", "who is",
	}
	detailedPhrases = []string{
		"how to", "what are the steps", "explain how", "walk me through",
		"what are all", "list all", "give me examples", "what strategies",
		"how can i help", "what should i do", "best practices", "comprehensive",
	}
	listPhrases = []string{
		"what are the", "list", "examples of", "types of", "symptoms of",
		"strategies for", "ways to", "steps to", "benefits of", "features of",
		"characteristics of", "methods for", "approaches to", "techniques for",
		"how to", "can you give me", "tell me about the", "explain the different",
	}
)

// AnalyzeQuestion picks the answer length, tone and layout for question.
// Phrases match on word boundaries, so "know" does not count as "no".
func AnalyzeQuestion(question string) Analysis {
	norm := normalizeWords(question)
	words := len(strings.Fields(question))

	layout := LayoutParagraph
	if containsPhrase(norm, listPhrases) {
		layout = LayoutList
	}

	switch {
	case words <= 2 || (containsPhrase(norm, verySimplePhrases) && words <= 4):
		return Analysis{Type: TypeAcknowledgment, MaxTokens: 75, Style: "very brief and friendly", Layout: LayoutParagraph}
	case words <= 6 || containsPhrase(norm, simplePhrases):
		return Analysis{Type: TypeSimple, MaxTokens: 150, Style: "concise but complete", Layout: layout}
	case words >= 10 || containsPhrase(norm, detailedPhrases):
		return Analysis{Type: TypeDetailed, MaxTokens: 800, Style: "comprehensive with examples", Layout: layout}
	default:
		return Analysis{Type: TypeModerate, MaxTokens: 200, Style: "clear and helpful", Layout: layout}
	}
}

// normalizeWords lowercases s, turns punctuation into spaces and pads the
// result so every word is surrounded by single spaces.
func normalizeWords(s string) string {
	var sb strings.Builder
	sb.WriteByte(' ')
	space := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' {
			sb.WriteRune(r)
			space = false
			continue
		}
		if !space {
			sb.WriteByte(' ')
			space = true
		}
	}
	if !space {
		sb.WriteByte(' ')
	}
	return sb.String()
}

func containsPhrase(norm string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(norm, " "+p+" ") {
			return true
		}
	}
	return false
}
