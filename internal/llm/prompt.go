package llm

import (
	_ "embed"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	//go:embed prompts/summary.txt
	summaryTemplate string
	//go:embed prompts/question.txt
	questionTemplate string
	//go:embed prompts/mindmap.txt
	mindmapTemplate string
)

const (
	defaultCharBudget = 8000
	elisionMarker     = "\n[... middle of document omitted ...]\n"

	// Oversized documents keep head and tail, split 70/30.
	headShare = 0.7
)

// PromptBuilder composes task prompts while keeping the combined text
// under the model's input budget, measured in characters as a cheap
// token proxy.
type PromptBuilder struct {
	SummaryBudget int
	MindMapBudget int
}

// Summary builds the summarization prompt.
func (b PromptBuilder) Summary(documentText string) string {
	doc := TruncateHeadTail(documentText, b.summaryBudget())
	return strings.ReplaceAll(summaryTemplate, "{{DOCUMENT}}", doc)
}

// Question builds the QA prompt, with prior exchanges as follow-up
// context. History is included oldest-first and trimmed from the front
// when it would overflow the budget.
func (b PromptBuilder) Question(documentText, question string, history []Exchange) string {
	budget := b.summaryBudget()
	doc := TruncateHeadTail(documentText, budget)

	prompt := strings.ReplaceAll(questionTemplate, "{{DOCUMENT}}", doc)
	prompt = strings.ReplaceAll(prompt, "{{HISTORY}}", formatHistory(history, budget/2))
	return strings.ReplaceAll(prompt, "{{QUESTION}}", question)
}

// MindMap builds the concept-graph extraction prompt.
func (b PromptBuilder) MindMap(documentText string) string {
	budget := b.MindMapBudget
	if budget <= 0 {
		budget = 6000
	}
	doc := TruncateHeadTail(documentText, budget)
	return strings.ReplaceAll(mindmapTemplate, "{{DOCUMENT}}", doc)
}

func (b PromptBuilder) summaryBudget() int {
	if b.SummaryBudget <= 0 {
		return defaultCharBudget
	}
	return b.SummaryBudget
}

// TruncateHeadTail caps text at budget characters, keeping the head and
// tail around an elision marker when it overflows. Cut points back off
// to rune boundaries so multi-byte characters are never split.
func TruncateHeadTail(text string, budget int) string {
	if budget <= 0 || len(text) <= budget {
		return text
	}
	usable := budget - len(elisionMarker)
	if usable <= 0 {
		return text[:runeBoundaryBefore(text, budget)]
	}
	headLen := runeBoundaryBefore(text, int(float64(usable)*headShare))
	tailStart := runeBoundaryAfter(text, len(text)-(usable-headLen))
	return text[:headLen] + elisionMarker + text[tailStart:]
}

func runeBoundaryBefore(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

func runeBoundaryAfter(s string, i int) int {
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return i
}

func formatHistory(history []Exchange, budget int) string {
	if len(history) == 0 {
		return ""
	}

	var parts []string
	for _, ex := range history {
		parts = append(parts, fmt.Sprintf("Q: %s\nA: %s", ex.Question, ex.Answer))
	}

	// Drop oldest exchanges until the block fits.
	for len(parts) > 1 && blockLen(parts) > budget {
		parts = parts[1:]
	}

	return "\nPrevious conversation:\n" + strings.Join(parts, "\n") + "\n"
}

func blockLen(parts []string) int {
	total := 0
	for _, p := range parts {
		total += len(p) + 1
	}
	return total
}
