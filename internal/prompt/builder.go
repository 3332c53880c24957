package prompt

import (
	"strings"

	"niyamr/internal/domain"
)

const truncationMarker = "\n…(truncated)"

// Builder turns a rule and document text into a completion prompt.
type Builder struct {
	maxDocumentChars int
}

// NewBuilder returns a Builder. maxDocumentChars caps the document text
// embedded in each prompt; 0 disables the cap.
func NewBuilder(maxDocumentChars int) *Builder {
	if maxDocumentChars < 0 {
		maxDocumentChars = 0
	}
	return &Builder{maxDocumentChars: maxDocumentChars}
}

// Build returns the payload for judging rule against text.
func (b *Builder) Build(rule domain.Rule, text string) domain.PromptPayload {
	return domain.PromptPayload{
		Rule:   rule,
		Prompt: BuildRulePrompt(rule, b.clip(text)),
	}
}

func (b *Builder) clip(text string) string {
	if b.maxDocumentChars == 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= b.maxDocumentChars {
		return text
	}
	return string(runes[:b.maxDocumentChars]) + truncationMarker
}

// BuildRulePrompt returns the evaluation prompt for one rule.
func BuildRulePrompt(rule domain.Rule, text string) string {
	var sb strings.Builder
	sb.WriteString(`You are a document compliance checker. Evaluate whether the document text below satisfies the rule.

Rule: "`)
	sb.WriteString(string(rule))
	sb.WriteString(`"

Document Text:
`)
	sb.WriteString(text)
	sb.WriteString(`

IMPORTANT INSTRUCTIONS:
- Judge the rule using only the document text above.
- "status" must be exactly "pass" or "fail".
- "evidence" is one short sentence quoted or paraphrased from the document.
- "reasoning" is a brief explanation of the judgment.
- "confidence" is a number between 0 and 100.

Return ONLY valid JSON with no markdown formatting, no code fences, no explanation. Just the raw JSON object with exactly these four keys:
{
  "status": "pass" or "fail",
  "evidence": "one short sentence from the document",
  "reasoning": "brief explanation",
  "confidence": number between 0-100
}`)
	return sb.String()
}
