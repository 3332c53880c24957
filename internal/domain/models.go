package domain

// Rule is a natural-language compliance criterion. Its identity is its text.
type Rule string

// Verdict is the structured judgment for one rule.
type Verdict struct {
	Status     VerdictStatus `json:"status"`
	Evidence   string        `json:"evidence"`
	Reasoning  string        `json:"reasoning"`
	Confidence int           `json:"confidence"`
}

// IsDegraded reports whether v carries the conservative fallback values
// substituted when a completion could not be obtained or parsed.
func (v Verdict) IsDegraded() bool {
	return v.Status == VerdictFail && v.Confidence == 0 &&
		(v.Evidence == EvidenceInvalidJSON || v.Evidence == EvidenceCompletionFailed)
}

// InvalidJSONVerdict is the verdict for a completion that held no usable JSON object.
// The raw completion is kept verbatim so it can be inspected.
func InvalidJSONVerdict(raw string) Verdict {
	return Verdict{
		Status:     VerdictFail,
		Evidence:   EvidenceInvalidJSON,
		Reasoning:  raw,
		Confidence: 0,
	}
}

// CompletionFailedVerdict is the verdict for a rule whose completion call failed.
func CompletionFailedVerdict(err error) Verdict {
	reason := "completion failed"
	if err != nil {
		reason = err.Error()
	}
	return Verdict{
		Status:     VerdictFail,
		Evidence:   EvidenceCompletionFailed,
		Reasoning:  reason,
		Confidence: 0,
	}
}

// RuleResult pairs a rule with its verdict. It serializes flat:
// {rule, status, evidence, reasoning, confidence}.
type RuleResult struct {
	Rule Rule `json:"rule"`
	Verdict
}

// EvaluationResult holds one RuleResult per submitted rule, in submission order.
type EvaluationResult []RuleResult

// PromptPayload is the completion request built for a single rule.
type PromptPayload struct {
	Rule   Rule
	Prompt string
}

// RulesFromStrings converts raw strings into rules, preserving order and duplicates.
func RulesFromStrings(ss []string) []Rule {
	rules := make([]Rule, len(ss))
	for i, s := range ss {
		rules[i] = Rule(s)
	}
	return rules
}
