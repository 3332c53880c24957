package domain

// VerdictStatus is the outcome of judging one rule against a document.
type VerdictStatus string

const (
	VerdictPass VerdictStatus = "pass"
	VerdictFail VerdictStatus = "fail"
)

// ValidVerdictStatuses lists the statuses a model is allowed to return.
var ValidVerdictStatuses = map[VerdictStatus]bool{
	VerdictPass: true,
	VerdictFail: true,
}

// ExtractorEngine selects the text extraction backend.
type ExtractorEngine string

const (
	ExtractorNative    ExtractorEngine = "native"
	ExtractorPdftotext ExtractorEngine = "pdftotext"
)

// Confidence bounds for a Verdict.
const (
	MinConfidence = 0
	MaxConfidence = 100
)

// Fallback evidence messages used by degraded verdicts.
const (
	EvidenceInvalidJSON      = "Invalid JSON returned"
	EvidenceCompletionFailed = "Completion failed"
)
