// Package verdict recovers a structured Verdict from free-text model output.
//
// Parsing runs as explicit stages (locate, decode, validate), each a pure
// function with its own result. Any stage failure yields the degraded
// verdict instead of an error, so callers always receive a well-formed value.
package verdict

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"niyamr/internal/domain"
)

// Stage names a step of the parse pipeline.
type Stage string

const (
	StageLocate   Stage = "locate"
	StageDecode   Stage = "decode"
	StageValidate Stage = "validate"
)

var errNoObject = errors.New("no JSON object found in completion")

// ParseError describes why a completion could not be turned into a verdict.
// It is reported for logging only and never returned to API callers.
type ParseError struct {
	Stage Stage
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("verdict %s: %v", e.Stage, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse converts a raw completion into a Verdict. It never fails: unusable
// input produces domain.InvalidJSONVerdict(raw).
func Parse(raw string) domain.Verdict {
	v, _ := ParseDetailed(raw)
	return v
}

// ParseDetailed is Parse plus the reason a degraded verdict was produced.
// The error is nil when the completion held a valid verdict.
func ParseDetailed(raw string) (domain.Verdict, *ParseError) {
	span, ok := LocateObject(raw)
	if !ok {
		return domain.InvalidJSONVerdict(raw), &ParseError{Stage: StageLocate, Err: errNoObject}
	}

	obj, err := DecodeObject(span)
	if err != nil {
		return domain.InvalidJSONVerdict(raw), &ParseError{Stage: StageDecode, Err: err}
	}

	v, err := Validate(obj)
	if err != nil {
		return domain.InvalidJSONVerdict(raw), &ParseError{Stage: StageValidate, Err: err}
	}
	return v, nil
}

// LocateObject returns the greedy span from the first '{' to the last '}'.
func LocateObject(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", false
	}
	end := strings.LastIndexByte(raw, '}')
	if end < start {
		return "", false
	}
	return raw[start : end+1], true
}

// DecodeObject strictly parses span as a single JSON object. Numbers are kept
// as json.Number so validation sees exactly what the model wrote.
func DecodeObject(span string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(span))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("decoding object: %w", err)
	}
	if obj == nil {
		return nil, errors.New("decoding object: null is not an object")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("decoding object: trailing data after object")
	}
	return obj, nil
}

// Validate checks obj against the verdict schema and converts it.
// Confidence values with a fractional part are rounded to the nearest integer.
func Validate(obj map[string]any) (domain.Verdict, error) {
	if err := verdictSchema.Validate(obj); err != nil {
		return domain.Verdict{}, fmt.Errorf("verdict does not match schema: %w", err)
	}

	// The schema guarantees the types below.
	status, _ := obj["status"].(string)
	evidence, _ := obj["evidence"].(string)
	reasoning, _ := obj["reasoning"].(string)
	confidence, err := toConfidence(obj["confidence"])
	if err != nil {
		return domain.Verdict{}, err
	}

	return domain.Verdict{
		Status:     domain.VerdictStatus(status),
		Evidence:   evidence,
		Reasoning:  reasoning,
		Confidence: confidence,
	}, nil
}

func toConfidence(v any) (int, error) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("confidence: %w", err)
		}
		f = parsed
	case float64:
		f = n
	default:
		return 0, fmt.Errorf("confidence: not a number (%T)", v)
	}
	if math.IsNaN(f) || f < domain.MinConfidence || f > domain.MaxConfidence {
		return 0, fmt.Errorf("confidence %v out of range [%d, %d]", f, domain.MinConfidence, domain.MaxConfidence)
	}
	return int(math.Round(f)), nil
}
