// Package oracle defines the language-model interfaces the pipeline
// depends on: generation of raw signal text, sentiment enrichment and
// impact reasoning. Implementations live in subpackages.
package oracle

import (
	"context"
	"errors"

	"github.com/AyachiMishra/social-signal-intelligence-system/models"
)

// Example is one labeled training sample used to steer generation
type Example struct {
	Text     string          `json:"text"`
	Category models.Category `json:"category"`
}

// GenerationRequest asks for a batch of synthetic signal texts
type GenerationRequest struct {
	// Count is the exact number of texts required. The pipeline rejects
	// responses of any other cardinality.
	Count int

	// Categories is the desired category mix, one entry per text
	Categories []models.Category

	// Examples steer the style of the generated texts
	Examples []Example
}

// Enrichment is the sentiment verdict for one raw signal
type Enrichment struct {
	SentimentScore float64         `json:"sentiment_score"`
	Category       models.Category `json:"category"`
	Confidence     int             `json:"confidence"`
}

// Reasoning is the impact verdict for one enriched signal
type Reasoning struct {
	Explanation      string                  `json:"explanation"`
	ImpactAssessment models.ImpactAssessment `json:"impact_assessment"`
	SuggestedAction  string                  `json:"suggested_action"`
	Urgency          models.Urgency          `json:"urgency"`
}

// GenerationOracle produces raw signal texts
type GenerationOracle interface {
	// Generate returns exactly req.Count texts, one per requested
	// category, in order
	Generate(ctx context.Context, req *GenerationRequest) ([]string, error)
}

// EnrichmentOracle scores a single signal's sentiment
type EnrichmentOracle interface {
	Enrich(ctx context.Context, signal *models.RawSignal) (*Enrichment, error)
}

// ReasoningOracle assesses the business impact of an enriched signal
type ReasoningOracle interface {
	Reason(ctx context.Context, signal *models.EnrichedSignal) (*Reasoning, error)
}

// OracleError represents an error from an oracle backend
type OracleError struct {
	// Oracle that generated the error
	Oracle string

	// Code is the error code
	Code string

	// Message is the error message
	Message string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// Retryable indicates if the request can be retried
	Retryable bool

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *OracleError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap implements error unwrapping
func (e *OracleError) Unwrap() error {
	return e.Cause
}

// NewOracleError creates a new oracle error
func NewOracleError(oracle, code, message string, statusCode int, retryable bool, cause error) *OracleError {
	return &OracleError{
		Oracle:     oracle,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  retryable,
		Cause:      cause,
	}
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var oracleErr *OracleError
	if errors.As(err, &oracleErr) {
		return oracleErr.Retryable
	}
	return false
}
