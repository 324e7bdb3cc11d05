package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is the classification assigned to a signal during enrichment
type Category string

const (
	CategoryPositive  Category = "Positive"
	CategoryNegative  Category = "Negative"
	CategoryNeutral   Category = "Neutral"
	CategoryGibberish Category = "Gibberish"
)

// KnownCategories lists every category a signal can be assigned
var KnownCategories = []Category{
	CategoryPositive,
	CategoryNegative,
	CategoryNeutral,
	CategoryGibberish,
}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	switch c {
	case CategoryPositive, CategoryNegative, CategoryNeutral, CategoryGibberish:
		return true
	}
	return false
}

// SourceLabel indicates the kind of public channel a signal was observed on
type SourceLabel string

const (
	SourcePublicForum    SourceLabel = "public_forum"
	SourceSocialMedia    SourceLabel = "social_media"
	SourceReviewSite     SourceLabel = "review_site"
	SourceCommunityBoard SourceLabel = "community_board"
)

// KnownSourceLabels lists every source label a signal can carry
var KnownSourceLabels = []SourceLabel{
	SourcePublicForum,
	SourceSocialMedia,
	SourceReviewSite,
	SourceCommunityBoard,
}

// Valid reports whether the source label is one of the known channels
func (s SourceLabel) Valid() bool {
	for _, known := range KnownSourceLabels {
		if s == known {
			return true
		}
	}
	return false
}

// Urgency grades how quickly a reasoned signal should be acted upon
type Urgency string

const (
	UrgencyCritical Urgency = "Critical"
	UrgencyHigh     Urgency = "High"
	UrgencyMedium   Urgency = "Medium"
	UrgencyLow      Urgency = "Low"
)

// Valid reports whether u is a known urgency level
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyCritical, UrgencyHigh, UrgencyMedium, UrgencyLow:
		return true
	}
	return false
}

// GovernanceState is the lifecycle state of a signal in the review workflow
type GovernanceState string

const (
	StatePending  GovernanceState = "pending"
	StateFlagged  GovernanceState = "flagged"
	StateApproved GovernanceState = "approved"
	StateDeclined GovernanceState = "declined"
	StateArchived GovernanceState = "archived"
)

// Valid reports whether s is a known governance state
func (s GovernanceState) Valid() bool {
	switch s {
	case StatePending, StateFlagged, StateApproved, StateDeclined, StateArchived:
		return true
	}
	return false
}

// FlagReason records why a signal was routed to human review
type FlagReason string

const (
	FlagReasonAmbiguity FlagReason = "ambiguity"
	FlagReasonUrgency   FlagReason = "urgency"
)

// RawSignal is a scrubbed signal as it leaves the privacy shield.
// Text is guaranteed free of detectable PII by construction.
type RawSignal struct {
	ID             uuid.UUID   `json:"id" db:"id"`
	Sequence       int64       `json:"sequence" db:"sequence"`
	Text           string      `json:"text" db:"text"`
	SourceLabel    SourceLabel `json:"source_label" db:"source_label"`
	RedactionCount int         `json:"redaction_count" db:"redaction_count"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
}

// NewRawSignal creates a RawSignal with a fresh ID
func NewRawSignal(sequence int64, text string, source SourceLabel, redactions int, createdAt time.Time) *RawSignal {
	return &RawSignal{
		ID:             uuid.New(),
		Sequence:       sequence,
		Text:           text,
		SourceLabel:    source,
		RedactionCount: redactions,
		CreatedAt:      createdAt,
	}
}

// EnrichedSignal extends a raw signal with sentiment analysis
type EnrichedSignal struct {
	RawSignal

	SentimentScore   float64  `json:"sentiment_score" db:"sentiment_score"`
	Category         Category `json:"category" db:"category"`
	Confidence       int      `json:"confidence" db:"confidence"`
	AmbiguityFlagged bool     `json:"ambiguity_flagged" db:"ambiguity_flagged"`
}

// ImpactAssessment breaks down the projected business impact of a signal
type ImpactAssessment struct {
	ReputationalRisk    string `json:"reputational_risk" db:"reputational_risk"`
	OperationalRisk     string `json:"operational_risk" db:"operational_risk"`
	CustomerTrustImpact string `json:"customer_trust_impact" db:"customer_trust_impact"`
}

// ReasonedSignal extends an enriched signal with the reasoning verdict
type ReasonedSignal struct {
	EnrichedSignal

	Explanation      string           `json:"explanation" db:"explanation"`
	ImpactAssessment ImpactAssessment `json:"impact_assessment" db:"impact_assessment"`
	SuggestedAction  string           `json:"suggested_action" db:"suggested_action"`
	Urgency          Urgency          `json:"urgency" db:"urgency"`
	FlaggedForReview bool             `json:"flagged_for_review" db:"flagged_for_review"`
	FlagReasons      []FlagReason     `json:"flag_reasons,omitempty" db:"flag_reasons"`
}

// DecisionMetadata records the human decision taken on a flagged signal
type DecisionMetadata struct {
	Actor     string    `json:"actor" db:"actor"`
	Rationale string    `json:"rationale,omitempty" db:"rationale"`
	DecidedAt time.Time `json:"decided_at" db:"decided_at"`
}

// Signal is a fully processed signal under governance
type Signal struct {
	ReasonedSignal

	GovernanceState GovernanceState   `json:"governance_state" db:"governance_state"`
	Decision        *DecisionMetadata `json:"decision,omitempty" db:"decision"`
	UpdatedAt       time.Time         `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Signal model
func (Signal) TableName() string {
	return "signals"
}

// RecordDecision attaches decision metadata and moves the signal to the given state
func (s *Signal) RecordDecision(state GovernanceState, actor, rationale string) {
	now := time.Now().UTC()
	s.GovernanceState = state
	s.Decision = &DecisionMetadata{
		Actor:     actor,
		Rationale: rationale,
		DecidedAt: now,
	}
	s.UpdatedAt = now
}
