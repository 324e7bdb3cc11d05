// Package privacy scrubs personally identifiable information from signal
// text before it is persisted or shown to any downstream consumer.
package privacy

import (
	"regexp"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/AyachiMishra/social-signal-intelligence-system/services"
)

// MaskToken replaces every detected PII span in scrubbed text
const MaskToken = "<MASKED>"

// PII type labels used in scrub statistics and residue reports
const (
	TypeEmail         = "email"
	TypePhone         = "phone"
	TypeSSN           = "ssn"
	TypeAccountNumber = "account_number"
	TypeCreditCard    = "credit_card"
	TypeRoutingNumber = "routing_number"
	TypeCurrency      = "currency"
	TypePersonName    = "person_name"
)

// detector pairs a PII type with its pattern. Detectors run in declaration
// order, structured patterns first, so that digit-bearing spans are masked
// before the looser ones get a chance to partially match them.
type detector struct {
	piiType string
	pattern *regexp.Regexp
}

var structuredDetectors = []detector{
	{TypeEmail, regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)},
	{TypeSSN, regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{TypeCreditCard, regexp.MustCompile(`\b(?:\d{4}[-\s]?){3}\d{4}\b`)},
	{TypeRoutingNumber, regexp.MustCompile(`(?i)\b(?:routing|aba)(?:\s+(?:number|no\.?|#))?[\s#:]*\d{9}\b`)},
	{TypeAccountNumber, regexp.MustCompile(`(?i)\b(?:account|acct)[\s#:]*[0-9]{8,16}\b`)},
	{TypePhone, regexp.MustCompile(`\b(?:\+?1[-.\s]?)?\(?[0-9]{3}\)?[-.\s]?[0-9]{3}[-.\s]?[0-9]{4}\b`)},
	{TypeCurrency, regexp.MustCompile(`\$\s*\d{1,3}(?:,\d{3})*(?:\.\d{2})?|\b\d{1,3}(?:,\d{3})*(?:\.\d{2})?\s*(?:dollars?|USD|usd)\b`)},
}

// Shield removes PII from free text. Structured detectors run first,
// then the entity recognizer. Scrubbing is verified by re-running every
// detector on the output.
type Shield struct {
	recognizer EntityRecognizer
	logger     *zap.Logger
	redactions *prometheus.CounterVec

	mu    sync.Mutex
	stats map[string]uint64
}

// NewShield creates a privacy shield backed by the given entity recognizer.
// The redactions counter is optional and labelled by pii_type.
func NewShield(recognizer EntityRecognizer, redactions *prometheus.CounterVec, logger *zap.Logger) *Shield {
	return &Shield{
		recognizer: recognizer,
		logger:     logger,
		redactions: redactions,
		stats:      make(map[string]uint64),
	}
}

// Scrub masks every detected PII span in text and returns the scrubbed
// text together with the number of redactions performed. Empty input is
// returned unchanged with a zero count. If detectable PII survives the
// pass, a pii_residue error is returned and the text must not be used.
func (s *Shield) Scrub(text string) (string, int, error) {
	if text == "" {
		return "", 0, nil
	}

	scrubbed := text
	total := 0
	counts := make(map[string]int)

	for _, d := range structuredDetectors {
		matches := d.pattern.FindAllStringIndex(scrubbed, -1)
		if len(matches) == 0 {
			continue
		}
		scrubbed = d.pattern.ReplaceAllString(scrubbed, MaskToken)
		counts[d.piiType] += len(matches)
		total += len(matches)
	}

	if s.recognizer != nil {
		spans := s.recognizer.Recognize(scrubbed)
		if len(spans) > 0 {
			scrubbed = maskSpans(scrubbed, spans)
			counts[TypePersonName] += len(spans)
			total += len(spans)
		}
	}

	if residue := s.detectResidue(scrubbed); residue != "" {
		s.logger.Warn("pii residue after scrub", zap.String("pii_type", residue))
		return "", 0, services.ErrPIIResidue.WithDetail("pii_type", residue)
	}

	s.mu.Lock()
	for piiType, n := range counts {
		s.stats[piiType] += uint64(n)
	}
	s.mu.Unlock()

	if s.redactions != nil {
		for piiType, n := range counts {
			s.redactions.WithLabelValues(piiType).Add(float64(n))
		}
	}

	return scrubbed, total, nil
}

// Stats returns a copy of the cumulative redaction counts per PII type
func (s *Shield) Stats() map[string]uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]uint64, len(s.stats))
	for piiType, n := range s.stats {
		out[piiType] = n
	}
	return out
}

// detectResidue re-runs every detector over the scrubbed output and
// returns the type of the first surviving match, or empty string when
// the text is clean
func (s *Shield) detectResidue(text string) string {
	for _, d := range structuredDetectors {
		if d.pattern.MatchString(text) {
			return d.piiType
		}
	}
	if s.recognizer != nil && len(s.recognizer.Recognize(text)) > 0 {
		return TypePersonName
	}
	return ""
}

// maskSpans replaces each span with the mask token, working from the end
// of the text so earlier offsets stay valid
func maskSpans(text string, spans []Span) string {
	for i := len(spans) - 1; i >= 0; i-- {
		sp := spans[i]
		if sp.Start < 0 || sp.End > len(text) || sp.Start >= sp.End {
			continue
		}
		text = text[:sp.Start] + MaskToken + text[sp.End:]
	}
	return text
}
