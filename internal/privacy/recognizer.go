package privacy

import (
	"regexp"
	"sort"
	"strings"
)

// Span marks a half-open byte range [Start, End) of recognized PII
type Span struct {
	Start int
	End   int
}

// EntityRecognizer finds person names and similar unstructured PII in
// text the regex detectors cannot express. Implementations must return
// spans within the bounds of the input.
type EntityRecognizer interface {
	Recognize(text string) []Span
}

var (
	honorificPattern = regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Dr|Prof)\.?\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?\b`)
	cueNamePattern   = regexp.MustCompile(`\b(?:[Cc]all|[Cc]ontact|[Aa]sk for|[Ss]poke (?:to|with)|[Tt]alked to|[Mm]y name is)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)\b`)
	fullNamePattern  = regexp.MustCompile(`\b[A-Z][a-z]+\s+[A-Z][a-z]+\b`)
)

// organizationSuffixes mark capitalized pairs that name institutions,
// not people. Those stay in the text.
var organizationSuffixes = []string{
	"Bank", "Savings", "Capital", "Trust", "Credit", "Union", "Financial", "Holdings",
}

// HeuristicRecognizer approximates named entity recognition with
// honorific, cue word and capitalization heuristics. It errs on the
// side of masking.
type HeuristicRecognizer struct{}

// NewHeuristicRecognizer creates a heuristic entity recognizer
func NewHeuristicRecognizer() *HeuristicRecognizer {
	return &HeuristicRecognizer{}
}

// Recognize returns sorted, non-overlapping spans of likely person names
func (r *HeuristicRecognizer) Recognize(text string) []Span {
	var spans []Span

	for _, m := range honorificPattern.FindAllStringIndex(text, -1) {
		spans = append(spans, Span{Start: m[0], End: m[1]})
	}

	// Cue patterns capture only the name, not the cue word
	for _, m := range cueNamePattern.FindAllStringSubmatchIndex(text, -1) {
		spans = append(spans, Span{Start: m[2], End: m[3]})
	}

	for _, m := range fullNamePattern.FindAllStringIndex(text, -1) {
		candidate := text[m[0]:m[1]]
		if isOrganization(candidate) {
			continue
		}
		spans = append(spans, Span{Start: m[0], End: m[1]})
	}

	return mergeSpans(spans)
}

func isOrganization(candidate string) bool {
	for _, suffix := range organizationSuffixes {
		if strings.HasSuffix(candidate, suffix) {
			return true
		}
	}
	return false
}

// mergeSpans sorts spans and coalesces overlaps
func mergeSpans(spans []Span) []Span {
	if len(spans) <= 1 {
		return spans
	}

	sort.Slice(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End < spans[j].End
	})

	merged := spans[:1]
	for _, sp := range spans[1:] {
		last := &merged[len(merged)-1]
		if sp.Start <= last.End {
			if sp.End > last.End {
				last.End = sp.End
			}
			continue
		}
		merged = append(merged, sp)
	}
	return merged
}
