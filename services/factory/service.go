// Package factory produces batches of synthetic social signals. Each
// batch is generated by the generation oracle from a few-shot example
// set, stamped with a shared batch timestamp, and scrubbed of PII
// before anything downstream sees it.
package factory

import (
	"context"
	"math/rand"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/AyachiMishra/social-signal-intelligence-system/internal/observability"
	"github.com/AyachiMishra/social-signal-intelligence-system/internal/privacy"
	"github.com/AyachiMishra/social-signal-intelligence-system/models"
	"github.com/AyachiMishra/social-signal-intelligence-system/services"
	"github.com/AyachiMishra/social-signal-intelligence-system/services/oracle"
)

// bankNamePlaceholder is the literal token the generation oracle is
// instructed to emit wherever an institution name belongs.
const bankNamePlaceholder = "{bank_name}"

// fictionalBanks are substituted for the placeholder so generated text
// never carries a real institution name.
var fictionalBanks = []string{
	"ADAN Bank",
	"Pineapple Savings",
	"Feynman Bank",
	"Zebra Capital",
	"Nebula Bank",
	"Quantum Trust",
}

// examplesPerCategory caps the few-shot examples sent per category
const examplesPerCategory = 2

// FactoryService produces raw signals via the generation oracle
type FactoryService struct {
	generator oracle.GenerationOracle
	shield    *privacy.Shield
	examples  []oracle.Example
	metrics   *observability.Metrics
	logger    *zap.Logger

	sequence atomic.Int64
}

// NewFactoryService creates a signal factory. The example set must not
// be empty; it seeds the generation prompt.
func NewFactoryService(
	generator oracle.GenerationOracle,
	shield *privacy.Shield,
	examples []oracle.Example,
	metrics *observability.Metrics,
	logger *zap.Logger,
) (*FactoryService, error) {
	if len(examples) == 0 {
		return nil, services.ErrEmptyExampleSet
	}

	return &FactoryService{
		generator: generator,
		shield:    shield,
		examples:  examples,
		metrics:   metrics,
		logger:    logger,
	}, nil
}

// Seed fast-forwards the sequence counter past already persisted
// signals so restarts do not reuse sequence numbers.
func (s *FactoryService) Seed(lastSequence int64) {
	s.sequence.Store(lastSequence)
}

// ProduceBatch generates size raw signals in one oracle call. A nil
// typeMix picks a random category per slot; a non-nil mix must carry
// one known category per signal. The oracle must return exactly size
// texts or the whole batch is rejected. Signals whose text cannot be
// fully scrubbed are dropped individually; the survivors share a
// single batch timestamp.
func (s *FactoryService) ProduceBatch(ctx context.Context, size int, typeMix []models.Category) ([]*models.RawSignal, error) {
	if size < 1 {
		return nil, services.ErrInvalidInput.WithDetail("size", size)
	}

	categories, err := resolveTypeMix(size, typeMix)
	if err != nil {
		return nil, err
	}

	req := &oracle.GenerationRequest{
		Count:      size,
		Categories: categories,
		Examples:   s.selectExamples(categories),
	}

	start := time.Now()
	texts, err := s.generator.Generate(ctx, req)
	s.metrics.OracleLatency.WithLabelValues(observability.OracleRoleGeneration).Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.OracleRequests.WithLabelValues(observability.OracleRoleGeneration, "error").Inc()
		return nil, services.WrapExternal("signal generation failed", err)
	}
	s.metrics.OracleRequests.WithLabelValues(observability.OracleRoleGeneration, "success").Inc()

	if len(texts) != size {
		return nil, services.ErrBatchCardinality.
			WithDetail("expected", size).
			WithDetail("received", len(texts))
	}

	batchTime := time.Now().UTC()
	signals := make([]*models.RawSignal, 0, size)

	for i, text := range texts {
		text = substituteBankName(text)

		scrubbed, redactions, err := s.shield.Scrub(text)
		if err != nil {
			s.logger.Warn("dropping signal with pii residue",
				zap.Int("batch_index", i),
				zap.Error(err))
			s.metrics.SignalsDropped.WithLabelValues("pii_residue").Inc()
			continue
		}

		signal := models.NewRawSignal(
			s.sequence.Add(1),
			scrubbed,
			randomSourceLabel(),
			redactions,
			batchTime,
		)
		signals = append(signals, signal)
	}

	s.logger.Info("batch produced",
		zap.Int("requested", size),
		zap.Int("produced", len(signals)),
		zap.Int("dropped", size-len(signals)))

	return signals, nil
}

// resolveTypeMix expands a requested category mix to one category per
// signal, filling with random known categories when no mix is given
func resolveTypeMix(size int, typeMix []models.Category) ([]models.Category, error) {
	if typeMix == nil {
		categories := make([]models.Category, size)
		for i := range categories {
			categories[i] = models.KnownCategories[rand.Intn(len(models.KnownCategories))]
		}
		return categories, nil
	}

	if len(typeMix) != size {
		return nil, services.ErrInvalidInput.
			WithDetail("size", size).
			WithDetail("type_mix_len", len(typeMix))
	}
	for _, c := range typeMix {
		if !c.Valid() {
			return nil, services.ErrInvalidInput.WithDetail("category", string(c))
		}
	}
	return typeMix, nil
}

// selectExamples samples a few examples for each distinct category in
// the request, preserving the example set's order within a category.
func (s *FactoryService) selectExamples(categories []models.Category) []oracle.Example {
	wanted := make(map[models.Category]bool, len(categories))
	for _, c := range categories {
		wanted[c] = true
	}

	taken := make(map[models.Category]int, len(wanted))
	selected := make([]oracle.Example, 0, len(wanted)*examplesPerCategory)
	for _, ex := range s.examples {
		if !wanted[ex.Category] || taken[ex.Category] >= examplesPerCategory {
			continue
		}
		selected = append(selected, ex)
		taken[ex.Category]++
	}
	return selected
}

func substituteBankName(text string) string {
	if !strings.Contains(text, bankNamePlaceholder) {
		return text
	}
	bank := fictionalBanks[rand.Intn(len(fictionalBanks))]
	return strings.ReplaceAll(text, bankNamePlaceholder, bank)
}

func randomSourceLabel() models.SourceLabel {
	return models.KnownSourceLabels[rand.Intn(len(models.KnownSourceLabels))]
}
