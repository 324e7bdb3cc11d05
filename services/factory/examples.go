package factory

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/AyachiMishra/social-signal-intelligence-system/models"
	"github.com/AyachiMishra/social-signal-intelligence-system/services"
	"github.com/AyachiMishra/social-signal-intelligence-system/services/oracle"
)

// LoadExampleSet reads the few-shot example set from a CSV file with a
// text,category header. Rows with an unknown category are rejected so a
// bad seed file fails loudly at startup instead of skewing generation.
func LoadExampleSet(path string) ([]oracle.Example, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, services.WrapError(services.ErrorTypeConfiguration, "failed to open example set", err)
	}
	defer f.Close()

	return parseExampleSet(f)
}

func parseExampleSet(r io.Reader) ([]oracle.Example, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, services.WrapError(services.ErrorTypeConfiguration, "failed to parse example set", err)
	}

	examples := make([]oracle.Example, 0, len(records))
	for i, record := range records {
		// Header row
		if i == 0 && strings.EqualFold(record[0], "text") {
			continue
		}

		text := strings.TrimSpace(record[0])
		if text == "" {
			continue
		}

		category := models.Category(strings.TrimSpace(record[1]))
		if !category.Valid() {
			return nil, services.ErrInvalidCategory.
				WithDetail("row", i+1).
				WithDetail("category", string(category))
		}

		examples = append(examples, oracle.Example{Text: text, Category: category})
	}

	if len(examples) == 0 {
		return nil, services.ErrEmptyExampleSet
	}

	return examples, nil
}
