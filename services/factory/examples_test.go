package factory

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AyachiMishra/social-signal-intelligence-system/models"
	"github.com/AyachiMishra/social-signal-intelligence-system/services"
)

func TestParseExampleSet(t *testing.T) {
	csv := `text,category
"the new {bank_name} app is fantastic",Positive
"{bank_name} lost my deposit",Negative
"branch hours posted online",Neutral
"zxcv plonk wibble",Gibberish
`

	examples, err := parseExampleSet(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, examples, 4)

	assert.Equal(t, models.CategoryPositive, examples[0].Category)
	assert.Contains(t, examples[0].Text, "{bank_name}")
	assert.Equal(t, models.CategoryGibberish, examples[3].Category)
}

func TestParseExampleSet_UnknownCategory(t *testing.T) {
	csv := `text,category
"some text",Sarcastic
`

	_, err := parseExampleSet(strings.NewReader(csv))
	require.Error(t, err)
	assert.True(t, services.IsValidationError(err))
	assert.Equal(t, "Sarcastic", services.GetErrorDetails(err)["category"])
}

func TestParseExampleSet_Empty(t *testing.T) {
	_, err := parseExampleSet(strings.NewReader("text,category\n"))
	assert.ErrorIs(t, err, services.ErrEmptyExampleSet)
}

func TestLoadExampleSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "examples.csv")
	content := "text,category\n\"good rates\",Positive\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	examples, err := LoadExampleSet(path)
	require.NoError(t, err)
	require.Len(t, examples, 1)
	assert.Equal(t, "good rates", examples[0].Text)
}

func TestLoadExampleSet_MissingFile(t *testing.T) {
	_, err := LoadExampleSet(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, services.IsConfigurationError(err))
}
