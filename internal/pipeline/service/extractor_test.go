package service

import (
	"testing"

	"golang-narrative-engine/internal/entity"
	"golang-narrative-engine/internal/pipeline/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entitiesOfType(entities []dto.ExtractedEntity, typ entity.EntityType) []string {
	var texts []string
	for _, ent := range entities {
		if ent.Type == typ {
			texts = append(texts, ent.Text)
		}
	}
	return texts
}

func TestExtract_TickersSortedAndUnique(t *testing.T) {
	extractor := NewEntityExtractor()

	entities := extractor.Extract("$NVDA and $AAPL rose while $NVDA kept climbing", "", 10)

	assert.Equal(t, []string{"$AAPL", "$NVDA"}, entitiesOfType(entities, entity.EntityTypeTicker))
}

func TestExtract_TickerPatternBounds(t *testing.T) {
	extractor := NewEntityExtractor()

	entities := extractor.Extract("$TOOLONG is not a ticker but $TSLA is", "", 10)

	tickers := entitiesOfType(entities, entity.EntityTypeTicker)
	assert.Contains(t, tickers, "$TSLA")
	assert.NotContains(t, tickers, "$TOOLONG")
}

func TestExtract_PersonFromTwoWordSpan(t *testing.T) {
	extractor := NewEntityExtractor()

	entities := extractor.Extract("Elon Musk announced a new product", "", 10)

	assert.Equal(t, []string{"Elon Musk"}, entitiesOfType(entities, entity.EntityTypePerson))
}

func TestExtract_OrgIndicatorTakesPrecedence(t *testing.T) {
	extractor := NewEntityExtractor()

	entities := extractor.Extract("Acme Corp filed its quarterly statement", "", 10)

	assert.Equal(t, []string{"Acme Corp"}, entitiesOfType(entities, entity.EntityTypeOrganization))
	assert.Empty(t, entitiesOfType(entities, entity.EntityTypePerson))
}

func TestExtract_ThreeWordSpanIsOrganization(t *testing.T) {
	extractor := NewEntityExtractor()

	entities := extractor.Extract("American Airlines Pilots voted on the contract", "", 10)

	assert.Equal(t, []string{"American Airlines Pilots"}, entitiesOfType(entities, entity.EntityTypeOrganization))
}

func TestExtract_PunctuationEndsSpan(t *testing.T) {
	extractor := NewEntityExtractor()

	entities := extractor.Extract("Jerome Powell. Janet Yellen spoke later", "", 10)

	persons := entitiesOfType(entities, entity.EntityTypePerson)
	assert.Contains(t, persons, "Jerome Powell")
	assert.Contains(t, persons, "Janet Yellen")
	assert.NotContains(t, entitiesOfType(entities, entity.EntityTypeOrganization), "Jerome Powell Janet Yellen")
}

func TestExtract_KeywordsRankedByFrequency(t *testing.T) {
	extractor := NewEntityExtractor()

	entities := extractor.Extract(
		"lithium supply constraints",
		"lithium lithium battery battery battery demand",
		3,
	)

	// title tokens count twice: lithium 2+2=4, battery 3, supply 2, constraints 2, demand 1
	assert.Equal(t, []string{"lithium", "battery", "supply"}, entitiesOfType(entities, entity.EntityTypeKeyword))
}

func TestExtract_KeywordTiesBreakByFirstOccurrence(t *testing.T) {
	extractor := NewEntityExtractor()

	entities := extractor.Extract("", "zebra apple zebra apple", 2)

	assert.Equal(t, []string{"zebra", "apple"}, entitiesOfType(entities, entity.EntityTypeKeyword))
}

func TestExtract_KeywordFilters(t *testing.T) {
	extractor := NewEntityExtractor()

	entities := extractor.Extract("", "the and market stocks 2024 abc earnings earnings", 10)

	keywords := entitiesOfType(entities, entity.EntityTypeKeyword)
	assert.Equal(t, []string{"earnings"}, keywords)
}

func TestExtract_EmptyInput(t *testing.T) {
	extractor := NewEntityExtractor()

	entities := extractor.Extract("", "   ", 10)

	require.NotNil(t, entities)
	assert.Empty(t, entities)
}

func TestExtract_DeduplicatesOnTextAndType(t *testing.T) {
	extractor := NewEntityExtractor()

	entities := extractor.Extract("Elon Musk praised Elon Musk", "", 10)

	assert.Equal(t, []string{"Elon Musk"}, entitiesOfType(entities, entity.EntityTypePerson))
}

func TestExtract_CustomWordLists(t *testing.T) {
	extractor := NewEntityExtractor(
		WithStopWords([]string{"custom"}),
		WithGenericTerms([]string{"widget"}),
	)

	entities := extractor.Extract("", "custom widget gadget gadget", 10)

	assert.Equal(t, []string{"gadget"}, entitiesOfType(entities, entity.EntityTypeKeyword))
}
