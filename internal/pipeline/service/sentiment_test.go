package service

import (
	"testing"

	"golang-narrative-engine/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestClassify_Bullish(t *testing.T) {
	classifier := NewSentimentClassifier(nil, nil)

	sentiment := classifier.Classify("Shares surged after the company beat estimates and raised guidance")

	assert.Equal(t, entity.SentimentBullish, sentiment)
}

func TestClassify_Bearish(t *testing.T) {
	classifier := NewSentimentClassifier(nil, nil)

	sentiment := classifier.Classify("The stock plunged on weak demand and a profit warning")

	assert.Equal(t, entity.SentimentBearish, sentiment)
}

func TestClassify_TieIsNeutral(t *testing.T) {
	classifier := NewSentimentClassifier(nil, nil)

	sentiment := classifier.Classify("surge surge decline decline")

	assert.Equal(t, entity.SentimentNeutral, sentiment)
}

func TestClassify_NoMatchesIsNeutral(t *testing.T) {
	classifier := NewSentimentClassifier(nil, nil)

	sentiment := classifier.Classify("The committee met on Tuesday")

	assert.Equal(t, entity.SentimentNeutral, sentiment)
}

func TestClassify_CountsEveryOccurrence(t *testing.T) {
	classifier := NewSentimentClassifier([]string{"surge"}, []string{"decline"})

	// three bullish occurrences outweigh two bearish ones
	sentiment := classifier.Classify("surge surge surge decline decline")

	assert.Equal(t, entity.SentimentBullish, sentiment)
}

func TestClassify_CaseInsensitive(t *testing.T) {
	classifier := NewSentimentClassifier(nil, nil)

	assert.Equal(t, entity.SentimentBullish, classifier.Classify("SHARES RALLIED HARD"))
}

func TestClassifyNarrative_TitleWeightedDouble(t *testing.T) {
	classifier := NewSentimentClassifier([]string{"surge"}, []string{"decline"})

	// title term counted twice beats one summary term
	sentiment := classifier.ClassifyNarrative("surge", "decline")

	assert.Equal(t, entity.SentimentBullish, sentiment)
}

func TestClassifyItems_CombinedText(t *testing.T) {
	classifier := NewSentimentClassifier(nil, nil)

	items := []entity.ContentItem{
		{Title: "Growth concerns mount", Body: "Analysts see decline ahead"},
		{Title: "More concerns over demand", Body: ""},
	}

	assert.Equal(t, entity.SentimentBearish, classifier.ClassifyItems(items))
}

func TestExplain_ReturnsMatchedTerms(t *testing.T) {
	classifier := NewSentimentClassifier([]string{"surge"}, []string{"decline"})

	explanation := classifier.Explain("a surge then a decline then another decline")

	assert.Equal(t, entity.SentimentBearish, explanation.Sentiment)
	assert.Equal(t, []string{"surge"}, explanation.BullishMatches)
	assert.Equal(t, []string{"decline", "decline"}, explanation.BearishMatches)
}

func TestExplain_EmptyText(t *testing.T) {
	classifier := NewSentimentClassifier(nil, nil)

	explanation := classifier.Explain("")

	assert.Equal(t, entity.SentimentNeutral, explanation.Sentiment)
	assert.Empty(t, explanation.BullishMatches)
	assert.Empty(t, explanation.BearishMatches)
}
