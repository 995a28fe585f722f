package service

import (
	"strings"

	"golang-narrative-engine/internal/entity"
	"golang-narrative-engine/internal/pipeline/dto"
)

// defaultBullishTerms cover upward price direction, positive tone and
// risk-on market-structure vocabulary.
var defaultBullishTerms = []string{
	"surge", "surged", "surges", "surging", "soar", "soared", "soaring",
	"rally", "rallied", "rallies", "rebound", "rebounded", "jump", "jumped",
	"climb", "climbed", "climbing", "advance", "advanced", "gain", "gains",
	"gained", "rise", "rises", "rising", "rose", "record high", "all-time high",
	"new high", "breakout", "outperform", "outperformed", "upgrade",
	"upgraded", "beat estimates", "beats estimates", "strong earnings",
	"strong growth", "strong demand", "robust", "resilient", "momentum",
	"bullish", "bull market", "optimism", "optimistic", "upbeat", "upside",
	"boom", "booming", "expansion", "expanding", "accelerate", "accelerating",
	"profit growth", "profitable", "buyback", "dividend increase", "buy rating",
	"overweight", "accumulate", "uptrend", "recovery", "recovering",
	"breakthrough", "winning", "winner", "outpace", "exceed expectations",
	"exceeded expectations", "raised guidance", "raises guidance", "tailwind",
	"undervalued", "attractive valuation", "positive outlook", "top pick",
}

// defaultBearishTerms cover downward price direction, negative tone and
// risk-off market-structure vocabulary.
var defaultBearishTerms = []string{
	"decline", "declined", "declines", "declining", "drop", "dropped",
	"drops", "plunge", "plunged", "plunges", "plummet", "plummeted", "tumble",
	"tumbled", "slump", "slumped", "slide", "slides", "sank", "sink", "sinks",
	"fall", "falls", "fell", "falling", "crash", "crashed", "correction",
	"sell-off", "selloff", "downgrade", "downgraded", "miss estimates",
	"missed estimates", "weak earnings", "weak demand", "weakness", "bearish",
	"bear market", "pessimism", "pessimistic", "downbeat", "downside",
	"recession", "downturn", "slowdown", "contraction", "layoff", "layoffs",
	"bankruptcy", "default risk", "sell rating", "underweight", "underperform",
	"underperformed", "downtrend", "loss widens", "losses", "write-down",
	"impairment", "lawsuit", "investigation", "probe", "fraud", "scandal",
	"warning", "warned", "profit warning", "cut guidance", "cuts guidance",
	"lowered guidance", "headwind", "overvalued", "concern", "concerns",
	"worried", "worries", "fear", "fears", "uncertainty", "volatile",
	"turmoil", "negative outlook", "short interest",
}

// SentimentClassifier labels text bullish, bearish or neutral by tallying
// occurrences of fixed keyword sets. There is no negation handling or
// phrase-level weighting; "not bullish" counts as bullish. That is a known
// limitation of the approach.
type SentimentClassifier struct {
	bullishTerms []string
	bearishTerms []string
}

// NewSentimentClassifier creates a classifier with the default term sets.
// Pass nil to keep a default; non-nil slices replace it.
func NewSentimentClassifier(bullish, bearish []string) *SentimentClassifier {
	c := &SentimentClassifier{
		bullishTerms: defaultBullishTerms,
		bearishTerms: defaultBearishTerms,
	}
	if bullish != nil {
		c.bullishTerms = bullish
	}
	if bearish != nil {
		c.bearishTerms = bearish
	}
	return c
}

// Classify returns the sentiment label for the text. Every occurrence of a
// term counts, not just unique presence; equal tallies (including zero) are
// neutral.
func (c *SentimentClassifier) Classify(text string) entity.Sentiment {
	bullish, bearish := c.tally(text)
	switch {
	case bullish > bearish:
		return entity.SentimentBullish
	case bearish > bullish:
		return entity.SentimentBearish
	default:
		return entity.SentimentNeutral
	}
}

// ClassifyNarrative classifies a narrative from its title and summary, with
// the title weighted double.
func (c *SentimentClassifier) ClassifyNarrative(title, summary string) entity.Sentiment {
	return c.Classify(title + " " + title + " " + summary)
}

// ClassifyItems classifies the combined text of a narrative's linked items,
// each item's title weighted double.
func (c *SentimentClassifier) ClassifyItems(items []entity.ContentItem) entity.Sentiment {
	var sb strings.Builder
	for _, item := range items {
		sb.WriteString(item.Title)
		sb.WriteString(" ")
		sb.WriteString(item.Title)
		sb.WriteString(" ")
		sb.WriteString(item.Body)
		sb.WriteString(" ")
	}
	return c.Classify(sb.String())
}

// Explain returns the sentiment together with the literal matched terms,
// one entry per occurrence.
func (c *SentimentClassifier) Explain(text string) dto.SentimentExplanation {
	lowered := strings.ToLower(text)
	explanation := dto.SentimentExplanation{
		BullishMatches: []string{},
		BearishMatches: []string{},
	}
	for _, term := range c.bullishTerms {
		for i := 0; i < strings.Count(lowered, term); i++ {
			explanation.BullishMatches = append(explanation.BullishMatches, term)
		}
	}
	for _, term := range c.bearishTerms {
		for i := 0; i < strings.Count(lowered, term); i++ {
			explanation.BearishMatches = append(explanation.BearishMatches, term)
		}
	}

	bullish, bearish := len(explanation.BullishMatches), len(explanation.BearishMatches)
	switch {
	case bullish > bearish:
		explanation.Sentiment = entity.SentimentBullish
	case bearish > bullish:
		explanation.Sentiment = entity.SentimentBearish
	default:
		explanation.Sentiment = entity.SentimentNeutral
	}
	return explanation
}

func (c *SentimentClassifier) tally(text string) (bullish, bearish int) {
	lowered := strings.ToLower(text)
	for _, term := range c.bullishTerms {
		bullish += strings.Count(lowered, term)
	}
	for _, term := range c.bearishTerms {
		bearish += strings.Count(lowered, term)
	}
	return bullish, bearish
}
