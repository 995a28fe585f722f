package service

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang-narrative-engine/internal/entity"
	"golang-narrative-engine/internal/pipeline/dto"
)

var tickerPattern = regexp.MustCompile(`\$[A-Z]{1,5}\b`)

// defaultStopWords are common English function words dropped from keyword
// candidates.
var defaultStopWords = []string{
	"a", "about", "above", "after", "again", "all", "also", "an", "and", "any",
	"are", "as", "at", "be", "because", "been", "before", "being", "below",
	"between", "both", "but", "by", "can", "could", "did", "do", "does",
	"doing", "down", "during", "each", "few", "for", "from", "further", "had",
	"has", "have", "having", "he", "her", "here", "hers", "him", "his", "how",
	"if", "in", "into", "is", "it", "its", "just", "more", "most", "my", "no",
	"nor", "not", "now", "of", "off", "on", "once", "only", "or", "other",
	"our", "out", "over", "own", "same", "she", "should", "so", "some", "such",
	"than", "that", "the", "their", "theirs", "them", "then", "there", "these",
	"they", "this", "those", "through", "to", "too", "under", "until", "up",
	"very", "was", "we", "were", "what", "when", "where", "which", "while",
	"who", "whom", "why", "will", "with", "would", "you", "your", "yours",
}

// defaultGenericTerms are domain-generic words too common in market text to
// be useful keywords.
var defaultGenericTerms = []string{
	"market", "markets", "stock", "stocks", "share", "shares", "trading",
	"trader", "traders", "trade", "trades", "price", "prices", "investor",
	"investors", "investment", "company", "companies", "business", "economy",
	"financial", "finance", "news", "report", "reports", "today", "week",
	"month", "year", "percent", "billion", "million",
}

// defaultOrgIndicators mark a capitalized span as an organization name.
var defaultOrgIndicators = []string{
	"Inc", "Corp", "Corporation", "Co", "Ltd", "LLC", "Plc", "Group", "Bank",
	"Capital", "Fund", "Funds", "Holdings", "Partners", "Securities",
	"Exchange", "Technologies", "Industries", "Ventures", "Associates",
}

// EntityExtractor turns one text item into a set of typed entities. It is a
// pure function of its inputs and its injected word lists.
type EntityExtractor struct {
	stopWords     map[string]struct{}
	genericTerms  map[string]struct{}
	orgIndicators map[string]struct{}
}

// ExtractorOption customizes an EntityExtractor.
type ExtractorOption func(*EntityExtractor)

// WithStopWords replaces the default stop-word list.
func WithStopWords(words []string) ExtractorOption {
	return func(e *EntityExtractor) { e.stopWords = toSet(words) }
}

// WithGenericTerms replaces the default domain-generic term list.
func WithGenericTerms(terms []string) ExtractorOption {
	return func(e *EntityExtractor) { e.genericTerms = toSet(terms) }
}

// WithOrgIndicators replaces the default organization-indicator list.
func WithOrgIndicators(indicators []string) ExtractorOption {
	return func(e *EntityExtractor) { e.orgIndicators = toSet(indicators) }
}

// NewEntityExtractor creates an extractor with the default word lists unless
// overridden by options.
func NewEntityExtractor(opts ...ExtractorOption) *EntityExtractor {
	e := &EntityExtractor{
		stopWords:     toSet(defaultStopWords),
		genericTerms:  toSet(defaultGenericTerms),
		orgIndicators: toSet(defaultOrgIndicators),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Extract returns the typed entities mentioned in the given title and body.
// Tickers are sorted alphabetically, capitalized spans are classified as
// organizations or persons, and the top maxKeywords frequency-ranked keywords
// are appended. The title is weighted double in keyword frequency ranking.
// Results are de-duplicated on (text, type).
func (e *EntityExtractor) Extract(title, body string, maxKeywords int) []dto.ExtractedEntity {
	if strings.TrimSpace(title) == "" && strings.TrimSpace(body) == "" {
		return []dto.ExtractedEntity{}
	}

	full := title + " " + body
	var results []dto.ExtractedEntity
	seen := make(map[dto.ExtractedEntity]struct{})

	appendEntity := func(text string, typ entity.EntityType) {
		ent := dto.ExtractedEntity{Text: text, Type: typ}
		if _, ok := seen[ent]; ok {
			return
		}
		seen[ent] = struct{}{}
		results = append(results, ent)
	}

	for _, ticker := range e.extractTickers(full) {
		appendEntity(ticker, entity.EntityTypeTicker)
	}
	for _, span := range e.extractCapitalizedSpans(full) {
		appendEntity(span.text, span.typ)
	}
	// Title counts twice so title-mentioned terms rank higher.
	for _, kw := range e.extractKeywords(title+" "+title+" "+body, maxKeywords) {
		appendEntity(kw, entity.EntityTypeKeyword)
	}

	return results
}

func (e *EntityExtractor) extractTickers(text string) []string {
	matches := tickerPattern.FindAllString(text, -1)
	unique := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		unique[m] = struct{}{}
	}
	tickers := make([]string, 0, len(unique))
	for t := range unique {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}

type capitalizedSpan struct {
	text string
	typ  entity.EntityType
}

// extractCapitalizedSpans finds maximal runs of 2+ consecutive capitalized
// words. A run is an organization when it contains an org-indicator token or
// spans 3+ words; a two-word run without an indicator is a person.
func (e *EntityExtractor) extractCapitalizedSpans(text string) []capitalizedSpan {
	words := strings.Fields(text)
	var spans []capitalizedSpan
	var run []string

	flush := func() {
		if len(run) >= 2 {
			spans = append(spans, e.classifySpan(run))
		}
		run = nil
	}

	for _, raw := range words {
		word := strings.Trim(raw, ".,;:!?\"'()[]{}")
		if isCapitalizedWord(word) {
			run = append(run, word)
			// Sentence punctuation ends the span even mid-run.
			if strings.ContainsAny(raw, ".,;:!?") {
				flush()
			}
			continue
		}
		flush()
	}
	flush()

	return spans
}

func (e *EntityExtractor) classifySpan(run []string) capitalizedSpan {
	text := strings.Join(run, " ")
	for _, w := range run {
		if _, ok := e.orgIndicators[w]; ok {
			return capitalizedSpan{text: text, typ: entity.EntityTypeOrganization}
		}
	}
	if len(run) >= 3 {
		return capitalizedSpan{text: text, typ: entity.EntityTypeOrganization}
	}
	return capitalizedSpan{text: text, typ: entity.EntityTypePerson}
}

func isCapitalizedWord(word string) bool {
	if word == "" {
		return false
	}
	runes := []rune(word)
	if !unicode.IsUpper(runes[0]) {
		return false
	}
	for _, r := range runes[1:] {
		if !unicode.IsLetter(r) && r != '-' && r != '\'' {
			return false
		}
	}
	return len(runes) >= 2
}

type keywordCount struct {
	word     string
	count    int
	firstIdx int
}

// extractKeywords frequency-ranks the remaining tokens after lowercasing,
// punctuation stripping and stop-word filtering. Ties break by first
// occurrence so the ordering is deterministic.
func (e *EntityExtractor) extractKeywords(text string, maxKeywords int) []string {
	if maxKeywords <= 0 {
		return nil
	}

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)

	counts := make(map[string]*keywordCount)
	var order []*keywordCount
	for idx, token := range strings.Fields(cleaned) {
		if len(token) < 4 || isNumeric(token) {
			continue
		}
		if _, ok := e.stopWords[token]; ok {
			continue
		}
		if _, ok := e.genericTerms[token]; ok {
			continue
		}
		if kc, ok := counts[token]; ok {
			kc.count++
			continue
		}
		kc := &keywordCount{word: token, count: 1, firstIdx: idx}
		counts[token] = kc
		order = append(order, kc)
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].count != order[j].count {
			return order[i].count > order[j].count
		}
		return order[i].firstIdx < order[j].firstIdx
	})

	if len(order) > maxKeywords {
		order = order[:maxKeywords]
	}
	keywords := make([]string, 0, len(order))
	for _, kc := range order {
		keywords = append(keywords, kc.word)
	}
	return keywords
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(s) > 0
}
