package telegram

import (
	"fmt"
	"strings"
)

// DigestEntry is one narrative line in a detection digest message.
type DigestEntry struct {
	Title     string
	Sentiment string
	ItemCount int
}

var sentimentEmoji = map[string]string{
	"bullish": "🟢",
	"bearish": "🔴",
	"neutral": "⚪",
}

// FormatNarrativeDigest renders a Markdown digest for newly detected narratives.
func FormatNarrativeDigest(entries []DigestEntry) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*📈 %d new narrative(s) detected*\n\n", len(entries)))
	for _, e := range entries {
		emoji, ok := sentimentEmoji[e.Sentiment]
		if !ok {
			emoji = "⚪"
		}
		sb.WriteString(fmt.Sprintf("%s *%s* (%d items, %s)\n", emoji, e.Title, e.ItemCount, e.Sentiment))
	}
	return sb.String()
}
