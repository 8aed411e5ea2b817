package textutil

import (
	"fmt"
	"strconv"
	"strings"
)

// NotAvailable is returned by FormatRating when there is no scale.
const NotAvailable = "N/A"

// Characters that open an entity in Telegram's legacy Markdown mode.
var markdownSpecials = []string{"_", "*", "`", "["}

// FormatRuntime renders a minute count as "95min", "2h" or "2h 28min".
func FormatRuntime(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dmin", minutes)
	}
	hours, rest := minutes/60, minutes%60
	if rest == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dmin", hours, rest)
}

// FormatFloat renders v the way a rating is usually written: shortest
// representation, always with at least one decimal ("7.0", "8.4").
func FormatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEN") {
		s += ".0"
	}
	return s
}

// FormatRating renders a rating with an emoji picked from its share of
// maxRating. A non-positive maxRating yields "N/A".
func FormatRating(rating, maxRating float64) string {
	if maxRating <= 0 {
		return NotAvailable
	}
	share := rating / maxRating

	emoji := "📊"
	switch {
	case share >= 0.8:
		emoji = "🌟"
	case share >= 0.7:
		emoji = "⭐"
	case share >= 0.6:
		emoji = "🔸"
	}
	return fmt.Sprintf("%s %s/%s", emoji, FormatFloat(rating), FormatFloat(maxRating))
}

// EscapeMarkdown backslash-escapes the characters legacy Telegram Markdown
// treats as markup. Only valid outside an entity.
func EscapeMarkdown(text string) string {
	for _, ch := range markdownSpecials {
		text = strings.ReplaceAll(text, ch, `\`+ch)
	}
	return text
}
