package format

import (
	"fmt"
	"strings"

	"github.com/filmscout/filmscout/internal/movie"
	"github.com/filmscout/filmscout/internal/textutil"
)

const maxOtherMatches = 5

// Welcome is the reply to /start.
const Welcome = "🎬 *Welcome to Movie Search Bot!*\n\n" +
	"Send me a movie title, a poster photo or a short clip and I'll try to find the movie for you.\n\n" +
	"Use /help to see everything I can do."

// Help is the reply to /help.
const Help = "*Available commands:*\n" +
	"/start - Start the bot\n" +
	"/help - Show this help message\n" +
	"/search <movie> - Search for a movie\n" +
	"/trailer <movie> [year] - Find official trailers\n" +
	"/status - Check bot status\n\n" +
	"*You can also send:*\n" +
	"📝 Any text - searched as a movie title\n" +
	"🖼️ A photo of a poster - I'll read the title from it\n" +
	"🎥 A video clip - I'll try to identify the movie"

// SearchUsage is the reply to /search without a query.
const SearchUsage = "Please specify a movie name after /search\n\nExample: /search Inception"

// TrailerUsage is the reply to /trailer without a title.
const TrailerUsage = "Please specify a movie name after /trailer\n\nExample: /trailer Inception 2010"

// UnsupportedFile is the reply to documents that are neither images nor videos.
const UnsupportedFile = "❌ Unsupported file type. Please send an image (jpg, png, gif, bmp) or a video (mp4, avi, mov, mkv, webm)."

// Searching is the interim reply while a search runs.
func Searching(query string) string {
	return fmt.Sprintf("🔍 Searching for: %s...", textutil.EscapeMarkdown(query))
}

// NoResults tells the user nothing matched query.
func NoResults(query string) string {
	return fmt.Sprintf("😔 No movies found for '%s'. Try a different spelling or add the release year.", textutil.EscapeMarkdown(query))
}

// OtherMatches lists the remaining search hits after the first one.
func OtherMatches(records []movie.Record) (out string) {
	defer guard(&out, "")

	if len(records) == 0 {
		return ""
	}
	if len(records) > maxOtherMatches {
		records = records[:maxOtherMatches]
	}

	parts := []string{"*Other matches:*"}
	for i, r := range records {
		line := fmt.Sprintf("%d. %s", i+1, textutil.EscapeMarkdown(r.Title))
		if y := r.Year(); y != "" {
			line += fmt.Sprintf(" (%s)", y)
		}
		if r.Rating != nil && *r.Rating != 0 {
			line += " " + textutil.FormatRating(*r.Rating, 10)
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, "\n")
}

// Error wraps a user-facing error description.
func Error(description string) string {
	return fmt.Sprintf("❌ %s\n\nPlease try again or use /help for assistance.", description)
}

// FileTooLarge tells the user an upload exceeded the limit.
func FileTooLarge(kind string, maxMB int64) string {
	return fmt.Sprintf("%s file too large (max %dMB)", kind, maxMB)
}

// APIStatus renders one "Name: ✅ Configured" line per provider in order.
func APIStatus(status map[string]bool, order []string) string {
	lines := make([]string, 0, len(order))
	for _, name := range order {
		mark := "❌ Not configured"
		if status[name] {
			mark = "✅ Configured"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", name, mark))
	}
	return strings.Join(lines, "\n")
}

// Status is the reply to /status.
func Status(status map[string]bool, order []string) string {
	return "🤖 *Bot Status*\n\n✅ Bot is running normally\n\n*API Status:*\n" + APIStatus(status, order)
}
