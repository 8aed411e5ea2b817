// Package format renders movie records, analysis results and trailer lists
// as Telegram Markdown replies.
//
// Every renderer is total: if building the text fails for any reason the
// caller gets a short fallback message instead of a panic.
package format

import (
	"fmt"
	"strings"

	"github.com/filmscout/filmscout/internal/analysis"
	"github.com/filmscout/filmscout/internal/movie"
	"github.com/filmscout/filmscout/internal/textutil"
)

const (
	maxOverviewLength     = 300
	maxTrailerTitleLength = 60
	maxCastShown          = 3
	imdbTitleURL          = "https://www.imdb.com/title/%s/"
	unknownTitle          = "Unknown Title"
	unknownMovie          = "Unknown Movie"
	unknownChannel        = "Unknown Channel"
)

// guard replaces the named result with fallback if fn panics.
func guard(out *string, fallback string) {
	if r := recover(); r != nil {
		*out = fallback
	}
}

// Movie renders a single movie record.
func Movie(r movie.Record) (out string) {
	fallbackTitle := r.Title
	if fallbackTitle == "" {
		fallbackTitle = unknownMovie
	}
	defer guard(&out, fmt.Sprintf("🎬 *%s*\n\nError formatting movie details.", fallbackTitle))

	title := r.Title
	if title == "" {
		title = unknownTitle
	}
	parts := []string{fmt.Sprintf("🎬 *%s*", title)}

	if r.ReleaseDate != "" {
		parts = append(parts, fmt.Sprintf("📅 *Year:* %s", r.Year()))
	}

	if r.Rating != nil && *r.Rating != 0 {
		parts = append(parts, fmt.Sprintf("⭐ *Rating:* %s/10", textutil.FormatFloat(*r.Rating)))
	}

	if r.Runtime > 0 {
		parts = append(parts, fmt.Sprintf("⏱️ *Runtime:* %s", textutil.FormatRuntime(r.Runtime)))
	}

	if r.Director != "" && r.Director != movie.NotAvailable {
		parts = append(parts, fmt.Sprintf("🎭 *Director:* %s", textutil.EscapeMarkdown(r.Director)))
	}

	if cast := visibleCast(r.Cast); len(cast) > 0 {
		parts = append(parts, fmt.Sprintf("👥 *Cast:* %s", textutil.EscapeMarkdown(strings.Join(cast, ", "))))
	}

	if r.Overview != "" {
		parts = append(parts, fmt.Sprintf("📖 *Plot:* %s", textutil.EscapeMarkdown(textutil.Truncate(r.Overview, maxOverviewLength, "..."))))
	}

	if r.IMDbID != "" {
		parts = append(parts, fmt.Sprintf("🔗 [View on IMDB]("+imdbTitleURL+")", r.IMDbID))
	}

	return strings.Join(parts, "\n\n")
}

func visibleCast(cast []string) []string {
	if len(cast) == 0 || (len(cast) == 1 && cast[0] == movie.NotAvailable) {
		return nil
	}
	if len(cast) > maxCastShown {
		return cast[:maxCastShown]
	}
	return cast
}

// ImageAnalysis renders the outcome of a photo analysis.
func ImageAnalysis(res analysis.ImageResult) (out string) {
	defer guard(&out, "❌ Error formatting analysis results.")

	if res.Failed() {
		return fmt.Sprintf("❌ Image analysis failed: %s", res.Error)
	}

	if len(res.Candidates) == 0 {
		return "🔍 *Image Analysis Complete*\n\n" +
			"No movie titles detected in the image. " +
			"This might not be a movie poster, or the text might not be clear enough."
	}

	parts := []string{"🔍 *Image Analysis Results*\n"}

	switch {
	case res.PosterLikelihood > 0.7:
		parts = append(parts, "📽️ This looks like a movie poster!")
	case res.PosterLikelihood > 0.4:
		parts = append(parts, "🎬 This might be movie-related content.")
	}

	parts = append(parts, "\n*Potential movie titles detected:*")
	for i, c := range res.Candidates {
		parts = append(parts, fmt.Sprintf("%d. %s *%s* (%d%% confidence)",
			i+1, ConfidenceIcon(c.Confidence), c.Text, Percent(c.Confidence)))
	}

	parts = append(parts, "\n💡 Tip: Use /search command with any of these titles to get movie details!")
	return strings.Join(parts, "\n")
}

// VideoAnalysis renders the outcome of a video analysis.
func VideoAnalysis(res analysis.VideoResult) (out string) {
	defer guard(&out, "❌ Error formatting video analysis results.")

	if res.Failed() {
		return fmt.Sprintf("❌ Video analysis failed: %s", res.Error)
	}

	if len(res.Candidates) == 0 {
		return "🎥 *Video Analysis Complete*\n\n" +
			"No movie content detected in the video. " +
			"This might be original content or the quality might not be sufficient for identification."
	}

	parts := []string{"🎥 *Video Analysis Results*\n"}
	if res.FramesAnalyzed > 0 {
		parts = append(parts, fmt.Sprintf("📊 Analyzed %d video frames", res.FramesAnalyzed))
	}

	parts = append(parts, "\n*Potential movies identified:*")
	for i, c := range res.Candidates {
		parts = append(parts, fmt.Sprintf("%d. %s *%s* (%d%% confidence) %s",
			i+1, ConfidenceIcon(c.Confidence), c.Text, Percent(c.Confidence), SourceIcon(c.Source)))
	}

	parts = append(parts, "\n💡 Tip: Use /search command with any of these titles to get detailed movie information!")
	return strings.Join(parts, "\n")
}

// Trailers renders a ranked trailer list for movieTitle.
func Trailers(trailers []movie.TrailerCandidate, movieTitle string) (out string) {
	defer guard(&out, fmt.Sprintf("🎬 Found trailers for '%s' but failed to format results.", movieTitle))

	if len(trailers) == 0 {
		return fmt.Sprintf("🎬 No trailers found for '%s'", textutil.EscapeMarkdown(movieTitle))
	}

	parts := []string{fmt.Sprintf("🎬 *Trailers for '%s'*\n", movieTitle)}
	for i, t := range trailers {
		title := t.Title
		if title == "" {
			title = unknownTitle
		}
		channel := t.Channel
		if channel == "" {
			channel = unknownChannel
		}
		title = textutil.Truncate(title, maxTrailerTitleLength, "...")

		parts = append(parts, fmt.Sprintf("%d. %s [%s](%s)\n   📺 *Channel:* %s",
			i+1, RelevanceIcon(t.RelevanceScore), title, t.URL, textutil.EscapeMarkdown(channel)))
	}

	return strings.Join(parts, "\n\n")
}

// ConfidenceIcon marks a candidate confidence as high, medium or low.
func ConfidenceIcon(confidence float64) string {
	switch {
	case confidence > 0.8:
		return "🎯"
	case confidence > 0.5:
		return "🎲"
	default:
		return "❓"
	}
}

// RelevanceIcon marks a trailer relevance score as high, medium or low.
func RelevanceIcon(score float64) string {
	switch {
	case score > 0.8:
		return "🎯"
	case score > 0.6:
		return "⭐"
	default:
		return "🔗"
	}
}

// SourceIcon marks where a video candidate came from.
func SourceIcon(source movie.CandidateSource) string {
	switch source {
	case movie.SourceVideoFrame:
		return "🎬"
	case movie.SourceAudioMetadata:
		return "🎵"
	default:
		return "🔍"
	}
}

// Percent converts a confidence to a truncated whole percentage.
func Percent(confidence float64) int {
	return int(confidence * 100)
}
