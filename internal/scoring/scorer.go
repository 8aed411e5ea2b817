package scoring

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/filmscout/filmscout/internal/movie"
)

// Scorer filters text candidates and ranks trailer hits.
// It holds no mutable state and is safe for concurrent use.
type Scorer struct {
	config Config
}

// NewScorer creates a new scorer with the given config.
func NewScorer(config Config) *Scorer {
	return &Scorer{config: config}
}

// NewDefaultScorer creates a scorer with default configuration.
func NewDefaultScorer() *Scorer {
	return NewScorer(DefaultConfig())
}

// Config returns the scorer's configuration.
func (s *Scorer) Config() Config {
	return s.config
}

// IsPlausibleTitle reports whether a piece of detected text could be a
// movie title rather than poster boilerplate.
func (s *Scorer) IsPlausibleTitle(text string) bool {
	text = strings.TrimSpace(text)
	n := utf8.RuneCountInString(text)
	if n < s.config.MinTitleLength || n > s.config.MaxTitleLength {
		return false
	}

	lower := strings.ToLower(text)
	for _, word := range s.config.TitleDenylist {
		if strings.Contains(lower, word) {
			return false
		}
	}

	letters := 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return float64(letters) >= float64(n)*s.config.MinLetterRatio
}

// PosterLikelihood estimates how likely an image of the given pixel
// dimensions is a movie poster. Posters are portrait.
func (s *Scorer) PosterLikelihood(width, height int) float64 {
	ratio := 0.0
	if width > 0 {
		ratio = float64(height) / float64(width)
	}
	if ratio > s.config.TallPosterRatio {
		return s.config.TallPosterLikelihood
	}
	return s.config.OtherPosterLikelihood
}

// ScoreAndFilterTextCandidates keeps plausible titles, boosts their
// confidence by the poster likelihood and returns the best few, highest
// confidence first.
func (s *Scorer) ScoreAndFilterTextCandidates(detections []movie.TextDetection, posterLikelihood float64) []movie.Candidate {
	candidates := make([]movie.Candidate, 0, len(detections))
	for _, d := range detections {
		if !s.IsPlausibleTitle(d.Text) {
			continue
		}
		boosted := movie.Clamp01(d.Confidence) * (1 + posterLikelihood)
		if boosted > 1.0 {
			boosted = 1.0
		}
		candidates = append(candidates, movie.NewCandidate(d.Text, boosted, movie.SourceTextDetection))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	if len(candidates) > s.config.MaxTextResults {
		candidates = candidates[:s.config.MaxTextResults]
	}
	return candidates
}

// ScoreTrailer computes the relevance of a video hit to a movie.
// The score is floored at zero but has no upper bound.
func (s *Scorer) ScoreTrailer(video movie.Video, movieTitle, year string) float64 {
	return s.TrailerBreakdown(video, movieTitle, year).Total()
}

// TrailerBreakdown returns the individual components of ScoreTrailer.
func (s *Scorer) TrailerBreakdown(video movie.Video, movieTitle, year string) ScoreBreakdown {
	var b ScoreBreakdown

	title := strings.ToLower(video.Title)
	description := strings.ToLower(video.Description)
	channel := strings.ToLower(video.Channel)
	wanted := strings.ToLower(strings.TrimSpace(movieTitle))

	if strings.Contains(title, wanted) {
		b.TitleMatch = s.config.TitleMatchPoints
	}

	if containsAny(title, s.config.TrailerKeywords) {
		b.Keyword = s.config.KeywordPoints
	}

	if containsAny(channel, s.config.StudioChannels) {
		b.Studio = s.config.StudioPoints
	}

	if year != "" && strings.Contains(title, year) {
		b.Year = s.config.YearPoints
	}

	if containsAny(title, s.config.NegativeIndicators) || containsAny(description, s.config.NegativeIndicators) {
		b.Penalty = s.config.NegativePenalty
	}

	if strings.Contains(title, "official") {
		b.Official = s.config.OfficialPoints
	}

	return b
}

// ScoreAndRankTrailers scores every hit, discards weak ones and returns the
// best few, highest score first.
func (s *Scorer) ScoreAndRankTrailers(videos []movie.Video, movieTitle, year string) []movie.TrailerCandidate {
	ranked := make([]movie.TrailerCandidate, 0, len(videos))
	for _, v := range videos {
		if v.ID == "" {
			continue
		}
		score := s.ScoreTrailer(v, movieTitle, year)
		if score <= s.config.MinTrailerScore {
			continue
		}
		ranked = append(ranked, movie.TrailerCandidate{Video: v, RelevanceScore: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RelevanceScore > ranked[j].RelevanceScore
	})

	if len(ranked) > s.config.MaxTrailers {
		ranked = ranked[:s.config.MaxTrailers]
	}
	return ranked
}

// TrailerQueries returns the search strings to try, most specific first.
func TrailerQueries(movieTitle, year string) []string {
	t := strings.TrimSpace(movieTitle)
	y := strings.TrimSpace(year)

	queries := make([]string, 0, 7)
	if y != "" {
		queries = append(queries,
			t+" "+y+" official trailer",
			t+" "+y+" trailer",
			t+" movie "+y+" trailer",
		)
	}
	return append(queries,
		t+" official trailer",
		t+" movie trailer",
		t+" trailer",
		t+" film trailer",
	)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
