// Package scoring filters and ranks title candidates read from images and
// trailer hits returned by the video platform.
package scoring

// Config holds the word lists and thresholds used by the Scorer.
// A Config is treated as immutable once handed to NewScorer.
type Config struct {
	// Title plausibility
	MinTitleLength  int      // default: 2
	MaxTitleLength  int      // default: 100
	MinLetterRatio  float64  // default: 0.5
	TitleDenylist   []string // lowercase substrings that mark non-title text
	MaxTextResults  int      // default: 5
	TallPosterRatio float64  // default: 1.2 (height/width)

	// Poster likelihood
	TallPosterLikelihood  float64 // default: 0.5
	OtherPosterLikelihood float64 // default: 0.3

	// Trailer relevance
	TitleMatchPoints   float64  // default: 0.5
	KeywordPoints      float64  // default: 0.3
	StudioPoints       float64  // default: 0.2
	YearPoints         float64  // default: 0.2
	OfficialPoints     float64  // default: 0.2
	NegativePenalty    float64  // default: 0.3
	TrailerKeywords    []string // matched against the video title
	StudioChannels     []string // matched against the channel name
	NegativeIndicators []string // matched against title and description
	MinTrailerScore    float64  // exclusive, default: 0.3
	MaxTrailers        int      // default: 3
}

// DefaultConfig returns the standard lists and thresholds.
func DefaultConfig() Config {
	return Config{
		MinTitleLength: 2,
		MaxTitleLength: 100,
		MinLetterRatio: 0.5,
		TitleDenylist: []string{
			"rating", "pg-13", "rated", "minutes", "min", "hrs", "hours",
			"dvd", "blu-ray", "digital", "download", "streaming",
			"trailer", "teaser", "poster", "coming soon",
			"www.", "http", ".com", ".net", ".org",
		},
		MaxTextResults:  5,
		TallPosterRatio: 1.2,

		TallPosterLikelihood:  0.5,
		OtherPosterLikelihood: 0.3,

		TitleMatchPoints: 0.5,
		KeywordPoints:    0.3,
		StudioPoints:     0.2,
		YearPoints:       0.2,
		OfficialPoints:   0.2,
		NegativePenalty:  0.3,
		TrailerKeywords:  []string{"trailer", "official trailer", "movie trailer", "teaser"},
		StudioChannels: []string{
			"sony pictures", "warner bros", "disney", "universal",
			"paramount", "fox", "lionsgate", "marvel", "dc",
		},
		NegativeIndicators: []string{
			"reaction", "review", "analysis", "breakdown",
			"fan made", "unofficial", "mashup", "parody",
		},
		MinTrailerScore: 0.3,
		MaxTrailers:     3,
	}
}

// ScoreBreakdown records how a trailer score was assembled.
type ScoreBreakdown struct {
	TitleMatch float64 `json:"titleMatch"`
	Keyword    float64 `json:"keyword"`
	Studio     float64 `json:"studio"`
	Year       float64 `json:"year"`
	Penalty    float64 `json:"penalty"`
	Official   float64 `json:"official"`
}

// Total sums the components and floors the result at zero.
func (b ScoreBreakdown) Total() float64 {
	total := b.TitleMatch + b.Keyword + b.Studio + b.Year - b.Penalty + b.Official
	if total < 0 {
		return 0
	}
	return total
}
