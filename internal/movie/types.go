// Package movie defines the records and candidates exchanged between the
// metadata providers, the analysis pipeline and the reply formatter.
package movie

import (
	"strings"
)

// Origin identifies which provider produced a Record.
type Origin string

const (
	OriginTMDB   Origin = "tmdb"
	OriginOMDb   Origin = "omdb"
	OriginMerged Origin = "merged"
)

// CandidateSource identifies how a Candidate title was observed.
type CandidateSource string

const (
	SourceTextDetection CandidateSource = "text_detection"
	SourceVideoFrame    CandidateSource = "video_frames"
	SourceAudioMetadata CandidateSource = "audio_metadata"
)

// NotAvailable is the placeholder OMDb uses for missing values.
const NotAvailable = "N/A"

// Record is a normalized movie description from one or more providers.
type Record struct {
	Title         string   `json:"title"`
	OriginalTitle string   `json:"originalTitle,omitempty"`
	ReleaseDate   string   `json:"releaseDate,omitempty"` // "YYYY" or "YYYY-MM-DD"
	Overview      string   `json:"overview,omitempty"`
	Rating        *float64 `json:"rating,omitempty"`
	VoteCount     int      `json:"voteCount,omitempty"`
	Popularity    float64  `json:"popularity,omitempty"`
	TMDBID        string   `json:"tmdbId,omitempty"`
	IMDbID        string   `json:"imdbId,omitempty"`
	PosterURL     string   `json:"posterUrl,omitempty"`
	Director      string   `json:"director,omitempty"`
	Cast          []string `json:"cast,omitempty"`
	Genres        []string `json:"genres,omitempty"`
	Runtime       int      `json:"runtime,omitempty"` // minutes
	Type          string   `json:"type,omitempty"`
	Origin        Origin   `json:"origin"`
}

// Valid reports whether the record carries enough data to be shown.
func (r Record) Valid() bool {
	return strings.TrimSpace(r.Title) != ""
}

// Year returns the four-digit year prefix of ReleaseDate, or ReleaseDate
// itself when it is shorter than four characters.
func (r Record) Year() string {
	if len(r.ReleaseDate) >= 4 {
		return r.ReleaseDate[:4]
	}
	return r.ReleaseDate
}

// Clone returns a copy that shares no slices or pointers with r.
func (r Record) Clone() Record {
	out := r
	if r.Rating != nil {
		v := *r.Rating
		out.Rating = &v
	}
	if r.Cast != nil {
		out.Cast = append([]string(nil), r.Cast...)
	}
	if r.Genres != nil {
		out.Genres = append([]string(nil), r.Genres...)
	}
	return out
}

// TextDetection is one piece of text found in an image.
type TextDetection struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Candidate is a possible movie title with a confidence in [0, 1].
type Candidate struct {
	Text         string          `json:"title"`
	Confidence   float64         `json:"confidence"`
	Source       CandidateSource `json:"source"`
	Observations int             `json:"frameCount,omitempty"`
}

// NewCandidate builds a Candidate with a clamped confidence and a single
// observation.
func NewCandidate(text string, confidence float64, source CandidateSource) Candidate {
	return Candidate{
		Text:         text,
		Confidence:   Clamp01(confidence),
		Source:       source,
		Observations: 1,
	}
}

// Key is the case-folded identity used when deduplicating candidates.
func (c Candidate) Key() string {
	return strings.ToLower(c.Text)
}

// Video is a raw search hit from the video platform.
type Video struct {
	ID          string `json:"videoId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Channel     string `json:"channelTitle"`
	PublishedAt string `json:"publishedAt,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	URL         string `json:"url"`
}

// TrailerCandidate is a scored video hit.
type TrailerCandidate struct {
	Video
	RelevanceScore float64 `json:"relevanceScore"`
}

// Clamp01 bounds v to the unit interval.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
