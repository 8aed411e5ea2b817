// Package analysis turns uploaded photos and videos into ranked movie title
// candidates.
package analysis

import (
	"errors"

	"github.com/filmscout/filmscout/internal/movie"
)

// Methods reported in results.
const (
	MethodPosterFeatures = "poster_features"
	MethodFrameAnalysis  = "frame_analysis"
	MethodAudioMetadata  = "audio_metadata"
)

var (
	ErrFileTooLarge     = errors.New("file too large")
	ErrUnsupportedVideo = errors.New("unsupported video format")
	ErrVideoTooSmall    = errors.New("video file appears to be corrupted or too small")
)

// ValidationError is an upload rejected before analysis. Message is shown
// to the user as is.
type ValidationError struct {
	Err     error
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ImageResult is the outcome of analysing one image.
// Error is set, and the other fields are empty, when analysis failed.
type ImageResult struct {
	Candidates       []movie.Candidate `json:"potentialMovies"`
	PosterLikelihood float64           `json:"posterLikelihood"`
	Methods          []string          `json:"methods"`
	Error            string            `json:"error,omitempty"`
}

// Failed reports whether analysis could not run.
func (r ImageResult) Failed() bool {
	return r.Error != ""
}

// VideoResult is the outcome of analysing one video.
type VideoResult struct {
	Candidates     []movie.Candidate `json:"potentialMovies"`
	FramesAnalyzed int               `json:"framesAnalyzed"`
	Methods        []string          `json:"methods"`
	Error          string            `json:"error,omitempty"`
}

// Failed reports whether analysis could not run.
func (r VideoResult) Failed() bool {
	return r.Error != ""
}
