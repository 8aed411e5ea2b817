package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/filmscout/filmscout/internal/merge"
	"github.com/filmscout/filmscout/internal/metrics"
	"github.com/filmscout/filmscout/internal/movie"
	"github.com/filmscout/filmscout/internal/textutil"
)

// FrameExtractor pulls still frames out of a video container.
type FrameExtractor interface {
	ExtractFrames(ctx context.Context, data []byte, ext string, max int) ([][]byte, error)
}

// AudioProber looks for title hints in a video's audio track and metadata.
type AudioProber interface {
	Probe(ctx context.Context, data []byte, ext string) ([]movie.Candidate, error)
}

// VideoLimits bounds accepted uploads.
type VideoLimits struct {
	MaxBytes   int64
	MinBytes   int64
	Extensions []string
	MaxFrames  int
}

// DefaultVideoLimits returns the limits used by the bot.
func DefaultVideoLimits() VideoLimits {
	return VideoLimits{
		MaxBytes:   20 * 1024 * 1024,
		MinBytes:   1024,
		Extensions: []string{".mp4", ".avi", ".mov", ".mkv", ".webm"},
		MaxFrames:  5,
	}
}

// VideoAnalyzer runs frame and audio analysis over an uploaded video.
type VideoAnalyzer struct {
	images *ImageAnalyzer
	frames FrameExtractor
	audio  AudioProber
	limits VideoLimits
	logger zerolog.Logger
}

// NewVideoAnalyzer creates a VideoAnalyzer. Nil collaborators fall back to
// the placeholders that find nothing.
func NewVideoAnalyzer(images *ImageAnalyzer, frames FrameExtractor, audio AudioProber, limits VideoLimits, logger zerolog.Logger) *VideoAnalyzer {
	if frames == nil {
		frames = NoFrames{}
	}
	if audio == nil {
		audio = NoAudio{}
	}
	return &VideoAnalyzer{
		images: images,
		frames: frames,
		audio:  audio,
		limits: limits,
		logger: logger.With().Str("component", "video-analysis").Logger(),
	}
}

// Validate checks size, extension and minimum size, in that order.
func (a *VideoAnalyzer) Validate(data []byte, filename string) error {
	if a.limits.MaxBytes > 0 && int64(len(data)) > a.limits.MaxBytes {
		return &ValidationError{
			Err:     ErrFileTooLarge,
			Message: fmt.Sprintf("Video file too large (max %dMB)", a.limits.MaxBytes/(1024*1024)),
		}
	}
	if !textutil.HasExtension(filename, a.limits.Extensions) {
		return &ValidationError{
			Err:     ErrUnsupportedVideo,
			Message: "Unsupported video format. Supported: " + strings.Join(a.limits.Extensions, ", "),
		}
	}
	if int64(len(data)) < a.limits.MinBytes {
		return &ValidationError{Err: ErrVideoTooSmall, Message: "Video file appears to be corrupted or too small"}
	}
	return nil
}

// Analyze validates the upload, analyzes up to MaxFrames frames as images,
// folds repeated titles across frames, then adds audio hints.
func (a *VideoAnalyzer) Analyze(ctx context.Context, data []byte, filename string) VideoResult {
	if err := a.Validate(data, filename); err != nil {
		a.logger.Info().Err(err).Str("file", filename).Int("bytes", len(data)).Msg("Video rejected")
		return VideoResult{Error: err.Error()}
	}
	ext := "." + textutil.FileExtension(filename)

	frames, err := a.frames.ExtractFrames(ctx, data, ext, a.limits.MaxFrames)
	if err != nil {
		a.logger.Error().Err(err).Str("file", filename).Msg("Frame extraction failed")
		return VideoResult{Error: "Frame extraction failed: " + err.Error()}
	}
	if a.limits.MaxFrames > 0 && len(frames) > a.limits.MaxFrames {
		frames = frames[:a.limits.MaxFrames]
	}

	var fromFrames []movie.Candidate
	analyzed := 0
	for i, frame := range frames {
		if err := ctx.Err(); err != nil {
			return VideoResult{Error: "Failed to analyze video: " + err.Error()}
		}
		res := a.images.analyze(ctx, frame)
		if res.Failed() {
			a.logger.Warn().Int("frame", i).Str("error", res.Error).Msg("Frame analysis failed")
			continue
		}
		analyzed++
		for _, c := range res.Candidates {
			c.Source = movie.SourceVideoFrame
			fromFrames = append(fromFrames, c)
		}
	}
	candidates := merge.DedupeCandidatesAccumulating(fromFrames)

	clues, err := a.audio.Probe(ctx, data, ext)
	if err != nil {
		a.logger.Warn().Err(err).Str("file", filename).Msg("Audio metadata probe failed")
	}
	for _, c := range clues {
		c.Source = movie.SourceAudioMetadata
		candidates = append(candidates, c)
	}

	result := VideoResult{
		Candidates:     merge.DedupeCandidatesKeepBest(candidates),
		FramesAnalyzed: analyzed,
		Methods:        []string{MethodFrameAnalysis, MethodAudioMetadata},
	}
	metrics.CandidatesReturned.WithLabelValues("video").Observe(float64(len(result.Candidates)))

	a.logger.Debug().
		Str("file", filename).
		Int("frames", len(frames)).
		Int("analyzed", analyzed).
		Int("candidates", len(result.Candidates)).
		Msg("Video analyzed")

	return result
}

// NoFrames is the placeholder extractor; it never yields frames.
type NoFrames struct{}

func (NoFrames) ExtractFrames(context.Context, []byte, string, int) ([][]byte, error) {
	return nil, nil
}

// NoAudio is the placeholder prober; it never yields clues.
type NoAudio struct{}

func (NoAudio) Probe(context.Context, []byte, string) ([]movie.Candidate, error) {
	return nil, nil
}
