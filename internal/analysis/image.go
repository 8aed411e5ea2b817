package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/filmscout/filmscout/internal/imaging"
	"github.com/filmscout/filmscout/internal/metrics"
	"github.com/filmscout/filmscout/internal/scoring"
	"github.com/filmscout/filmscout/internal/vision"
)

// TextDetector finds text in a JPEG image. Implementations never fail; they
// degrade to an empty detection instead.
type TextDetector interface {
	DetectText(ctx context.Context, image []byte) vision.Detection
}

// ImageAnalyzer extracts title candidates from a still image.
type ImageAnalyzer struct {
	detector TextDetector
	scorer   *scoring.Scorer
	opts     imaging.Options
	logger   zerolog.Logger
}

// NewImageAnalyzer creates an ImageAnalyzer. A nil scorer uses the defaults.
func NewImageAnalyzer(detector TextDetector, scorer *scoring.Scorer, opts imaging.Options, logger zerolog.Logger) *ImageAnalyzer {
	if scorer == nil {
		scorer = scoring.NewDefaultScorer()
	}
	return &ImageAnalyzer{
		detector: detector,
		scorer:   scorer,
		opts:     opts,
		logger:   logger.With().Str("component", "image-analysis").Logger(),
	}
}

// Analyze normalizes data, detects text in it and keeps the fragments that
// look like titles, boosted by how poster-like the image is.
func (a *ImageAnalyzer) Analyze(ctx context.Context, data []byte) ImageResult {
	res := a.analyze(ctx, data)
	if !res.Failed() {
		metrics.CandidatesReturned.WithLabelValues("image").Observe(float64(len(res.Candidates)))
	}
	return res
}

func (a *ImageAnalyzer) analyze(ctx context.Context, data []byte) ImageResult {
	processed, err := imaging.Preprocess(data, a.opts)
	if err != nil {
		a.logger.Warn().Err(err).Int("bytes", len(data)).Msg("Image rejected")
		return ImageResult{Error: a.describe(err)}
	}

	detection := a.detector.DetectText(ctx, processed.Data)
	likelihood := a.scorer.PosterLikelihood(processed.Width, processed.Height)
	candidates := a.scorer.ScoreAndFilterTextCandidates(detection.Texts, likelihood)

	a.logger.Debug().
		Str("method", detection.Method).
		Int("texts", len(detection.Texts)).
		Int("candidates", len(candidates)).
		Float64("posterLikelihood", likelihood).
		Msg("Image analyzed")

	return ImageResult{
		Candidates:       candidates,
		PosterLikelihood: likelihood,
		Methods:          []string{detection.Method, MethodPosterFeatures},
	}
}

func (a *ImageAnalyzer) describe(err error) string {
	if errors.Is(err, imaging.ErrTooLarge) {
		return fmt.Sprintf("Image file too large (max %dMB)", a.opts.MaxBytes/(1024*1024))
	}
	return "Invalid image format: " + strings.TrimPrefix(err.Error(), imaging.ErrInvalidFormat.Error()+": ")
}
