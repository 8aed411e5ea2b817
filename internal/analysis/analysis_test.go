package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filmscout/filmscout/internal/imaging"
	"github.com/filmscout/filmscout/internal/movie"
	"github.com/filmscout/filmscout/internal/testutil"
	"github.com/filmscout/filmscout/internal/vision"
)

type fakeDetector struct {
	detections []vision.Detection
	calls      int
}

func (f *fakeDetector) DetectText(ctx context.Context, image []byte) vision.Detection {
	if len(f.detections) == 0 {
		return vision.Detection{Method: vision.MethodFallback, Confidence: 0.3}
	}
	d := f.detections[f.calls%len(f.detections)]
	f.calls++
	return d
}

func detection(texts ...movie.TextDetection) vision.Detection {
	return vision.Detection{Texts: texts, Method: vision.MethodGoogleVision}
}

type fakeFrames struct {
	frames [][]byte
	err    error
	gotMax int
}

func (f *fakeFrames) ExtractFrames(ctx context.Context, data []byte, ext string, max int) ([][]byte, error) {
	f.gotMax = max
	return f.frames, f.err
}

type fakeAudio struct {
	clues []movie.Candidate
	err   error
}

func (f fakeAudio) Probe(ctx context.Context, data []byte, ext string) ([]movie.Candidate, error) {
	return f.clues, f.err
}

func newImageAnalyzer(d TextDetector) *ImageAnalyzer {
	return NewImageAnalyzer(d, nil, imaging.DefaultOptions(), testutil.NopLogger())
}

func TestImageAnalyzer_Analyze(t *testing.T) {
	d := &fakeDetector{detections: []vision.Detection{detection(
		movie.TextDetection{Text: "INCEPTION", Confidence: 0.6},
		movie.TextDetection{Text: "Coming Soon", Confidence: 0.9},
		movie.TextDetection{Text: "2010", Confidence: 0.9},
	)}}
	a := newImageAnalyzer(d)

	res := a.Analyze(context.Background(), testutil.PNGImage(t, 100, 200))
	require.False(t, res.Failed(), res.Error)

	assert.Equal(t, 0.5, res.PosterLikelihood)
	assert.Equal(t, []string{vision.MethodGoogleVision, MethodPosterFeatures}, res.Methods)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "INCEPTION", res.Candidates[0].Text)
	assert.InDelta(t, 0.9, res.Candidates[0].Confidence, 1e-9)
	assert.Equal(t, movie.SourceTextDetection, res.Candidates[0].Source)
}

func TestImageAnalyzer_LandscapeAndFallback(t *testing.T) {
	a := newImageAnalyzer(&fakeDetector{})

	res := a.Analyze(context.Background(), testutil.JPEGImage(t, 200, 100))
	require.False(t, res.Failed())
	assert.Equal(t, 0.3, res.PosterLikelihood)
	assert.Empty(t, res.Candidates)
	assert.Equal(t, []string{vision.MethodFallback, MethodPosterFeatures}, res.Methods)
}

func TestImageAnalyzer_Errors(t *testing.T) {
	opts := imaging.DefaultOptions()
	opts.MaxBytes = 1024 * 1024
	a := NewImageAnalyzer(&fakeDetector{}, nil, opts, testutil.NopLogger())

	res := a.Analyze(context.Background(), make([]byte, 1024*1024+1))
	assert.Equal(t, "Image file too large (max 1MB)", res.Error)

	res = a.Analyze(context.Background(), []byte("definitely not an image"))
	assert.True(t, strings.HasPrefix(res.Error, "Invalid image format: "), res.Error)
	assert.NotContains(t, res.Error, "invalid image format")
	assert.Empty(t, res.Candidates)
}

func newVideoAnalyzer(d TextDetector, frames FrameExtractor, audio AudioProber) *VideoAnalyzer {
	return NewVideoAnalyzer(newImageAnalyzer(d), frames, audio, DefaultVideoLimits(), testutil.NopLogger())
}

func TestVideoAnalyzer_Validate(t *testing.T) {
	a := newVideoAnalyzer(&fakeDetector{}, nil, nil)

	tests := []struct {
		name     string
		size     int
		filename string
		sentinel error
		message  string
	}{
		{"too large", 20*1024*1024 + 1, "clip.mp4", ErrFileTooLarge, "Video file too large (max 20MB)"},
		{"too large wins over extension", 20*1024*1024 + 1, "clip.txt", ErrFileTooLarge, "Video file too large (max 20MB)"},
		{"unsupported", 4096, "clip.txt", ErrUnsupportedVideo, "Unsupported video format. Supported: .mp4, .avi, .mov, .mkv, .webm"},
		{"no extension", 4096, "clip", ErrUnsupportedVideo, "Unsupported video format. Supported: .mp4, .avi, .mov, .mkv, .webm"},
		{"too small", 1023, "clip.MP4", ErrVideoTooSmall, "Video file appears to be corrupted or too small"},
		{"ok", 1024, "clip.webm", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.Validate(make([]byte, tt.size), tt.filename)
			if tt.sentinel == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.sentinel)
			assert.EqualError(t, err, tt.message)
		})
	}
}

func TestVideoAnalyzer_PlaceholdersFindNothing(t *testing.T) {
	a := newVideoAnalyzer(&fakeDetector{}, nil, nil)

	res := a.Analyze(context.Background(), make([]byte, 4096), "clip.mp4")
	require.False(t, res.Failed(), res.Error)
	assert.Empty(t, res.Candidates)
	assert.Zero(t, res.FramesAnalyzed)
	assert.Equal(t, []string{MethodFrameAnalysis, MethodAudioMetadata}, res.Methods)
}

func TestVideoAnalyzer_RejectsInvalid(t *testing.T) {
	a := newVideoAnalyzer(&fakeDetector{}, nil, nil)

	res := a.Analyze(context.Background(), make([]byte, 10), "clip.mp4")
	assert.Equal(t, "Video file appears to be corrupted or too small", res.Error)
	assert.Empty(t, res.Methods)
}

func TestVideoAnalyzer_AccumulatesAcrossFrames(t *testing.T) {
	d := &fakeDetector{detections: []vision.Detection{
		detection(movie.TextDetection{Text: "Alien", Confidence: 0.4}),
		detection(movie.TextDetection{Text: "ALIEN", Confidence: 0.4}, movie.TextDetection{Text: "Nostromo", Confidence: 0.2}),
	}}
	frame := testutil.PNGImage(t, 200, 100)
	frames := &fakeFrames{frames: [][]byte{frame, frame, []byte("corrupt")}}
	a := newVideoAnalyzer(d, frames, nil)

	res := a.Analyze(context.Background(), make([]byte, 4096), "clip.mkv")
	require.False(t, res.Failed(), res.Error)

	assert.Equal(t, 5, frames.gotMax)
	assert.Equal(t, 2, res.FramesAnalyzed)
	require.Len(t, res.Candidates, 2)

	alien := res.Candidates[0]
	assert.Equal(t, "Alien", alien.Text)
	assert.Equal(t, movie.SourceVideoFrame, alien.Source)
	assert.Equal(t, 2, alien.Observations)
	// 0.52 + 0.3 * 0.52
	assert.InDelta(t, 0.676, alien.Confidence, 1e-9)

	assert.Equal(t, "Nostromo", res.Candidates[1].Text)
}

func TestVideoAnalyzer_CapsFrames(t *testing.T) {
	frame := testutil.PNGImage(t, 10, 10)
	frames := &fakeFrames{frames: [][]byte{frame, frame, frame, frame, frame, frame, frame}}
	a := newVideoAnalyzer(&fakeDetector{}, frames, nil)

	res := a.Analyze(context.Background(), make([]byte, 4096), "clip.mov")
	assert.Equal(t, 5, res.FramesAnalyzed)
}

func TestVideoAnalyzer_AudioKeepsBest(t *testing.T) {
	d := &fakeDetector{detections: []vision.Detection{detection(movie.TextDetection{Text: "Heat", Confidence: 0.5})}}
	frames := &fakeFrames{frames: [][]byte{testutil.PNGImage(t, 200, 100)}}
	audio := fakeAudio{clues: []movie.Candidate{
		movie.NewCandidate("heat", 0.9, movie.SourceTextDetection),
		movie.NewCandidate("Ronin", 0.1, movie.SourceTextDetection),
	}}
	a := newVideoAnalyzer(d, frames, audio)

	res := a.Analyze(context.Background(), make([]byte, 4096), "clip.avi")
	require.Len(t, res.Candidates, 2)
	assert.Equal(t, "heat", res.Candidates[0].Text)
	assert.Equal(t, 0.9, res.Candidates[0].Confidence)
	assert.Equal(t, movie.SourceAudioMetadata, res.Candidates[0].Source)
	assert.Equal(t, "Ronin", res.Candidates[1].Text)
}

func TestVideoAnalyzer_ExtractionAndAudioErrors(t *testing.T) {
	a := newVideoAnalyzer(&fakeDetector{}, &fakeFrames{err: errors.New("codec missing")}, nil)
	res := a.Analyze(context.Background(), make([]byte, 4096), "clip.mp4")
	assert.Equal(t, "Frame extraction failed: codec missing", res.Error)

	a = newVideoAnalyzer(&fakeDetector{}, nil, fakeAudio{err: errors.New("no audio")})
	res = a.Analyze(context.Background(), make([]byte, 4096), "clip.mp4")
	assert.False(t, res.Failed())
}

func TestVideoAnalyzer_Canceled(t *testing.T) {
	frames := &fakeFrames{frames: [][]byte{testutil.PNGImage(t, 10, 10)}}
	a := newVideoAnalyzer(&fakeDetector{}, frames, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := a.Analyze(ctx, make([]byte, 4096), "clip.mp4")
	assert.True(t, res.Failed())
}
