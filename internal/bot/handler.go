// Package bot routes chat messages to the search, trailer and analysis
// services and sends the formatted replies.
package bot

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/filmscout/filmscout/internal/analysis"
	"github.com/filmscout/filmscout/internal/format"
	"github.com/filmscout/filmscout/internal/metadata"
	"github.com/filmscout/filmscout/internal/metrics"
	"github.com/filmscout/filmscout/internal/movie"
	"github.com/filmscout/filmscout/internal/textutil"
	"github.com/filmscout/filmscout/internal/youtube"
)

// MaxCaptionLength is Telegram's photo caption limit.
const MaxCaptionLength = 1024

// Responder sends replies into the chat an update came from.
type Responder interface {
	SendText(ctx context.Context, text string) error
	SendPhoto(ctx context.Context, photoURL, caption string) error
	SendTyping(ctx context.Context) error
}

// MovieSearcher looks movies up by title or id.
type MovieSearcher interface {
	SearchMovies(ctx context.Context, query string) ([]movie.Record, error)
	GetMovieDetails(ctx context.Context, source movie.Origin, id string) (*movie.Record, error)
}

// TrailerFinder looks up trailers for a movie.
type TrailerFinder interface {
	FindTrailers(ctx context.Context, movieTitle, year string) youtube.Result
}

// ImageAnalyzer extracts title candidates from a picture.
type ImageAnalyzer interface {
	Analyze(ctx context.Context, data []byte) analysis.ImageResult
}

// VideoAnalyzer extracts title candidates from a clip.
type VideoAnalyzer interface {
	Analyze(ctx context.Context, data []byte, filename string) analysis.VideoResult
}

// Deps are the services a Handler dispatches to.
type Deps struct {
	Movies    MovieSearcher
	Trailers  TrailerFinder
	Images    ImageAnalyzer
	Videos    VideoAnalyzer
	APIStatus func() map[string]bool
	// StatusOrder fixes the order of the /status lines.
	StatusOrder []string
	// ImageExtensions and VideoExtensions classify documents (".jpg" style).
	ImageExtensions []string
	VideoExtensions []string
}

// Handler implements the bot's conversation logic independent of the chat
// transport.
type Handler struct {
	deps   Deps
	logger zerolog.Logger
}

// NewHandler creates a Handler.
func NewHandler(deps Deps, logger zerolog.Logger) *Handler {
	return &Handler{
		deps:   deps,
		logger: logger.With().Str("component", "bot").Logger(),
	}
}

// MediaKind classifies an uploaded document.
type MediaKind int

const (
	MediaUnsupported MediaKind = iota
	MediaImage
	MediaVideo
)

// ClassifyDocument decides how to analyze a document from its file name,
// falling back to its MIME type.
func (h *Handler) ClassifyDocument(filename, mimeType string) MediaKind {
	switch {
	case textutil.HasExtension(filename, h.deps.ImageExtensions):
		return MediaImage
	case textutil.HasExtension(filename, h.deps.VideoExtensions):
		return MediaVideo
	case strings.HasPrefix(mimeType, "image/"):
		return MediaImage
	case strings.HasPrefix(mimeType, "video/"):
		return MediaVideo
	default:
		return MediaUnsupported
	}
}

// Start replies to /start.
func (h *Handler) Start(ctx context.Context, r Responder) error {
	return h.run(ctx, "start", func(ctx context.Context, _ zerolog.Logger) error {
		return r.SendText(ctx, format.Welcome)
	})
}

// Help replies to /help.
func (h *Handler) Help(ctx context.Context, r Responder) error {
	return h.run(ctx, "help", func(ctx context.Context, _ zerolog.Logger) error {
		return r.SendText(ctx, format.Help)
	})
}

// Status replies to /status with the provider configuration.
func (h *Handler) Status(ctx context.Context, r Responder) error {
	return h.run(ctx, "status", func(ctx context.Context, _ zerolog.Logger) error {
		var status map[string]bool
		if h.deps.APIStatus != nil {
			status = h.deps.APIStatus()
		}
		return r.SendText(ctx, format.Status(status, h.deps.StatusOrder))
	})
}

// SearchCommand handles /search with its arguments.
func (h *Handler) SearchCommand(ctx context.Context, r Responder, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	return h.run(ctx, "search", func(ctx context.Context, log zerolog.Logger) error {
		if query == "" {
			return r.SendText(ctx, format.SearchUsage)
		}
		if err := r.SendText(ctx, format.Searching(query)); err != nil {
			return err
		}
		return h.search(ctx, log, r, query)
	})
}

// Text treats a plain message as a movie search. A message carrying an
// IMDb id is looked up directly.
func (h *Handler) Text(ctx context.Context, r Responder, text string) error {
	query := textutil.CollapseWhitespace(text)
	return h.run(ctx, "text", func(ctx context.Context, log zerolog.Logger) error {
		if query == "" {
			return r.SendText(ctx, format.SearchUsage)
		}
		if id := textutil.ParseIMDbID(query); id != "" {
			return h.lookupIMDb(ctx, log, r, id)
		}
		return h.search(ctx, log, r, query)
	})
}

// TrailerCommand handles /trailer <title> [year].
func (h *Handler) TrailerCommand(ctx context.Context, r Responder, args []string) error {
	title, year := splitTitleYear(args)
	return h.run(ctx, "trailer", func(ctx context.Context, log zerolog.Logger) error {
		if title == "" {
			return r.SendText(ctx, format.TrailerUsage)
		}
		if h.deps.Trailers == nil {
			return r.SendText(ctx, format.Trailers(nil, title))
		}
		_ = r.SendTyping(ctx)

		res := h.deps.Trailers.FindTrailers(ctx, title, year)
		if !res.OK() {
			log.Warn().Err(res.Err).Str("title", title).Msg("Trailer lookup failed")
			return r.SendText(ctx, format.Trailers(nil, title))
		}
		return r.SendText(ctx, format.Trailers(res.Trailers, title))
	})
}

// Photo analyzes an image upload.
func (h *Handler) Photo(ctx context.Context, r Responder, data []byte) error {
	return h.run(ctx, "photo", func(ctx context.Context, log zerolog.Logger) error {
		_ = r.SendTyping(ctx)
		res := h.deps.Images.Analyze(ctx, data)
		if res.Failed() {
			log.Info().Str("error", res.Error).Msg("Image analysis failed")
		}
		return r.SendText(ctx, format.ImageAnalysis(res))
	})
}

// Video analyzes a video upload.
func (h *Handler) Video(ctx context.Context, r Responder, data []byte, filename string) error {
	return h.run(ctx, "video", func(ctx context.Context, log zerolog.Logger) error {
		_ = r.SendTyping(ctx)
		res := h.deps.Videos.Analyze(ctx, data, filename)
		if res.Failed() {
			log.Info().Str("error", res.Error).Str("file", filename).Msg("Video analysis failed")
		}
		return r.SendText(ctx, format.VideoAnalysis(res))
	})
}

// Unsupported tells the user a document cannot be analyzed.
func (h *Handler) Unsupported(ctx context.Context, r Responder) error {
	return h.run(ctx, "document", func(ctx context.Context, _ zerolog.Logger) error {
		return r.SendText(ctx, format.UnsupportedFile)
	})
}

// Fail reports a transport-level problem, such as a failed download, to the
// user.
func (h *Handler) Fail(ctx context.Context, r Responder, kind, description string) error {
	return h.run(ctx, kind, func(ctx context.Context, _ zerolog.Logger) error {
		return r.SendText(ctx, format.Error(description))
	})
}

func (h *Handler) search(ctx context.Context, log zerolog.Logger, r Responder, query string) error {
	_ = r.SendTyping(ctx)

	records, err := h.deps.Movies.SearchMovies(ctx, query)
	if err != nil {
		if errors.Is(err, metadata.ErrNoProvidersConfigured) {
			return r.SendText(ctx, format.Error("Movie search is not configured."))
		}
		log.Error().Err(err).Str("query", query).Msg("Movie search failed")
		return r.SendText(ctx, format.Error("Sorry, I couldn't search for movies right now."))
	}
	if len(records) == 0 {
		return r.SendText(ctx, format.NoResults(query))
	}

	top := records[0]
	if err := h.sendMovie(ctx, log, r, top); err != nil {
		return err
	}
	if len(records) > 1 {
		if err := r.SendText(ctx, format.OtherMatches(records[1:])); err != nil {
			return err
		}
	}
	return h.sendTrailers(ctx, log, r, top)
}

func (h *Handler) lookupIMDb(ctx context.Context, log zerolog.Logger, r Responder, imdbID string) error {
	_ = r.SendTyping(ctx)

	record, err := h.deps.Movies.GetMovieDetails(ctx, movie.OriginOMDb, imdbID)
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			return r.SendText(ctx, format.NoResults(imdbID))
		}
		if errors.Is(err, metadata.ErrNoProvidersConfigured) {
			return r.SendText(ctx, format.Error("IMDb lookups need an OMDb API key."))
		}
		log.Error().Err(err).Str("imdbId", imdbID).Msg("IMDb lookup failed")
		return r.SendText(ctx, format.Error("Sorry, I couldn't look that movie up right now."))
	}
	if err := h.sendMovie(ctx, log, r, *record); err != nil {
		return err
	}
	return h.sendTrailers(ctx, log, r, *record)
}

// sendMovie sends the record as a poster photo when it has one and the
// caption fits, otherwise as text.
func (h *Handler) sendMovie(ctx context.Context, log zerolog.Logger, r Responder, record movie.Record) error {
	text := format.Movie(record)
	if textutil.IsValidURL(record.PosterURL) && utf8.RuneCountInString(text) <= MaxCaptionLength {
		err := r.SendPhoto(ctx, record.PosterURL, text)
		if err == nil {
			return nil
		}
		log.Warn().Err(err).Str("poster", record.PosterURL).Msg("Sending poster failed, falling back to text")
	}
	return r.SendText(ctx, text)
}

// sendTrailers follows a movie reply with its trailers. A failed lookup is
// treated as no trailer and sends nothing.
func (h *Handler) sendTrailers(ctx context.Context, log zerolog.Logger, r Responder, record movie.Record) error {
	if h.deps.Trailers == nil {
		return nil
	}
	res := h.deps.Trailers.FindTrailers(ctx, record.Title, record.Year())
	if !res.OK() {
		log.Debug().Err(res.Err).Str("title", record.Title).Msg("Trailer lookup discarded")
		return nil
	}
	if len(res.Trailers) == 0 {
		return nil
	}
	return r.SendText(ctx, format.Trailers(res.Trailers, record.Title))
}

// run wraps one update with a request id, metrics and a panic guard.
func (h *Handler) run(ctx context.Context, kind string, fn func(ctx context.Context, log zerolog.Logger) error) (err error) {
	start := time.Now()
	log := h.logger.With().Str("requestId", uuid.NewString()).Str("kind", kind).Logger()

	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic", p).Msg("Update handler panicked")
			err = errors.New("update handler panicked")
		}
		metrics.UpdatesTotal.WithLabelValues(kind, metrics.Outcome(err)).Inc()
		metrics.UpdateDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		if err != nil {
			log.Error().Err(err).Msg("Update handling failed")
			return
		}
		log.Debug().Dur("took", time.Since(start)).Msg("Update handled")
	}()

	return fn(log.WithContext(ctx), log)
}

// splitTitleYear splits /trailer arguments into a cleaned title and an
// optional trailing year, bare or in parentheses.
func splitTitleYear(args []string) (title, year string) {
	if n := len(args); n > 1 {
		last := strings.Trim(args[n-1], "()")
		if len(last) == 4 && textutil.ExtractYear(last) == last {
			return textutil.CleanMovieTitle(strings.Join(args[:n-1], " ")), last
		}
	}
	return textutil.CleanMovieTitle(strings.Join(args, " ")), ""
}
