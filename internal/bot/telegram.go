package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/message"
	"github.com/rs/zerolog"

	"github.com/filmscout/filmscout/internal/config"
	"github.com/filmscout/filmscout/internal/format"
	"github.com/filmscout/filmscout/internal/textutil"
)

const updateTimeout = 2 * time.Minute

var errFileTooLarge = errors.New("file exceeds the upload limit")

// Bot connects a Handler to Telegram through long polling.
type Bot struct {
	api        *gotgbot.Bot
	updater    *ext.Updater
	handler    *Handler
	httpClient *http.Client
	cfg        config.TelegramConfig
	limits     config.LimitsConfig
	logger     zerolog.Logger

	ctx context.Context
}

// New authenticates with the Bot API (a getMe call) and registers the
// update handlers. Polling starts with Start.
func New(cfg config.TelegramConfig, limits config.LimitsConfig, handler *Handler, httpClient *http.Client, logger zerolog.Logger) (*Bot, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	requestOpts := &gotgbot.RequestOpts{
		Timeout: httpClient.Timeout,
		APIURL:  cfg.APIURL,
	}

	api, err := gotgbot.NewBot(cfg.Token, &gotgbot.BotOpts{
		BotClient: &gotgbot.BaseBotClient{
			Client:             *httpClient,
			DefaultRequestOpts: requestOpts,
		},
		RequestOpts: requestOpts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	b := &Bot{
		api:        api,
		handler:    handler,
		httpClient: httpClient,
		cfg:        cfg,
		limits:     limits,
		logger:     logger.With().Str("component", "telegram").Logger(),
		ctx:        context.Background(),
	}

	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(_ *gotgbot.Bot, _ *ext.Context, err error) ext.DispatcherAction {
			b.logger.Error().Err(err).Msg("Error handling update")
			return ext.DispatcherActionNoop
		},
		MaxRoutines: cfg.MaxRoutines,
	})
	b.register(dispatcher)
	b.updater = ext.NewUpdater(dispatcher, nil)

	return b, nil
}

// Username returns the bot's @username.
func (b *Bot) Username() string {
	return b.api.User.Username
}

// Start begins long polling. Updates are handled with contexts derived
// from ctx.
func (b *Bot) Start(ctx context.Context) error {
	b.ctx = ctx
	err := b.updater.StartPolling(b.api, &ext.PollingOpts{
		DropPendingUpdates: b.cfg.DropPendingUpdates,
		GetUpdatesOpts: &gotgbot.GetUpdatesOpts{
			Timeout: int64(b.cfg.PollTimeout),
			RequestOpts: &gotgbot.RequestOpts{
				Timeout: time.Duration(b.cfg.PollTimeout+1) * time.Second,
				APIURL:  b.cfg.APIURL,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}
	b.logger.Info().Str("username", b.Username()).Msg("Telegram polling started")
	return nil
}

// Ping checks that the token still authenticates.
func (b *Bot) Ping(ctx context.Context) error {
	if _, err := b.api.GetMeWithContext(ctx, nil); err != nil {
		return fmt.Errorf("getMe failed: %w", err)
	}
	return nil
}

// Stop ends polling and waits for in-flight updates.
func (b *Bot) Stop() error {
	return b.updater.Stop()
}

func (b *Bot) register(d *ext.Dispatcher) {
	d.AddHandler(handlers.NewCommand("start", b.wrap(func(ctx context.Context, r Responder, _ *ext.Context) error {
		return b.handler.Start(ctx, r)
	})))
	d.AddHandler(handlers.NewCommand("help", b.wrap(func(ctx context.Context, r Responder, _ *ext.Context) error {
		return b.handler.Help(ctx, r)
	})))
	d.AddHandler(handlers.NewCommand("status", b.wrap(func(ctx context.Context, r Responder, _ *ext.Context) error {
		return b.handler.Status(ctx, r)
	})))
	d.AddHandler(handlers.NewCommand("search", b.wrap(func(ctx context.Context, r Responder, uc *ext.Context) error {
		return b.handler.SearchCommand(ctx, r, commandArgs(uc))
	})))
	d.AddHandler(handlers.NewCommand("trailer", b.wrap(func(ctx context.Context, r Responder, uc *ext.Context) error {
		return b.handler.TrailerCommand(ctx, r, commandArgs(uc))
	})))

	d.AddHandler(handlers.NewMessage(plainText, b.wrap(func(ctx context.Context, r Responder, uc *ext.Context) error {
		return b.handler.Text(ctx, r, uc.EffectiveMessage.Text)
	})))
	d.AddHandler(handlers.NewMessage(message.Photo, b.wrap(b.onPhoto)))
	d.AddHandler(handlers.NewMessage(message.Video, b.wrap(b.onVideo)))
	d.AddHandler(handlers.NewMessage(message.Document, b.wrap(b.onDocument)))
}

func plainText(msg *gotgbot.Message) bool {
	return message.Text(msg) && !message.Command(msg)
}

func commandArgs(uc *ext.Context) []string {
	args := uc.Args()
	if len(args) <= 1 {
		return nil
	}
	return args[1:]
}

type updateFunc func(ctx context.Context, r Responder, uc *ext.Context) error

// wrap adapts an updateFunc to a gotgbot handler response, giving each
// update its own deadline and responder.
func (b *Bot) wrap(fn updateFunc) func(*gotgbot.Bot, *ext.Context) error {
	return func(api *gotgbot.Bot, uc *ext.Context) error {
		if uc.EffectiveMessage == nil || uc.EffectiveChat == nil {
			return nil
		}
		ctx, cancel := context.WithTimeout(b.ctx, updateTimeout)
		defer cancel()

		r := &chatResponder{api: api, chatID: uc.EffectiveChat.Id, logger: b.logger}
		if err := fn(ctx, r, uc); err != nil {
			return err
		}
		return ext.EndGroups
	}
}

func (b *Bot) onPhoto(ctx context.Context, r Responder, uc *ext.Context) error {
	photos := uc.EffectiveMessage.Photo
	largest := photos[len(photos)-1]

	data, err := b.download(ctx, largest.FileId, largest.FileSize)
	if err != nil {
		return b.downloadFailed(ctx, r, "photo", "Image", err)
	}
	return b.handler.Photo(ctx, r, data)
}

func (b *Bot) onVideo(ctx context.Context, r Responder, uc *ext.Context) error {
	video := uc.EffectiveMessage.Video
	filename := uploadName(video.FileName, video.MimeType)

	data, err := b.download(ctx, video.FileId, video.FileSize)
	if err != nil {
		return b.downloadFailed(ctx, r, "video", "Video", err)
	}
	return b.handler.Video(ctx, r, data, filename)
}

func (b *Bot) onDocument(ctx context.Context, r Responder, uc *ext.Context) error {
	doc := uc.EffectiveMessage.Document

	switch b.handler.ClassifyDocument(doc.FileName, doc.MimeType) {
	case MediaImage:
		data, err := b.download(ctx, doc.FileId, doc.FileSize)
		if err != nil {
			return b.downloadFailed(ctx, r, "document", "Image", err)
		}
		return b.handler.Photo(ctx, r, data)
	case MediaVideo:
		filename := uploadName(doc.FileName, doc.MimeType)
		data, err := b.download(ctx, doc.FileId, doc.FileSize)
		if err != nil {
			return b.downloadFailed(ctx, r, "document", "Video", err)
		}
		return b.handler.Video(ctx, r, data, filename)
	default:
		return b.handler.Unsupported(ctx, r)
	}
}

func (b *Bot) downloadFailed(ctx context.Context, r Responder, kind, media string, err error) error {
	if errors.Is(err, errFileTooLarge) {
		return b.handler.Fail(ctx, r, kind, format.FileTooLarge(media, b.limits.MaxFileSizeMB()))
	}
	b.logger.Error().Err(err).Str("kind", kind).Msg("File download failed")
	return b.handler.Fail(ctx, r, kind, "Sorry, I couldn't download that file.")
}

// download fetches a file by id, refusing anything above the upload limit
// both by its declared size and by what is actually read.
func (b *Bot) download(ctx context.Context, fileID string, declared int64) ([]byte, error) {
	if b.limits.MaxFileSize > 0 && declared > b.limits.MaxFileSize {
		return nil, errFileTooLarge
	}

	file, err := b.api.GetFileWithContext(ctx, fileID, nil)
	if err != nil {
		return nil, fmt.Errorf("getFile: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.URL(b.api, nil), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: status %d", resp.StatusCode)
	}

	limit := b.limits.MaxFileSize
	if limit <= 0 {
		limit = 20 * 1024 * 1024
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, errFileTooLarge
	}
	return data, nil
}

// uploadName returns a filesystem-safe name for an upload, or one derived
// from its MIME type when the client sent none.
func uploadName(name, mimeType string) string {
	if name = textutil.SanitizeFileName(name); name != "" {
		return name
	}
	return "video" + extensionForMIME(mimeType)
}

func extensionForMIME(mimeType string) string {
	switch mimeType {
	case "video/mp4":
		return ".mp4"
	case "video/quicktime":
		return ".mov"
	case "video/x-msvideo":
		return ".avi"
	case "video/x-matroska":
		return ".mkv"
	case "video/webm":
		return ".webm"
	default:
		return ""
	}
}

// chatResponder sends replies to one chat.
type chatResponder struct {
	api    *gotgbot.Bot
	chatID int64
	logger zerolog.Logger
}

func (c *chatResponder) SendText(ctx context.Context, text string) error {
	_, err := c.api.SendMessageWithContext(ctx, c.chatID, text, &gotgbot.SendMessageOpts{
		ParseMode:          gotgbot.ParseModeMarkdown,
		LinkPreviewOptions: &gotgbot.LinkPreviewOptions{IsDisabled: true},
	})
	if err != nil && isParseError(err) {
		// Titles can carry stray Markdown characters.
		c.logger.Debug().Err(err).Msg("Markdown rejected, resending as plain text")
		_, err = c.api.SendMessageWithContext(ctx, c.chatID, text, nil)
	}
	return err
}

func (c *chatResponder) SendPhoto(ctx context.Context, photoURL, caption string) error {
	_, err := c.api.SendPhotoWithContext(ctx, c.chatID, gotgbot.InputFileByURL(photoURL), &gotgbot.SendPhotoOpts{
		Caption:   caption,
		ParseMode: gotgbot.ParseModeMarkdown,
	})
	return err
}

func (c *chatResponder) SendTyping(ctx context.Context) error {
	_, err := c.api.SendChatActionWithContext(ctx, c.chatID, "typing", nil)
	return err
}

func isParseError(err error) bool {
	return strings.Contains(err.Error(), "can't parse entities")
}
