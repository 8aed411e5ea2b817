// Package telegram posts admin notifications to a Telegram chat through the
// Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/filmscout/filmscout/internal/notification"
)

const defaultAPIURL = "https://api.telegram.org"

// Settings contains Telegram-specific configuration
type Settings struct {
	APIURL   string `json:"apiUrl,omitempty"`
	BotToken string `json:"botToken"`
	ChatID   string `json:"chatId"`
	TopicID  int64  `json:"topicId,omitempty"`
	Silent   bool   `json:"silent,omitempty"`
}

// Notifier sends notifications via Telegram bot
type Notifier struct {
	name       string
	settings   Settings
	httpClient *http.Client
	logger     zerolog.Logger
}

// New creates a new Telegram notifier
func New(name string, settings Settings, httpClient *http.Client, logger zerolog.Logger) *Notifier {
	if settings.APIURL == "" {
		settings.APIURL = defaultAPIURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Notifier{
		name:       name,
		settings:   settings,
		httpClient: httpClient,
		logger:     logger.With().Str("notifier", "telegram").Str("name", name).Logger(),
	}
}

func (n *Notifier) Name() string {
	return n.name
}

func (n *Notifier) Test(ctx context.Context) error {
	return n.sendMessage(ctx, "<b>FilmScout Test Notification</b>\n\nAdmin notifications are working.")
}

func (n *Notifier) OnStartup(ctx context.Context, event notification.StartupEvent) error {
	var sb strings.Builder
	sb.WriteString("<b>🚀 Bot Started</b>\n\n")
	if event.Username != "" {
		sb.WriteString(fmt.Sprintf("Bot: @%s\n", html.EscapeString(event.Username)))
	}
	if !event.StartedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("Started: %s\n", event.StartedAt.UTC().Format(time.RFC3339)))
	}

	if len(event.Order) > 0 {
		sb.WriteString("\n")
		for _, name := range event.Order {
			mark := "❌"
			if event.Providers[name] {
				mark = "✅"
			}
			sb.WriteString(fmt.Sprintf("%s %s\n", mark, html.EscapeString(name)))
		}
	}

	return n.sendMessage(ctx, strings.TrimRight(sb.String(), "\n"))
}

func (n *Notifier) OnHealthIssue(ctx context.Context, event notification.HealthEvent) error {
	emoji := "⚠️"
	if event.Type == "error" {
		emoji = "❌"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<b>%s Health Issue</b>\n\n", emoji))
	sb.WriteString(fmt.Sprintf("Source: %s\n", html.EscapeString(event.Source)))
	sb.WriteString(fmt.Sprintf("Message: %s", html.EscapeString(event.Message)))

	return n.sendMessage(ctx, sb.String())
}

func (n *Notifier) OnHealthRestored(ctx context.Context, event notification.HealthEvent) error {
	var sb strings.Builder
	sb.WriteString("<b>✅ Health Issue Resolved</b>\n\n")
	sb.WriteString(fmt.Sprintf("Source: %s\n", html.EscapeString(event.Source)))
	sb.WriteString(fmt.Sprintf("Message: %s", html.EscapeString(event.Message)))

	return n.sendMessage(ctx, sb.String())
}

func (n *Notifier) sendMessage(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(n.settings.APIURL, "/"), n.settings.BotToken)

	payload := map[string]any{
		"chat_id":    n.settings.ChatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	if n.settings.Silent {
		payload["disable_notification"] = true
	}
	if n.settings.TopicID > 0 {
		payload["message_thread_id"] = n.settings.TopicID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		// The URL carries the bot token.
		return fmt.Errorf("failed to send request: %s", redact(err.Error(), n.settings.BotToken))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var result struct {
			OK          bool   `json:"ok"`
			Description string `json:"description"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err == nil && result.Description != "" {
			return fmt.Errorf("telegram error: %s", result.Description)
		}
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

func redact(s, secret string) string {
	if secret == "" {
		return s
	}
	return strings.ReplaceAll(s, secret, "***")
}
