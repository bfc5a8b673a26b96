// Package telegram serves leaf diagnoses to Telegram chats.
package telegram

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"github.com/Brownie44l1/rice-leaf-api/internal/diagnosis"
	"github.com/Brownie44l1/rice-leaf-api/internal/imaging"
	"github.com/Brownie44l1/rice-leaf-api/internal/labels"
)

const maxPhotoBytes = 10 << 20

// Diagnoser classifies a photo.
type Diagnoser interface {
	Diagnose(ctx context.Context, r io.Reader, lang labels.Language) (*diagnosis.Diagnosis, error)
}

// LanguageStore remembers the language each chat picked.
type LanguageStore interface {
	Get(ctx context.Context, chatID int64) (labels.Language, error)
	Set(ctx context.Context, chatID int64, lang labels.Language) error
}

// API is the subset of the Telegram client the bot calls per message.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

type Bot struct {
	api       API
	diagnoser Diagnoser
	languages LanguageStore
	client    *http.Client
	logger    *slog.Logger
}

// NewBot wires a bot around an existing client.
func NewBot(api API, d Diagnoser, languages LanguageStore, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		api:       api,
		diagnoser: d,
		languages: languages,
		client:    &http.Client{Timeout: 30 * time.Second},
		logger:    logger,
	}
}

// Connect authorizes token with Telegram.
func Connect(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to authorize telegram bot")
	}
	return api, nil
}

// Run long-polls api for updates until ctx is done.
func (b *Bot) Run(ctx context.Context, api *tgbotapi.BotAPI) error {
	b.logger.Info("telegram bot authorized", "account", api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)
	defer api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.HandleMessage(ctx, update.Message)
		}
	}
}

// HandleMessage answers one incoming message.
func (b *Bot) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	lang, err := b.languages.Get(ctx, msg.Chat.ID)
	if err != nil {
		b.logger.Error("failed to read chat language", "chat", msg.Chat.ID, "error", err)
		lang = labels.English
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg, lang)
		return
	}

	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg, lang)
		return
	}

	b.sendMessage(msg.Chat.ID, text(lang).sendPhoto)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, lang labels.Language) {
	switch msg.Command() {
	case "start", "help":
		b.sendMessage(msg.Chat.ID, text(lang).help)

	case "lang":
		arg := strings.TrimSpace(msg.CommandArguments())
		picked, err := labels.ParseLanguage(arg)
		if err != nil {
			b.sendMessage(msg.Chat.ID, text(lang).langUsage)
			return
		}
		if err := b.languages.Set(ctx, msg.Chat.ID, picked); err != nil {
			b.logger.Error("failed to save chat language", "chat", msg.Chat.ID, "error", err)
			b.sendMessage(msg.Chat.ID, text(lang).failed)
			return
		}
		b.sendMessage(msg.Chat.ID, text(picked).langSet)

	default:
		b.sendMessage(msg.Chat.ID, text(lang).unknownCommand)
	}
}

func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message, lang labels.Language) {
	// Telegram lists sizes smallest first.
	photo := msg.Photo[len(msg.Photo)-1]

	data, err := b.downloadFile(ctx, photo.FileID)
	if err != nil {
		b.logger.Error("failed to download photo", "chat", msg.Chat.ID, "error", err)
		b.sendMessage(msg.Chat.ID, text(lang).failed)
		return
	}

	d, err := b.diagnoser.Diagnose(ctx, bytes.NewReader(data), lang)
	if err != nil {
		if errors.Is(err, imaging.ErrDecode) || errors.Is(err, imaging.ErrUnsupportedFormat) {
			b.sendMessage(msg.Chat.ID, text(lang).unreadable)
			return
		}
		b.logger.Error("diagnosis failed", "chat", msg.Chat.ID, "error", err)
		b.sendMessage(msg.Chat.ID, text(lang).failed)
		return
	}

	b.sendMessage(msg.Chat.ID, formatDiagnosis(d))
}

func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, errors.Wrap(err, "get file")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "download file")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes))
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}
	return data, nil
}

func (b *Bot) sendMessage(chatID int64, body string) {
	msg := tgbotapi.NewMessage(chatID, body)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send message", "chat", chatID, "error", err)
	}
}

func formatDiagnosis(d *diagnosis.Diagnosis) string {
	ui, err := labels.UI(d.Language)
	if err != nil {
		ui, _ = labels.UI(labels.English)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", ui.Result, d.Bundle.Name)
	fmt.Fprintf(&sb, "%s %s\n\n", ui.Confidence, d.ConfidenceText())
	sb.WriteString(d.Bundle.Description)
	sb.WriteString("\n\n")
	sb.WriteString(ui.Prevention)
	for _, step := range d.Bundle.Prevention {
		sb.WriteString("\n• ")
		sb.WriteString(step)
	}
	return sb.String()
}
