package telegram

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"meal-lens/internal/analysis"
	"meal-lens/internal/config"
	"meal-lens/internal/metrics"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const sessionTTL = 30 * time.Minute

// Bot wraps the Telegram API around the analysis repository. It is a thin
// delivery layer: every meal photo or description becomes one create-or-get
// call, so resent messages never re-run the recognition pipeline.
type Bot struct {
	api       *tgbotapi.BotAPI
	repo      *analysis.Repository
	store     *metrics.Store
	collector *metrics.Collector
	sessions  *SessionRepository
	cfg       *config.Config
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, repo *analysis.Repository, store *metrics.Store, collector *metrics.Collector) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	wh, _ := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	resp, err := bot.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return &Bot{
		api:       bot,
		repo:      repo,
		store:     store,
		collector: collector,
		sessions:  NewSessionRepository(sessionTTL),
		cfg:       cfg,
	}, nil
}

// RegisterHandlers registers the webhook handler with the default HTTP mux.
func (b *Bot) RegisterHandlers() {
	http.HandleFunc("/webhook", b.handleWebhook)
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}

	if update.Message == nil {
		return
	}

	if !allowedUser(b.cfg.TelegramAllowedUserIDs, update.Message.From.ID) {
		log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)", update.Message.From.ID, update.Message.From.UserName)
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	switch msg.Text {
	case "/start":
		b.send(msg.Chat.ID, "👋 Send me a photo of your meal (or describe it) and I'll estimate what's on the plate.")
		return
	case "/last":
		b.handleLastRequest(msg)
		return
	case "/metrics":
		b.handleMetricsRequest(msg)
		return
	}

	if len(msg.Photo) > 0 {
		b.handlePhoto(msg)
		return
	}
	if msg.Text != "" {
		b.handleText(msg)
	}
}

func (b *Bot) handlePhoto(msg *tgbotapi.Message) {
	// The last entry is the largest resolution Telegram offers.
	photo := msg.Photo[len(msg.Photo)-1]
	photoURL, err := b.api.GetFileDirectURL(photo.FileID)
	if err != nil {
		log.Printf("Failed to resolve photo URL: %v", err)
		b.send(msg.Chat.ID, "❌ I couldn't download that photo, please try again.")
		return
	}

	b.analyzeAndReply(msg, analysis.Request{
		UserID:   fmt.Sprintf("%d", msg.From.ID),
		PhotoID:  photo.FileUniqueID,
		PhotoURL: photoURL,
		Hint:     msg.Caption,
	})
}

func (b *Bot) handleText(msg *tgbotapi.Message) {
	b.analyzeAndReply(msg, analysis.Request{
		UserID: fmt.Sprintf("%d", msg.From.ID),
		Text:   msg.Text,
	})
}

func (b *Bot) analyzeAndReply(msg *tgbotapi.Message, req analysis.Request) {
	statusMsg := tgbotapi.NewMessage(msg.Chat.ID, "🔍 *Analyzing your meal...*")
	statusMsg.ParseMode = "Markdown"
	sentMsg, err := b.api.Send(statusMsg)
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
		return
	}

	record, err := b.repo.CreateOrGet(context.Background(), req)

	var finalText string
	if err != nil {
		log.Printf("Analysis failed for user %s: %v", req.UserID, err)
		safeErr := strings.ReplaceAll(err.Error(), "`", "'")
		finalText = fmt.Sprintf("❌ *Analysis failed:*\n```\n%v\n```", safeErr)
	} else {
		finalText = formatRecordMarkdown(record)
		b.sessions.Put(req.UserID, record.ID, record.DishTitle)
	}

	edit := tgbotapi.NewEditMessageText(msg.Chat.ID, sentMsg.MessageID, finalText)
	edit.ParseMode = "Markdown"
	b.api.Send(edit)
}

func (b *Bot) handleLastRequest(msg *tgbotapi.Message) {
	userID := fmt.Sprintf("%d", msg.From.ID)
	session, ok := b.sessions.GetActive(userID, time.Now())
	if !ok {
		b.send(msg.Chat.ID, "No recent analysis. Send me a meal photo first!")
		return
	}

	record, ok := b.repo.Get(userID, session.AnalysisID)
	if !ok {
		b.send(msg.Chat.ID, "No recent analysis. Send me a meal photo first!")
		return
	}
	b.sendMarkdown(msg.Chat.ID, formatRecordMarkdown(record))
}

func (b *Bot) handleMetricsRequest(msg *tgbotapi.Message) {
	if msg.From.ID != b.cfg.AdminTelegramID {
		b.send(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
		return
	}

	summaries, err := b.store.GetDailySummary(context.Background(), 7)
	if err != nil {
		log.Printf("Failed to load metrics summary: %v", err)
		b.send(msg.Chat.ID, "❌ Failed to load metrics.")
		return
	}

	totals := b.collector.Snapshot()
	health := metrics.GetSysHealth(filepath.Dir(b.cfg.AnalysisDBPath))

	var sb strings.Builder
	sb.WriteString("📊 *Last 7 days*\n")
	for _, s := range summaries {
		sb.WriteString(fmt.Sprintf("%s: %d calls, %d fallbacks, %d errors, avg %.0fms\n",
			s.Date, s.Invocations, s.Fallbacks, s.Errors, s.AvgLatencyMS))
	}
	sb.WriteString(fmt.Sprintf("\n*Since start:* %d requests, %d fallbacks, %d errors\n",
		totals.Requests, totals.Fallbacks, totals.Errors))
	sb.WriteString(fmt.Sprintf("\n🖥 Mem %dMB / Goroutines %d / Data %s\n",
		health.AllocMB, health.Goroutines, health.DataDiskSize))

	b.sendMarkdown(msg.Chat.ID, sb.String())
}

func (b *Bot) send(chatID int64, text string) {
	b.sendMarkdown(chatID, text)
}

func (b *Bot) sendMarkdown(chatID int64, text string) {
	reply := tgbotapi.NewMessage(chatID, text)
	reply.ParseMode = "Markdown"
	if _, err := b.api.Send(reply); err != nil {
		log.Printf("Failed to send message: %v", err)
	}
}

// allowedUser reports whether the sender is on the allowlist. An empty
// allowlist blocks everyone.
func allowedUser(ids []int64, userID int64) bool {
	for _, id := range ids {
		if id == userID {
			return true
		}
	}
	return false
}

// formatRecordMarkdown renders one analysis record as a Telegram Markdown
// message.
func formatRecordMarkdown(rec *analysis.AnalysisRecord) string {
	var sb strings.Builder

	title := rec.DishTitle
	if title == "" {
		title = "Your meal"
	}
	sb.WriteString(fmt.Sprintf("🍽 *%s*\n\n", title))

	for _, item := range rec.Items {
		line := fmt.Sprintf("• %s: %.0f g, %.0f kcal", item.DisplayName, item.QuantityG, item.Calories)
		if item.Clamped {
			line += " _(adjusted)_"
		}
		sb.WriteString(line + "\n")
	}

	sb.WriteString(fmt.Sprintf("\n🔥 *Total:* %.0f kcal\n", rec.TotalCalories()))

	if rec.FallbackReason != "" {
		sb.WriteString("\n_Estimated locally, the recognition model was unavailable._\n")
	}
	return sb.String()
}
