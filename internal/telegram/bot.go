package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"career-mentor/internal/analytics"
	"career-mentor/internal/conversation"
	"career-mentor/internal/fields"
	"career-mentor/internal/ratelimit"
	"career-mentor/internal/roadmap"
)

const resetCmd = "reset_ctx"

// Telegram rejects longer messages.
const maxMessageLen = 4000

// Service is the part of the application the bot talks to.
type Service interface {
	Start(ctx context.Context, sessionID, identity string) (conversation.Reply, error)
	Send(ctx context.Context, sessionID, identity, text string) (conversation.Reply, error)
	Regenerate(ctx context.Context, sessionID, identity string) (roadmap.Draft, error)
	Status(sessionID, identity string) conversation.Status
	Session(sessionID, identity string) conversation.Session
	SetField(sessionID, identity, field string)
	Reset(sessionID string)
	Fields() *fields.Table
	Limit(ctx context.Context, identity string) (ratelimit.Info, error)
	ResetLimit(ctx context.Context, identity string) error
	LimitStats(ctx context.Context) (ratelimit.Stats, error)
	DailyReport(day time.Time) (*analytics.DailyStats, error)
}

type Bot struct {
	api         *tgbotapi.BotAPI
	s           sender
	svc         Service
	adminUserID int64
}

func New(botToken string, svc Service, adminUserID int64) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	return &Bot{api: api, s: botAPISender{api: api}, svc: svc, adminUserID: adminUserID}, nil
}

// Start polls for updates until ctx is cancelled. Updates are handled one at
// a time so turns of a conversation never interleave.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)
	log.Info().Str("bot", b.api.Self.UserName).Msg("telegram bot started")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		if update.Message.IsCommand() {
			b.handleCommand(ctx, update.Message)
			return
		}
		b.handleIncomingMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

// NotifyAdmin sends text to the configured admin, if any.
func (b *Bot) NotifyAdmin(text string) {
	if b.adminUserID == 0 {
		return
	}
	b.sendMessage(b.adminUserID, text)
}

func sessionKey(chatID int64) string { return strconv.FormatInt(chatID, 10) }

func identity(u *tgbotapi.User) string { return strconv.FormatInt(u.ID, 10) }

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || strings.TrimSpace(msg.Text) == "" {
		return
	}
	log.Debug().Int64("user", msg.From.ID).Str("username", msg.From.UserName).Int("len", len(msg.Text)).Msg("incoming message")

	reply, err := b.svc.Send(ctx, sessionKey(msg.Chat.ID), identity(msg.From), msg.Text)
	if err != nil {
		b.sendError(msg.Chat.ID, err)
		return
	}
	if reply.Roadmap != nil {
		b.sendMessage(msg.Chat.ID, FormatRoadmap(*reply.Roadmap))
	}
	b.sendWithReset(msg.Chat.ID, reply.Text)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	chatID := msg.Chat.ID
	sid, who := sessionKey(chatID), identity(msg.From)

	switch msg.Command() {
	case "start":
		b.svc.Reset(sid)
		reply, err := b.svc.Start(ctx, sid, who)
		if err != nil {
			b.sendError(chatID, err)
			return
		}
		b.sendWithReset(chatID, reply.Text)
	case "reset":
		b.svc.Reset(sid)
		b.sendMessage(chatID, "Conversation cleared. Send /start to begin a new interview.")
	case "status":
		b.sendMessage(chatID, FormatStatus(b.svc.Status(sid, who)))
	case "roadmap":
		s := b.svc.Session(sid, who)
		if s.Roadmap == nil {
			b.sendMessage(chatID, "Your roadmap is not ready yet. Answer the interview questions first.")
			return
		}
		b.sendMessage(chatID, FormatRoadmap(*s.Roadmap))
	case "regenerate":
		d, err := b.svc.Regenerate(ctx, sid, who)
		if err != nil {
			b.sendError(chatID, err)
			return
		}
		b.sendMessage(chatID, FormatRoadmap(d))
	case "field":
		b.handleField(msg, sid, who)
	case "fields":
		b.sendMessage(chatID, FormatFields(b.svc.Fields()))
	case "limits":
		info, err := b.svc.Limit(ctx, who)
		if err != nil {
			b.sendError(chatID, err)
			return
		}
		b.sendMessage(chatID, FormatLimit(info))
	case "stats", "resetlimit", "report":
		b.handleAdminCommand(ctx, msg)
	default:
		b.sendMessage(chatID, helpText)
	}
}

func (b *Bot) handleField(msg *tgbotapi.Message, sid, who string) {
	name := strings.TrimSpace(msg.CommandArguments())
	if name == "" {
		b.sendMessage(msg.Chat.ID, "Usage: /field <name>, e.g. /field data science")
		return
	}
	b.svc.SetField(sid, who, name)
	text := fmt.Sprintf("Field set to %s.", fields.DisplayName(name))
	if !b.svc.Fields().Known(name) {
		text += " I have no dedicated questions for it, so I'll use the general template."
	}
	b.sendMessage(msg.Chat.ID, text)
}

func (b *Bot) handleAdminCommand(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From.ID != b.adminUserID {
		b.sendMessage(msg.Chat.ID, "This command is only available to the administrator.")
		return
	}
	switch msg.Command() {
	case "stats":
		st, err := b.svc.LimitStats(ctx)
		if err != nil {
			b.sendError(msg.Chat.ID, err)
			return
		}
		b.sendMessage(msg.Chat.ID, fmt.Sprintf("Rate limiter: %d identities, %d active, %d requests in window, limit %d.",
			st.TotalIdentities, st.ActiveIdentities, st.TotalRequests, st.Limit))
	case "resetlimit":
		args := strings.Fields(msg.CommandArguments())
		if len(args) != 1 {
			b.sendMessage(msg.Chat.ID, "Usage: /resetlimit <user_id>")
			return
		}
		if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
			b.sendMessage(msg.Chat.ID, "Invalid user_id")
			return
		}
		if err := b.svc.ResetLimit(ctx, args[0]); err != nil {
			b.sendError(msg.Chat.ID, err)
			return
		}
		b.sendMessage(msg.Chat.ID, fmt.Sprintf("Rate limit for %s reset.", args[0]))
	case "report":
		report, err := b.svc.DailyReport(time.Now().UTC())
		if err != nil {
			b.sendError(msg.Chat.ID, err)
			return
		}
		b.sendMessage(msg.Chat.ID, report.GenerateReportSummary())
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.From == nil {
		return
	}
	if cb.Data == resetCmd {
		sid := sessionKey(cb.Message.Chat.ID)
		b.svc.Reset(sid)
		reply, err := b.svc.Start(ctx, sid, identity(cb.From))
		if err != nil {
			b.sendError(cb.Message.Chat.ID, err)
			return
		}
		b.sendWithReset(cb.Message.Chat.ID, reply.Text)
	}
}

func (b *Bot) sendError(chatID int64, err error) {
	var limited *conversation.RateLimitError
	switch {
	case errors.As(err, &limited):
		b.sendMessage(chatID, FormatRateLimited(limited.Info))
	case errors.Is(err, conversation.ErrInterviewIncomplete):
		b.sendMessage(chatID, "Please finish the interview questions before regenerating your roadmap.")
	default:
		log.Error().Err(err).Int64("chat", chatID).Msg("request failed")
		b.sendMessage(chatID, "Sorry, something went wrong. Please try again.")
	}
}

func (b *Bot) sendWithReset(chatID int64, text string) {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Start over", resetCmd),
		),
	)
	parts := splitMessage(text, maxMessageLen)
	for i, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		if i == len(parts)-1 {
			msg.ReplyMarkup = kb
		}
		if _, err := b.s.Send(msg); err != nil {
			log.Error().Err(err).Int64("chat", chatID).Msg("failed to send message")
			return
		}
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	for _, part := range splitMessage(text, maxMessageLen) {
		if _, err := b.s.Send(tgbotapi.NewMessage(chatID, part)); err != nil {
			log.Error().Err(err).Int64("chat", chatID).Msg("failed to send message")
			return
		}
	}
}

// splitMessage cuts text into chunks of at most limit bytes, preferring line
// boundaries.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var parts []string
	var cur strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > limit {
			if cur.Len() > 0 {
				parts = append(parts, cur.String())
				cur.Reset()
			}
			cut := limit
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			parts = append(parts, line[:cut])
			line = line[cut:]
		}
		if cur.Len()+len(line) > limit {
			parts = append(parts, cur.String())
			cur.Reset()
		}
		cur.WriteString(line)
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}

const helpText = `I'm your career mentor. Commands:
/start - begin the interview
/status - where we are
/roadmap - show your roadmap
/regenerate - build the roadmap again
/field <name> - set your field
/fields - fields I know well
/limits - your message allowance
/reset - forget this conversation`
