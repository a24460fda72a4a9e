package telegram

import (
	"context"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"career-mentor/internal/app"
	"career-mentor/internal/config"
	"career-mentor/internal/llm"
	"career-mentor/internal/roadmap"
)

const adminID = 999

type fakeSender struct {
	sent    []string
	markups []any
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, m.Text)
		f.markups = append(f.markups, m.ReplyMarkup)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) last() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

type echoProvider struct{}

func (echoProvider) Name() string { return "echo" }

func (echoProvider) Generate(_ context.Context, req llm.Request) (llm.Response, error) {
	if req.Structured {
		return llm.Response{Content: `{"title":"Data Path","description":"d","milestones":[{"title":"Stats","description":"basics"}]}`}, nil
	}
	return llm.Response{Content: "Tell me more about that?"}, nil
}

func newTestBot(t *testing.T, limit int) (*Bot, *fakeSender) {
	t.Helper()
	cfg := &config.Config{
		ProviderTimeout:       time.Second,
		RateLimitRequests:     limit,
		RateLimitWindow:       time.Hour,
		MinMessageLength:      10,
		MentoringContextTurns: 5,
	}
	a, err := app.Assemble(cfg, app.Deps{Providers: []llm.Provider{echoProvider{}}})
	require.NoError(t, err)
	fs := &fakeSender{}
	return &Bot{s: fs, svc: a, adminUserID: adminID}, fs
}

func command(userID int64, text string) tgbotapi.Update {
	name := strings.Fields(text)[0]
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From:     &tgbotapi.User{ID: userID},
		Chat:     &tgbotapi.Chat{ID: userID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}}
}

func message(userID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID},
		Chat: &tgbotapi.Chat{ID: userID},
		Text: text,
	}}
}

func TestStartSendsGreetingWithResetButton(t *testing.T) {
	b, fs := newTestBot(t, 10)
	b.handleUpdate(context.Background(), command(42, "/start"))

	require.Len(t, fs.sent, 1)
	assert.Equal(t, "Tell me more about that?", fs.sent[0])
	kb, ok := fs.markups[0].(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, resetCmd, *kb.InlineKeyboard[0][0].CallbackData)
}

func TestShortMessageGetsNudge(t *testing.T) {
	b, fs := newTestBot(t, 10)
	b.handleUpdate(context.Background(), message(42, "hi"))
	assert.Contains(t, fs.last(), "tell me a little more")
}

func TestInterviewEndsWithRoadmap(t *testing.T) {
	b, fs := newTestBot(t, 20)
	ctx := context.Background()
	b.handleUpdate(ctx, command(42, "/start"))
	for _, text := range []string{
		"I like numbers and patterns a lot",
		"Data science",
		"Curiosity and real-world impact",
		"Small team with a lot of autonomy",
		"Lead a research group someday",
	} {
		b.handleUpdate(ctx, message(42, text))
	}
	joined := strings.Join(fs.sent, "\n")
	assert.Contains(t, joined, "🗺 Data Path")
	assert.Contains(t, joined, "1. Stats (To be determined)")
	assert.Contains(t, fs.last(), "is ready with 1 milestones")

	b.handleUpdate(ctx, command(42, "/roadmap"))
	assert.True(t, strings.HasPrefix(fs.last(), "🗺 Data Path"))

	b.handleUpdate(ctx, command(42, "/status"))
	assert.Contains(t, fs.last(), "Your roadmap is ready")
	assert.Contains(t, fs.last(), "Preferred Field: Data science")
}

func TestRateLimitedMessage(t *testing.T) {
	b, fs := newTestBot(t, 1)
	ctx := context.Background()
	b.handleUpdate(ctx, command(42, "/start"))
	b.handleUpdate(ctx, message(42, "I enjoy writing and teaching"))
	assert.Contains(t, fs.last(), "reached the limit of 1 messages per 1h0m0s")
}

func TestRoadmapAndRegenerateBeforeInterview(t *testing.T) {
	b, fs := newTestBot(t, 10)
	ctx := context.Background()
	b.handleUpdate(ctx, command(42, "/roadmap"))
	assert.Contains(t, fs.last(), "not ready yet")
	b.handleUpdate(ctx, command(42, "/regenerate"))
	assert.Contains(t, fs.last(), "finish the interview")
}

func TestFieldCommand(t *testing.T) {
	b, fs := newTestBot(t, 10)
	ctx := context.Background()
	b.handleUpdate(ctx, command(42, "/field data science"))
	assert.Equal(t, "Field set to Data Science.", fs.last())
	b.handleUpdate(ctx, command(42, "/field marine biology"))
	assert.Contains(t, fs.last(), "general template")
	assert.Equal(t, "marine biology", b.svc.Session("42", "42").Field)
}

func TestAdminCommands(t *testing.T) {
	b, fs := newTestBot(t, 1)
	ctx := context.Background()
	b.handleUpdate(ctx, command(42, "/stats"))
	assert.Contains(t, fs.last(), "only available to the administrator")

	b.handleUpdate(ctx, command(42, "/start"))
	b.handleUpdate(ctx, command(adminID, "/resetlimit 42"))
	assert.Equal(t, "Rate limit for 42 reset.", fs.last())
	b.handleUpdate(ctx, command(adminID, "/resetlimit abc"))
	assert.Equal(t, "Invalid user_id", fs.last())

	b.handleUpdate(ctx, command(adminID, "/stats"))
	assert.Contains(t, fs.last(), "limit 1")
}

func TestResetCallbackRestartsInterview(t *testing.T) {
	b, fs := newTestBot(t, 10)
	ctx := context.Background()
	b.handleUpdate(ctx, command(42, "/start"))
	b.handleUpdate(ctx, message(42, "I enjoy writing and teaching"))
	require.Len(t, b.svc.Session("42", "42").Turns, 3)

	b.handleUpdate(ctx, tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		From:    &tgbotapi.User{ID: 42},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 42}},
		Data:    resetCmd,
	}})
	assert.Len(t, b.svc.Session("42", "42").Turns, 1)
	assert.Equal(t, "Tell me more about that?", fs.last())
}

func TestSplitMessage(t *testing.T) {
	text := strings.Repeat("line of text\n", 10)
	parts := splitMessage(text, 30)
	assert.Equal(t, text, strings.Join(parts, ""))
	for _, p := range parts {
		assert.LessOrEqual(t, len(p), 30)
	}

	long := strings.Repeat("é", 20)
	parts = splitMessage(long, 7)
	assert.Equal(t, long, strings.Join(parts, ""))
	for _, p := range parts {
		assert.True(t, strings.ToValidUTF8(p, "?") == p)
	}
}

func TestLongReplyKeepsResetButtonOnLastPart(t *testing.T) {
	b, fs := newTestBot(t, 10)
	text := strings.Repeat("a fairly long line of mentoring advice\n", 250)
	b.sendWithReset(42, text)

	require.Greater(t, len(fs.sent), 1)
	assert.Equal(t, text, strings.Join(fs.sent, ""))
	for i, s := range fs.sent {
		assert.LessOrEqual(t, len(s), maxMessageLen)
		if i < len(fs.sent)-1 {
			assert.Nil(t, fs.markups[i])
		}
	}
	_, ok := fs.markups[len(fs.markups)-1].(tgbotapi.InlineKeyboardMarkup)
	assert.True(t, ok)
}

func TestFormatRoadmap(t *testing.T) {
	out := FormatRoadmap(roadmap.Draft{
		Title: "Path",
		Field: "Finance",
		Milestones: []roadmap.Milestone{{
			Title:             "Accounting",
			EstimatedDuration: "2 months",
			Skills:            []string{"excel"},
			Resources:         []roadmap.Resource{{Title: "Course", URL: "https://example.com"}, {Title: "Book"}},
		}},
	})
	assert.Contains(t, out, "Field: Finance")
	assert.Contains(t, out, "1. Accounting (2 months)")
	assert.Contains(t, out, "• Course: https://example.com")
	assert.Contains(t, out, "• Book")
}
