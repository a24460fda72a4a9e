package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"career-mentor/internal/fields"
	"career-mentor/internal/llm"
	"career-mentor/internal/prompt"
	"career-mentor/internal/ratelimit"
	"career-mentor/internal/roadmap"
)

const roadmapJSON = "```json\n" + `{"title": "Data Analyst to ML Engineer", "description": "d", "field": "x",
 "milestones": [{"title": "Statistics", "resources": ["Think Stats"]}, {"title": "Python", "resources": [{"title": "Python docs", "url": "https://docs.python.org"}]}]}` + "\n```"

type fakeGateway struct {
	mu         sync.Mutex
	reply      string
	structured string
	reqs       []llm.Request
}

func (g *fakeGateway) GenerateResult(_ context.Context, req llm.Request) llm.Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reqs = append(g.reqs, req)
	if req.Structured {
		return llm.Result{Text: g.structured, Provider: "fake"}
	}
	return llm.Result{Text: g.reply, Provider: "fake"}
}

func (g *fakeGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.reqs)
}

func newEngine(t *testing.T, gw *fakeGateway, limit int, opts ...Option) (*Engine, *ratelimit.Memory) {
	t.Helper()
	tbl, err := fields.Load("")
	require.NoError(t, err)
	b := prompt.NewBuilder(tbl, 5)
	lim := ratelimit.NewMemory(limit, time.Hour)
	return NewEngine(lim, gw, b, roadmap.NewPipeline(gw, b, tbl), opts...), lim
}

// say runs one exchange and appends both turns to the session like a caller would.
func say(t *testing.T, e *Engine, s *Session, msg string) Reply {
	t.Helper()
	r, err := e.Advance(context.Background(), *s, msg)
	require.NoError(t, err)
	if r.Accepted {
		s.Turns = append(s.Turns, Turn{Role: RoleUser, Text: msg, Seq: len(s.Turns)})
		s.Turns = append(s.Turns, Turn{Role: RoleAssistant, Text: r.Text, Seq: len(s.Turns)})
	}
	if r.Roadmap != nil {
		s.Roadmap = r.Roadmap
	}
	return r
}

var answers = []string{
	"I enjoy puzzles, statistics and explaining things to people",
	"Data science, ideally in healthcare research",
	"Continuous learning and making a measurable difference",
	"Remote with a small team and long focus blocks",
	"Leading a machine learning team in ten years",
}

func TestStageFor(t *testing.T) {
	want := []Stage{StageInterests, StagePreferredField, StageValuesMotivation, StageWorkStyle,
		StageLongTermVision, StageRoadmapGeneration, StageMentoring, StageMentoring}
	for k, s := range want {
		assert.Equal(t, s, StageFor(k), "user turns %d", k)
	}
	assert.Equal(t, StageMentoring, StageFor(100))
}

func TestExtractProfile(t *testing.T) {
	var turns []Turn
	for i, a := range append(answers, "extra one", "extra two") {
		turns = append(turns, Turn{Role: RoleAssistant, Text: "q", Seq: 2 * i}, Turn{Role: RoleUser, Text: a, Seq: 2*i + 1})
	}
	p := ExtractProfile(turns)
	assert.Equal(t, answers[0], p.InterestsStrengths)
	assert.Equal(t, answers[1], p.PreferredField)
	assert.Equal(t, answers[4], p.LongTermVision)
	assert.Equal(t, []string{"extra one", "extra two"}, p.AdditionalContext)

	empty := ExtractProfile(nil).Map()
	assert.Equal(t, "", empty[prompt.KeyWorkStyle])
}

func TestAdvance_FullInterview(t *testing.T) {
	gw := &fakeGateway{reply: `"Tell me more about that!"`, structured: roadmapJSON}
	e, _ := newEngine(t, gw, 50)
	s := &Session{ID: "s1", Identity: "u1"}

	wantStages := []Stage{StagePreferredField, StageValuesMotivation, StageWorkStyle, StageLongTermVision}
	for i, a := range answers[:4] {
		r := say(t, e, s, a)
		assert.True(t, r.Accepted)
		assert.Equal(t, wantStages[i], r.Stage)
		assert.Equal(t, "Tell me more about that!", r.Text)
		assert.False(t, r.RoadmapReady)
	}

	r := say(t, e, s, answers[4])
	assert.True(t, r.RoadmapReady)
	assert.Equal(t, StageMentoring, r.Stage)
	require.NotNil(t, r.Roadmap)
	assert.Equal(t, "Data Science", r.Roadmap.Field)
	assert.Len(t, r.Roadmap.Milestones, 2)
	assert.Equal(t, roadmap.Resource{Title: "Think Stats"}, r.Roadmap.Milestones[0].Resources[0])
	assert.Contains(t, r.Text, "Data Analyst to ML Engineer")

	r = say(t, e, s, "How should I start learning statistics?")
	assert.Equal(t, StageMentoring, r.Stage)
	assert.False(t, r.RoadmapReady)
	last := gw.reqs[len(gw.reqs)-1]
	assert.Contains(t, last.Prompt, "Data Analyst to ML Engineer")
	assert.Contains(t, last.Prompt, "How should I start learning statistics?")
}

func TestAdvance_QuestionPromptQuotesPreviousAnswer(t *testing.T) {
	gw := &fakeGateway{reply: "ok then"}
	e, _ := newEngine(t, gw, 50)
	s := &Session{Identity: "u1"}
	say(t, e, s, answers[0])
	require.Equal(t, 1, gw.calls())
	assert.Contains(t, gw.reqs[0].Prompt, answers[0])
}

func TestAdvance_ShortMessageRejected(t *testing.T) {
	gw := &fakeGateway{reply: "never"}
	e, lim := newEngine(t, gw, 50)
	s := &Session{Identity: "u1"}
	say(t, e, s, answers[0])
	calls := gw.calls()

	r, err := e.Advance(context.Background(), *s, "  ok  ")
	require.NoError(t, err)
	assert.False(t, r.Accepted)
	assert.Equal(t, StagePreferredField, r.Stage)
	assert.Contains(t, r.Text, prompt.Example(StagePreferredField))
	assert.Equal(t, calls, gw.calls())

	info, err := lim.Check(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, info.Used)
	assert.Equal(t, StagePreferredField, Current(s.Turns))
}

func TestAdvance_MinLengthCountsRunes(t *testing.T) {
	gw := &fakeGateway{reply: "fine"}
	e, _ := newEngine(t, gw, 50, WithMinMessageLength(5))
	r, err := e.Advance(context.Background(), Session{Identity: "u"}, "привет")
	require.NoError(t, err)
	assert.True(t, r.Accepted)
}

func TestAdvance_RateLimited(t *testing.T) {
	gw := &fakeGateway{reply: "next question"}
	e, _ := newEngine(t, gw, 2)
	s := &Session{Identity: "u1"}
	say(t, e, s, answers[0])
	say(t, e, s, answers[1])

	_, err := e.Advance(context.Background(), *s, answers[2])
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRateLimited))
	var rl *RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, 2, rl.Info.Limit)
	assert.Equal(t, 0, rl.Info.Remaining)
	assert.Equal(t, 2, gw.calls())
}

func TestAdvance_ProviderOutageUsesCannedText(t *testing.T) {
	gw := &fakeGateway{}
	e, _ := newEngine(t, gw, 50)
	s := &Session{Identity: "u1", Field: "finance"}

	r := say(t, e, s, answers[0])
	assert.Equal(t, prompt.Example(StagePreferredField), r.Text)

	for _, a := range answers[1:] {
		r = say(t, e, s, a)
	}
	require.NotNil(t, r.Roadmap)
	assert.Equal(t, roadmap.Fallback("Finance"), *r.Roadmap)

	r = say(t, e, s, "What should I do first this week?")
	assert.Equal(t, prompt.MentoringFallback, r.Text)
}

func TestStart(t *testing.T) {
	gw := &fakeGateway{}
	e, lim := newEngine(t, gw, 1)
	r, err := e.Start(context.Background(), Session{Identity: "u1"})
	require.NoError(t, err)
	assert.Equal(t, StageInterests, r.Stage)
	assert.True(t, strings.HasSuffix(r.Text, prompt.Example(StageInterests)))

	_, err = e.Start(context.Background(), Session{Identity: "u1"})
	assert.True(t, errors.Is(err, ErrRateLimited))
	st, _ := lim.Stats(context.Background())
	assert.Equal(t, 1, st.TotalRequests)
}

func TestRegenerateAndStatus(t *testing.T) {
	gw := &fakeGateway{reply: "q", structured: roadmapJSON}
	e, _ := newEngine(t, gw, 50)
	s := &Session{Identity: "u1"}

	_, err := e.Regenerate(context.Background(), *s)
	assert.True(t, errors.Is(err, ErrInterviewIncomplete))

	for _, a := range answers {
		say(t, e, s, a)
	}
	pending := *s
	pending.Roadmap = nil
	assert.Equal(t, StageRoadmapGeneration, e.Status(pending).Stage)

	st := e.Status(*s)
	assert.Equal(t, StageMentoring, st.Stage)
	assert.True(t, st.RoadmapReady)
	assert.Equal(t, 5, st.UserTurns)
	assert.Equal(t, 10, st.MessageCount)
	assert.Equal(t, answers[3], st.Profile.WorkStyle)

	d, err := e.Regenerate(context.Background(), *s)
	require.NoError(t, err)
	assert.Len(t, d.Milestones, 2)
}

func TestObserverSeesEvents(t *testing.T) {
	var kinds []EventKind
	gw := &fakeGateway{reply: "q"}
	e, _ := newEngine(t, gw, 1, WithObserver(func(ev Event) { kinds = append(kinds, ev.Kind) }))
	s := &Session{Identity: "u1"}

	_, _ = e.Advance(context.Background(), *s, "hi")
	say(t, e, s, answers[0])
	_, _ = e.Advance(context.Background(), *s, answers[1])

	assert.Equal(t, []EventKind{EventRejected, EventReply, EventRateLimited}, kinds)
}

func TestCleanReply(t *testing.T) {
	assert.Equal(t, "Hello there", cleanReply(`  "Hello there" `))
	assert.Equal(t, "Hello", cleanReply("“Hello”"))
	assert.Equal(t, `He said "hi"`, cleanReply(`He said "hi"`))
	assert.Equal(t, "", cleanReply(`""`))
}
