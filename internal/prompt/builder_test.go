package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"career-mentor/internal/fields"
)

func newBuilder(t *testing.T) *Builder {
	t.Helper()
	tbl, err := fields.Load("")
	require.NoError(t, err)
	return NewBuilder(tbl, 3)
}

func TestStage_QuotesPreviousAnswer(t *testing.T) {
	b := newBuilder(t)
	p := Profile{InterestsStrengths: "I love puzzles and maths", PreferredField: "data science"}

	got, err := b.Stage(StagePreferredField, p)
	require.NoError(t, err)
	assert.Contains(t, got.User, "I love puzzles and maths")
	assert.NotEmpty(t, got.System)

	got, err = b.Stage(StageValuesMotivation, p)
	require.NoError(t, err)
	assert.Contains(t, got.User, "data science")
}

func TestStage_EmptyAnswerUsesExample(t *testing.T) {
	b := newBuilder(t)
	got, err := b.Stage(StageWorkStyle, Profile{})
	require.NoError(t, err)
	assert.Equal(t, Example(StageWorkStyle), got.User)
}

func TestStage_NonQuestionStageIsError(t *testing.T) {
	b := newBuilder(t)
	_, err := b.Stage(StageMentoring, Profile{})
	require.Error(t, err)
	_, err = b.Stage(Stage(42), Profile{})
	require.Error(t, err)
}

func TestExampleCoversQuestionStages(t *testing.T) {
	for s := StageInterests; s < StageRoadmapGeneration; s++ {
		assert.NotEmpty(t, Example(s), s.String())
	}
	assert.Empty(t, Example(StageMentoring))
}

func TestGeneration_KnownField(t *testing.T) {
	b := newBuilder(t)
	out := b.Generation("software_development", map[string]string{
		KeyInterests:      "building tools",
		KeyWorkStyle:      "remote, small team",
		"favourite_color": "green",
	})
	assert.Contains(t, out, "Software Development")
	assert.Contains(t, out, "building tools")
	assert.Contains(t, out, "remote, small team")
	assert.Contains(t, out, "Favourite Color")
	assert.Contains(t, out, "Return ONLY a JSON object")
	assert.Contains(t, out, `"milestones"`)
	assert.NotContains(t, out, "{answers}")
	assert.NotContains(t, out, "{field}")

	// row questions come before extra answers
	assert.Less(t, strings.Index(out, "building tools"), strings.Index(out, "green"))
}

func TestGeneration_UnknownFieldUsesDefault(t *testing.T) {
	b := newBuilder(t)
	out := b.Generation("marine biology", nil)
	assert.Contains(t, out, "Marine Biology")
	assert.Contains(t, out, "No answers were provided")
	assert.Contains(t, out, "Return ONLY a JSON object")
}

func TestMentoring(t *testing.T) {
	b := newBuilder(t)
	got := b.Mentoring(MentoringInput{
		Recent:  []string{"User: one", "AI: two", "User: three", "AI: four"},
		Message: "How do I start?",
	})
	assert.Contains(t, got.User, DefaultRoadmapTitle)
	assert.Contains(t, got.User, DefaultField)
	assert.Contains(t, got.User, "How do I start?")
	assert.NotContains(t, got.User, "User: one")
	assert.Contains(t, got.User, "AI: four")
}

func TestStageNames(t *testing.T) {
	for s := StageInterests; s <= StageMentoring; s++ {
		got, err := ParseStage(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseStage("onboarding")
	require.Error(t, err)
}

func TestProfileMapHasEveryKey(t *testing.T) {
	m := Profile{WorkStyle: "remote"}.Map()
	for _, k := range []string{KeyInterests, KeyPreferredField, KeyValues, KeyWorkStyle, KeyLongTermVision, KeyAdditionalInput} {
		_, ok := m[k]
		assert.True(t, ok, k)
	}
	assert.Equal(t, "remote", m[KeyWorkStyle])
}
