package gateway

import (
	"context"
	"errors"
	"iter"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/disha-ai/disha/internal/career"
	"github.com/disha-ai/disha/internal/llm"
	"github.com/disha-ai/disha/internal/schema"
)

type mockLLM struct {
	responses []string
	err       error
	requests  []llm.JSONRequest

	fragments []string
	streamErr error
	chat      llm.ChatRequest
}

func (m *mockLLM) GenerateJSON(ctx context.Context, req llm.JSONRequest) (string, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) == 0 {
		panic("mockLLM: no more responses configured for " + req.Name)
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp, nil
}

func (m *mockLLM) StreamChat(ctx context.Context, req llm.ChatRequest) iter.Seq2[string, error] {
	m.chat = req
	return func(yield func(string, error) bool) {
		for _, f := range m.fragments {
			if !yield(f, nil) {
				return
			}
		}
		if m.streamErr != nil {
			yield("", m.streamErr)
		}
	}
}

func TestGenerateRoadmap(t *testing.T) {
	m := &mockLLM{responses: []string{`[
		{"phase":"Foundations","title":"Learn Go","duration":"4 weeks","description":"Syntax","skills":["types"],"tools":["go"]},
		{"phase":"Advanced","title":"Build services","duration":"8 weeks","description":"HTTP","skills":["net/http"],"tools":["docker"]}
	]`}}
	g := New(m)

	steps, err := g.GenerateRoadmap(context.Background(), "Backend Engineer", "CS student")
	require.NoError(t, err)
	require.Len(t, steps, 2)
	require.Equal(t, "Learn Go", steps[0].Title)
	require.Equal(t, []string{"docker"}, steps[1].Tools)

	require.Equal(t, "roadmap", m.requests[0].Name)
	require.Contains(t, m.requests[0].Prompt, `"Backend Engineer"`)
	require.Contains(t, m.requests[0].Prompt, "CS student")
	require.Same(t, roadmapSchema, m.requests[0].Schema)
}

func TestGenerateRoadmap_MalformedYieldsEmpty(t *testing.T) {
	for _, resp := range []string{"", "[]", "not json", `{"steps":[]}`, `[{"title":"x"}]`} {
		g := New(&mockLLM{responses: []string{resp}})
		steps, err := g.GenerateRoadmap(context.Background(), "r", "b")
		require.NoError(t, err, resp)
		require.NotNil(t, steps, resp)
		require.Empty(t, steps, resp)
	}
}

func TestGenerateRoadmap_TransportError(t *testing.T) {
	g := New(&mockLLM{err: llm.ErrMissingCredential})
	steps, err := g.GenerateRoadmap(context.Background(), "r", "b")
	require.ErrorIs(t, err, llm.ErrMissingCredential)
	require.Nil(t, steps)
}

func TestGenerateInterviewQuestions(t *testing.T) {
	m := &mockLLM{responses: []string{`[
		{"id":1,"question":"q1","options":["a","b"],"correctAnswerIndex":1,"explanation":"e1"},
		{"id":2,"question":"q2","options":["a","b"],"correctAnswerIndex":5,"explanation":"bad key"},
		{"id":3,"question":"q3","options":["a","b","c"],"correctAnswerIndex":0,"explanation":"e3"},
		{"id":4,"question":"q4","options":["a"],"correctAnswerIndex":0,"explanation":"e4"}
	]`}}
	g := New(m)

	qs, err := g.GenerateInterviewQuestions(context.Background(), "Go", career.Intermediate, 2)
	require.NoError(t, err)
	require.Len(t, qs, 2)
	require.Equal(t, []int{1, 3}, []int{qs[0].ID, qs[1].ID})
	require.Contains(t, m.requests[0].Prompt, "Generate 2 multiple-choice")
	require.Contains(t, m.requests[0].Prompt, `"Intermediate"`)
}

func TestGenerateInterviewQuestions_DefaultCountAndDuplicateIDs(t *testing.T) {
	m := &mockLLM{responses: []string{`[
		{"id":1,"question":"q1","options":["a","b"],"correctAnswerIndex":0,"explanation":""},
		{"id":1,"question":"q2","options":["a","b"],"correctAnswerIndex":1,"explanation":""}
	]`}}
	g := New(m)

	qs, err := g.GenerateInterviewQuestions(context.Background(), "Go", career.Beginner, 0)
	require.NoError(t, err)
	require.Contains(t, m.requests[0].Prompt, "Generate 5 multiple-choice")
	require.Equal(t, []int{1, 2}, []int{qs[0].ID, qs[1].ID})
}

func TestGenerateInterviewQuestions_CapsCount(t *testing.T) {
	m := &mockLLM{responses: []string{`[]`}}
	g := New(m)

	_, err := g.GenerateInterviewQuestions(context.Background(), "Go", career.Beginner, 1000000)
	require.NoError(t, err)
	require.Contains(t, m.requests[0].Prompt, "Generate 20 multiple-choice")
}

func TestRecommendCourses_PreservesOrder(t *testing.T) {
	m := &mockLLM{responses: []string{`[
		{"title":"c1","platform":"YouTube","level":"Beginner","duration":"2h","isFree":true,"reason":"r"},
		{"title":"c2","platform":"Coursera","level":"Intermediate","duration":"4w","isFree":false,"reason":"r"},
		{"title":"c3","platform":"Udemy","level":"Advanced","duration":"10h","isFree":false,"reason":"r"},
		{"title":"c4","platform":"YouTube","level":"Beginner","duration":"1h","isFree":true,"reason":"r"},
		{"title":"c5","platform":"edX","level":"Intermediate","duration":"6w","isFree":false,"reason":"r"}
	]`}}
	g := New(m)

	courses, err := g.RecommendCourses(context.Background(), "Data Science", "")
	require.NoError(t, err)
	require.Len(t, courses, 5)
	for i, c := range courses {
		require.Equal(t, "c"+string(rune('1'+i)), c.Title)
	}
	require.True(t, courses[0].IsFree)
	require.Equal(t, career.Advanced, courses[2].Level)
	require.Contains(t, m.requests[0].Prompt, "none in particular")
}

func TestRecommendCourses_BadEnumYieldsEmpty(t *testing.T) {
	g := New(&mockLLM{responses: []string{`[{"title":"c","platform":"p","level":"Expert","duration":"d","isFree":true,"reason":"r"}]`}})
	courses, err := g.RecommendCourses(context.Background(), "x", "y")
	require.NoError(t, err)
	require.Empty(t, courses)
}

const analysisJSON = `{"summary":"Solid","score":87,"strengths":["Go"],"weaknesses":["No metrics"],
	"improvements":[{"original":"Did stuff","suggestion":"Cut p99 by 40%","reason":"Impact"}]}`

func TestAnalyzeResume(t *testing.T) {
	m := &mockLLM{responses: []string{analysisJSON}}
	g := New(m, WithResumeLimit(10))

	a, err := g.AnalyzeResume(context.Background(), "ééééééééééTAIL", "SRE")
	require.NoError(t, err)
	require.Equal(t, 87, a.Score)
	require.Equal(t, career.BandGood, a.Band())
	require.Len(t, a.Improvements, 1)

	prompt := m.requests[0].Prompt
	require.Contains(t, prompt, "éééééééééé")
	require.NotContains(t, prompt, "TAIL")
	require.Contains(t, prompt, `"SRE"`)
}

func TestAnalyzeResume_Malformed(t *testing.T) {
	for _, resp := range []string{"", "{}", `{"summary":"x","score":150,"strengths":[],"weaknesses":[],"improvements":[]}`} {
		g := New(&mockLLM{responses: []string{resp}})
		a, err := g.AnalyzeResume(context.Background(), "text", "role")
		require.Nil(t, a, resp)
		var perr *schema.ParseError
		require.True(t, errors.As(err, &perr), resp)
	}
}

func TestStreamChat_MapsHistory(t *testing.T) {
	m := &mockLLM{fragments: []string{"a", "b"}}
	g := New(m, WithSystemPrompt("custom"))

	history := []career.Message{
		{ID: "welcome", Role: career.RoleModel, Text: "hello", Timestamp: time.Now()},
		{ID: "1", Role: career.RoleUser, Text: "hi", Timestamp: time.Now()},
	}
	var got strings.Builder
	for frag, err := range g.StreamChat(context.Background(), history, "next") {
		require.NoError(t, err)
		got.WriteString(frag)
	}
	require.Equal(t, "ab", got.String())
	require.Equal(t, "custom", m.chat.System)
	require.Equal(t, "next", m.chat.Message)
	require.Equal(t, []llm.Turn{{Speaker: llm.SpeakerModel, Text: "hello"}, {Speaker: llm.SpeakerUser, Text: "hi"}}, m.chat.History)
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "abc", Truncate("abcdef", 3))
	require.Equal(t, "abc", Truncate("abc", 3))
	require.Equal(t, "日本", Truncate("日本語", 2))
	require.Equal(t, "abc", Truncate("abc", 0))
}
