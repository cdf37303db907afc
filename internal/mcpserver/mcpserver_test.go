package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/disha-ai/disha/internal/career"
	"github.com/disha-ai/disha/internal/gateway"
	"github.com/disha-ai/disha/internal/logger"
)

type mockGenerator struct {
	err       error
	lastLevel career.Level
	lastCount int
	lastGap   string
}

func (m *mockGenerator) GenerateRoadmap(context.Context, string, string) ([]career.RoadmapStep, error) {
	return []career.RoadmapStep{{Phase: "Phase 1", Title: "Foundations"}}, m.err
}

func (m *mockGenerator) GenerateInterviewQuestions(_ context.Context, _ string, level career.Level, count int) ([]career.Question, error) {
	m.lastLevel, m.lastCount = level, count
	return []career.Question{{ID: 1, Question: "q", Options: []string{"a", "b"}}}, m.err
}

func (m *mockGenerator) RecommendCourses(_ context.Context, _, gap string) ([]career.CourseRecommendation, error) {
	m.lastGap = gap
	return []career.CourseRecommendation{}, m.err
}

func (m *mockGenerator) AnalyzeResume(context.Context, string, string) (*career.ResumeAnalysis, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &career.ResumeAnalysis{Score: 80}, nil
}

func (m *mockGenerator) SystemPrompt() string { return "be a mentor" }

func call(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestRoadmapTool(t *testing.T) {
	tl := &tools{gen: &mockGenerator{}, log: logger.For("mcp")}

	res, err := tl.roadmap(context.Background(), call(map[string]any{"role": "SRE", "background": "ops"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	var steps []career.RoadmapStep
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &steps))
	require.Equal(t, "Foundations", steps[0].Title)

	res, err = tl.roadmap(context.Background(), call(map[string]any{"role": "SRE"}))
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Contains(t, text(t, res), "background")
}

func TestQuestionsTool(t *testing.T) {
	gen := &mockGenerator{}
	tl := &tools{gen: gen, log: logger.For("mcp")}

	res, err := tl.questions(context.Background(), call(map[string]any{"topic": "Go", "level": "Advanced", "count": float64(3)}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Equal(t, career.Advanced, gen.lastLevel)
	require.Equal(t, 3, gen.lastCount)

	res, err = tl.questions(context.Background(), call(map[string]any{"topic": "Go", "level": "Guru"}))
	require.NoError(t, err)
	require.True(t, res.IsError)
}

func TestQuestionsTool_ClampsCount(t *testing.T) {
	gen := &mockGenerator{}
	tl := &tools{gen: gen, log: logger.For("mcp")}

	for _, tc := range []struct {
		in   any
		want int
	}{
		{float64(1e12), gateway.MaxQuestionCount},
		{math.Inf(1), gateway.MaxQuestionCount},
		{float64(-4), 0},
		{math.NaN(), 0},
		{"7", 0},
	} {
		res, err := tl.questions(context.Background(), call(map[string]any{"topic": "Go", "level": "Beginner", "count": tc.in}))
		require.NoError(t, err)
		require.False(t, res.IsError)
		require.Equal(t, tc.want, gen.lastCount, "count %v", tc.in)
	}
}

func TestCoursesTool_OptionalGap(t *testing.T) {
	gen := &mockGenerator{}
	tl := &tools{gen: gen, log: logger.For("mcp")}

	res, err := tl.courses(context.Background(), call(map[string]any{"goal": "Backend"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Equal(t, "[]", text(t, res))
	require.Empty(t, gen.lastGap)
}

func TestResumeTool_Failure(t *testing.T) {
	tl := &tools{gen: &mockGenerator{err: errors.New("quota exceeded")}, log: logger.For("mcp")}

	res, err := tl.resume(context.Background(), call(map[string]any{"text": "cv", "role": "SRE"}))
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Contains(t, text(t, res), "quota exceeded")
}

func TestServer_ListsTools(t *testing.T) {
	s := New(&mockGenerator{})
	resp := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	for _, name := range []string{"generate_roadmap", "generate_interview_questions", "recommend_courses", "analyze_resume"} {
		require.Contains(t, string(data), name)
	}
}

func TestMentorPrompt(t *testing.T) {
	tl := &tools{gen: &mockGenerator{}, log: logger.For("mcp")}
	res, err := tl.mentorPrompt(context.Background(), mcp.GetPromptRequest{})
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	require.Equal(t, mcp.RoleAssistant, res.Messages[0].Role)
	require.Equal(t, "be a mentor", res.Messages[0].Content.(mcp.TextContent).Text)
}
