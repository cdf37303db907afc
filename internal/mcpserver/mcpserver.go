// Package mcpserver publishes the structured career generators as MCP tools so
// other agents can call them.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/disha-ai/disha/internal/career"
	"github.com/disha-ai/disha/internal/gateway"
	"github.com/disha-ai/disha/internal/logger"
)

const (
	Name    = "disha"
	Version = "1.0.0"

	MentorPrompt = "career_mentor"
)

// Generator is the gateway surface exposed as tools.
type Generator interface {
	GenerateRoadmap(ctx context.Context, role, background string) ([]career.RoadmapStep, error)
	GenerateInterviewQuestions(ctx context.Context, topic string, level career.Level, count int) ([]career.Question, error)
	RecommendCourses(ctx context.Context, goal, gap string) ([]career.CourseRecommendation, error)
	AnalyzeResume(ctx context.Context, text, role string) (*career.ResumeAnalysis, error)
	SystemPrompt() string
}

type tools struct {
	gen Generator
	log *slog.Logger
}

// New builds an MCP server with the career tools and the mentor prompt.
func New(gen Generator) *server.MCPServer {
	t := &tools{gen: gen, log: logger.For("mcp")}

	s := server.NewMCPServer(Name, Version,
		server.WithToolCapabilities(false),
		server.WithPromptCapabilities(false),
		server.WithRecovery(),
	)

	s.AddTool(mcp.NewTool("generate_roadmap",
		mcp.WithDescription("Generate a step-by-step career roadmap for a target role."),
		mcp.WithString("role", mcp.Required(), mcp.Description("Target role, e.g. Data Scientist")),
		mcp.WithString("background", mcp.Required(), mcp.Description("Current background of the learner")),
	), t.roadmap)

	levels := make([]string, len(career.Levels))
	for i, l := range career.Levels {
		levels[i] = string(l)
	}
	s.AddTool(mcp.NewTool("generate_interview_questions",
		mcp.WithDescription("Generate multiple-choice technical interview questions."),
		mcp.WithString("topic", mcp.Required(), mcp.Description("Domain or topic to quiz on")),
		mcp.WithString("level", mcp.Required(), mcp.Enum(levels...)),
		mcp.WithNumber("count", mcp.Description("Number of questions, default 5, at most 20")),
	), t.questions)

	s.AddTool(mcp.NewTool("recommend_courses",
		mcp.WithDescription("Recommend online courses for a career goal."),
		mcp.WithString("goal", mcp.Required(), mcp.Description("Career goal")),
		mcp.WithString("gap", mcp.Description("Known skill gap, optional")),
	), t.courses)

	s.AddTool(mcp.NewTool("analyze_resume",
		mcp.WithDescription("Score a resume against a target role and suggest improvements."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Plain-text resume")),
		mcp.WithString("role", mcp.Required(), mcp.Description("Target role")),
	), t.resume)

	s.AddPrompt(mcp.NewPrompt(MentorPrompt,
		mcp.WithPromptDescription("System instruction of the career mentor chat."),
	), t.mentorPrompt)

	return s
}

// NewSSEHandler serves s over SSE at /sse and /message.
func NewSSEHandler(s *server.MCPServer) *server.SSEServer {
	return server.NewSSEServer(s)
}

func (t *tools) roadmap(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	role, err := requireString(args, "role")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	background, err := requireString(args, "background")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	steps, err := t.gen.GenerateRoadmap(ctx, role, background)
	return t.result("generate_roadmap", steps, err)
}

func (t *tools) questions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	topic, err := requireString(args, "topic")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := requireString(args, "level")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	level, err := career.ParseLevel(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	count := 0
	if n, ok := args["count"].(float64); ok && n > 0 {
		count = int(min(n, gateway.MaxQuestionCount))
	}
	qs, err := t.gen.GenerateInterviewQuestions(ctx, topic, level, count)
	return t.result("generate_interview_questions", qs, err)
}

func (t *tools) courses(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	goal, err := requireString(args, "goal")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	gap, _ := args["gap"].(string)
	cs, err := t.gen.RecommendCourses(ctx, goal, gap)
	return t.result("recommend_courses", cs, err)
}

func (t *tools) resume(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	text, err := requireString(args, "text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	role, err := requireString(args, "role")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	a, err := t.gen.AnalyzeResume(ctx, text, role)
	return t.result("analyze_resume", a, err)
}

func (t *tools) mentorPrompt(_ context.Context, _ mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return mcp.NewGetPromptResult("Career mentor system instruction", []mcp.PromptMessage{
		mcp.NewPromptMessage(mcp.RoleAssistant, mcp.NewTextContent(t.gen.SystemPrompt())),
	}), nil
}

// result renders v as JSON text. Generator failures become tool errors, not
// protocol errors.
func (t *tools) result(tool string, v any, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		t.log.Error("tool failed", "tool", tool, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", tool, err)), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s result: %w", tool, err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func requireString(args map[string]any, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("argument %q is required", key)
	}
	return v, nil
}
