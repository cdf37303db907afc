// Package gateway is the single integration point with the generative model.
// It owns every prompt and output schema; callers only see typed results.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/disha-ai/disha/internal/career"
	"github.com/disha-ai/disha/internal/llm"
	"github.com/disha-ai/disha/internal/logger"
	"github.com/disha-ai/disha/internal/schema"
)

const (
	DefaultQuestionCount  = 5
	MaxQuestionCount      = 20
	DefaultResumeMaxChars = 10000
)

const mentorInstruction = `You are an expert AI Career Mentor. Your goal is to guide students and professionals.
- Be supportive, practical, and honest.
- Ask clarifying questions if the user's goal is vague.
- Provide actionable advice, not just generic fluff.
- Do NOT guarantee jobs or income.
- Keep responses concise and structured (use bullet points).`

// Gateway shapes prompts, attaches schemas and parses model output.
type Gateway struct {
	client         llm.Client
	system         string
	maxResumeChars int
	log            *slog.Logger
}

// Option customises a Gateway.
type Option func(*Gateway)

// WithSystemPrompt replaces the chat system instruction. Empty keeps the default.
func WithSystemPrompt(prompt string) Option {
	return func(g *Gateway) {
		if prompt != "" {
			g.system = prompt
		}
	}
}

// WithResumeLimit sets how many characters of resume text are submitted.
func WithResumeLimit(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.maxResumeChars = n
		}
	}
}

// New returns a Gateway backed by client.
func New(client llm.Client, opts ...Option) *Gateway {
	g := &Gateway{
		client:         client,
		system:         mentorInstruction,
		maxResumeChars: DefaultResumeMaxChars,
		log:            logger.For("gateway"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SystemPrompt returns the chat system instruction.
func (g *Gateway) SystemPrompt() string { return g.system }

// StreamChat sends the prior transcript plus message and yields reply
// fragments in arrival order.
func (g *Gateway) StreamChat(ctx context.Context, history []career.Message, message string) iter.Seq2[string, error] {
	turns := make([]llm.Turn, 0, len(history))
	for _, m := range history {
		speaker := llm.SpeakerModel
		if m.Role == career.RoleUser {
			speaker = llm.SpeakerUser
		}
		turns = append(turns, llm.Turn{Speaker: speaker, Text: m.Text})
	}
	return g.client.StreamChat(ctx, llm.ChatRequest{
		System:  g.system,
		History: turns,
		Message: message,
	})
}

// GenerateRoadmap returns the steps from beginner to advanced for role.
// A malformed response yields an empty list.
func (g *Gateway) GenerateRoadmap(ctx context.Context, role, background string) ([]career.RoadmapStep, error) {
	prompt := fmt.Sprintf(`Create a detailed step-by-step career roadmap for a user who wants to become a "%s".
User Background: %s.
Break it down into logical progression steps (Beginner to Advanced).`, role, background)

	return generateList[career.RoadmapStep](ctx, g, llm.JSONRequest{
		Name:   "roadmap",
		Prompt: prompt,
		Schema: roadmapSchema,
	})
}

// GenerateInterviewQuestions requests count multiple-choice questions. A count
// below 1 asks for DefaultQuestionCount and one above MaxQuestionCount is
// capped. Fewer may come back: questions whose answer key does not point at
// one of their options are dropped, and extras beyond count are cut.
func (g *Gateway) GenerateInterviewQuestions(ctx context.Context, topic string, level career.Level, count int) ([]career.Question, error) {
	if count <= 0 {
		count = DefaultQuestionCount
	}
	count = min(count, MaxQuestionCount)
	prompt := fmt.Sprintf(`Generate %d multiple-choice interview questions for the topic: "%s" at a "%s" level.
Focus on conceptual understanding and practical application.`, count, topic, level)

	qs, err := generateList[career.Question](ctx, g, llm.JSONRequest{
		Name:   "interview_questions",
		Prompt: prompt,
		Schema: questionsSchema,
	})
	if err != nil {
		return nil, err
	}
	return g.sanitizeQuestions(qs, count), nil
}

func (g *Gateway) sanitizeQuestions(qs []career.Question, count int) []career.Question {
	out := make([]career.Question, 0, len(qs))
	seen := make(map[int]bool, len(qs))
	duplicate := false
	for _, q := range qs {
		if q.CorrectAnswerIndex < 0 || q.CorrectAnswerIndex >= len(q.Options) {
			g.log.Warn("dropping question with invalid answer key", "id", q.ID, "index", q.CorrectAnswerIndex, "options", len(q.Options))
			continue
		}
		if seen[q.ID] {
			duplicate = true
		}
		seen[q.ID] = true
		out = append(out, q)
	}
	if len(out) > count {
		out = out[:count]
	}
	// Answers are keyed by id, so ids must be unique within a drill.
	if duplicate {
		for i := range out {
			out[i].ID = i + 1
		}
	}
	return out
}

// RecommendCourses returns courses for goal. An empty gap means no specific weak area.
func (g *Gateway) RecommendCourses(ctx context.Context, goal, gap string) ([]career.CourseRecommendation, error) {
	focus := gap
	if focus == "" {
		focus = "none in particular"
	}
	prompt := fmt.Sprintf(`Recommend 5 best courses for someone wanting to learn: "%s".
Skill gaps/focus area: "%s".
Include a mix of free (YouTube, etc) and paid (Coursera, Udemy) options.`, goal, focus)

	return generateList[career.CourseRecommendation](ctx, g, llm.JSONRequest{
		Name:   "courses",
		Prompt: prompt,
		Schema: coursesSchema,
	})
}

// AnalyzeResume scores text against role. The text is cut to the configured
// limit before it is sent. A malformed response returns a *schema.ParseError.
func (g *Gateway) AnalyzeResume(ctx context.Context, text, role string) (*career.ResumeAnalysis, error) {
	prompt := fmt.Sprintf(`Analyze the following resume text for the role of "%s".
Check for ATS friendliness, clarity, impact, and grammar.
Resume Content:
%s
`, role, Truncate(text, g.maxResumeChars))

	raw, err := g.client.GenerateJSON(ctx, llm.JSONRequest{
		Name:   "resume_analysis",
		Prompt: prompt,
		Schema: resumeSchema,
	})
	if err != nil {
		return nil, err
	}

	var analysis career.ResumeAnalysis
	if err := schema.Decode(raw, resumeSchema, &analysis); err != nil {
		g.log.Warn("malformed resume analysis", "error", err)
		return nil, err
	}
	if analysis.Score < 0 || analysis.Score > 100 {
		return nil, &schema.ParseError{Path: "$.score", Reason: fmt.Sprintf("%d is outside 0..100", analysis.Score)}
	}
	return &analysis, nil
}

// generateList runs a schema-bound call whose result is an array. Parse
// failures are logged and turned into an empty list; transport errors are returned.
func generateList[T any](ctx context.Context, g *Gateway, req llm.JSONRequest) ([]T, error) {
	raw, err := g.client.GenerateJSON(ctx, req)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := schema.Decode(raw, req.Schema, &out); err != nil {
		var perr *schema.ParseError
		if errors.As(err, &perr) {
			g.log.Warn("malformed model response", "call", req.Name, "error", perr)
			return []T{}, nil
		}
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
