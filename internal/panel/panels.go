package panel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/disha-ai/disha/internal/career"
	"github.com/disha-ai/disha/internal/logger"
)

const (
	RoadmapFailedText = "Failed to generate roadmap. Please try again."
	CoursesFailedText = "Failed to fetch course recommendations. Please try again."
	ResumeFailedText  = "Failed to analyze resume. Please try again."
)

// RoadmapGenerator produces a roadmap for a role.
type RoadmapGenerator interface {
	GenerateRoadmap(ctx context.Context, role, background string) ([]career.RoadmapStep, error)
}

// CourseRecommender produces course recommendations for a goal.
type CourseRecommender interface {
	RecommendCourses(ctx context.Context, goal, gap string) ([]career.CourseRecommendation, error)
}

// ResumeAnalyzer scores a resume against a role.
type ResumeAnalyzer interface {
	AnalyzeResume(ctx context.Context, text, role string) (*career.ResumeAnalysis, error)
}

func required(fields ...[2]string) error {
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, f[0])
		}
	}
	return nil
}

// inputs remembers the last submitted form values for display.
type inputs struct {
	mu     sync.Mutex
	values map[string]string
}

func (in *inputs) set(kv ...string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.values = make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		in.values[kv[i]] = kv[i+1]
	}
}

func (in *inputs) get(k string) string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.values[k]
}

// Roadmap is the career roadmap panel.
type Roadmap struct {
	gen   RoadmapGenerator
	log   *slog.Logger
	state State[[]career.RoadmapStep]
	in    inputs
}

// RoadmapView is the roadmap panel as returned to clients.
type RoadmapView struct {
	Role       string `json:"role"`
	Background string `json:"background"`
	Snapshot[[]career.RoadmapStep]
}

func NewRoadmap(gen RoadmapGenerator) *Roadmap {
	return &Roadmap{gen: gen, log: logger.For("roadmap")}
}

// Generate replaces the roadmap with a freshly generated one.
func (p *Roadmap) Generate(ctx context.Context, role, background string) error {
	if err := required([2]string{"role", role}, [2]string{"background", background}); err != nil {
		return err
	}
	return p.state.Run(ctx, []career.RoadmapStep{}, RoadmapFailedText, func(ctx context.Context) ([]career.RoadmapStep, error) {
		p.in.set("role", role, "background", background)
		steps, err := p.gen.GenerateRoadmap(ctx, role, background)
		if err != nil {
			p.log.Error("roadmap generation failed", "role", role, "error", err)
		}
		return steps, err
	})
}

func (p *Roadmap) Snapshot() RoadmapView {
	return RoadmapView{
		Role:       p.in.get("role"),
		Background: p.in.get("background"),
		Snapshot:   p.state.Snapshot(),
	}
}

// Courses is the course recommendation panel.
type Courses struct {
	rec   CourseRecommender
	log   *slog.Logger
	state State[[]career.CourseRecommendation]
	in    inputs
}

// CoursesView is the courses panel as returned to clients.
type CoursesView struct {
	Goal string `json:"goal"`
	Gap  string `json:"gap"`
	Snapshot[[]career.CourseRecommendation]
}

func NewCourses(rec CourseRecommender) *Courses {
	return &Courses{rec: rec, log: logger.For("courses")}
}

// Recommend replaces the course list. gap may be empty.
func (p *Courses) Recommend(ctx context.Context, goal, gap string) error {
	if err := required([2]string{"goal", goal}); err != nil {
		return err
	}
	return p.state.Run(ctx, []career.CourseRecommendation{}, CoursesFailedText, func(ctx context.Context) ([]career.CourseRecommendation, error) {
		p.in.set("goal", goal, "gap", gap)
		courses, err := p.rec.RecommendCourses(ctx, goal, gap)
		if err != nil {
			p.log.Error("course recommendation failed", "goal", goal, "error", err)
		}
		return courses, err
	})
}

func (p *Courses) Snapshot() CoursesView {
	return CoursesView{
		Goal:     p.in.get("goal"),
		Gap:      p.in.get("gap"),
		Snapshot: p.state.Snapshot(),
	}
}

// Resume is the resume analysis panel.
type Resume struct {
	an    ResumeAnalyzer
	log   *slog.Logger
	state State[*career.ResumeAnalysis]
	in    inputs
}

// ResumeView is the resume panel as returned to clients. Band is set when an
// analysis is present.
type ResumeView struct {
	Role string           `json:"role"`
	Band career.ScoreBand `json:"band,omitempty"`
	Snapshot[*career.ResumeAnalysis]
}

func NewResume(an ResumeAnalyzer) *Resume {
	return &Resume{an: an, log: logger.For("resume")}
}

// Analyze replaces the analysis with one for text against role.
func (p *Resume) Analyze(ctx context.Context, text, role string) error {
	if err := required([2]string{"resume text", text}, [2]string{"role", role}); err != nil {
		return err
	}
	return p.state.Run(ctx, nil, ResumeFailedText, func(ctx context.Context) (*career.ResumeAnalysis, error) {
		p.in.set("role", role)
		a, err := p.an.AnalyzeResume(ctx, text, role)
		if err != nil {
			p.log.Error("resume analysis failed", "role", role, "error", err)
		}
		return a, err
	})
}

func (p *Resume) Snapshot() ResumeView {
	v := ResumeView{Role: p.in.get("role"), Snapshot: p.state.Snapshot()}
	if v.Data != nil {
		v.Band = v.Data.Band()
	}
	return v
}
