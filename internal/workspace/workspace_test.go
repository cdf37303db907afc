package workspace

import (
	"context"
	"iter"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/disha-ai/disha/internal/career"
	"github.com/disha-ai/disha/internal/chat"
	"github.com/disha-ai/disha/internal/config"
	"github.com/disha-ai/disha/internal/gateway"
	"github.com/disha-ai/disha/internal/history"
	"github.com/disha-ai/disha/internal/interview"
	"github.com/disha-ai/disha/internal/llm"
	"github.com/disha-ai/disha/internal/panel"
)

type stubGateway struct{}

func (stubGateway) StreamChat(context.Context, []career.Message, string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) { yield("ok", nil) }
}

func (stubGateway) GenerateInterviewQuestions(context.Context, string, career.Level, int) ([]career.Question, error) {
	return nil, nil
}

func (stubGateway) GenerateRoadmap(context.Context, string, string) ([]career.RoadmapStep, error) {
	return []career.RoadmapStep{{Title: "step"}}, nil
}

func (stubGateway) RecommendCourses(context.Context, string, string) ([]career.CourseRecommendation, error) {
	return nil, nil
}

func (stubGateway) AnalyzeResume(context.Context, string, string) (*career.ResumeAnalysis, error) {
	return nil, nil
}

func TestSelect(t *testing.T) {
	r := NewRegistry(stubGateway{}, nil)
	w, err := r.Create(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, ViewChat, w.View())

	require.NoError(t, w.Select(ViewRoadmap))
	require.Equal(t, ViewRoadmap, w.View())
	require.Equal(t, "Roadmap", w.Snapshot().View.Label)

	require.ErrorIs(t, w.Select(View("SETTINGS")), ErrUnknownView)
	require.Equal(t, ViewRoadmap, w.View())
}

func TestSelect_KeepsPanelState(t *testing.T) {
	r := NewRegistry(stubGateway{}, nil)
	w, err := r.Create(context.Background(), "")
	require.NoError(t, err)

	require.NoError(t, w.Select(ViewRoadmap))
	require.NoError(t, w.Roadmap.Generate(context.Background(), "SRE", "ops"))
	require.NoError(t, w.Select(ViewCourses))
	require.NoError(t, w.Select(ViewRoadmap))
	require.Len(t, w.Roadmap.Snapshot().Data, 1)
}

func TestParseView(t *testing.T) {
	for _, item := range NavItems {
		v, err := ParseView(string(item.ID))
		require.NoError(t, err)
		require.Equal(t, item.ID, v)
		require.NotEmpty(t, v.Item().Subtitle)
	}
	_, err := ParseView("chat")
	require.ErrorIs(t, err, ErrUnknownView)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(stubGateway{}, nil)

	a, err := r.Create(context.Background(), "")
	require.NoError(t, err)
	b, err := r.Create(context.Background(), "")
	require.NoError(t, err)
	require.NotEqual(t, a.ID, b.ID)
	require.Equal(t, 2, r.Len())

	got, err := r.Get(a.ID)
	require.NoError(t, err)
	require.Same(t, a, got)

	again, err := r.Create(context.Background(), a.ID)
	require.NoError(t, err)
	require.Same(t, a, again)

	_, err = r.Get(uuid.NewString())
	require.ErrorIs(t, err, ErrUnknownWorkspace)

	_, err = r.Create(context.Background(), "not-a-uuid")
	require.ErrorIs(t, err, ErrInvalidID)
}

func TestRegistry_IsolatesWorkspaces(t *testing.T) {
	r := NewRegistry(stubGateway{}, nil)
	a, _ := r.Create(context.Background(), "")
	b, _ := r.Create(context.Background(), "")

	require.NoError(t, a.Select(ViewResume))
	require.Equal(t, ViewChat, b.View())
	require.NotSame(t, a.Roadmap, b.Roadmap)
}

func TestRegistry_ReopensTranscript(t *testing.T) {
	store := history.Open("")
	defer store.Close()

	id := uuid.NewString()
	store.Save(context.Background(), id, career.Message{ID: "m1", Role: career.RoleUser, Text: "hi", Timestamp: time.Now()})

	r := NewRegistry(stubGateway{}, store)
	w, err := r.Create(context.Background(), id)
	require.NoError(t, err)

	msgs := w.Chat.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, "hi", msgs[1].Text)
}

func TestRegistry_EvictsLeastRecentlyUsed(t *testing.T) {
	r := NewRegistry(stubGateway{}, nil, WithMaxLive(2))
	a, err := r.Create(context.Background(), "")
	require.NoError(t, err)
	b, err := r.Create(context.Background(), "")
	require.NoError(t, err)

	_, err = r.Get(a.ID)
	require.NoError(t, err)

	c, err := r.Create(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, 2, r.Len())

	_, err = r.Get(b.ID)
	require.ErrorIs(t, err, ErrUnknownWorkspace)
	_, err = r.Get(a.ID)
	require.NoError(t, err)
	_, err = r.Get(c.ID)
	require.NoError(t, err)

	reopened, err := r.Create(context.Background(), b.ID)
	require.NoError(t, err)
	require.NotSame(t, b, reopened)
	require.Equal(t, b.ID, reopened.ID)
}

func TestRegistry_ExpiresIdleWorkspaces(t *testing.T) {
	r := NewRegistry(stubGateway{}, nil, WithIdleTTL(50*time.Millisecond))
	w, err := r.Create(context.Background(), "")
	require.NoError(t, err)

	// Get refreshes the timer, so wait without polling.
	time.Sleep(200 * time.Millisecond)

	_, err = r.Get(w.ID)
	require.ErrorIs(t, err, ErrUnknownWorkspace)
}

func TestRegistry_GetKeepsWorkspaceLive(t *testing.T) {
	r := NewRegistry(stubGateway{}, nil, WithIdleTTL(400*time.Millisecond))
	w, err := r.Create(context.Background(), "")
	require.NoError(t, err)

	for range 4 {
		time.Sleep(150 * time.Millisecond)
		got, err := r.Get(w.ID)
		require.NoError(t, err)
		require.Same(t, w, got)
	}
}

// TestWorkspace_WithoutCredential drives every panel against a gateway built
// from an empty LLM config and checks each one degrades to its failure text.
func TestWorkspace_WithoutCredential(t *testing.T) {
	ctx := context.Background()
	client, err := llm.NewClient(ctx, config.LLMConfig{})
	require.NoError(t, err)

	r := NewRegistry(gateway.New(client), nil)
	w, err := r.Create(ctx, "")
	require.NoError(t, err)

	reply, err := w.Chat.Send(ctx, "How do I become an SRE?", nil)
	require.NoError(t, err)
	require.Equal(t, chat.ApologyText, reply.Text)
	require.False(t, w.Chat.Busy())

	require.NoError(t, w.Roadmap.Generate(ctx, "SRE", "Backend developer"))
	roadmap := w.Roadmap.Snapshot()
	require.Equal(t, panel.RoadmapFailedText, roadmap.Error)
	require.False(t, roadmap.Loading)
	require.Empty(t, roadmap.Data)

	require.NoError(t, w.Courses.Recommend(ctx, "SRE", "Kubernetes"))
	courses := w.Courses.Snapshot()
	require.Equal(t, panel.CoursesFailedText, courses.Error)
	require.False(t, courses.Loading)
	require.Empty(t, courses.Data)

	require.NoError(t, w.Resume.Analyze(ctx, "Go developer with five years of backend work.", "SRE"))
	res := w.Resume.Snapshot()
	require.Equal(t, panel.ResumeFailedText, res.Error)
	require.False(t, res.Loading)
	require.Nil(t, res.Data)

	require.NoError(t, w.Interview.Start(ctx, "Kubernetes", career.Beginner, 0))
	drill := w.Interview.Snapshot()
	require.Equal(t, interview.FetchFailedText, drill.Error)
	require.Equal(t, interview.StateIdle, drill.State)
	require.False(t, drill.Loading)
	require.Empty(t, drill.Questions)
}
