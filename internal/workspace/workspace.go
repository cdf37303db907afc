// Package workspace ties the five career panels of one user session together
// and keeps track of which one is active.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/disha-ai/disha/internal/chat"
	"github.com/disha-ai/disha/internal/interview"
	"github.com/disha-ai/disha/internal/logger"
	"github.com/disha-ai/disha/internal/panel"
)

var (
	ErrUnknownView      = errors.New("workspace: unknown view")
	ErrUnknownWorkspace = errors.New("workspace: not found")
	ErrInvalidID        = errors.New("workspace: invalid id")
)

// Gateway is every model capability a workspace hands to its panels.
type Gateway interface {
	chat.Streamer
	interview.QuestionSource
	panel.RoadmapGenerator
	panel.CourseRecommender
	panel.ResumeAnalyzer
}

// Workspace is one user's set of panels.
type Workspace struct {
	ID        string
	Chat      *chat.Session
	Roadmap   *panel.Roadmap
	Interview *interview.Drill
	Resume    *panel.Resume
	Courses   *panel.Courses

	mu   sync.Mutex
	view View
}

// Snapshot is the navigation state of a workspace.
type Snapshot struct {
	ID       string    `json:"id"`
	View     NavItem   `json:"view"`
	NavItems []NavItem `json:"navItems"`
}

func newWorkspace(ctx context.Context, id string, gw Gateway, log chat.Log) *Workspace {
	return &Workspace{
		ID:        id,
		Chat:      chat.NewSession(ctx, id, gw, log),
		Roadmap:   panel.NewRoadmap(gw),
		Interview: interview.New(gw),
		Resume:    panel.NewResume(gw),
		Courses:   panel.NewCourses(gw),
		view:      ViewChat,
	}
}

// View returns the active view.
func (w *Workspace) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.view
}

// Select makes v the active view. Panel state is kept when switching.
func (w *Workspace) Select(v View) error {
	if _, err := ParseView(string(v)); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.view = v
	return nil
}

func (w *Workspace) Snapshot() Snapshot {
	return Snapshot{ID: w.ID, View: w.View().Item(), NavItems: NavItems}
}

// Registry holds the live workspaces. It keeps at most a fixed number of them
// and drops one that has not been touched for the idle TTL. A dropped workspace
// is reopened from its transcript by the next Create.
type Registry struct {
	gw  Gateway
	log chat.Log
	l   *slog.Logger

	maxLive int
	idleTTL time.Duration

	mu         sync.Mutex
	workspaces *expirable.LRU[string, *Workspace]
}

const (
	DefaultMaxLive = 1000
	DefaultIdleTTL = 30 * time.Minute
)

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithMaxLive caps the number of live workspaces. Values below 1 keep the default.
func WithMaxLive(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.maxLive = n
		}
	}
}

// WithIdleTTL sets how long an untouched workspace stays live. Values below or
// equal to zero keep the default.
func WithIdleTTL(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.idleTTL = d
		}
	}
}

// NewRegistry returns an empty registry. transcripts may be nil.
func NewRegistry(gw Gateway, transcripts chat.Log, opts ...RegistryOption) *Registry {
	r := &Registry{
		gw:      gw,
		log:     transcripts,
		l:       logger.For("workspace"),
		maxLive: DefaultMaxLive,
		idleTTL: DefaultIdleTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.workspaces = expirable.NewLRU[string, *Workspace](r.maxLive, r.evicted, r.idleTTL)
	return r
}

func (r *Registry) evicted(id string, _ *Workspace) {
	r.l.Info("workspace evicted", "id", id)
}

// Create opens a workspace. An empty id allocates a new one. A known id
// returns the live workspace, and an id that is not live is reopened with its
// logged chat transcript.
func (r *Registry) Create(ctx context.Context, id string) (*Workspace, error) {
	if id == "" {
		id = uuid.NewString()
	} else if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.workspaces.Get(id); ok {
		r.workspaces.Add(id, w)
		return w, nil
	}
	w := newWorkspace(ctx, id, r.gw, r.log)
	r.workspaces.Add(id, w)
	r.l.Info("workspace opened", "id", id, "restored", len(w.Chat.Messages())-1)
	return w, nil
}

// Get returns a live workspace and resets its idle timer.
func (r *Registry) Get(id string) (*Workspace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workspaces.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWorkspace, id)
	}
	// Get alone does not extend the expiry; re-adding does.
	r.workspaces.Add(id, w)
	return w, nil
}

// Len reports the number of live workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.workspaces.Len()
}
