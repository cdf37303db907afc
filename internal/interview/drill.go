// Package interview runs mock interview drills: fetch a question set, collect
// one answer per question, then score the submission.
package interview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/qmuntal/stateless"

	"github.com/disha-ai/disha/internal/career"
	"github.com/disha-ai/disha/internal/logger"
)

// State is a drill lifecycle state.
type State string

const (
	StateIdle       State = "Idle"
	StateInProgress State = "InProgress"
	StateSubmitted  State = "Submitted"
)

// Trigger moves a drill between states.
type Trigger string

const (
	TriggerQuestionsLoaded Trigger = "QuestionsLoaded"
	TriggerSubmit          Trigger = "Submit"
	TriggerReset           Trigger = "Reset"
)

const (
	FetchFailedText = "Failed to generate interview questions. Please try again."
	NoQuestionsText = "No questions were generated. Please try another topic."

	PerfectVerdict  = "Perfect Score! You are ready!"
	PracticeVerdict = "Keep practicing to improve your skills."
)

var (
	ErrBusy            = errors.New("interview: questions are already loading")
	ErrInvalidState    = errors.New("interview: action not allowed in current state")
	ErrMissingTopic    = errors.New("interview: topic is required")
	ErrInvalidLevel    = errors.New("interview: invalid level")
	ErrUnknownQuestion = errors.New("interview: unknown question")
	ErrInvalidOption   = errors.New("interview: option out of range")
)

// QuestionSource is the part of the gateway a drill uses.
type QuestionSource interface {
	GenerateInterviewQuestions(ctx context.Context, topic string, level career.Level, count int) ([]career.Question, error)
}

// Drill is one mock interview and its answer/scoring lifecycle.
type Drill struct {
	src QuestionSource
	log *slog.Logger

	mu        sync.Mutex
	fsm       *stateless.StateMachine
	loading   bool
	err       string
	topic     string
	level     career.Level
	questions []career.Question
	answers   map[int]int
}

// New returns an idle drill that fetches questions from src.
func New(src QuestionSource) *Drill {
	d := &Drill{
		src:     src,
		log:     logger.For("interview"),
		answers: map[int]int{},
	}

	d.fsm = stateless.NewStateMachine(StateIdle)

	// Idle: waiting for a question set. Reset discards the previous drill.
	d.fsm.Configure(StateIdle).
		OnEntryFrom(TriggerReset, func(_ context.Context, _ ...any) error {
			d.questions = nil
			d.answers = map[int]int{}
			d.topic = ""
			d.level = ""
			return nil
		}).
		Permit(TriggerQuestionsLoaded, StateInProgress)

	// InProgress: selections may be overwritten.
	d.fsm.Configure(StateInProgress).
		OnEntryFrom(TriggerQuestionsLoaded, func(_ context.Context, args ...any) error {
			qs, ok := args[0].([]career.Question)
			if !ok {
				return fmt.Errorf("interview: unexpected question payload %T", args[0])
			}
			d.questions = qs
			d.answers = map[int]int{}
			return nil
		}).
		Permit(TriggerSubmit, StateSubmitted)

	// Submitted: selections are frozen until reset.
	d.fsm.Configure(StateSubmitted).
		Permit(TriggerReset, StateIdle)

	return d
}

// State returns the current lifecycle state.
func (d *Drill) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state()
}

func (d *Drill) state() State {
	return d.fsm.MustState().(State)
}

// Start fetches a new question set. It is only allowed while idle. A failed
// or empty fetch keeps the drill idle and records an error message instead of
// returning one.
func (d *Drill) Start(ctx context.Context, topic string, level career.Level, count int) error {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return ErrMissingTopic
	}
	if _, err := career.ParseLevel(string(level)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}

	d.mu.Lock()
	if d.loading {
		d.mu.Unlock()
		return ErrBusy
	}
	if d.state() != StateIdle {
		d.mu.Unlock()
		return ErrInvalidState
	}
	d.loading = true
	d.err = ""
	d.mu.Unlock()

	qs, err := d.src.GenerateInterviewQuestions(ctx, topic, level, count)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.loading = false

	switch {
	case err != nil:
		d.log.Error("question fetch failed", "topic", topic, "error", err)
		d.err = FetchFailedText
		return nil
	case len(qs) == 0:
		d.err = NoQuestionsText
		return nil
	}

	if err := d.fsm.Fire(TriggerQuestionsLoaded, qs); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	d.topic = topic
	d.level = level
	return nil
}

// Select records option as the answer to questionID, replacing any earlier
// choice. After submission it does nothing.
func (d *Drill) Select(questionID, option int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state() {
	case StateSubmitted:
		return nil
	case StateIdle:
		return ErrInvalidState
	}

	q, ok := d.find(questionID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownQuestion, questionID)
	}
	if option < 0 || option >= len(q.Options) {
		return fmt.Errorf("%w: %d of %d", ErrInvalidOption, option, len(q.Options))
	}
	d.answers[questionID] = option
	return nil
}

// Submit locks the answers. It cannot be undone.
func (d *Drill) Submit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fire(TriggerSubmit)
}

// Reset discards a submitted drill so a new one can start.
func (d *Drill) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fire(TriggerReset)
}

func (d *Drill) fire(t Trigger) error {
	if ok, _ := d.fsm.CanFire(t); !ok {
		return fmt.Errorf("%w: %s from %s", ErrInvalidState, t, d.state())
	}
	return d.fsm.Fire(t)
}

func (d *Drill) find(id int) (career.Question, bool) {
	for _, q := range d.questions {
		if q.ID == id {
			return q, true
		}
	}
	return career.Question{}, false
}

// Score counts questions whose recorded answer equals the answer key.
func (d *Drill) Score() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.score()
}

func (d *Drill) score() int {
	score := 0
	for _, q := range d.questions {
		if sel, ok := d.answers[q.ID]; ok && sel == q.CorrectAnswerIndex {
			score++
		}
	}
	return score
}
