package interview

import "github.com/disha-ai/disha/internal/career"

// Review is the graded view of one question after submission.
type Review struct {
	Question career.Question `json:"question"`
	Selected *int            `json:"selected"`
	Correct  bool            `json:"correct"`
}

// Result is the outcome of a submitted drill.
type Result struct {
	Score   int      `json:"score"`
	Total   int      `json:"total"`
	Perfect bool     `json:"perfect"`
	Verdict string   `json:"verdict"`
	Review  []Review `json:"review"`
}

// Result grades the submission. It is only available once submitted.
func (d *Drill) Result() (Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state() != StateSubmitted {
		return Result{}, ErrInvalidState
	}
	return d.result(), nil
}

func (d *Drill) result() Result {
	r := Result{
		Score:  d.score(),
		Total:  len(d.questions),
		Review: make([]Review, 0, len(d.questions)),
	}
	r.Perfect = r.Score == r.Total
	r.Verdict = PracticeVerdict
	if r.Perfect {
		r.Verdict = PerfectVerdict
	}
	for _, q := range d.questions {
		rv := Review{Question: q}
		if sel, ok := d.answers[q.ID]; ok {
			rv.Selected = &sel
			rv.Correct = sel == q.CorrectAnswerIndex
		}
		r.Review = append(r.Review, rv)
	}
	return r
}

// QuestionView is a question as shown while answering. The answer key and
// explanation stay hidden until the drill is submitted.
type QuestionView struct {
	ID                 int      `json:"id"`
	Question           string   `json:"question"`
	Options            []string `json:"options"`
	Selected           *int     `json:"selected"`
	CorrectAnswerIndex *int     `json:"correctAnswerIndex,omitempty"`
	Explanation        string   `json:"explanation,omitempty"`
}

// Snapshot is a point-in-time copy of a drill.
type Snapshot struct {
	State     State          `json:"state"`
	Loading   bool           `json:"loading"`
	Error     string         `json:"error,omitempty"`
	Topic     string         `json:"topic,omitempty"`
	Level     career.Level   `json:"level,omitempty"`
	Answered  int            `json:"answered"`
	Questions []QuestionView `json:"questions"`
	Result    *Result        `json:"result,omitempty"`
}

// Snapshot copies the drill state.
func (d *Drill) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	st := d.state()
	s := Snapshot{
		State:     st,
		Loading:   d.loading,
		Error:     d.err,
		Topic:     d.topic,
		Level:     d.level,
		Answered:  len(d.answers),
		Questions: make([]QuestionView, 0, len(d.questions)),
	}
	for _, q := range d.questions {
		v := QuestionView{
			ID:       q.ID,
			Question: q.Question,
			Options:  append([]string(nil), q.Options...),
		}
		if sel, ok := d.answers[q.ID]; ok {
			v.Selected = &sel
		}
		if st == StateSubmitted {
			idx := q.CorrectAnswerIndex
			v.CorrectAnswerIndex = &idx
			v.Explanation = q.Explanation
		}
		s.Questions = append(s.Questions, v)
	}
	if st == StateSubmitted {
		r := d.result()
		s.Result = &r
	}
	return s
}
