// Package career holds the data model shared by the gateway and the feature panels.
package career

import (
	"fmt"
	"time"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is a single chat transcript entry.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// RoadmapStep is one phase of a generated career roadmap.
type RoadmapStep struct {
	Phase       string   `json:"phase"`
	Title       string   `json:"title"`
	Duration    string   `json:"duration"`
	Description string   `json:"description"`
	Skills      []string `json:"skills"`
	Tools       []string `json:"tools"`
}

// Question is a multiple-choice interview question.
type Question struct {
	ID                 int      `json:"id"`
	Question           string   `json:"question"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
	Explanation        string   `json:"explanation"`
}

// Level is a difficulty tier used by interviews and courses.
type Level string

const (
	Beginner     Level = "Beginner"
	Intermediate Level = "Intermediate"
	Advanced     Level = "Advanced"
)

// Levels lists the valid levels in ascending order.
var Levels = []Level{Beginner, Intermediate, Advanced}

// ParseLevel validates s as a Level.
func ParseLevel(s string) (Level, error) {
	for _, l := range Levels {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown level %q", s)
}

// CourseRecommendation is a single recommended course.
type CourseRecommendation struct {
	Title    string `json:"title"`
	Platform string `json:"platform"`
	Level    Level  `json:"level"`
	Duration string `json:"duration"`
	IsFree   bool   `json:"isFree"`
	Reason   string `json:"reason"`
}

// Improvement is a suggested rewrite of part of a resume.
type Improvement struct {
	Original   string `json:"original"`
	Suggestion string `json:"suggestion"`
	Reason     string `json:"reason"`
}

// ResumeAnalysis is the model's assessment of a resume for a target role.
type ResumeAnalysis struct {
	Summary      string        `json:"summary"`
	Score        int           `json:"score"`
	Strengths    []string      `json:"strengths"`
	Weaknesses   []string      `json:"weaknesses"`
	Improvements []Improvement `json:"improvements"`
}

// ScoreBand buckets a resume score for the radial indicator.
type ScoreBand string

const (
	BandGood ScoreBand = "good"
	BandFair ScoreBand = "fair"
	BandPoor ScoreBand = "poor"
)

// Band returns the indicator bucket for the analysis score.
func (a ResumeAnalysis) Band() ScoreBand {
	switch {
	case a.Score > 70:
		return BandGood
	case a.Score > 40:
		return BandFair
	default:
		return BandPoor
	}
}
