package onboarding

import (
	"fmt"

	"github.com/okian/grove/internal/domain/growth"
)

// noSelection marks the absence of a highlighted option.
const noSelection = -1

// Session walks a user through the questionnaire. It is not safe for
// concurrent use; callers own a session for the duration of onboarding.
type Session struct {
	questions []Question
	current   int
	answers   []float64
	selected  int
}

// NewSession starts a session over the standard questionnaire.
func NewSession() *Session {
	return NewSessionWith(Questions())
}

// NewSessionWith starts a session over a custom question set.
func NewSessionWith(questions []Question) *Session {
	return &Session{questions: questions, selected: noSelection}
}

// Current returns the question at the cursor.
func (s *Session) Current() Question { return s.questions[s.current] }

// Index is the 0-based cursor position.
func (s *Session) Index() int { return s.current }

// Len is the number of questions in the session.
func (s *Session) Len() int { return len(s.questions) }

// IsLast reports whether the cursor sits on the final question.
func (s *Session) IsLast() bool { return s.current >= len(s.questions)-1 }

// Progress is the fraction of questions already passed, in [0,1).
func (s *Session) Progress() float64 {
	if len(s.questions) == 0 {
		return 0
	}
	return float64(s.current) / float64(len(s.questions))
}

// Selected returns the highlighted option index for the active question.
func (s *Session) Selected() (int, bool) {
	return s.selected, s.selected != noSelection
}

// Answered is the number of recorded answers.
func (s *Session) Answered() int { return len(s.answers) }

// Select records option's score for the current question, replacing any
// earlier answer, and highlights index.
func (s *Session) Select(option Option, index int) {
	s.selected = index
	if s.current < len(s.answers) {
		s.answers[s.current] = option.Score
		return
	}
	// Answers are recorded densely; a jump past unanswered questions appends
	// at the end rather than leaving holes.
	s.answers = append(s.answers, option.Score)
}

// SelectIndex picks option index of the current question.
func (s *Session) SelectIndex(index int) error {
	q := s.Current()
	if index < 0 || index >= len(q.Options) {
		return fmt.Errorf("%w: option %d of question %d", ErrOptionOutOfRange, index, s.current)
	}
	s.Select(q.Options[index], index)
	return nil
}

// Advance moves to the next question; it is a no-op on the last one.
func (s *Session) Advance() {
	if s.current < len(s.questions)-1 {
		s.current++
	}
}

// Retreat moves to the previous question and clears the highlight; it is a
// no-op on the first one.
func (s *Session) Retreat() {
	if s.current > 0 {
		s.current--
		s.selected = noSelection
	}
}

// Score is the arithmetic mean of recorded answers, or 0 with none.
func (s *Session) Score() float64 {
	return Mean(s.answers)
}

// Stage maps Score onto the onboarding bands.
func (s *Session) Stage() growth.Stage {
	return growth.ForScore(s.Score())
}

// Result summarises a finished questionnaire.
type Result struct {
	Score float64      `json:"score"`
	Stage growth.Stage `json:"stage"`
}

// Result returns the current score and stage.
func (s *Session) Result() Result {
	return Result{Score: s.Score(), Stage: s.Stage()}
}

// Mean averages scores, returning 0 for an empty slice.
func Mean(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, v := range scores {
		sum += v
	}
	return sum / float64(len(scores))
}

// Score runs a whole questionnaire from option indexes, one per question in
// order, and returns the result.
func Score(indexes []int) (Result, error) {
	s := NewSession()
	if len(indexes) != s.Len() {
		return Result{}, fmt.Errorf("%w: got %d answers for %d questions", ErrAnswerCount, len(indexes), s.Len())
	}
	for i, idx := range indexes {
		if err := s.SelectIndex(idx); err != nil {
			return Result{}, err
		}
		if i < len(indexes)-1 {
			s.Advance()
		}
	}
	return s.Result(), nil
}
