package quizsession

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"mcqgen/models"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
)

// ErrInvalidState reports a session transition invoked out of order. It is
// always a caller bug, never a user-facing condition.
var ErrInvalidState = errors.New("invalid session state")

type State int

const (
	StateIdle State = iota
	StateInProgress
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInProgress:
		return "in_progress"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

const (
	optionsPerQuestion = 4

	// Max Levenshtein distance for flagging a wrong answer as a near miss.
	// Feedback only; scoring stays exact-match.
	nearMissDistance = 2
)

// Session walks a fixed batch of questions from start to summary. The
// position only moves forward, one step at a time, and each question is
// scored at most once.
type Session struct {
	state     State
	questions []models.Question
	current   int
	score     int
	scored    []bool
}

func New() *Session {
	return &Session{state: StateIdle}
}

func (s *Session) State() State {
	return s.state
}

func (s *Session) Total() int {
	return len(s.questions)
}

// Start moves an idle session into progress. The batch is validated up
// front; a malformed question leaves the session untouched.
func (s *Session) Start(questions []models.Question) error {
	if s.state != StateIdle {
		return fmt.Errorf("%w: session is already %s", ErrInvalidState, s.state)
	}

	if len(questions) == 0 {
		return fmt.Errorf("at least one question is required")
	}

	for i, q := range questions {
		if err := validateQuestion(q); err != nil {
			return fmt.Errorf("question %d is malformed: %w", i+1, err)
		}
	}

	s.questions = questions
	s.current = 0
	s.score = 0
	s.scored = make([]bool, len(questions))
	s.state = StateInProgress
	return nil
}

// Current returns the zero-based position and the question at it.
func (s *Session) Current() (int, models.Question, error) {
	if s.state != StateInProgress {
		return 0, models.Question{}, fmt.Errorf("%w: no current question while session is %s", ErrInvalidState, s.state)
	}
	return s.current, s.questions[s.current], nil
}

// Submit compares the selection against the current question's correct
// answer. Only the first submission per question counts toward the score;
// repeats still report correctness.
func (s *Session) Submit(selected string) (*models.SubmitResult, error) {
	if s.state != StateInProgress {
		return nil, fmt.Errorf("%w: cannot submit while session is %s", ErrInvalidState, s.state)
	}

	question := s.questions[s.current]
	correct := selected == question.CorrectAnswer

	result := &models.SubmitResult{
		Correct:       correct,
		AlreadyScored: s.scored[s.current],
	}

	if !correct {
		result.CorrectAnswer = question.CorrectAnswer
		if selected != "" && fuzzy.LevenshteinDistance(selected, question.CorrectAnswer) <= nearMissDistance {
			result.NearMiss = true
		}
	}

	if !s.scored[s.current] {
		if correct {
			s.score++
		}
		s.scored[s.current] = true
	}

	return result, nil
}

// Advance moves to the next question; reaching the end completes the session.
func (s *Session) Advance() error {
	if s.state != StateInProgress {
		return fmt.Errorf("%w: cannot advance while session is %s", ErrInvalidState, s.state)
	}

	s.current++
	if s.current == len(s.questions) {
		s.state = StateCompleted
	}
	return nil
}

// Summary is only available once every question has been passed.
func (s *Session) Summary() (*models.Summary, error) {
	if s.state != StateCompleted {
		return nil, fmt.Errorf("%w: summary requires a completed session, session is %s", ErrInvalidState, s.state)
	}

	review := lo.Map(s.questions, func(q models.Question, _ int) models.ReviewItem {
		return models.ReviewItem{Prompt: q.Prompt, CorrectAnswer: q.CorrectAnswer}
	})

	total := len(s.questions)
	percentage := math.Round(float64(s.score)/float64(total)*10000) / 100

	return &models.Summary{
		Score:      s.score,
		Total:      total,
		Percentage: percentage,
		Review:     review,
	}, nil
}

func validateQuestion(q models.Question) error {
	if strings.TrimSpace(q.Prompt) == "" {
		return fmt.Errorf("prompt is empty")
	}

	if len(q.Options) != optionsPerQuestion {
		return fmt.Errorf("expected %d options, got %d", optionsPerQuestion, len(q.Options))
	}

	for i, option := range q.Options {
		if strings.TrimSpace(option) == "" {
			return fmt.Errorf("option %d is empty", i+1)
		}
	}

	if len(lo.Uniq(q.Options)) != len(q.Options) {
		return fmt.Errorf("options contain duplicates")
	}

	if count := lo.Count(q.Options, q.CorrectAnswer); count != 1 {
		return fmt.Errorf("correct answer must appear exactly once in options, found %d", count)
	}

	return nil
}
