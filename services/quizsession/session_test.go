package quizsession

import (
	"errors"
	"testing"

	"mcqgen/models"
)

func fourQuestions() []models.Question {
	return []models.Question{
		{
			Prompt:        "What is the capital of France?",
			Options:       []string{"London", "Paris", "Berlin", "Madrid"},
			CorrectAnswer: "Paris",
		},
		{
			Prompt:        "Which river runs through Paris?",
			Options:       []string{"The Seine", "The Thames", "The Rhine", "The Danube"},
			CorrectAnswer: "The Seine",
		},
		{
			Prompt:        "What currency is used in France?",
			Options:       []string{"Franc", "Pound", "Euro", "Dollar"},
			CorrectAnswer: "Euro",
		},
		{
			Prompt:        "Which mountain range borders France and Spain?",
			Options:       []string{"The Alps", "The Pyrenees", "The Carpathians", "The Urals"},
			CorrectAnswer: "The Pyrenees",
		},
	}
}

func startedSession(t *testing.T) *Session {
	t.Helper()
	s := New()
	if err := s.Start(fourQuestions()); err != nil {
		t.Fatalf("Start() returned error: %v", err)
	}
	return s
}

func TestStartValidation(t *testing.T) {
	valid := fourQuestions()[0]

	tests := []struct {
		name     string
		mutate   func(q *models.Question)
		expectOK bool
	}{
		{
			name:     "well-formed question",
			mutate:   func(q *models.Question) {},
			expectOK: true,
		},
		{
			name:   "empty prompt",
			mutate: func(q *models.Question) { q.Prompt = "   " },
		},
		{
			name:   "three options",
			mutate: func(q *models.Question) { q.Options = q.Options[:3] },
		},
		{
			name:   "duplicate options",
			mutate: func(q *models.Question) { q.Options = []string{"Paris", "Paris", "Berlin", "Madrid"} },
		},
		{
			name:   "correct answer missing from options",
			mutate: func(q *models.Question) { q.CorrectAnswer = "Rome" },
		},
		{
			name:   "blank option",
			mutate: func(q *models.Question) { q.Options = []string{"Paris", " ", "Berlin", "Madrid"} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := valid
			q.Options = append([]string(nil), valid.Options...)
			tt.mutate(&q)

			err := New().Start([]models.Question{q})
			if tt.expectOK && err != nil {
				t.Errorf("Start() returned error for valid question: %v", err)
			}
			if !tt.expectOK && err == nil {
				t.Errorf("Start() accepted malformed question: %+v", q)
			}
		})
	}
}

func TestStartWhileInProgress(t *testing.T) {
	s := startedSession(t)
	if _, err := s.Submit("Paris"); err != nil {
		t.Fatalf("Submit() returned error: %v", err)
	}

	err := s.Start(fourQuestions())
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}

	// The running session must be untouched.
	idx, q, err := s.Current()
	if err != nil {
		t.Fatalf("Current() returned error: %v", err)
	}
	if idx != 0 || q.Prompt != "What is the capital of France?" {
		t.Errorf("session mutated by rejected Start(): index=%d prompt=%q", idx, q.Prompt)
	}
	if s.score != 1 {
		t.Errorf("score mutated by rejected Start(): got %d, want 1", s.score)
	}
}

func TestSubmitScoring(t *testing.T) {
	s := startedSession(t)

	result, err := s.Submit("Paris")
	if err != nil {
		t.Fatalf("Submit() returned error: %v", err)
	}
	if !result.Correct {
		t.Error("expected correct result for matching answer")
	}
	if s.score != 1 {
		t.Errorf("score = %d, want 1", s.score)
	}

	if err := s.Advance(); err != nil {
		t.Fatalf("Advance() returned error: %v", err)
	}

	result, err = s.Submit("The Thames")
	if err != nil {
		t.Fatalf("Submit() returned error: %v", err)
	}
	if result.Correct {
		t.Error("expected incorrect result for non-matching answer")
	}
	if result.CorrectAnswer != "The Seine" {
		t.Errorf("CorrectAnswer = %q, want %q", result.CorrectAnswer, "The Seine")
	}
	if s.score != 1 {
		t.Errorf("score = %d, want 1", s.score)
	}
}

func TestSubmitIsIdempotentForScoring(t *testing.T) {
	s := startedSession(t)

	if _, err := s.Submit("Paris"); err != nil {
		t.Fatalf("Submit() returned error: %v", err)
	}

	result, err := s.Submit("Paris")
	if err != nil {
		t.Fatalf("repeat Submit() returned error: %v", err)
	}
	if !result.Correct {
		t.Error("repeat submission should still report correctness")
	}
	if !result.AlreadyScored {
		t.Error("repeat submission should be flagged AlreadyScored")
	}
	if s.score != 1 {
		t.Errorf("score = %d after double submit, want 1", s.score)
	}
}

func TestFirstSubmissionDecidesScore(t *testing.T) {
	s := startedSession(t)

	if _, err := s.Submit("London"); err != nil {
		t.Fatalf("Submit() returned error: %v", err)
	}

	// A correct answer after a scored wrong one must not count.
	if _, err := s.Submit("Paris"); err != nil {
		t.Fatalf("Submit() returned error: %v", err)
	}
	if s.score != 0 {
		t.Errorf("score = %d, want 0", s.score)
	}
}

func TestAdvanceSequence(t *testing.T) {
	s := startedSession(t)

	for i := 0; i < 4; i++ {
		if s.State() != StateInProgress {
			t.Fatalf("state before advance %d = %s, want in_progress", i+1, s.State())
		}
		idx, _, err := s.Current()
		if err != nil {
			t.Fatalf("Current() returned error: %v", err)
		}
		if idx != i {
			t.Fatalf("current index = %d, want %d", idx, i)
		}
		if err := s.Advance(); err != nil {
			t.Fatalf("Advance() returned error: %v", err)
		}
	}

	if s.State() != StateCompleted {
		t.Fatalf("state after %d advances = %s, want completed", 4, s.State())
	}

	if err := s.Advance(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Advance() on completed session: expected ErrInvalidState, got %v", err)
	}
	if _, err := s.Submit("Paris"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Submit() on completed session: expected ErrInvalidState, got %v", err)
	}
}

func TestTransitionsBeforeStart(t *testing.T) {
	s := New()

	if _, err := s.Submit("Paris"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Submit() before Start(): expected ErrInvalidState, got %v", err)
	}
	if err := s.Advance(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Advance() before Start(): expected ErrInvalidState, got %v", err)
	}
	if _, _, err := s.Current(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Current() before Start(): expected ErrInvalidState, got %v", err)
	}
	if _, err := s.Summary(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Summary() before Start(): expected ErrInvalidState, got %v", err)
	}
}

func TestSummaryRequiresCompletion(t *testing.T) {
	s := startedSession(t)
	if _, err := s.Summary(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Summary() while in progress: expected ErrInvalidState, got %v", err)
	}
}

func TestSummaryScenario(t *testing.T) {
	s := startedSession(t)
	answers := []string{"Paris", "The Thames", "Euro", "The Urals"} // 2 right, 2 wrong

	for _, answer := range answers {
		if _, err := s.Submit(answer); err != nil {
			t.Fatalf("Submit(%q) returned error: %v", answer, err)
		}
		if err := s.Advance(); err != nil {
			t.Fatalf("Advance() returned error: %v", err)
		}
	}

	summary, err := s.Summary()
	if err != nil {
		t.Fatalf("Summary() returned error: %v", err)
	}

	if summary.Score != 2 || summary.Total != 4 {
		t.Errorf("score = %d/%d, want 2/4", summary.Score, summary.Total)
	}
	if summary.Percentage != 50.00 {
		t.Errorf("percentage = %v, want 50.00", summary.Percentage)
	}

	questions := fourQuestions()
	if len(summary.Review) != len(questions) {
		t.Fatalf("review has %d items, want %d", len(summary.Review), len(questions))
	}
	for i, item := range summary.Review {
		if item.Prompt != questions[i].Prompt {
			t.Errorf("review[%d].Prompt = %q, want %q", i, item.Prompt, questions[i].Prompt)
		}
		if item.CorrectAnswer != questions[i].CorrectAnswer {
			t.Errorf("review[%d].CorrectAnswer = %q, want %q", i, item.CorrectAnswer, questions[i].CorrectAnswer)
		}
	}
}

func TestSummaryPercentageExact(t *testing.T) {
	s := startedSession(t)
	answers := []string{"Paris", "The Seine", "Euro", "The Urals"} // 3 right, 1 wrong

	for _, answer := range answers {
		if _, err := s.Submit(answer); err != nil {
			t.Fatalf("Submit(%q) returned error: %v", answer, err)
		}
		if err := s.Advance(); err != nil {
			t.Fatalf("Advance() returned error: %v", err)
		}
	}

	summary, err := s.Summary()
	if err != nil {
		t.Fatalf("Summary() returned error: %v", err)
	}
	if summary.Percentage != 75.00 {
		t.Errorf("percentage = %v, want 75.00", summary.Percentage)
	}
}

func TestNearMissFeedback(t *testing.T) {
	s := startedSession(t)

	tests := []struct {
		name     string
		selected string
		nearMiss bool
	}{
		{name: "case slip", selected: "paris", nearMiss: true},
		{name: "unrelated option", selected: "London", nearMiss: false},
		{name: "empty selection", selected: "", nearMiss: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.Submit(tt.selected)
			if err != nil {
				t.Fatalf("Submit(%q) returned error: %v", tt.selected, err)
			}
			if result.Correct {
				t.Fatalf("Submit(%q) unexpectedly correct", tt.selected)
			}
			if result.NearMiss != tt.nearMiss {
				t.Errorf("NearMiss = %v, want %v", result.NearMiss, tt.nearMiss)
			}
		})
	}
}
