package mcq

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/samber/lo"
)

// scriptedOracle replays canned responses in order. Once the script runs out
// it keeps returning repeat, or fails the call when repeat is unset.
type scriptedOracle struct {
	responses []string
	repeat    string
	err       error
	calls     int
}

func (o *scriptedOracle) Answer(_ context.Context, prompt string) (string, error) {
	o.calls++
	if o.err != nil {
		return "", o.err
	}
	if len(o.responses) == 0 {
		if o.repeat != "" {
			return o.repeat, nil
		}
		return "", fmt.Errorf("scripted oracle exhausted after %d calls", o.calls)
	}
	next := o.responses[0]
	o.responses = o.responses[1:]
	return next, nil
}

func newTestService(o *scriptedOracle) *Service {
	s := NewService(o)
	s.rng = rand.New(rand.NewSource(1))
	return s
}

func TestSynthesizeQuizProducesWellFormedQuestions(t *testing.T) {
	oracle := &scriptedOracle{
		responses: []string{
			"What is the capital of France?", "Paris", "London", "Berlin", "Madrid",
			"Which river runs through Paris?", "The Seine", "The Thames", "The Rhine", "The Danube",
		},
	}

	questions, err := newTestService(oracle).SynthesizeQuiz(context.Background(), 2)
	if err != nil {
		t.Fatalf("SynthesizeQuiz() returned error: %v", err)
	}

	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}

	for i, q := range questions {
		if q.Prompt == "" {
			t.Errorf("question %d has empty prompt", i+1)
		}
		if len(q.Options) != 4 {
			t.Errorf("question %d has %d options, expected 4", i+1, len(q.Options))
		}
		if len(lo.Uniq(q.Options)) != len(q.Options) {
			t.Errorf("question %d has duplicate options: %v", i+1, q.Options)
		}
		if lo.Count(q.Options, q.CorrectAnswer) != 1 {
			t.Errorf("question %d: correct answer %q not present exactly once in %v", i+1, q.CorrectAnswer, q.Options)
		}
	}
}

func TestDuplicateDistractorRejected(t *testing.T) {
	// The oracle repeats the correct answer as its first distractor; the
	// synthesizer must discard it and ask again.
	oracle := &scriptedOracle{
		responses: []string{
			"What is the capital of France?", "Paris",
			"Paris", "London", "Berlin", "Madrid",
		},
	}

	questions, err := newTestService(oracle).SynthesizeQuiz(context.Background(), 1)
	if err != nil {
		t.Fatalf("SynthesizeQuiz() returned error: %v", err)
	}

	got := questions[0].Options
	want := []string{"Paris", "London", "Berlin", "Madrid"}
	for _, option := range want {
		if !lo.Contains(got, option) {
			t.Errorf("expected option %q in %v", option, got)
		}
	}
	if len(got) != 4 {
		t.Errorf("expected 4 options, got %d: %v", len(got), got)
	}

	// 1 question + 1 correct answer + 4 distractor requests (one rejected).
	if oracle.calls != 6 {
		t.Errorf("expected 6 oracle calls, got %d", oracle.calls)
	}
}

func TestEmptyDistractorRejected(t *testing.T) {
	oracle := &scriptedOracle{
		responses: []string{
			"What is the capital of France?", "Paris",
			"   ", "London", "Berlin", "Madrid",
		},
	}

	questions, err := newTestService(oracle).SynthesizeQuiz(context.Background(), 1)
	if err != nil {
		t.Fatalf("SynthesizeQuiz() returned error: %v", err)
	}

	if lo.Contains(questions[0].Options, "") || lo.Contains(questions[0].Options, "   ") {
		t.Errorf("blank option kept: %v", questions[0].Options)
	}
	if len(questions[0].Options) != 4 {
		t.Errorf("expected 4 options, got %v", questions[0].Options)
	}
}

func TestDistractorBudgetExhausted(t *testing.T) {
	// A degenerate oracle that always echoes the correct answer must not
	// loop forever.
	oracle := &scriptedOracle{
		responses: []string{"What is the capital of France?", "Paris"},
		repeat:    "Paris",
	}

	_, err := newTestService(oracle).SynthesizeQuiz(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %T: %v", err, err)
	}
	if genErr.Stage != "distractors" {
		t.Errorf("expected stage %q, got %q", "distractors", genErr.Stage)
	}
	if genErr.Attempts != maxDistractorAttempts {
		t.Errorf("expected %d attempts, got %d", maxDistractorAttempts, genErr.Attempts)
	}
}

func TestOracleFailureSurfacesGenerationError(t *testing.T) {
	oracleErr := errors.New("connection refused")
	oracle := &scriptedOracle{err: oracleErr}

	_, err := newTestService(oracle).SynthesizeQuiz(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %T: %v", err, err)
	}
	if genErr.Stage != "question" {
		t.Errorf("expected stage %q, got %q", "question", genErr.Stage)
	}
	if !errors.Is(err, oracleErr) {
		t.Errorf("expected wrapped oracle error, got %v", err)
	}

	if oracle.calls != maxFieldAttempts {
		t.Errorf("expected %d oracle calls, got %d", maxFieldAttempts, oracle.calls)
	}
}

func TestEmptyQuestionRetriedThenFails(t *testing.T) {
	oracle := &scriptedOracle{repeat: "  "}

	_, err := newTestService(oracle).SynthesizeQuiz(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %T: %v", err, err)
	}
	if genErr.Attempts != maxFieldAttempts {
		t.Errorf("expected %d attempts, got %d", maxFieldAttempts, genErr.Attempts)
	}
}
