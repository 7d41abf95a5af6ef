package mcq

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"mcqgen/models"
	"mcqgen/services/oracle"

	"github.com/samber/lo"
)

const (
	DefaultQuestionCount = 4

	optionsPerQuestion = 4

	// Attempt budgets keep a degenerate oracle from hanging the session: the
	// source of truth may keep returning the same distractor or empty text
	// forever.
	maxFieldAttempts      = 3
	maxDistractorAttempts = 15

	questionPrompt      = "Create a multiple-choice question based on the document content. Provide only the question."
	correctAnswerPrompt = "Provide the correct answer for this question: %s. Provide only the correct answer."
	distractorPrompt    = "Provide a plausible but incorrect answer for this question: %s. Avoid repeating previous options."
)

// GenerationError reports that the oracle could not produce a well-formed
// question within the attempt budget.
type GenerationError struct {
	Stage    string
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("quiz generation failed at %s after %d attempts: %v", e.Stage, e.Attempts, e.Err)
	}
	return fmt.Sprintf("quiz generation failed at %s after %d attempts", e.Stage, e.Attempts)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Service turns an answering oracle into a batch of well-formed
// multiple-choice questions.
type Service struct {
	oracle oracle.Oracle
	rng    *rand.Rand
}

func NewService(o oracle.Oracle) *Service {
	return &Service{
		oracle: o,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SynthesizeQuiz produces exactly n questions, each with 4 distinct options
// in shuffled order. Either every question is produced or an error is
// returned and no partial batch escapes.
func (s *Service) SynthesizeQuiz(ctx context.Context, n int) ([]models.Question, error) {
	if n <= 0 {
		n = DefaultQuestionCount
	}

	log.Printf("[INFO] Starting quiz synthesis for %d questions", n)

	questions := make([]models.Question, 0, n)
	for i := 0; i < n; i++ {
		question, err := s.synthesizeQuestion(ctx)
		if err != nil {
			log.Printf("[ERROR] Failed to synthesize question %d/%d: %v", i+1, n, err)
			return nil, err
		}
		log.Printf("[INFO] Synthesized question %d/%d", i+1, n)
		questions = append(questions, *question)
	}

	log.Printf("[INFO] Successfully synthesized %d questions", len(questions))
	return questions, nil
}

func (s *Service) synthesizeQuestion(ctx context.Context) (*models.Question, error) {
	prompt, err := s.askNonEmpty(ctx, "question", questionPrompt)
	if err != nil {
		return nil, err
	}

	correct, err := s.askNonEmpty(ctx, "correct answer", fmt.Sprintf(correctAnswerPrompt, prompt))
	if err != nil {
		return nil, err
	}

	options := []string{correct}
	attempts := 0
	var lastErr error
	for len(options) < optionsPerQuestion {
		if attempts >= maxDistractorAttempts {
			return nil, &GenerationError{Stage: "distractors", Attempts: attempts, Err: lastErr}
		}
		attempts++

		distractor, err := s.oracle.Answer(ctx, fmt.Sprintf(distractorPrompt, prompt))
		if err != nil {
			lastErr = err
			log.Printf("[ERROR] Oracle call for distractor failed (attempt %d/%d): %v", attempts, maxDistractorAttempts, err)
			continue
		}

		distractor = strings.TrimSpace(distractor)
		if distractor == "" || lo.Contains(options, distractor) {
			continue
		}
		options = append(options, distractor)
	}

	s.rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	return &models.Question{
		Prompt:        prompt,
		Options:       options,
		CorrectAnswer: correct,
	}, nil
}

func (s *Service) askNonEmpty(ctx context.Context, stage, prompt string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxFieldAttempts; attempt++ {
		answer, err := s.oracle.Answer(ctx, prompt)
		if err != nil {
			lastErr = err
			log.Printf("[ERROR] Oracle call for %s failed (attempt %d/%d): %v", stage, attempt, maxFieldAttempts, err)
			continue
		}

		if answer = strings.TrimSpace(answer); answer != "" {
			return answer, nil
		}
		lastErr = fmt.Errorf("oracle returned an empty %s", stage)
	}

	return "", &GenerationError{Stage: stage, Attempts: maxFieldAttempts, Err: lastErr}
}
