package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"mcqgen/models"
	"mcqgen/services/docindex"
	"mcqgen/services/mcq"
	"mcqgen/services/oracle"
	"mcqgen/services/quizsession"
)

// ErrNoSession reports an operation that needs a processed document before a
// session exists.
var ErrNoSession = errors.New("no active session: upload a document first")

// OracleFactory builds an answering oracle bound to a freshly indexed
// document.
type OracleFactory func(index *docindex.Index) (oracle.Oracle, error)

// SessionService owns the single active quiz session: the document index
// handle, the oracle bound to it, and the session state machine. One session
// exists at a time; uploading a new document tears the previous one down.
type SessionService struct {
	mu            sync.Mutex
	docindex      *docindex.Service
	oracleFactory OracleFactory
	resultService *ResultService

	index    *docindex.Index
	oracle   oracle.Oracle
	session  *quizsession.Session
	archived bool
}

func NewSessionService(docindexService *docindex.Service, factory OracleFactory, resultService *ResultService) *SessionService {
	return &SessionService{
		docindex:      docindexService,
		oracleFactory: factory,
		resultService: resultService,
	}
}

// ProcessDocument indexes an uploaded PDF and resets the session around it.
// Any previous session and its vectors are discarded first.
func (s *SessionService) ProcessDocument(ctx context.Context, r io.ReaderAt, size int64) (*docindex.Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log.Printf("[INFO] Processing uploaded document (%d bytes)", size)

	s.teardownLocked(ctx)

	index, err := s.docindex.BuildIndex(ctx, r, size)
	if err != nil {
		log.Printf("[ERROR] Failed to build document index: %v", err)
		return nil, err
	}

	boundOracle, err := s.oracleFactory(index)
	if err != nil {
		log.Printf("[ERROR] Failed to create oracle: %v", err)
		if deleteErr := s.docindex.DeleteIndex(ctx, index); deleteErr != nil {
			log.Printf("[WARN] Failed to delete index after oracle failure: %v", deleteErr)
		}
		return nil, fmt.Errorf("failed to create oracle: %w", err)
	}

	s.index = index
	s.oracle = boundOracle
	s.session = quizsession.New()
	s.archived = false

	log.Printf("[INFO] Document processed successfully, session ready")
	return index, nil
}

// GenerateQuiz synthesizes the question batch and starts the session. On any
// failure the session stays idle and no questions are committed.
func (s *SessionService) GenerateQuiz(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return 0, ErrNoSession
	}

	synthesizer := mcq.NewService(s.oracle)
	questions, err := synthesizer.SynthesizeQuiz(ctx, mcq.DefaultQuestionCount)
	if err != nil {
		return 0, err
	}

	if err := s.session.Start(questions); err != nil {
		return 0, err
	}

	log.Printf("[INFO] Quiz started with %d questions", len(questions))
	return len(questions), nil
}

func (s *SessionService) CurrentQuestion() (*models.QuestionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, ErrNoSession
	}

	idx, question, err := s.session.Current()
	if err != nil {
		return nil, err
	}

	return &models.QuestionView{
		Number:  idx + 1,
		Total:   s.session.Total(),
		Prompt:  question.Prompt,
		Options: question.Options,
	}, nil
}

func (s *SessionService) SubmitAnswer(selected string) (*models.SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, ErrNoSession
	}

	return s.session.Submit(selected)
}

// Advance moves to the next question and reports whether the session is now
// complete.
func (s *SessionService) Advance() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return false, ErrNoSession
	}

	if err := s.session.Advance(); err != nil {
		return false, err
	}

	return s.session.State() == quizsession.StateCompleted, nil
}

// Summary returns the final score breakdown and archives it once when a
// result store is configured. Archiving failures are logged, not surfaced:
// the user still gets their summary.
func (s *SessionService) Summary() (*models.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, ErrNoSession
	}

	summary, err := s.session.Summary()
	if err != nil {
		return nil, err
	}

	if s.resultService != nil && !s.archived {
		if _, err := s.resultService.ArchiveSummary(summary); err != nil {
			log.Printf("[ERROR] Failed to archive quiz result: %v", err)
		} else {
			s.archived = true
		}
	}

	return summary, nil
}

// Teardown discards the active session and deletes its index vectors.
func (s *SessionService) Teardown(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.teardownLocked(ctx)
}

func (s *SessionService) teardownLocked(ctx context.Context) {
	if s.index != nil {
		if err := s.docindex.DeleteIndex(ctx, s.index); err != nil {
			log.Printf("[WARN] Failed to delete index vectors for namespace %s: %v", s.index.Namespace, err)
		}
	}

	s.index = nil
	s.oracle = nil
	s.session = nil
	s.archived = false
}
