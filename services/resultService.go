package services

import (
	"fmt"
	"log"

	"mcqgen/db"
	"mcqgen/models"
)

type ResultService struct {
	repo db.ResultRepository
}

func NewResultService(repo db.ResultRepository) *ResultService {
	return &ResultService{repo: repo}
}

func (s *ResultService) ArchiveSummary(summary *models.Summary) (*models.QuizResult, error) {
	log.Printf("[INFO] Archiving quiz result: %d/%d (%.2f%%)", summary.Score, summary.Total, summary.Percentage)

	result := &models.QuizResult{
		Score:      summary.Score,
		Total:      summary.Total,
		Percentage: summary.Percentage,
		Review:     summary.Review,
	}

	if err := s.repo.CreateResult(result); err != nil {
		log.Printf("[ERROR] Failed to archive result in repository: %v", err)
		return nil, fmt.Errorf("failed to archive result: %w", err)
	}

	log.Printf("[INFO] Successfully archived quiz result with ID %d", result.ID)
	return result, nil
}

func (s *ResultService) GetAllResults() ([]*models.QuizResult, error) {
	log.Printf("[INFO] Starting get all results")

	results, err := s.repo.GetAllResults()
	if err != nil {
		log.Printf("[ERROR] Failed to get all results: %v", err)
		return nil, fmt.Errorf("failed to get results: %w", err)
	}

	log.Printf("[INFO] Successfully retrieved %d results", len(results))
	return results, nil
}
