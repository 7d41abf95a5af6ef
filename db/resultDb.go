package db

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"mcqgen/models"

	_ "github.com/lib/pq"
)

type ResultRepository interface {
	CreateResult(result *models.QuizResult) error
	GetAllResults() ([]*models.QuizResult, error)
	Close() error
}

type PostgresResultRepository struct {
	db *sql.DB
}

func NewPostgresResultRepository(databaseURL string) (*PostgresResultRepository, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresResultRepository{db: db}, nil
}

func (r *PostgresResultRepository) CreateResult(result *models.QuizResult) error {
	reviewJSON, err := json.Marshal(result.Review)
	if err != nil {
		return fmt.Errorf("failed to marshal review: %w", err)
	}

	query := `
		INSERT INTO quiz_results (score, total, percentage, review)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	row := r.db.QueryRow(query, result.Score, result.Total, result.Percentage, reviewJSON)

	if err := row.Scan(&result.ID, &result.CreatedAt); err != nil {
		return fmt.Errorf("failed to create result: %w", err)
	}

	return nil
}

func (r *PostgresResultRepository) GetAllResults() ([]*models.QuizResult, error) {
	query := `
		SELECT id, score, total, percentage, review, created_at
		FROM quiz_results
		ORDER BY created_at DESC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	results := make([]*models.QuizResult, 0)
	for rows.Next() {
		result := &models.QuizResult{}
		var reviewJSON []byte
		err := rows.Scan(&result.ID, &result.Score, &result.Total, &result.Percentage, &reviewJSON, &result.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}

		if err := json.Unmarshal(reviewJSON, &result.Review); err != nil {
			return nil, fmt.Errorf("failed to unmarshal review: %w", err)
		}

		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over results: %w", err)
	}

	return results, nil
}

func (r *PostgresResultRepository) Close() error {
	return r.db.Close()
}
