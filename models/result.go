package models

import "time"

type QuizResult struct {
	ID         int          `json:"id" db:"id"`
	Score      int          `json:"score" db:"score"`
	Total      int          `json:"total" db:"total"`
	Percentage float64      `json:"percentage" db:"percentage"`
	Review     []ReviewItem `json:"review" db:"review"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
}
