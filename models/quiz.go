package models

// Question is one multiple-choice question. Options always holds 4 distinct
// entries, exactly one of which equals CorrectAnswer.
type Question struct {
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

// QuestionView is the presentation form of a question; it never carries the
// correct answer.
type QuestionView struct {
	Number  int      `json:"number"`
	Total   int      `json:"total"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

type SubmitAnswerRequest struct {
	SelectedOption string `json:"selected_option"`
}

type SubmitResult struct {
	Correct       bool   `json:"correct"`
	AlreadyScored bool   `json:"already_scored"`
	NearMiss      bool   `json:"near_miss"`
	CorrectAnswer string `json:"correct_answer,omitempty"`
}

type ReviewItem struct {
	Prompt        string `json:"prompt"`
	CorrectAnswer string `json:"correct_answer"`
}

type Summary struct {
	Score      int          `json:"score"`
	Total      int          `json:"total"`
	Percentage float64      `json:"percentage"`
	Review     []ReviewItem `json:"review"`
}
