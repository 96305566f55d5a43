package domain

import "time"

// Question is a saved answer: the question text, the generated answer, and
// the file references that grounded it, captured at answer time. Insert-only.
type Question struct {
	ID         string          `json:"id"          db:"id"`
	ProjectID  string          `json:"project_id"  db:"project_id"`
	AccountID  string          `json:"account_id"  db:"account_id"`
	Question   string          `json:"question"    db:"question"`
	Answer     string          `json:"answer"      db:"answer"`
	References []FileReference `json:"references"  db:"references"`
	CreatedAt  time.Time       `json:"created_at"  db:"created_at"`
}
