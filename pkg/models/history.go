package models

import "time"

// HistoryEntry is one accepted generation kept in the history store.
type HistoryEntry struct {
	ID        int64     `json:"id"`
	Prompt    string    `json:"prompt"`
	Formula   string    `json:"formula"`
	Model     string    `json:"model"`
	Sheet     string    `json:"sheet,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
