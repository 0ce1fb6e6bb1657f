package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"bankena/internal/models"
)

// HistoryStore persists conversation transcripts, one per user, keyed the
// way the web client keyed its saved histories.
type HistoryStore struct {
	db *sql.DB
}

func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// HistoryKey returns the storage key for a username. Usernames are
// case-insensitive for history lookup.
func HistoryKey(username string) string {
	return "chatHistory_" + strings.ToLower(username)
}

// Save upserts the full transcript for the user.
func (s *HistoryStore) Save(username string, transcript []models.Message) error {
	payload, err := json.Marshal(transcript)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	_, err = s.db.Exec(
		`REPLACE INTO chat_history (storage_key, messages, updated_at) VALUES (?, ?, ?)`,
		HistoryKey(username), string(payload), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save chat history for %s: %w", username, err)
	}
	return nil
}

// Load returns the stored transcript for the user, or nil when the user has
// no saved history.
func (s *HistoryStore) Load(username string) ([]models.Message, error) {
	var payload string
	err := s.db.QueryRow(
		`SELECT messages FROM chat_history WHERE storage_key = ?`,
		HistoryKey(username),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load chat history for %s: %w", username, err)
	}

	var transcript []models.Message
	if err := json.Unmarshal([]byte(payload), &transcript); err != nil {
		return nil, fmt.Errorf("decode chat history for %s: %w", username, err)
	}
	return transcript, nil
}
