package amqp

import (
	"encoding/json"
	"time"
)

// ImportCompletedMessage announces the outcome of one import run. It only
// carries the tallies; consumers read the records from the store.
type ImportCompletedMessage struct {
	ImportID               string    `json:"importId"`
	Format                 string    `json:"format"`
	TransactionsImported   int       `json:"transactionsImported"`
	CategoriesImported     int       `json:"categoriesImported"`
	CategoriesSkipped      int       `json:"categoriesSkipped"`
	UnresolvedCategoryRefs int       `json:"unresolvedCategoryRefs"`
	ErrorCount             int       `json:"errorCount"`
	Timestamp              time.Time `json:"timestamp"`
}

func NewImportCompletedMessage(importID, format string) *ImportCompletedMessage {
	return &ImportCompletedMessage{
		ImportID:  importID,
		Format:    format,
		Timestamp: time.Now(),
	}
}

func (m *ImportCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ImportCompletedMessageFromJSON(data []byte) (*ImportCompletedMessage, error) {
	var msg ImportCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
