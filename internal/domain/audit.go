package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the kind of deck mutation recorded in the audit log.
type AuditAction string

const (
	AuditActionSave    AuditAction = "SAVE"
	AuditActionDelete  AuditAction = "DELETE"
	AuditActionMigrate AuditAction = "MIGRATE"
)

func (a AuditAction) String() string { return string(a) }

func (a AuditAction) IsValid() bool {
	switch a {
	case AuditActionSave, AuditActionDelete, AuditActionMigrate:
		return true
	}
	return false
}

// AuditRecord logs one mutation of a deck. Term is empty for deck-level
// actions such as a legacy migration.
type AuditRecord struct {
	ID        uuid.UUID
	DeckID    string
	Action    AuditAction
	Term      string
	Changes   map[string]any
	CreatedAt time.Time
}

// NewAuditRecord returns a record with a fresh id and the current time.
func NewAuditRecord(deck DeckID, action AuditAction, term string, changes map[string]any) AuditRecord {
	return AuditRecord{
		ID:        uuid.New(),
		DeckID:    deck.Encode(),
		Action:    action,
		Term:      term,
		Changes:   changes,
		CreatedAt: time.Now().UTC(),
	}
}
