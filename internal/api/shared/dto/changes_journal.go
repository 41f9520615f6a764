package dto

import (
	"encoding/json"
	"time"

	"github.com/feral-file/ff-sovereignty/internal/store/schema"
)

// ChangeResponse represents a change journal entry
type ChangeResponse struct {
	Cursor      int64              `json:"cursor"`
	SubjectType schema.SubjectType `json:"subject_type"`
	SubjectID   string             `json:"subject_id"`
	Kind        schema.ChangeKind  `json:"kind"`
	Version     int64              `json:"version"`
	ChangedAt   time.Time          `json:"changed_at"`
	Meta        json.RawMessage    `json:"meta,omitempty"`
}

// ChangeListResponse represents a page of changes
type ChangeListResponse struct {
	Changes    []ChangeResponse `json:"items"`
	NextAnchor *uint64          `json:"next_anchor,omitempty"` // Cursor for the next page
}

// MapChangeToDTO maps a schema.ChangesJournal to ChangeResponse
func MapChangeToDTO(change *schema.ChangesJournal) *ChangeResponse {
	dto := &ChangeResponse{
		Cursor:      change.Cursor,
		SubjectType: change.SubjectType,
		SubjectID:   change.SubjectID,
		Kind:        change.Kind,
		Version:     change.Version,
		ChangedAt:   change.ChangedAt,
	}

	if change.Meta != nil {
		dto.Meta = json.RawMessage(change.Meta)
	}

	return dto
}
