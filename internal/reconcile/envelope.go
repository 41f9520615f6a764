package reconcile

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/feral-file/ff-sovereignty/internal/adapter"
	"github.com/feral-file/ff-sovereignty/internal/domain"
)

// Envelope is the wire form of a delta
type Envelope struct {
	// EventID is a unique identifier for this event (ULID for time-sortable uniqueness)
	EventID     string          `json:"event_id"`
	Kind        Kind            `json:"kind"`
	EntityType  EntityType      `json:"entity_type"`
	ID          string          `json:"id"`
	TerritoryID string          `json:"territory_id"`
	Version     int64           `json:"version"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Payload     json.RawMessage `json:"payload"`
}

// Key identifies the entity the envelope describes
func (e Envelope) Key() string {
	return EntityKey(e.EntityType, e.ID)
}

// DedupeID is stable across redeliveries of the same committed version
func (e Envelope) DedupeID() string {
	return fmt.Sprintf("%s:%s:%d", e.EntityType, e.ID, e.Version)
}

// Subject is the NATS subject the envelope is published on
func (e Envelope) Subject(prefix string) string {
	return fmt.Sprintf("%s.%s.%s", prefix, e.EntityType, subjectToken(e.ID))
}

// EntityKey builds the cache key of an entity
func EntityKey(entityType EntityType, id string) string {
	return string(entityType) + ":" + id
}

var subjectReplacer = strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_")

func subjectToken(id string) string {
	return subjectReplacer.Replace(id)
}

// NewEnvelope wraps a delta for the wire
func NewEnvelope(d Delta, now time.Time, codec adapter.JSON) (Envelope, error) {
	payload, err := codec.Marshal(d)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal %s payload: %w", d.Kind(), err)
	}

	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to generate event id: %w", err)
	}

	return Envelope{
		EventID:     id.String(),
		Kind:        d.Kind(),
		EntityType:  d.EntityType(),
		ID:          d.EntityID(),
		TerritoryID: d.TerritoryID(),
		Version:     d.EntityVersion(),
		UpdatedAt:   d.EntityUpdatedAt(),
		Payload:     payload,
	}, nil
}

// Decode restores the typed delta carried by the envelope
func (e Envelope) Decode(codec adapter.JSON) (Delta, error) {
	switch e.Kind {
	case KindOwnershipChanged:
		var d OwnershipChanged
		if err := codec.Unmarshal(e.Payload, &d); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", e.Kind, err)
		}
		return d, nil
	case KindAuctionUpdated:
		var d AuctionUpdated
		if err := codec.Unmarshal(e.Payload, &d); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", e.Kind, err)
		}
		return d, nil
	case KindProtectionExpired:
		var d ProtectionExpired
		if err := codec.Unmarshal(e.Payload, &d); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", e.Kind, err)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unknown delta kind %q", e.Kind)
	}
}

// SnapshotEnvelope builds an envelope for an authoritative read. Reads carry no
// event id; they only take part in the last-writer-wins merge.
func SnapshotEnvelope(entityType EntityType, id, territoryID string, version int64, updatedAt time.Time) Envelope {
	return Envelope{
		EntityType:  entityType,
		ID:          id,
		TerritoryID: territoryID,
		Version:     version,
		UpdatedAt:   updatedAt,
	}
}

// TerritorySnapshot builds a snapshot envelope from a territory read
func TerritorySnapshot(t domain.Territory) Envelope {
	return SnapshotEnvelope(EntityTypeTerritory, t.ID, t.ID, t.Version, t.UpdatedAt)
}

// AuctionSnapshot builds a snapshot envelope from an auction read
func AuctionSnapshot(a domain.Auction) Envelope {
	return SnapshotEnvelope(EntityTypeAuction, a.ID, a.TerritoryID, a.Version, a.UpdatedAt)
}
