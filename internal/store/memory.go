package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/feral-file/ff-sovereignty/internal/domain"
	"github.com/feral-file/ff-sovereignty/internal/store/schema"
)

// memoryStore is an in-process Store used for local runs and tests.
// A single mutex serialises writes so every operation is atomic; the version
// checks behave exactly like the PostgreSQL implementation.
type memoryStore struct {
	mu          sync.RWMutex
	territories map[string]domain.Territory
	auctions    map[string]domain.Auction
	bids        map[string][]domain.Bid
	refunds     map[string]domain.Refund
	changes     []schema.ChangesJournal
	cursor      int64
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() Store {
	return &memoryStore{
		territories: make(map[string]domain.Territory),
		auctions:    make(map[string]domain.Auction),
		bids:        make(map[string][]domain.Bid),
		refunds:     make(map[string]domain.Refund),
	}
}

func (s *memoryStore) GetTerritory(_ context.Context, id string) (*domain.Territory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.territories[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (s *memoryStore) ListTerritories(_ context.Context, filter TerritoryQueryFilter) ([]domain.Territory, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]domain.Territory, 0, len(s.territories))
	for _, t := range s.territories {
		if filter.RulerID != nil && (t.RulerID == nil || *t.RulerID != *filter.RulerID) {
			continue
		}
		if filter.Sovereignty != nil && t.Sovereignty != *filter.Sovereignty {
			continue
		}
		matched = append(matched, t)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	return page(matched, filter.Limit, filter.Offset), uint64(len(matched)), nil
}

func (s *memoryStore) SeedTerritories(_ context.Context, inputs []SeedTerritoryInput) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	inserted := 0
	for _, in := range inputs {
		if _, exists := s.territories[in.ID]; exists {
			continue
		}
		s.territories[in.ID] = domain.Territory{
			ID:          in.ID,
			Name:        in.Name,
			Sovereignty: domain.SovereigntyUnconquered,
			BasePrice:   in.BasePrice,
			Version:     1,
			UpdatedAt:   now,
		}
		inserted++
	}
	return inserted, nil
}

func (s *memoryStore) TransferOwnership(_ context.Context, input TransferOwnershipInput) (*domain.Territory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.territories[input.TerritoryID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if current.Version != input.ExpectedVersion {
		return nil, domain.ErrConflict
	}

	next := current
	next.TransferTo(input.NewRulerID, input.SettlementPrice, input.Protection, input.Now)
	if err := s.journalLocked(territoryJournal(schema.ChangeKindOwnershipChanged, current, next, nil)); err != nil {
		return nil, err
	}
	s.territories[next.ID] = next

	return &next, nil
}

func (s *memoryStore) ExpireProtection(_ context.Context, input ExpireProtectionInput) (*domain.Territory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.territories[input.TerritoryID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if current.Version != input.ExpectedVersion {
		return nil, domain.ErrConflict
	}

	next := current
	if err := next.ExpireProtection(input.Now); err != nil {
		return nil, err
	}
	if err := s.journalLocked(territoryJournal(schema.ChangeKindProtectionExpired, current, next, nil)); err != nil {
		return nil, err
	}
	s.territories[next.ID] = next

	return &next, nil
}

func (s *memoryStore) ListExpiredProtections(_ context.Context, now time.Time, limit int) ([]domain.Territory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expired := make([]domain.Territory, 0)
	for _, t := range s.territories {
		if t.IsProtectionLapsed(now) {
			expired = append(expired, t)
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		return expired[i].ProtectionEndsAt.Before(*expired[j].ProtectionEndsAt)
	})

	return page(expired, limit, 0), nil
}

func (s *memoryStore) CreateAuction(_ context.Context, input CreateAuctionInput) (*domain.Auction, *domain.Territory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	auction := input.Auction
	current, ok := s.territories[auction.TerritoryID]
	if !ok {
		return nil, nil, domain.ErrNotFound
	}
	if current.CurrentAuctionID != nil || s.hasActiveAuctionLocked(auction.TerritoryID) {
		return nil, nil, domain.ErrAlreadyActive
	}
	if current.Version != input.ExpectedTerritoryVersion {
		return nil, nil, domain.ErrConflict
	}
	if _, exists := s.auctions[auction.ID]; exists {
		return nil, nil, fmt.Errorf("failed to create auction: duplicate id %s", auction.ID)
	}

	next := current
	next.OpenAuction(auction.ID, auction.CreatedAt)
	if err := s.journalLocked(auctionJournal(schema.ChangeKindAuctionOpened, auction, nil)); err != nil {
		return nil, nil, err
	}
	s.auctions[auction.ID] = auction
	s.territories[next.ID] = next

	return &auction, &next, nil
}

func (s *memoryStore) GetAuction(_ context.Context, id string) (*domain.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.auctions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (s *memoryStore) GetActiveAuctionByTerritory(_ context.Context, territoryID string) (*domain.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.auctions {
		if a.TerritoryID == territoryID && a.Status == domain.AuctionStatusActive {
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memoryStore) ListExpiredAuctions(_ context.Context, now time.Time, limit int) ([]domain.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expired := make([]domain.Auction, 0)
	for _, a := range s.auctions {
		if a.IsExpiredAt(now) {
			expired = append(expired, a)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].EndTime.Before(expired[j].EndTime) })

	return page(expired, limit, 0), nil
}

func (s *memoryStore) RecordBid(_ context.Context, input RecordBidInput) (*domain.Auction, *domain.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.auctions[input.AuctionID]
	if !ok {
		return nil, nil, domain.ErrNotFound
	}
	if current.Version != input.ExpectedVersion || current.Status != domain.AuctionStatusActive {
		return nil, nil, domain.ErrConflict
	}

	next := current
	bid := next.AcceptBid(input.BidID, input.BidderID, input.Amount, input.AcceptedAt)
	if err := s.journalLocked(auctionJournal(schema.ChangeKindBidAccepted, next, &bid)); err != nil {
		return nil, nil, err
	}
	s.auctions[next.ID] = next
	s.bids[next.ID] = append(s.bids[next.ID], bid)
	s.insertRefundLocked(input.Refund)

	return &next, &bid, nil
}

func (s *memoryStore) CloseAuction(_ context.Context, input CloseAuctionInput) (*domain.Auction, *domain.Territory, error) {
	if !input.Status.IsTerminal() {
		return nil, nil, fmt.Errorf("invalid closing status: %s", input.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.auctions[input.AuctionID]
	if !ok {
		return nil, nil, domain.ErrNotFound
	}
	if current.Version != input.ExpectedVersion || current.Status != domain.AuctionStatusActive {
		return nil, nil, domain.ErrConflict
	}
	territory, ok := s.territories[current.TerritoryID]
	if !ok {
		return nil, nil, domain.ErrNotFound
	}

	closed := current
	closed.Close(input.Status, input.Reason, input.Now)
	kind := schema.ChangeKindAuctionEnded
	if input.Status == domain.AuctionStatusCancelled {
		kind = schema.ChangeKindAuctionCancelled
	}
	auctionEntry, err := auctionJournal(kind, closed, nil)
	if err != nil {
		return nil, nil, err
	}

	next, changeKind, changed := applyAuctionOutcome(territory, closed.ID, input)
	if changed {
		territoryEntry, err := territoryJournal(changeKind, territory, next, &closed.ID)
		if err != nil {
			return nil, nil, err
		}
		s.appendJournalLocked(auctionEntry)
		s.appendJournalLocked(territoryEntry)
		s.territories[next.ID] = next
	} else {
		s.appendJournalLocked(auctionEntry)
	}
	s.auctions[closed.ID] = closed
	s.insertRefundLocked(input.Refund)

	return &closed, &next, nil
}

func (s *memoryStore) ListBids(_ context.Context, auctionID string, limit int, offset uint64) ([]domain.Bid, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.bids[auctionID]
	newestFirst := make([]domain.Bid, len(all))
	for i, b := range all {
		newestFirst[len(all)-1-i] = b
	}

	return page(newestFirst, limit, offset), uint64(len(all)), nil
}

func (s *memoryStore) EnqueueRefund(_ context.Context, refund domain.Refund) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.insertRefundLocked(&refund)
	return nil
}

func (s *memoryStore) ClaimDueRefunds(_ context.Context, input ClaimRefundsInput) ([]domain.Refund, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	due := make([]domain.Refund, 0)
	for _, r := range s.refunds {
		if r.IsDueAt(input.Now) {
			due = append(due, r)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].NextAttemptAt.Before(due[j].NextAttemptAt) })
	due = page(due, input.Limit, 0)

	leasedUntil := input.Now.Add(input.Lease)
	for i := range due {
		due[i].NextAttemptAt = leasedUntil
		s.refunds[due[i].Reference] = due[i]
	}
	return due, nil
}

func (s *memoryStore) SettleRefund(_ context.Context, reference string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.refunds[reference]
	if !ok {
		return domain.ErrNotFound
	}
	if r.IsSettled() {
		return nil
	}
	r.Settle(now)
	s.refunds[reference] = r
	return nil
}

func (s *memoryStore) DeferRefund(_ context.Context, input DeferRefundInput) (*domain.Refund, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.refunds[input.Reference]
	if !ok || r.IsSettled() {
		return nil, domain.ErrNotFound
	}
	r.Defer(input.Cause, input.NextAttemptAt)
	s.refunds[input.Reference] = r
	return &r, nil
}

func (s *memoryStore) GetChanges(_ context.Context, filter ChangesQueryFilter) ([]schema.ChangesJournal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	changes := make([]schema.ChangesJournal, 0)
	for _, c := range s.changes {
		if uint64(c.Cursor) <= filter.Since { //nolint:gosec,G115
			continue
		}
		if filter.SubjectType != nil && c.SubjectType != *filter.SubjectType {
			continue
		}
		if filter.SubjectID != nil && c.SubjectID != *filter.SubjectID {
			continue
		}
		changes = append(changes, c)
		if filter.Limit > 0 && len(changes) == filter.Limit {
			break
		}
	}
	return changes, nil
}

func (s *memoryStore) hasActiveAuctionLocked(territoryID string) bool {
	for _, a := range s.auctions {
		if a.TerritoryID == territoryID && a.Status == domain.AuctionStatusActive {
			return true
		}
	}
	return false
}

func (s *memoryStore) insertRefundLocked(refund *domain.Refund) {
	if refund == nil {
		return
	}
	if _, exists := s.refunds[refund.Reference]; exists {
		return
	}
	s.refunds[refund.Reference] = *refund
}

func (s *memoryStore) journalLocked(entry schema.ChangesJournal, err error) error {
	if err != nil {
		return err
	}
	s.appendJournalLocked(entry)
	return nil
}

func (s *memoryStore) appendJournalLocked(entry schema.ChangesJournal) {
	s.cursor++
	entry.Cursor = s.cursor
	s.changes = append(s.changes, entry)
}

// page applies limit/offset to an already ordered slice; a non-positive limit returns everything after offset
func page[T any](items []T, limit int, offset uint64) []T {
	if offset >= uint64(len(items)) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
