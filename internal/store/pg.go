package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/feral-file/ff-sovereignty/internal/domain"
	"github.com/feral-file/ff-sovereignty/internal/logger"
	"github.com/feral-file/ff-sovereignty/internal/store/schema"
)

// journalLockKey is the advisory lock that orders changes journal appends
const journalLockKey int64 = 0x736f7672 // "sovr"

type pgStore struct {
	db *gorm.DB
}

// GormConfig returns the gorm configuration every PostgreSQL store must be opened with.
// TranslateError maps driver errors onto gorm sentinels such as gorm.ErrDuplicatedKey.
func GormConfig(gormLogger gormlogger.Interface) *gorm.Config {
	cfg := &gorm.Config{TranslateError: true}
	if gormLogger != nil {
		cfg.Logger = gormLogger
	}
	return cfg
}

// OpenPostgres opens a gorm connection configured for NewPGStore
func OpenPostgres(dsn string, gormLogger gormlogger.Interface) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), GormConfig(gormLogger))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// NewPGStore creates a new PostgreSQL store instance.
// The gorm.DB must be opened with GormConfig so unique violations surface as gorm.ErrDuplicatedKey.
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// It accesses the underlying *sql.DB and sets the pool configuration.
// If any of the pool settings are 0 or empty, reasonable defaults are used:
//   - MaxOpenConns: 20 (if 0)
//   - MaxIdleConns: 5 (if 0)
//   - ConnMaxLifetime: 5 minutes (if 0)
//   - ConnMaxIdleTime: 10 minutes (if 0)
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Notes:
//   - database/sql treats MaxOpenConns=0 as "unlimited"
//   - database/sql treats MaxIdleConns=0 as "no idle connections"
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// calculateSafeBatchSize computes the batch size for bulk inserts that stays under
// PostgreSQL's limit of 65535 parameters per statement.
func calculateSafeBatchSize(totalRecords int, fieldsPerRecord int) int {
	const maxParams = 65535
	const totalHeadroom = 1000

	availableParams := maxParams - totalHeadroom
	safeBatchSize := max(availableParams/fieldsPerRecord, 1)

	if safeBatchSize > totalRecords {
		return totalRecords
	}

	return safeBatchSize
}

// GetTerritory retrieves a territory by ID
func (s *pgStore) GetTerritory(ctx context.Context, id string) (*domain.Territory, error) {
	var row schema.Territory
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get territory: %w", err)
	}

	t := territoryToDomain(row)
	return &t, nil
}

// ListTerritories lists territories matching the filter
func (s *pgStore) ListTerritories(ctx context.Context, filter TerritoryQueryFilter) ([]domain.Territory, uint64, error) {
	query := s.db.WithContext(ctx).Model(&schema.Territory{})
	if filter.RulerID != nil {
		query = query.Where("ruler_id = ?", *filter.RulerID)
	}
	if filter.Sovereignty != nil {
		query = query.Where("sovereignty = ?", string(*filter.Sovereignty))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count territories: %w", err)
	}

	var rows []schema.Territory
	err := query.Order("id ASC").
		Limit(limitOrAll(filter.Limit)).
		Offset(int(filter.Offset)). //nolint:gosec,G115
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list territories: %w", err)
	}

	territories := make([]domain.Territory, 0, len(rows))
	for _, row := range rows {
		territories = append(territories, territoryToDomain(row))
	}

	return territories, uint64(total), nil //nolint:gosec,G115
}

// SeedTerritories inserts catalogue entries that do not exist yet
func (s *pgStore) SeedTerritories(ctx context.Context, inputs []SeedTerritoryInput) (int, error) {
	if len(inputs) == 0 {
		return 0, nil
	}

	rows := make([]schema.Territory, 0, len(inputs))
	for _, in := range inputs {
		rows = append(rows, schema.Territory{
			ID:          in.ID,
			Name:        in.Name,
			Sovereignty: schema.SovereigntyUnconquered,
			BasePrice:   in.BasePrice,
			Version:     1,
		})
	}

	// id, name, sovereignty, base_price, version, created_at, updated_at
	batchSize := calculateSafeBatchSize(len(rows), 7)
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		CreateInBatches(&rows, batchSize)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to seed territories: %w", result.Error)
	}

	return int(result.RowsAffected), nil
}

// TransferOwnership atomically hands the territory to a new ruler if the version still matches
func (s *pgStore) TransferOwnership(ctx context.Context, input TransferOwnershipInput) (*domain.Territory, error) {
	var out domain.Territory
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.loadTerritory(tx, input.TerritoryID, false)
		if err != nil {
			return err
		}
		if current.Version != input.ExpectedVersion {
			return domain.ErrConflict
		}

		next := current
		next.TransferTo(input.NewRulerID, input.SettlementPrice, input.Protection, input.Now)
		entry, err := territoryJournal(schema.ChangeKindOwnershipChanged, current, next, nil)
		if err != nil {
			return err
		}
		if err := s.updateTerritory(tx, next, input.ExpectedVersion); err != nil {
			return err
		}
		if err := s.appendJournal(tx, entry); err != nil {
			return err
		}

		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &out, nil
}

// ExpireProtection demotes a lapsed protection if the version still matches
func (s *pgStore) ExpireProtection(ctx context.Context, input ExpireProtectionInput) (*domain.Territory, error) {
	var out domain.Territory
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.loadTerritory(tx, input.TerritoryID, false)
		if err != nil {
			return err
		}
		if current.Version != input.ExpectedVersion {
			return domain.ErrConflict
		}

		next := current
		if err := next.ExpireProtection(input.Now); err != nil {
			return err
		}
		entry, err := territoryJournal(schema.ChangeKindProtectionExpired, current, next, nil)
		if err != nil {
			return err
		}
		if err := s.updateTerritory(tx, next, input.ExpectedVersion); err != nil {
			return err
		}
		if err := s.appendJournal(tx, entry); err != nil {
			return err
		}

		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &out, nil
}

// ListExpiredProtections lists protected territories whose deadline has passed
func (s *pgStore) ListExpiredProtections(ctx context.Context, now time.Time, limit int) ([]domain.Territory, error) {
	var rows []schema.Territory
	err := s.db.WithContext(ctx).
		Where("sovereignty = ? AND protection_ends_at <= ?", schema.SovereigntyProtected, now).
		Order("protection_ends_at ASC").
		Limit(limitOrAll(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list expired protections: %w", err)
	}

	territories := make([]domain.Territory, 0, len(rows))
	for _, row := range rows {
		territories = append(territories, territoryToDomain(row))
	}
	return territories, nil
}

// CreateAuction opens an auction and marks the territory in one transaction.
// Two openers racing past the current_auction_id check meet on the partial
// unique index; the loser gets gorm.ErrDuplicatedKey and reports AlreadyActive.
func (s *pgStore) CreateAuction(ctx context.Context, input CreateAuctionInput) (*domain.Auction, *domain.Territory, error) {
	var outAuction domain.Auction
	var outTerritory domain.Territory
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.loadTerritory(tx, input.Auction.TerritoryID, false)
		if err != nil {
			return err
		}
		if current.CurrentAuctionID != nil {
			return domain.ErrAlreadyActive
		}
		if current.Version != input.ExpectedTerritoryVersion {
			return domain.ErrConflict
		}

		auction := input.Auction
		row := auctionFromDomain(auction)
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrAlreadyActive
			}
			return fmt.Errorf("failed to create auction: %w", err)
		}

		next := current
		next.OpenAuction(auction.ID, auction.CreatedAt)
		entry, err := auctionJournal(schema.ChangeKindAuctionOpened, auction, nil)
		if err != nil {
			return err
		}
		if err := s.updateTerritory(tx, next, input.ExpectedTerritoryVersion); err != nil {
			return err
		}
		if err := s.appendJournal(tx, entry); err != nil {
			return err
		}

		outAuction = auction
		outTerritory = next
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return &outAuction, &outTerritory, nil
}

// GetAuction retrieves an auction by ID
func (s *pgStore) GetAuction(ctx context.Context, id string) (*domain.Auction, error) {
	var row schema.Auction
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get auction: %w", err)
	}

	a := auctionToDomain(row)
	return &a, nil
}

// GetActiveAuctionByTerritory retrieves the active auction of a territory
func (s *pgStore) GetActiveAuctionByTerritory(ctx context.Context, territoryID string) (*domain.Auction, error) {
	var row schema.Auction
	err := s.db.WithContext(ctx).
		Where("territory_id = ? AND status = ?", territoryID, schema.AuctionStatusActive).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get active auction: %w", err)
	}

	a := auctionToDomain(row)
	return &a, nil
}

// ListExpiredAuctions lists active auctions whose end time has passed
func (s *pgStore) ListExpiredAuctions(ctx context.Context, now time.Time, limit int) ([]domain.Auction, error) {
	var rows []schema.Auction
	err := s.db.WithContext(ctx).
		Where("status = ? AND end_time <= ?", schema.AuctionStatusActive, now).
		Order("end_time ASC").
		Limit(limitOrAll(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list expired auctions: %w", err)
	}

	auctions := make([]domain.Auction, 0, len(rows))
	for _, row := range rows {
		auctions = append(auctions, auctionToDomain(row))
	}
	return auctions, nil
}

// RecordBid applies an admitted bid if the auction version still matches.
// The refund of the outbid leader is recorded in the same transaction.
func (s *pgStore) RecordBid(ctx context.Context, input RecordBidInput) (*domain.Auction, *domain.Bid, error) {
	var outAuction domain.Auction
	var outBid domain.Bid
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.loadAuction(tx, input.AuctionID, false)
		if err != nil {
			return err
		}
		if current.Version != input.ExpectedVersion || current.Status != domain.AuctionStatusActive {
			return domain.ErrConflict
		}

		next := current
		bid := next.AcceptBid(input.BidID, input.BidderID, input.Amount, input.AcceptedAt)
		entry, err := auctionJournal(schema.ChangeKindBidAccepted, next, &bid)
		if err != nil {
			return err
		}
		if err := s.updateAuction(tx, next, input.ExpectedVersion); err != nil {
			return err
		}

		row := bidFromDomain(bid)
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return fmt.Errorf("failed to create bid: %w", err)
		}
		if err := s.insertRefund(tx, input.Refund); err != nil {
			return err
		}
		if err := s.appendJournal(tx, entry); err != nil {
			return err
		}

		outAuction = next
		outBid = bid
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return &outAuction, &outBid, nil
}

// CloseAuction ends or cancels an auction and transfers or releases the territory in one transaction
func (s *pgStore) CloseAuction(ctx context.Context, input CloseAuctionInput) (*domain.Auction, *domain.Territory, error) {
	if !input.Status.IsTerminal() {
		return nil, nil, fmt.Errorf("invalid closing status: %s", input.Status)
	}

	var outAuction domain.Auction
	var outTerritory domain.Territory
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.loadAuction(tx, input.AuctionID, true)
		if err != nil {
			return err
		}
		if current.Version != input.ExpectedVersion || current.Status != domain.AuctionStatusActive {
			return domain.ErrConflict
		}

		closed := current
		closed.Close(input.Status, input.Reason, input.Now)
		if err := s.updateAuction(tx, closed, input.ExpectedVersion); err != nil {
			return err
		}

		kind := schema.ChangeKindAuctionEnded
		if input.Status == domain.AuctionStatusCancelled {
			kind = schema.ChangeKindAuctionCancelled
		}
		auctionEntry, err := auctionJournal(kind, closed, nil)
		if err != nil {
			return err
		}
		entries := []schema.ChangesJournal{auctionEntry}

		// The auction row won the race; lock the territory to apply the outcome
		territory, err := s.loadTerritory(tx, closed.TerritoryID, true)
		if err != nil {
			return err
		}
		next, changeKind, changed := applyAuctionOutcome(territory, closed.ID, input)
		if changed {
			if err := s.updateTerritory(tx, next, territory.Version); err != nil {
				return err
			}
			territoryEntry, err := territoryJournal(changeKind, territory, next, &closed.ID)
			if err != nil {
				return err
			}
			entries = append(entries, territoryEntry)
		} else {
			logger.WarnCtx(ctx, "Territory no longer references the closed auction",
				zap.String("territoryID", territory.ID),
				zap.String("auctionID", closed.ID))
		}

		if err := s.insertRefund(tx, input.Refund); err != nil {
			return err
		}
		if err := s.appendJournal(tx, entries...); err != nil {
			return err
		}

		outAuction = closed
		outTerritory = next
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return &outAuction, &outTerritory, nil
}

// applyAuctionOutcome computes the territory after an auction closes.
// The territory is left untouched when it does not reference the auction.
func applyAuctionOutcome(territory domain.Territory, auctionID string, input CloseAuctionInput) (domain.Territory, schema.ChangeKind, bool) {
	if territory.CurrentAuctionID == nil || *territory.CurrentAuctionID != auctionID {
		return territory, "", false
	}

	next := territory
	if input.Transfer != nil {
		next.TransferTo(input.Transfer.NewRulerID, input.Transfer.SettlementPrice, input.Transfer.Protection, input.Now)
		return next, schema.ChangeKindOwnershipChanged, true
	}

	next.Release(input.Now)
	return next, schema.ChangeKindTerritoryReleased, true
}

// ListBids lists the bids of an auction, newest first
func (s *pgStore) ListBids(ctx context.Context, auctionID string, limit int, offset uint64) ([]domain.Bid, uint64, error) {
	query := s.db.WithContext(ctx).Model(&schema.Bid{}).Where("auction_id = ?", auctionID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bids: %w", err)
	}

	var rows []schema.Bid
	err := query.Order("accepted_at DESC, amount DESC").
		Limit(limitOrAll(limit)).
		Offset(int(offset)). //nolint:gosec,G115
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bids: %w", err)
	}

	bids := make([]domain.Bid, 0, len(rows))
	for _, row := range rows {
		bids = append(bids, bidToDomain(row))
	}
	return bids, uint64(total), nil //nolint:gosec,G115
}

// EnqueueRefund records a refund outside of an auction write
func (s *pgStore) EnqueueRefund(ctx context.Context, refund domain.Refund) error {
	return s.insertRefund(s.db.WithContext(ctx), &refund)
}

// ClaimDueRefunds leases due refunds. Rows locked by another sweeper are
// skipped, and the lease keeps them out of the next listing until it lapses.
func (s *pgStore) ClaimDueRefunds(ctx context.Context, input ClaimRefundsInput) ([]domain.Refund, error) {
	var refunds []domain.Refund
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []schema.PendingRefund
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("settled_at IS NULL AND next_attempt_at <= ?", input.Now).
			Order("next_attempt_at ASC").
			Limit(limitOrAll(input.Limit)).
			Find(&rows).Error
		if err != nil {
			return fmt.Errorf("failed to list due refunds: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}

		references := make([]string, len(rows))
		for i, row := range rows {
			references[i] = row.Reference
		}
		leasedUntil := input.Now.Add(input.Lease)
		err = tx.Model(&schema.PendingRefund{}).
			Where("reference IN ?", references).
			Update("next_attempt_at", leasedUntil).Error
		if err != nil {
			return fmt.Errorf("failed to lease refunds: %w", err)
		}

		refunds = make([]domain.Refund, len(rows))
		for i, row := range rows {
			refunds[i] = refundToDomain(row)
			refunds[i].NextAttemptAt = leasedUntil.UTC()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return refunds, nil
}

// SettleRefund marks a refund as credited
func (s *pgStore) SettleRefund(ctx context.Context, reference string, now time.Time) error {
	result := s.db.WithContext(ctx).Model(&schema.PendingRefund{}).
		Where("reference = ? AND settled_at IS NULL", reference).
		Updates(map[string]interface{}{
			"settled_at": now,
			"last_error": nil,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to settle refund: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// Nothing updated: either already settled or unknown
	var count int64
	if err := s.db.WithContext(ctx).Model(&schema.PendingRefund{}).Where("reference = ?", reference).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to get refund: %w", err)
	}
	if count == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeferRefund records a failed credit attempt and schedules the next one
func (s *pgStore) DeferRefund(ctx context.Context, input DeferRefundInput) (*domain.Refund, error) {
	var row schema.PendingRefund
	result := s.db.WithContext(ctx).Model(&row).
		Clauses(clause.Returning{}).
		Where("reference = ? AND settled_at IS NULL", input.Reference).
		Updates(map[string]interface{}{
			"attempts":        gorm.Expr("attempts + 1"),
			"last_error":      input.Cause,
			"next_attempt_at": input.NextAttemptAt,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to defer refund: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrNotFound
	}

	refund := refundToDomain(row)
	return &refund, nil
}

// GetChanges retrieves journal entries after the given cursor.
// Journal rows are appended under journalLockKey as the last step of each
// transaction, so cursors become visible in commit order and a client paging
// from the highest cursor it has seen never skips a later commit.
func (s *pgStore) GetChanges(ctx context.Context, filter ChangesQueryFilter) ([]schema.ChangesJournal, error) {
	query := s.db.WithContext(ctx).Where("\"cursor\" > ?", filter.Since)
	if filter.SubjectType != nil {
		query = query.Where("subject_type = ?", string(*filter.SubjectType))
	}
	if filter.SubjectID != nil {
		query = query.Where("subject_id = ?", *filter.SubjectID)
	}

	var changes []schema.ChangesJournal
	err := query.Order("\"cursor\" ASC").Limit(limitOrAll(filter.Limit)).Find(&changes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get changes: %w", err)
	}
	return changes, nil
}

// loadTerritory reads a territory inside a transaction, optionally locking the row
func (s *pgStore) loadTerritory(tx *gorm.DB, id string, lock bool) (domain.Territory, error) {
	query := tx
	if lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var row schema.Territory
	if err := query.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Territory{}, domain.ErrNotFound
		}
		return domain.Territory{}, fmt.Errorf("failed to get territory: %w", err)
	}
	return territoryToDomain(row), nil
}

// loadAuction reads an auction inside a transaction, optionally locking the row
func (s *pgStore) loadAuction(tx *gorm.DB, id string, lock bool) (domain.Auction, error) {
	query := tx
	if lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var row schema.Auction
	if err := query.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Auction{}, domain.ErrNotFound
		}
		return domain.Auction{}, fmt.Errorf("failed to get auction: %w", err)
	}
	return auctionToDomain(row), nil
}

// updateTerritory writes the territory only if the stored version is still the expected one
func (s *pgStore) updateTerritory(tx *gorm.DB, t domain.Territory, expectedVersion int64) error {
	result := tx.Model(&schema.Territory{}).
		Where("id = ? AND version = ?", t.ID, expectedVersion).
		Updates(territoryColumns(t))
	if result.Error != nil {
		return fmt.Errorf("failed to update territory: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

// updateAuction writes the auction only if the stored version is still the expected one
func (s *pgStore) updateAuction(tx *gorm.DB, a domain.Auction, expectedVersion int64) error {
	result := tx.Model(&schema.Auction{}).
		Where("id = ? AND version = ?", a.ID, expectedVersion).
		Updates(auctionColumns(a))
	if result.Error != nil {
		return fmt.Errorf("failed to update auction: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

// appendJournal writes the journal entries of a transaction. It must be the
// last write before commit: the advisory lock is held until the transaction
// ends, so cursors are allocated in the order their transactions commit.
func (s *pgStore) appendJournal(tx *gorm.DB, entries ...schema.ChangesJournal) error {
	if len(entries) == 0 {
		return nil
	}
	if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", journalLockKey).Error; err != nil {
		return fmt.Errorf("failed to lock changes journal: %w", err)
	}
	if err := tx.Create(&entries).Error; err != nil {
		return fmt.Errorf("failed to create changes journal: %w", err)
	}
	return nil
}

// insertRefund records a pending refund inside a write transaction.
// A reference already recorded is left untouched.
func (s *pgStore) insertRefund(tx *gorm.DB, refund *domain.Refund) error {
	if refund == nil {
		return nil
	}
	row := refundFromDomain(*refund)
	err := tx.Omit(clause.Associations).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "reference"}}, DoNothing: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to record refund: %w", err)
	}
	return nil
}

// limitOrAll maps a non-positive limit to gorm's "no limit"
func limitOrAll(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
