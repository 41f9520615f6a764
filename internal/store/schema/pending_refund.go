package schema

import (
	"time"
)

// RefundReason records why an escrow is being released
type RefundReason string

const (
	RefundReasonOutbid    RefundReason = "OUTBID"
	RefundReasonCancelled RefundReason = "CANCELLED"
	RefundReasonPreempted RefundReason = "PREEMPTED"
	RefundReasonAborted   RefundReason = "ABORTED"
)

// PendingRefund represents the pending_refunds table - escrow releases written in
// the transaction that decided them and credited by the refund sweeper
type PendingRefund struct {
	// Reference is the wallet idempotency key of the credit
	Reference string `gorm:"column:reference;primaryKey;type:text"`
	// UserID is the account the escrow is returned to
	UserID string `gorm:"column:user_id;not null;type:text"`
	// Amount is the escrowed amount
	Amount int64 `gorm:"column:amount;not null"`
	// AuctionID is the auction that held the escrow, if any
	AuctionID *string `gorm:"column:auction_id;type:text"`
	// Reason is OUTBID, CANCELLED, PREEMPTED or ABORTED
	Reason RefundReason `gorm:"column:reason;not null;type:text"`
	// Attempts counts failed credit attempts
	Attempts int `gorm:"column:attempts;not null;default:0"`
	// NextAttemptAt is the earliest time the sweeper retries the credit
	NextAttemptAt time.Time `gorm:"column:next_attempt_at;not null;type:timestamptz;index:idx_pending_refunds_due,where:settled_at IS NULL"`
	// LastError is the cause of the last failed attempt
	LastError *string `gorm:"column:last_error;type:text"`
	// CreatedAt is when the refund was recorded
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// SettledAt is when the wallet confirmed the credit
	SettledAt *time.Time `gorm:"column:settled_at;type:timestamptz"`
}

// TableName specifies the table name for the PendingRefund model
func (PendingRefund) TableName() string {
	return "pending_refunds"
}
