package domain

import (
	"time"
)

// RefundReason records why an escrow is being released
type RefundReason string

const (
	// RefundReasonOutbid releases the escrow of a leader that was outbid
	RefundReasonOutbid RefundReason = "OUTBID"
	// RefundReasonCancelled releases the escrow of the leader of a cancelled auction
	RefundReasonCancelled RefundReason = "CANCELLED"
	// RefundReasonPreempted releases the escrow of the leader of an auction bought out
	RefundReasonPreempted RefundReason = "PREEMPTED"
	// RefundReasonAborted releases an escrow whose write never committed
	RefundReasonAborted RefundReason = "ABORTED"
)

// Refund is an escrow owed back to a user. It is recorded in the same
// transaction as the write that released the escrow and credited afterwards,
// so a wallet outage delays it but never loses it.
type Refund struct {
	// Reference is the wallet idempotency key; crediting it twice applies once
	Reference     string       `json:"reference"`
	UserID        string       `json:"user_id"`
	Amount        int64        `json:"amount"`
	AuctionID     *string      `json:"auction_id"`
	Reason        RefundReason `json:"reason"`
	Attempts      int          `json:"attempts"`
	NextAttemptAt time.Time    `json:"next_attempt_at"`
	LastError     *string      `json:"last_error"`
	CreatedAt     time.Time    `json:"created_at"`
	SettledAt     *time.Time   `json:"settled_at"`
}

// IsSettled reports whether the wallet confirmed the credit
func (r *Refund) IsSettled() bool {
	return r.SettledAt != nil
}

// IsDueAt reports whether a credit attempt should be made at the given time
func (r *Refund) IsDueAt(now time.Time) bool {
	return !r.IsSettled() && !r.NextAttemptAt.After(now)
}

// Settle marks the credit as applied
func (r *Refund) Settle(now time.Time) {
	settledAt := now
	r.SettledAt = &settledAt
	r.LastError = nil
}

// Defer records a failed credit attempt and schedules the next one
func (r *Refund) Defer(cause string, next time.Time) {
	r.Attempts++
	r.LastError = &cause
	r.NextAttemptAt = next
}
