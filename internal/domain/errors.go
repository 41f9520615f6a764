package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a territory or auction does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a versioned write lost against a concurrent writer
	ErrConflict = errors.New("version conflict")

	// ErrTooLow is returned when a bid is below the minimum next bid
	ErrTooLow = errors.New("bid too low")

	// ErrAuctionNotActive is returned when an auction no longer accepts bids
	ErrAuctionNotActive = errors.New("auction not active")

	// ErrAlreadyActive is returned when a territory already has an active auction
	ErrAlreadyActive = errors.New("auction already active")

	// ErrInsufficientFunds is returned when the wallet balance cannot cover the amount
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrRateLimited is returned when the caller exceeded its admission rate
	ErrRateLimited = errors.New("rate limited")

	// ErrStaleState is returned when the caller acted on an outdated snapshot
	ErrStaleState = errors.New("stale state")

	// ErrExternalService is returned when a collaborator (wallet, etc.) failed or timed out
	ErrExternalService = errors.New("external service error")

	// ErrNoOp is returned when a transition does not apply to the current state
	ErrNoOp = errors.New("no-op")

	// ErrProtected is returned when protection blocks an instant purchase
	ErrProtected = errors.New("territory protected")

	// ErrForbidden is returned when the caller may not perform the action
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidRequest is returned when the request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request")
)

// Code is a stable machine-readable rejection code
type Code string

const (
	CodeNotFound          Code = "NOT_FOUND"
	CodeConflict          Code = "CONFLICT"
	CodeTooLow            Code = "TOO_LOW"
	CodeAuctionNotActive  Code = "AUCTION_NOT_ACTIVE"
	CodeAlreadyActive     Code = "ALREADY_ACTIVE"
	CodeInsufficientFunds Code = "INSUFFICIENT_FUNDS"
	CodeRateLimited       Code = "RATE_LIMITED"
	CodeStaleState        Code = "STALE_STATE"
	CodeExternalService   Code = "EXTERNAL_SERVICE_ERROR"
	CodeProtected         Code = "PROTECTED"
	CodeForbidden         Code = "FORBIDDEN"
	CodeInvalidRequest    Code = "INVALID_REQUEST"
)

var codeSentinels = map[Code]error{
	CodeNotFound:          ErrNotFound,
	CodeConflict:          ErrConflict,
	CodeTooLow:            ErrTooLow,
	CodeAuctionNotActive:  ErrAuctionNotActive,
	CodeAlreadyActive:     ErrAlreadyActive,
	CodeInsufficientFunds: ErrInsufficientFunds,
	CodeRateLimited:       ErrRateLimited,
	CodeStaleState:        ErrStaleState,
	CodeExternalService:   ErrExternalService,
	CodeProtected:         ErrProtected,
	CodeForbidden:         ErrForbidden,
	CodeInvalidRequest:    ErrInvalidRequest,
}

// Rejection is a structured error returned to callers of the engine.
// It unwraps to the sentinel of its code so errors.Is works on it.
type Rejection struct {
	Code       Code
	Message    string
	MinNextBid *int64
	Price      *int64
	Balance    *int64
	Status     *AuctionStatus
	Version    *int64
	RetryAfter *time.Duration
	Cause      error
}

func (r *Rejection) Error() string {
	msg := r.Message
	if msg == "" {
		msg = codeSentinels[r.Code].Error()
	}
	if r.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, r.Cause)
	}
	return msg
}

func (r *Rejection) Unwrap() []error {
	errs := []error{codeSentinels[r.Code]}
	if r.Cause != nil {
		errs = append(errs, r.Cause)
	}
	return errs
}

// AsRejection extracts a Rejection from an error chain
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

// NewNotFound creates a NotFound rejection for the given entity
func NewNotFound(entity, id string) *Rejection {
	return &Rejection{Code: CodeNotFound, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

// NewTooLow creates a TooLow rejection carrying the authoritative minimum next bid
func NewTooLow(minNextBid int64, version int64) *Rejection {
	return &Rejection{
		Code:       CodeTooLow,
		Message:    fmt.Sprintf("bid must be at least %d", minNextBid),
		MinNextBid: &minNextBid,
		Version:    &version,
	}
}

// NewAuctionNotActive creates an AuctionNotActive rejection carrying the current status
func NewAuctionNotActive(status AuctionStatus) *Rejection {
	return &Rejection{
		Code:    CodeAuctionNotActive,
		Message: fmt.Sprintf("auction is %s", status),
		Status:  &status,
	}
}

// NewAlreadyActive creates an AlreadyActive rejection
func NewAlreadyActive(territoryID string) *Rejection {
	return &Rejection{
		Code:    CodeAlreadyActive,
		Message: fmt.Sprintf("territory %s already has an active auction", territoryID),
	}
}

// NewInsufficientFunds creates an InsufficientFunds rejection carrying the observed balance
func NewInsufficientFunds(balance, required int64) *Rejection {
	return &Rejection{
		Code:    CodeInsufficientFunds,
		Message: fmt.Sprintf("balance %d is below required %d", balance, required),
		Balance: &balance,
	}
}

// NewRateLimited creates a RateLimited rejection with a retry hint
func NewRateLimited(retryAfter time.Duration) *Rejection {
	return &Rejection{
		Code:       CodeRateLimited,
		Message:    "too many requests",
		RetryAfter: &retryAfter,
	}
}

// NewStaleState creates a StaleState rejection carrying the authoritative version
func NewStaleState(version int64, minNextBid int64) *Rejection {
	return &Rejection{
		Code:       CodeStaleState,
		Message:    fmt.Sprintf("state changed, current version is %d", version),
		Version:    &version,
		MinNextBid: &minNextBid,
	}
}

// NewStalePrice creates a StaleState rejection carrying the current buy-now price
func NewStalePrice(version int64, price int64) *Rejection {
	return &Rejection{
		Code:    CodeStaleState,
		Message: fmt.Sprintf("territory changed, current price is %d", price),
		Version: &version,
		Price:   &price,
	}
}

// NewExternalServiceError wraps a collaborator failure
func NewExternalServiceError(service string, cause error) *Rejection {
	return &Rejection{
		Code:    CodeExternalService,
		Message: fmt.Sprintf("%s unavailable", service),
		Cause:   cause,
	}
}

// NewProtected creates a Protected rejection
func NewProtected(until time.Time) *Rejection {
	return &Rejection{
		Code:    CodeProtected,
		Message: fmt.Sprintf("territory is protected until %s", until.UTC().Format(time.RFC3339)),
	}
}

// NewForbidden creates a Forbidden rejection
func NewForbidden(message string) *Rejection {
	return &Rejection{Code: CodeForbidden, Message: message}
}

// NewInvalidRequest creates an InvalidRequest rejection
func NewInvalidRequest(message string) *Rejection {
	return &Rejection{Code: CodeInvalidRequest, Message: message}
}
