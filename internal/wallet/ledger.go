package wallet

import (
	"context"
	"sync"

	"github.com/feral-file/ff-sovereignty/internal/domain"
)

// Ledger is an in-memory Wallet for local runs and tests.
// Unknown accounts start with the configured initial balance.
type Ledger struct {
	mu       sync.Mutex
	initial  int64
	balances map[string]int64
	applied  map[string]struct{}
}

// NewLedger creates an in-memory ledger
func NewLedger(initialBalance int64) *Ledger {
	return &Ledger{
		initial:  initialBalance,
		balances: make(map[string]int64),
		applied:  make(map[string]struct{}),
	}
}

// Deposit adds funds outside of any movement reference
func (l *Ledger) Deposit(userID string, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[userID] = l.balanceLocked(userID) + amount
}

func (l *Ledger) GetBalance(_ context.Context, userID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceLocked(userID), nil
}

func (l *Ledger) Debit(ctx context.Context, userID string, amount int64, reference string) error {
	if err := ctx.Err(); err != nil {
		return domain.NewExternalServiceError(serviceName, err)
	}
	if amount <= 0 {
		return domain.NewInvalidRequest("debit amount must be positive")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.applied[reference]; ok {
		return nil
	}
	balance := l.balanceLocked(userID)
	if balance < amount {
		return domain.NewInsufficientFunds(balance, amount)
	}
	l.balances[userID] = balance - amount
	l.applied[reference] = struct{}{}
	return nil
}

func (l *Ledger) Credit(ctx context.Context, userID string, amount int64, reference string) error {
	if err := ctx.Err(); err != nil {
		return domain.NewExternalServiceError(serviceName, err)
	}
	if amount <= 0 {
		return domain.NewInvalidRequest("credit amount must be positive")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.applied[reference]; ok {
		return nil
	}
	l.balances[userID] = l.balanceLocked(userID) + amount
	l.applied[reference] = struct{}{}
	return nil
}

func (l *Ledger) balanceLocked(userID string) int64 {
	if b, ok := l.balances[userID]; ok {
		return b
	}
	l.balances[userID] = l.initial
	return l.initial
}
