package wallet

import (
	"context"
)

// Wallet is the funds collaborator used to escrow bids and settle purchases.
// Amounts are in the smallest currency unit. The reference identifies the
// movement so a retried Debit or Credit is applied at most once.
//
//go:generate mockgen -source=wallet.go -destination=../mocks/wallet.go -package=mocks -mock_names=Wallet=MockWallet
type Wallet interface {
	// GetBalance returns the spendable balance of the user
	GetBalance(ctx context.Context, userID string) (int64, error)

	// Debit withdraws the amount, failing with domain.ErrInsufficientFunds when the balance is short
	Debit(ctx context.Context, userID string, amount int64, reference string) error

	// Credit deposits the amount
	Credit(ctx context.Context, userID string, amount int64, reference string) error
}

// DebitReference returns the reference of the escrow debit for a bid or purchase
func DebitReference(id string) string {
	return "debit:" + id
}

// RefundReference returns the reference of the refund of a bid or purchase escrow
func RefundReference(id string) string {
	return "refund:" + id
}
