package domain

const (
	// Auction arithmetic defaults
	DEFAULT_BID_INCREMENT         = 1
	DEFAULT_BUY_NOW_PREMIUM       = "0.15"
	DEFAULT_BUY_NOW_PREMIUM_FLOOR = 10

	// Protection granted when an auction carries no protection days
	LIFETIME_PROTECTION_YEARS = 100

	// Buy-now cancellation reason recorded on preempted auctions
	CANCEL_REASON_BUY_NOW = "buy_now"
)
