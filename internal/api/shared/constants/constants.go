package constants

const (
	MAX_PAGE_SIZE             = 100
	DEFAULT_OFFSET            = uint64(0)
	DEFAULT_TERRITORIES_LIMIT = 20
	DEFAULT_BIDS_LIMIT        = 20
	DEFAULT_CHANGES_LIMIT     = 20
	MAX_CANCEL_REASON_LENGTH  = 256
	// MAX_AMOUNT is the largest amount a client may send, the largest integer a JSON number holds exactly
	MAX_AMOUNT = int64(1<<53 - 1)
)
