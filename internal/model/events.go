package model

// Event names carried by PoolEvent.Type and EventRecord.EventName.
const (
	EventSync      = "sync"
	EventMint      = "mint"
	EventBurn      = "burn"
	EventSwap      = "swap"
	EventFlashLoan = "flash_loan"
)

// SyncEventData is the reserve snapshot committed by a reserve update.
type SyncEventData struct {
	Reserve0 string `json:"reserve0"`
	Reserve1 string `json:"reserve1"`
}

// MintEventData is the payload of a liquidity mint observation.
type MintEventData struct {
	Sender  string `json:"sender"`
	Amount0 string `json:"amount0"`
	Amount1 string `json:"amount1"`
}

// BurnEventData is the payload of a liquidity burn observation.
type BurnEventData struct {
	Sender  string `json:"sender"`
	Amount0 string `json:"amount0"`
	Amount1 string `json:"amount1"`
	To      string `json:"to"`
}

// SwapEventData is the payload of a swap observation.
type SwapEventData struct {
	Sender     string `json:"sender"`
	Amount0In  string `json:"amount0_in"`
	Amount1In  string `json:"amount1_in"`
	Amount0Out string `json:"amount0_out"`
	Amount1Out string `json:"amount1_out"`
	To         string `json:"to"`
}

// FlashLoanEventData is the payload of a flash loan observation.
type FlashLoanEventData struct {
	Sender   string `json:"sender"`
	Borrower string `json:"borrower"`
	Token    string `json:"token"`
	Amount   string `json:"amount"`
	Fee      string `json:"fee"`
}

// PoolEvent is an observation emitted by a pool as it commits.
type PoolEvent struct {
	Pool      string `json:"pool"`
	Type      string `json:"type"`
	Timestamp uint64 `json:"timestamp"`
	Data      any    `json:"data"`
}
