package sim

import (
	"encoding/json"
	"fmt"
	"os"
)

// Scenario is a deterministic script of pool operations executed against
// in-memory asset ledgers and a manual clock.
type Scenario struct {
	Name      string    `json:"name"`
	Token0    TokenSpec `json:"token0"`
	Token1    TokenSpec `json:"token1"`
	FeeTo     string    `json:"fee_to,omitempty"`
	StartTime uint64    `json:"start_time,omitempty"`
	Steps     []Step    `json:"steps"`
}

// TokenSpec names one of the two external assets.
type TokenSpec struct {
	Symbol string `json:"symbol"`
}

// Step is a single scripted operation. Which fields apply depends on Op:
//
//	fund        Asset, Amount, To            credit an account from thin air
//	deposit     From, Amount0, Amount1      move assets into pool custody
//	mint        From, To                     issue shares for the deposit
//	swap        From, Amount0Out, Amount1Out, To, Deadline
//	burn        From, Shares, To             redeem shares for assets
//	flash_loan  From, Asset, Amount          borrow and repay within the step
//	sync        —                            reconcile reserves to balances
//	skim        To                           sweep excess balances
//	advance     Advance                      move the clock forward
type Step struct {
	Op         string `json:"op"`
	From       string `json:"from,omitempty"`
	To         string `json:"to,omitempty"`
	Asset      string `json:"asset,omitempty"`
	Amount     string `json:"amount,omitempty"`
	Amount0    string `json:"amount0,omitempty"`
	Amount1    string `json:"amount1,omitempty"`
	Amount0Out string `json:"amount0_out,omitempty"`
	Amount1Out string `json:"amount1_out,omitempty"`
	Shares     string `json:"shares,omitempty"`
	Deadline   uint64 `json:"deadline,omitempty"`
	Advance    uint64 `json:"advance,omitempty"`
}

// LoadScenario reads and decodes a scenario file.
func LoadScenario(path string) (Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario: %w", err)
	}
	var sc Scenario
	if err := json.Unmarshal(raw, &sc); err != nil {
		return Scenario{}, fmt.Errorf("decode scenario: %w", err)
	}
	if sc.Token0.Symbol == "" || sc.Token1.Symbol == "" {
		return Scenario{}, fmt.Errorf("scenario must name both tokens")
	}
	return sc, nil
}
