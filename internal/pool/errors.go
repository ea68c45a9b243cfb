package pool

import "errors"

// Failure identifiers are part of the wire contract; the literal text must
// not change.
var (
	ErrForbidden                      = errors.New("FORBIDDEN")
	ErrLocked                         = errors.New("LOCKED")
	ErrExpired                        = errors.New("EXPIRED")
	ErrOverflow                       = errors.New("OVERFLOW")
	ErrInsufficientLiquidityMinted    = errors.New("INSUFFICIENT_LIQUIDITY_MINTED")
	ErrInsufficientLiquidityBurned    = errors.New("INSUFFICIENT_LIQUIDITY_BURNED")
	ErrInsufficientOutputAmount       = errors.New("INSUFFICIENT_OUTPUT_AMOUNT")
	ErrInsufficientLiquidity          = errors.New("INSUFFICIENT_LIQUIDITY")
	ErrInvalidTo                      = errors.New("INVALID_TO")
	ErrInsufficientInputAmount        = errors.New("INSUFFICIENT_INPUT_AMOUNT")
	ErrK                              = errors.New("K")
	ErrInvalidToken                   = errors.New("INVALID_TOKEN")
	ErrInvalidFlashLoanCallback       = errors.New("INVALID_FLASHLOAN_CALLBACK")
	ErrInsufficientFlashLoanRepayment = errors.New("INSUFFICIENT_FLASHLOAN_REPAYMENT")
)

// errUnderflow signals a balance below the recorded reserve, which no
// well-formed call sequence can produce.
var errUnderflow = errors.New("ds-math-sub-underflow")
