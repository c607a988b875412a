package market

import "fmt"

// Result classifies the outcome of a trading operation.
//
// Codes are grouped by family, mirrored in the numeric ranges:
//
//	0            OK          — applied
//	100..199     Ok*         — applied with a caveat needing follow-up
//	200..299     Econ*       — valid request the market refused; no effect
//	-100..-199   Rej* (phase)— wrong state for the operation; no effect
//	-200..-299   Rej* (form) — malformed request; no effect
//	-300..-399   Err*        — internal failure; no effect
type Result int

const (
	// OK means the operation was applied in full.
	OK Result = 0

	// OkGraduationPending means a buy was applied and tripped the
	// graduation trigger, but the graduation itself failed. The buy
	// stands; an operator must retry Graduate.
	OkGraduationPending Result = 100

	// Economic refusals (200-299). The request was well formed and the
	// market was in the right phase, but the numbers said no.
	EconSlippage          Result = 200
	EconNoTokens          Result = 201
	EconDustProceeds      Result = 202
	EconInsufficientFunds Result = 203
	EconExceedsRaise      Result = 204
	EconBelowFee          Result = 205

	// Phase rejections (-100..-199). The asset is in the wrong state.
	RejNotOpen        Result = -100
	RejSellsDisabled  Result = -101
	RejPaused         Result = -102
	RejGateBlocked    Result = -103
	RejBusy           Result = -104
	RejUnknownAsset   Result = -105
	RejDuplicateAsset Result = -106
	RejGraduated      Result = -107
	RejNotGraduated   Result = -108
	RejExceedsSold    Result = -109

	// Malformed requests (-200..-299). Never valid in any state.
	RejZeroAmount Result = -200
	RejOverTxCap  Result = -201
	RejNoAccount  Result = -202
	RejBadSymbol  Result = -203
	RejBadSplit   Result = -204
	RejBadParams  Result = -205

	// Internal failures (-300..-399).
	ErrInternal Result = -300
	ErrLedger   Result = -301
	ErrVenue    Result = -302
)

// String returns the code's identifier.
func (r Result) String() string {
	switch r {
	case OK:
		return "ok"
	case OkGraduationPending:
		return "okGRADUATION_PENDING"
	case EconSlippage:
		return "econSLIPPAGE"
	case EconNoTokens:
		return "econNO_TOKENS"
	case EconDustProceeds:
		return "econDUST_PROCEEDS"
	case EconInsufficientFunds:
		return "econINSUFFICIENT_FUNDS"
	case EconExceedsRaise:
		return "econEXCEEDS_RAISE"
	case EconBelowFee:
		return "econBELOW_FEE"
	case RejNotOpen:
		return "rejNOT_OPEN"
	case RejSellsDisabled:
		return "rejSELLS_DISABLED"
	case RejPaused:
		return "rejPAUSED"
	case RejGateBlocked:
		return "rejGATE_BLOCKED"
	case RejBusy:
		return "rejBUSY"
	case RejUnknownAsset:
		return "rejUNKNOWN_ASSET"
	case RejDuplicateAsset:
		return "rejDUPLICATE_ASSET"
	case RejGraduated:
		return "rejGRADUATED"
	case RejNotGraduated:
		return "rejNOT_GRADUATED"
	case RejExceedsSold:
		return "rejEXCEEDS_SOLD"
	case RejZeroAmount:
		return "rejZERO_AMOUNT"
	case RejOverTxCap:
		return "rejOVER_TX_CAP"
	case RejNoAccount:
		return "rejNO_ACCOUNT"
	case RejBadSymbol:
		return "rejBAD_SYMBOL"
	case RejBadSplit:
		return "rejBAD_SPLIT"
	case RejBadParams:
		return "rejBAD_PARAMS"
	case ErrInternal:
		return "errINTERNAL"
	case ErrLedger:
		return "errLEDGER"
	case ErrVenue:
		return "errVENUE"
	default:
		return fmt.Sprintf("Unknown(%d)", int(r))
	}
}

// IsSuccess reports a clean application with no caveat.
func (r Result) IsSuccess() bool {
	return r == OK
}

// IsApplied reports whether state was mutated: OK and every caveat
// code. Everything else left the asset untouched.
func (r Result) IsApplied() bool {
	return r == OK || (r >= 100 && r < 200)
}

// IsEconomic reports a well-formed request refused on the numbers.
func (r Result) IsEconomic() bool {
	return r >= 200 && r < 300
}

// IsRejection reports a phase or malformed-request rejection.
func (r Result) IsRejection() bool {
	return r <= -100 && r > -300
}

// IsInternal reports an internal failure worth an operator's attention.
func (r Result) IsInternal() bool {
	return r <= -300 && r > -400
}

// Message returns a human-readable description of the result.
func (r Result) Message() string {
	switch r {
	case OK:
		return "The operation was applied."
	case OkGraduationPending:
		return "The buy was applied; graduation failed and must be retried."
	case EconSlippage:
		return "Output below the requested minimum."
	case EconNoTokens:
		return "Budget too small to buy any tokens."
	case EconDustProceeds:
		return "Sale proceeds would not cover the fee."
	case EconInsufficientFunds:
		return "Insufficient balance to settle the trade."
	case EconExceedsRaise:
		return "Sale proceeds exceed the remaining raise."
	case EconBelowFee:
		return "Raised amount does not cover the graduation fee."
	case RejNotOpen:
		return "The asset is not open for trading."
	case RejSellsDisabled:
		return "Sells are not enabled for this asset."
	case RejPaused:
		return "Trading is paused."
	case RejGateBlocked:
		return "The admission gate refused the buyer."
	case RejBusy:
		return "Another operation on this asset is in progress."
	case RejUnknownAsset:
		return "Unknown asset."
	case RejDuplicateAsset:
		return "An asset with this identity already exists."
	case RejGraduated:
		return "The asset has already graduated."
	case RejNotGraduated:
		return "The asset has not graduated."
	case RejExceedsSold:
		return "Cannot sell more than the curve has sold."
	case RejZeroAmount:
		return "Amount must be positive."
	case RejOverTxCap:
		return "Amount exceeds the per-transaction cap."
	case RejNoAccount:
		return "An account is required."
	case RejBadSymbol:
		return "A non-empty symbol is required."
	case RejBadSplit:
		return "Fee shares must sum to 100."
	case RejBadParams:
		return "Invalid curve parameters."
	case ErrInternal:
		return "Internal error."
	case ErrLedger:
		return "Ledger transfer failed."
	case ErrVenue:
		return "Liquidity venue call failed."
	default:
		return r.String()
	}
}
