package stableamm

import "errors"

var (
	ErrNilState               = errors.New("stableamm: state not configured")
	ErrUnauthorized           = errors.New("stableamm: caller not authorised")
	ErrInvalidPooledCurrency  = errors.New("stableamm: invalid pooled currency")
	ErrInvalidLpCurrency      = errors.New("stableamm: invalid lp currency")
	ErrLpCurrencyAlreadyUsed  = errors.New("stableamm: lp currency already used")
	ErrMismatchParameter      = errors.New("stableamm: parameter length mismatch")
	ErrInvalidCurrencyDecimal = errors.New("stableamm: invalid currency decimal")
	ErrInvalidPoolID          = errors.New("stableamm: pool not found")
	ErrArithmetic             = errors.New("stableamm: arithmetic error")
	ErrInsufficientSupply     = errors.New("stableamm: insufficient lp supply")
	ErrInsufficientReserve    = errors.New("stableamm: insufficient reserve")
	ErrCheckDFailed           = errors.New("stableamm: invariant did not increase")
	ErrAmountSlippage         = errors.New("stableamm: amount slippage")
	ErrSwapSameCurrency       = errors.New("stableamm: swap between the same currency")
	ErrCurrencyIndexOutRange  = errors.New("stableamm: currency index out of range")
	ErrInsufficientLpReserve  = errors.New("stableamm: insufficient lp reserve")
	ErrRequireAllCurrencies   = errors.New("stableamm: initial deposit requires all currencies")
	ErrExceedMaxAdminFee      = errors.New("stableamm: admin fee exceeds maximum")
	ErrExceedMaxFee           = errors.New("stableamm: swap fee exceeds maximum")
	ErrExceedMaxA             = errors.New("stableamm: amplification exceeds maximum")
	ErrRampADelay             = errors.New("stableamm: ramp started too soon")
	ErrMinRampTime            = errors.New("stableamm: ramp window too short")
	ErrExceedThreshold        = errors.New("stableamm: future amplification out of range")
	ErrExceedMaxAChange       = errors.New("stableamm: amplification change too large")
	ErrAlreadyStoppedRampA    = errors.New("stableamm: ramp already stopped")
	ErrDeadline               = errors.New("stableamm: deadline passed")
)

var errorLabels = []struct {
	err   error
	label string
}{
	{ErrNilState, "nil_state"},
	{ErrUnauthorized, "unauthorized"},
	{ErrInvalidPooledCurrency, "invalid_pooled_currency"},
	{ErrInvalidLpCurrency, "invalid_lp_currency"},
	{ErrLpCurrencyAlreadyUsed, "lp_currency_already_used"},
	{ErrMismatchParameter, "mismatch_parameter"},
	{ErrInvalidCurrencyDecimal, "invalid_currency_decimal"},
	{ErrInvalidPoolID, "invalid_pool_id"},
	{ErrArithmetic, "arithmetic"},
	{ErrInsufficientSupply, "insufficient_supply"},
	{ErrInsufficientReserve, "insufficient_reserve"},
	{ErrCheckDFailed, "check_d_failed"},
	{ErrAmountSlippage, "amount_slippage"},
	{ErrSwapSameCurrency, "swap_same_currency"},
	{ErrCurrencyIndexOutRange, "currency_index_out_range"},
	{ErrInsufficientLpReserve, "insufficient_lp_reserve"},
	{ErrRequireAllCurrencies, "require_all_currencies"},
	{ErrExceedMaxAdminFee, "exceed_max_admin_fee"},
	{ErrExceedMaxFee, "exceed_max_fee"},
	{ErrExceedMaxA, "exceed_max_a"},
	{ErrRampADelay, "ramp_a_delay"},
	{ErrMinRampTime, "min_ramp_time"},
	{ErrExceedThreshold, "exceed_threshold"},
	{ErrExceedMaxAChange, "exceed_max_a_change"},
	{ErrAlreadyStoppedRampA, "already_stopped_ramp_a"},
	{ErrDeadline, "deadline"},
}

// ErrorLabel maps an engine error onto a stable, low-cardinality label used
// by metrics and RPC responses. Unknown errors map to "internal".
func ErrorLabel(err error) string {
	if err == nil {
		return "ok"
	}
	for _, entry := range errorLabels {
		if errors.Is(err, entry.err) {
			return entry.label
		}
	}
	return "internal"
}
