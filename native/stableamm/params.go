package stableamm

const (
	// APrecision scales the amplification coefficient so ramps can move it in
	// sub-integer steps.
	APrecision = 100
	// FeeDenominator is the fixed-point base for swap and admin fees.
	FeeDenominator = 10_000_000_000
	// MaxSwapFee caps the swap fee at 1%.
	MaxSwapFee = 100_000_000
	// MaxAdminFee caps the admin share of swap fees at 100%.
	MaxAdminFee = 10_000_000_000
	// MaxA is the exclusive upper bound on the unscaled amplification coefficient.
	MaxA = 1_000_000
	// MaxAChange bounds the ratio between the current and the targeted A.
	MaxAChange = 10
	// Day is the minimum spacing between ramps, in seconds.
	Day = 86_400
	// MinRampTime is the shortest allowed ramp window, in seconds.
	MinRampTime = Day
	// MaxIteration bounds the Newton loops of the invariant solver.
	MaxIteration = 255
	// PoolTokenCommonDecimals is the precision every pooled currency is
	// normalised to before entering the invariant.
	PoolTokenCommonDecimals = 18
)
