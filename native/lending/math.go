package lending

import "math/big"

// Slot clock constants. A slot is the discrete unit of network time; the
// conversion from wall-clock seconds uses the ledger's published tick
// parameters with integer truncation, matching on-chain accounting exactly.
const (
	ticksPerSecond = 160
	ticksPerSlot   = 64
	slotsPerSecond = ticksPerSecond / ticksPerSlot
	secondsPerDay  = 86_400

	// SlotsPerYear is the fixed number of slots in a 365-day year.
	SlotsPerYear uint64 = slotsPerSecond * secondsPerDay * 365
)

var (
	milli   = big.NewInt(1000)
	ray     = mustBigInt("1000000000000000000000000000") // 1e27 precision
	halfRay = new(big.Int).Rsh(ray, 1)
)

func mustBigInt(value string) *big.Int {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		panic("invalid big integer constant")
	}
	return v
}

func rayMul(a, b *big.Int) *big.Int {
	if a == nil || b == nil {
		return big.NewInt(0)
	}
	product := new(big.Int).Mul(a, b)
	product.Add(product, halfRay)
	product.Quo(product, ray)
	return product
}

// rayPow raises a ray-scaled factor to an integer power via exponentiation by
// squaring, keeping the intermediate rounding identical for every caller.
func rayPow(base *big.Int, exp uint64) *big.Int {
	result := new(big.Int).Set(ray)
	b := new(big.Int).Set(base)
	for exp > 0 {
		if exp&1 == 1 {
			result = rayMul(result, b)
		}
		exp >>= 1
		if exp > 0 {
			b = rayMul(b, b)
		}
	}
	return result
}

// SlotsInDuration converts a wall-clock duration in seconds to slots.
func SlotsInDuration(seconds uint64) uint64 {
	return slotsPerSecond * seconds
}

// CompoundInterest returns the value principal grows to over slotsElapsed at
// the per-mille annual rate, compounded per slot:
//
//	principal * (1 + rate/1000/SlotsPerYear) ^ slotsElapsed
//
// The computation is pure fixed-point arithmetic so any caller validating
// ledger state off-line reproduces it bit for bit.
func CompoundInterest(principal uint64, interestRateMilli uint32, slotsElapsed uint64) *big.Int {
	annualRate := new(big.Int).Mul(ray, big.NewInt(int64(interestRateMilli)))
	annualRate.Quo(annualRate, milli)
	perSlot := annualRate.Quo(annualRate, new(big.Int).SetUint64(SlotsPerYear))

	factor := new(big.Int).Add(ray, perSlot)
	compounded := rayPow(factor, slotsElapsed)

	result := new(big.Int).Mul(new(big.Int).SetUint64(principal), compounded)
	result.Add(result, halfRay)
	result.Quo(result, ray)
	return result
}

// UncompoundedInterest returns principal plus one year of simple interest at
// the per-mille rate. It lower-bounds CompoundInterest over a full year and is
// kept for off-line sanity checks.
func UncompoundedInterest(principal uint64, interestRateMilli uint32) *big.Int {
	interest := new(big.Int).Mul(new(big.Int).SetUint64(principal), big.NewInt(int64(interestRateMilli)))
	interest.Quo(interest, milli)
	return interest.Add(interest, new(big.Int).SetUint64(principal))
}

// MaxAllowedAmount is the borrow ceiling for collateral worth nftWorth at the
// per-mille loan-to-value ratio: floor(nftWorth * ltv / 1000).
func MaxAllowedAmount(nftWorth uint64, ltvMilli uint32) *big.Int {
	max := new(big.Int).Mul(new(big.Int).SetUint64(nftWorth), big.NewInt(int64(ltvMilli)))
	return max.Quo(max, milli)
}

// CalculateFees is the platform's cut of amount at the per-mille fee rate:
// floor(amount * feePercentage / 1000). The result always fits uint64 because
// the fee rate never exceeds 1000.
func CalculateFees(amount uint64, feePercentageMilli uint32) uint64 {
	fee := new(big.Int).Mul(new(big.Int).SetUint64(amount), big.NewInt(int64(feePercentageMilli)))
	fee.Quo(fee, milli)
	return fee.Uint64()
}
