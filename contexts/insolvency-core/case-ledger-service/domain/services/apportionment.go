package services

import (
	"sort"

	"github.com/shopspring/decimal"
)

// centUnit is the minimum currency unit.
var centUnit = decimal.New(1, -2)

type AdmittedClaim struct {
	CreditorID string
	Amount     decimal.Decimal
}

type Allocation struct {
	CreditorID string
	Amount     decimal.Decimal
}

// Apportion splits total across claims pro rata by admitted amount using
// the largest-remainder method: exact shares are computed at extended
// precision, floored to the cent, and the leftover cents are handed out
// one at a time to the claims with the largest fractional loss, ties
// broken by ascending creditor id. The returned allocations always sum
// to total exactly and each is within one cent of its exact share.
// Zero-amount allocations are omitted.
//
// The caller guarantees total >= 0 and, when total > 0, a positive
// admitted base; otherwise the result is empty.
func Apportion(total decimal.Decimal, claims []AdmittedClaim) []Allocation {
	if total.Sign() <= 0 || len(claims) == 0 {
		return nil
	}
	base := decimal.Zero
	for _, claim := range claims {
		base = base.Add(claim.Amount)
	}
	if base.Sign() <= 0 {
		return nil
	}

	type share struct {
		creditorID string
		amount     decimal.Decimal
		fraction   decimal.Decimal
	}
	shares := make([]share, 0, len(claims))
	floorSum := decimal.Zero
	for _, claim := range claims {
		raw := total.Mul(claim.Amount).Div(base)
		floored := raw.RoundFloor(2)
		shares = append(shares, share{
			creditorID: claim.CreditorID,
			amount:     floored,
			fraction:   raw.Sub(floored),
		})
		floorSum = floorSum.Add(floored)
	}

	// Remaining cents after flooring; strictly fewer than len(shares).
	cents := total.Sub(floorSum).Shift(2).IntPart()

	order := make([]int, len(shares))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := shares[order[i]], shares[order[j]]
		if !a.fraction.Equal(b.fraction) {
			return a.fraction.GreaterThan(b.fraction)
		}
		return a.creditorID < b.creditorID
	})
	for k := int64(0); k < cents; k++ {
		idx := order[k%int64(len(order))]
		shares[idx].amount = shares[idx].amount.Add(centUnit)
	}

	allocations := make([]Allocation, 0, len(shares))
	for _, s := range shares {
		if s.amount.Sign() <= 0 {
			continue
		}
		allocations = append(allocations, Allocation{
			CreditorID: s.creditorID,
			Amount:     s.amount,
		})
	}
	return allocations
}
