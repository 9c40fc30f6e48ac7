package billing

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	// DateLayout is the layout of Bill.Date.
	DateLayout = "02-01-2006"
	// TimeLayout is the layout of Bill.Time.
	TimeLayout = "15:04"

	minBillNumber = 1000
	maxBillNumber = 10000
)

// Numberer produces bill numbers.
type Numberer func() string

// RandomNumberer returns a Numberer yielding "BN-<n>" with n drawn uniformly
// from [1000, 10000]. Numbers are not unique across bills.
func RandomNumberer(r *rand.Rand) Numberer {
	return func() string {
		n := minBillNumber + r.IntN(maxBillNumber-minBillNumber+1)
		return fmt.Sprintf("BN-%d", n)
	}
}

// DefaultNumberer is RandomNumberer over a time-seeded source.
func DefaultNumberer() Numberer {
	seed := uint64(time.Now().UnixNano())
	return RandomNumberer(rand.New(rand.NewPCG(seed, seed>>1|1)))
}
