package businessflow

import (
	"math"

	"github.com/kapustota/btlz-wb-test-vasily-b/app/dto"
	"github.com/kapustota/btlz-wb-test-vasily-b/utils"
)

// RatesMatch reports whether two rate vectors are equal within the fixed
// tolerance. A field difference of exactly utils.RateTolerance still counts
// as a match; only a strictly greater difference is a mismatch.
func RatesMatch(existing, incoming dto.RateVector) bool {
	a := existing.Fields()
	b := incoming.Fields()
	for i := range a {
		if math.Abs(a[i]-b[i]) > utils.RateTolerance {
			return false
		}
	}
	return true
}
