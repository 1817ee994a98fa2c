package businessflow

import (
	"testing"

	"github.com/kapustota/btlz-wb-test-vasily-b/app/dto"
	"github.com/stretchr/testify/assert"
)

func uniformVector(v float64) dto.RateVector {
	return dto.RateVector{
		DeliveryBase:  v,
		DeliveryCoef:  v,
		DeliveryLiter: v,

		MarketplaceDeliveryBase:  v,
		MarketplaceDeliveryCoef:  v,
		MarketplaceDeliveryLiter: v,

		StorageBase:  v,
		StorageCoef:  v,
		StorageLiter: v,
	}
}

func TestRatesMatch(t *testing.T) {
	base := uniformVector(100)

	t.Run("identical vectors match", func(t *testing.T) {
		assert.True(t, RatesMatch(base, uniformVector(100)))
	})

	t.Run("difference of exactly the tolerance matches", func(t *testing.T) {
		incoming := base
		incoming.StorageCoef += 0.01
		assert.True(t, RatesMatch(base, incoming))
	})

	t.Run("difference just above the tolerance mismatches", func(t *testing.T) {
		incoming := base
		incoming.StorageCoef += 0.0101
		assert.False(t, RatesMatch(base, incoming))
	})

	t.Run("negative difference within tolerance matches", func(t *testing.T) {
		incoming := base
		incoming.DeliveryBase -= 0.01
		assert.True(t, RatesMatch(base, incoming))
	})

	t.Run("single field change is enough to mismatch", func(t *testing.T) {
		incoming := base
		incoming.MarketplaceDeliveryLiter += 5
		assert.False(t, RatesMatch(base, incoming))
	})

	t.Run("every field is compared", func(t *testing.T) {
		fields := []func(*dto.RateVector){
			func(v *dto.RateVector) { v.DeliveryBase += 1 },
			func(v *dto.RateVector) { v.DeliveryCoef += 1 },
			func(v *dto.RateVector) { v.DeliveryLiter += 1 },
			func(v *dto.RateVector) { v.MarketplaceDeliveryBase += 1 },
			func(v *dto.RateVector) { v.MarketplaceDeliveryCoef += 1 },
			func(v *dto.RateVector) { v.MarketplaceDeliveryLiter += 1 },
			func(v *dto.RateVector) { v.StorageBase += 1 },
			func(v *dto.RateVector) { v.StorageCoef += 1 },
			func(v *dto.RateVector) { v.StorageLiter += 1 },
		}
		for i, mutate := range fields {
			incoming := base
			mutate(&incoming)
			assert.False(t, RatesMatch(base, incoming), "field %d not compared", i)
		}
	})
}
