package records

import (
	"math"

	"github.com/BearBump/ParcelDesk/internal/models"
)

const (
	// perKgRate is charged for every kilogram above the first one.
	perKgRate = 2.50

	// RevenuePerDelivery is the flat fee counted per delivered parcel in GetStats.
	RevenuePerDelivery = 25.00
)

var baseRates = map[models.Priority]float64{
	models.PriorityStandard: 5.99,
	models.PriorityExpress:  12.99,
	models.PrioritySameDay:  24.99,
}

// EstimateCost prices a parcel: base rate of the priority plus 2.50 per kg over 1 kg,
// rounded to cents. Unknown priorities are priced as standard.
func EstimateCost(weight float64, priority models.Priority) float64 {
	base, ok := baseRates[priority]
	if !ok {
		base = baseRates[models.PriorityStandard]
	}
	return roundCents(base + math.Max(0, (weight-1)*perKgRate))
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
