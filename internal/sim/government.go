package sim

import (
	"fmt"

	"github.com/giacrava/sbp-adoption-abm/internal/dataset"
)

// Government reports the PCF payment offered to install SBP each year.
type Government struct {
	payments dataset.PaymentSchedule
}

// NewGovernment wraps a payment schedule.
func NewGovernment(payments dataset.PaymentSchedule) *Government {
	return &Government{payments: payments}
}

// Payment returns the payment offered in year, in euro per hectare.
// Years outside the schedule are an error: they are outside the time span
// of the model.
func (g *Government) Payment(year int) (float64, error) {
	p, ok := g.payments[year]
	if !ok {
		return 0, fmt.Errorf("payment for %d not available: year outside the time span of the model", year)
	}
	return p, nil
}
