package analytics

import (
	"fmt"

	"cloud.google.com/go/civil"

	"SalesCast/internal/domain/models"
	"SalesCast/pkg/util"
)

// FutureDates returns history followed by periods dates after its last entry.
// Weekly steps are 7 days; monthly dates are month ends.
func FutureDates(history []civil.Date, periods int, freq models.Frequency) ([]civil.Date, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("future dates: empty history")
	}
	if periods < 0 {
		return nil, fmt.Errorf("future dates: negative periods %d", periods)
	}
	if !freq.Valid() {
		return nil, fmt.Errorf("future dates: unsupported frequency %q", freq)
	}

	out := make([]civil.Date, 0, len(history)+periods)
	out = append(out, history...)
	next := history[len(history)-1]
	for i := 0; i < periods; i++ {
		switch freq {
		case models.FreqDaily:
			next = next.AddDays(1)
		case models.FreqWeekly:
			next = next.AddDays(7)
		case models.FreqMonthly:
			next = util.MonthEnd(next)
			if !next.After(out[len(out)-1]) {
				next = util.MonthEnd(next.AddDays(1))
			}
		}
		out = append(out, next)
	}
	return out, nil
}
