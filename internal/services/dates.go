package services

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/diewo77/go-devis/internal/models"
)

// AddDays adds calendar days to an ISO YYYY-MM-DD date and returns the result in the same layout.
// Zero or negative offsets are accepted.
func AddDays(isoDate string, days int) (string, error) {
	t, err := time.Parse(models.DateLayout, isoDate)
	if err != nil {
		return "", errors.Wrapf(err, "parse date %q", isoDate)
	}
	return t.AddDate(0, 0, days).Format(models.DateLayout), nil
}

// Today returns the calendar date of now in its own location.
func Today(now time.Time) string {
	return now.Format(models.DateLayout)
}

// targetDate is AddDays for callers that fall back to an empty date on parse errors.
func targetDate(isoDate string, days int) string {
	d, err := AddDays(isoDate, days)
	if err != nil {
		return ""
	}
	return d
}
