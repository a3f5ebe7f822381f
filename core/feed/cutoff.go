package feed

import "time"

// EODCutoff resolves the point in time at which the most recent trading day's
// end-of-day data became available. A symbol whose last check predates the
// cutoff is due for a new fetch.
//
// Before the daily publish hour the prior day's cutoff applies, because
// "today" has not published yet. A reported holiday rolls one further day
// back, and weekends roll back to the most recent weekday. Computed once per
// run, not per symbol.
func EODCutoff(now time.Time, holiday bool, publishHour int) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if now.Hour() < publishHour {
		day = day.AddDate(0, 0, -1)
	}
	if holiday {
		day = day.AddDate(0, 0, -1)
	}
	for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		day = day.AddDate(0, 0, -1)
	}

	return day.Add(time.Duration(publishHour) * time.Hour)
}
