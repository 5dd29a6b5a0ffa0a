package reporting

import (
	"fmt"
	"time"

	"github.com/mamadbah2/dairy/internal/domain/models"
)

// ISOWeekStart returns Monday 00:00 UTC of the given ISO-8601 week. January 4th
// always falls in week 1.
func ISOWeekStart(isoYear, isoWeek int) time.Time {
	jan4 := time.Date(isoYear, time.January, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	monday := jan4.AddDate(0, 0, -(weekday - 1))
	return monday.AddDate(0, 0, (isoWeek-1)*7)
}

// ISOWeekRange returns the Monday and Sunday local dates of an ISO week.
func ISOWeekRange(isoYear, isoWeek int) (from, to string) {
	start := ISOWeekStart(isoYear, isoWeek)
	return start.Format(models.DateLayout), start.AddDate(0, 0, 6).Format(models.DateLayout)
}

// WeekLabel formats an ISO week as YYYY-Www.
func WeekLabel(isoYear, isoWeek int) string {
	return fmt.Sprintf("%d-W%02d", isoYear, isoWeek)
}

// ReportWeek picks the week a run at now reports on: the ISO week holding the
// previous calendar day in now's location. A Sunday run covers the week ending
// that day, a Monday run the week that just closed.
func ReportWeek(now time.Time) (isoYear, isoWeek int) {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1).ISOWeek()
}
