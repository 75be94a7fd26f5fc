package market

import (
	"time"

	"ChallengeArena/internal/domain/models"
)

// Hours describes the exchange session in its own time zone.
type Hours struct {
	Location *time.Location
	OpenDays []time.Weekday
	OpenMin  int // minutes after midnight
	CloseMin int
}

// TadawulHours is Sunday to Thursday, 10:00 to 15:20 Riyadh time.
func TadawulHours() Hours {
	loc, err := time.LoadLocation("Asia/Riyadh")
	if err != nil {
		loc = time.FixedZone("AST", 3*3600)
	}
	return Hours{
		Location: loc,
		OpenDays: []time.Weekday{time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday},
		OpenMin:  10 * 60,
		CloseMin: 15*60 + 20,
	}
}

// Status reports whether the session is open at t.
func (h Hours) Status(t time.Time) models.MarketStatus {
	local := t.In(h.Location)
	open := false
	for _, d := range h.OpenDays {
		if local.Weekday() == d {
			open = true
			break
		}
	}
	if !open {
		return models.MarketClosed
	}
	m := local.Hour()*60 + local.Minute()
	if m >= h.OpenMin && m < h.CloseMin {
		return models.MarketOpen
	}
	return models.MarketClosed
}
