package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DayHours is one day's ordering window in 24h "HH:MM" local time. The
// closing minute is still inside the window.
type DayHours struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// OpeningHours maps weekdays to ordering windows. Days without an entry
// are closed.
type OpeningHours map[time.Weekday]DayHours

// DefaultOpeningHours returns the store's standard week.
func DefaultOpeningHours() OpeningHours {
	return OpeningHours{
		time.Monday:    {Open: "08:00", Close: "22:00"},
		time.Tuesday:   {Open: "08:00", Close: "22:00"},
		time.Wednesday: {Open: "08:00", Close: "22:00"},
		time.Thursday:  {Open: "08:00", Close: "22:00"},
		time.Friday:    {Open: "08:00", Close: "23:00"},
		time.Saturday:  {Open: "09:00", Close: "23:00"},
		time.Sunday:    {Open: "10:00", Close: "21:00"},
	}
}

// OpenAt reports whether the store takes orders at t. Malformed window
// entries count as closed.
func (h OpeningHours) OpenAt(t time.Time) bool {
	day, ok := h[t.Weekday()]
	if !ok {
		return false
	}

	open, okOpen := parseClock(day.Open)
	until, okClose := parseClock(day.Close)
	if !okOpen || !okClose {
		return false
	}

	now := t.Hour()*60 + t.Minute()
	return now >= open && now <= until
}

func parseClock(s string) (int, bool) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, false
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// FormatPreparationTime renders a preparation time for display:
// "15 min", "1h", "1h 30min".
func FormatPreparationTime(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	hours := minutes / 60
	rest := minutes % 60
	if rest > 0 {
		return fmt.Sprintf("%dh %dmin", hours, rest)
	}
	return fmt.Sprintf("%dh", hours)
}
