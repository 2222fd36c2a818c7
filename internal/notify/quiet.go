package notify

import "time"

// Quiet hours cover roughly 22:00-07:00 at UTC+05:45.
var quietHoursUTC = map[int]bool{16: true, 17: true, 18: true, 19: true, 20: true, 21: true, 22: true, 23: true, 0: true, 1: true}

// IsQuietHour reports whether alerts should be held at t.
func IsQuietHour(t time.Time) bool {
	return quietHoursUTC[t.UTC().Hour()]
}
