package serial

import "time"

// twelveHour converts an hour-of-day (0-23) to the 12-hour display
// convention the boards expect: midnight -> 12 AM, noon -> 12 PM.
func twelveHour(hour int) (displayHour byte, isPM bool) {
	isPM = hour >= 12
	h := hour
	if h > 12 {
		h -= 12
	}
	if h == 0 {
		h = 12
	}
	return byte(h), isPM
}

// timeSyncPayload builds the CMD_SYNC_TIME extra_data: 2-digit year, month
// (1-12), day, 12-hour hour, minute, second, am/pm flag.
func timeSyncPayload(t time.Time) []byte {
	hour, isPM := twelveHour(t.Hour())
	pmFlag := byte(0)
	if isPM {
		pmFlag = 1
	}
	return []byte{
		byte(t.Year() % 100),
		byte(t.Month()),
		byte(t.Day()),
		hour,
		byte(t.Minute()),
		byte(t.Second()),
		pmFlag,
	}
}
