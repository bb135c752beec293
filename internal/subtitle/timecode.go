package subtitle

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

// HH:MM:SS,mmm with at least two hour digits
var timecodeRegex = regexp.MustCompile(`^(\d{2,}):(\d{2}):(\d{2}),(\d{3})$`)

const maxHours = math.MaxInt64 / int64(time.Hour)

// ParseTime converts an SRT time code into a duration.
func ParseTime(s string) (time.Duration, error) {
	matches := timecodeRegex.FindStringSubmatch(s)
	if matches == nil {
		return 0, &FormatError{Value: s, Reason: "expected HH:MM:SS,mmm"}
	}

	hours, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil || hours > maxHours {
		return 0, &FormatError{Value: s, Reason: "hours out of range"}
	}
	minutes, err := strconv.Atoi(matches[2])
	if err != nil {
		return 0, &FormatError{Value: s, Reason: "minutes are not numeric"}
	}
	seconds, err := strconv.Atoi(matches[3])
	if err != nil {
		return 0, &FormatError{Value: s, Reason: "seconds are not numeric"}
	}
	millis, err := strconv.Atoi(matches[4])
	if err != nil {
		return 0, &FormatError{Value: s, Reason: "milliseconds are not numeric"}
	}
	if minutes > 59 || seconds > 59 {
		return 0, &FormatError{Value: s, Reason: "minutes and seconds must be below 60"}
	}

	d, ok := composeTime(hours, minutes, seconds, millis)
	if !ok {
		return 0, &FormatError{Value: s, Reason: "time out of range"}
	}
	return d, nil
}

// composeTime sums the fields of a time code and reports false when the
// total does not fit a time.Duration.
func composeTime(hours int64, minutes, seconds, millis int) (time.Duration, bool) {
	if hours < 0 || hours > maxHours {
		return 0, false
	}
	rest := time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond
	whole := time.Duration(hours) * time.Hour
	if whole > math.MaxInt64-rest {
		return 0, false
	}
	return whole + rest, true
}

// FormatTime renders d as HH:MM:SS,mmm. Hours are padded to two digits
// and grow past that instead of wrapping. d must not be negative.
func FormatTime(d time.Duration) string {
	ms := d.Milliseconds()
	hours := ms / int64(time.Hour/time.Millisecond)
	minutes := ms / int64(time.Minute/time.Millisecond) % 60
	seconds := ms / int64(time.Second/time.Millisecond) % 60
	millis := ms % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}
