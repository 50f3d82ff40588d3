package observability

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultWindow is the look-back used when no window is given.
const DefaultWindow = 7 * 24 * time.Hour

// ParseWindow turns a look-back such as "7d", "24h" or "90m" into the start
// of the window ending at now. Day counts use the "Nd" form; anything else
// goes through time.ParseDuration. An empty string selects DefaultWindow.
func ParseWindow(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now.Add(-DefaultWindow), nil
	}

	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid day window %q", s)
		}
		if n <= 0 {
			return time.Time{}, fmt.Errorf("window %q must be positive", s)
		}
		return now.AddDate(0, 0, -n), nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unsupported window %q (use e.g. 7d, 24h, 90m)", s)
	}
	if d <= 0 {
		return time.Time{}, fmt.Errorf("window %q must be positive", s)
	}
	return now.Add(-d), nil
}
