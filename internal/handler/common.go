package handler // handler defines http handlers

import (
	"errors"  // sentinel value used in getUserID
	"strconv" // string-to-uint conversion
	"time"    // current-date helper

	"github.com/labstack/echo/v4" // echo defines request context types
)

// nowUTC is swapped out by tests that pin the clock.
var nowUTC = func() time.Time { return time.Now().UTC() }

// getUserID extracts the user_id stored by the JWT middleware and
// converts it to uint64.  JWT numeric claims decode as float64, so the
// switch accepts a few shapes.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a numeric :param from the URL.  Zero is rejected
// because no table uses id 0.
func pathID(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

// today returns the current UTC date in the "YYYY-MM-DD" form the
// schedule queries compare against.
func today() string {
	return nowUTC().Format("2006-01-02")
}
