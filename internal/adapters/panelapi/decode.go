package panelapi

import (
	"encoding/json"
	"strconv"
	"time"

	"signalpanel/internal/timeutil"
)

// flexFloat decodes a JSON number that some backend versions send as
// a quoted string.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*f = 0
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		if str == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return err
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// flexTime accepts epoch seconds, epoch millis, numeric strings and
// the backend's assorted date strings.
type flexTime struct {
	t  time.Time
	ok bool
}

func (f *flexTime) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f.t, f.ok = timeutil.ParseTimestamp(raw)
	return nil
}

// firstFloat returns the first present value from a fallback chain of
// optional flexFloats.
func firstFloat(candidates ...*flexFloat) (float64, bool) {
	for _, c := range candidates {
		if c != nil {
			return float64(*c), true
		}
	}
	return 0, false
}

// firstTime returns the first parseable time from a fallback chain.
func firstTime(candidates ...flexTime) (time.Time, bool) {
	for _, c := range candidates {
		if c.ok {
			return c.t, true
		}
	}
	return time.Time{}, false
}
