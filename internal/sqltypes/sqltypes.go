package sqltypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Formats seen coming back from sqlite for timestamp-ish expressions. Table
// columns declared as timestamp arrive pre-parsed as time.Time; aggregate and
// derived expressions lose the declared type and arrive as text.
var timeFormats = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) (time.Time, error) {
	for _, f := range timeFormats {
		if v, err := time.Parse(f, s); err == nil {
			return v, nil
		}
	}

	return time.Time{}, fmt.Errorf("sqltypes.parseTime: could not parse input value %q", s)
}

type TimeScanner struct {
	Value *time.Time
}

func (t *TimeScanner) Scan(src interface{}) error {
	switch src := src.(type) {
	case time.Time:
		*t.Value = src
		return nil
	case string:
		v, err := parseTime(src)
		if err != nil {
			return fmt.Errorf("sqltypes.TimeScanner: %w", err)
		}
		*t.Value = v
		return nil
	case []byte:
		v, err := parseTime(string(src))
		if err != nil {
			return fmt.Errorf("sqltypes.TimeScanner: %w", err)
		}
		*t.Value = v
		return nil
	default:
		return fmt.Errorf("sqltypes.TimeScanner: could not scan input type of %T", src)
	}
}

type TimePointerScanner struct {
	Value **time.Time
}

func (t *TimePointerScanner) Scan(src interface{}) error {
	switch src := src.(type) {
	case nil:
		*t.Value = nil
		return nil
	case time.Time:
		*t.Value = &src
		return nil
	case string:
		v, err := parseTime(src)
		if err != nil {
			return fmt.Errorf("sqltypes.TimePointerScanner: %w", err)
		}
		*t.Value = &v
		return nil
	case []byte:
		v, err := parseTime(string(src))
		if err != nil {
			return fmt.Errorf("sqltypes.TimePointerScanner: %w", err)
		}
		*t.Value = &v
		return nil
	default:
		return fmt.Errorf("sqltypes.TimePointerScanner: could not scan input type of %T", src)
	}
}

// BoolScanner reads sqlite integer flags, including coalesced expressions
// where the declared column type is lost. nil scans as false, which is what a
// missing state row means.
type BoolScanner struct {
	Value *bool
}

func (t *BoolScanner) Scan(src interface{}) error {
	switch src := src.(type) {
	case nil:
		*t.Value = false
		return nil
	case bool:
		*t.Value = src
		return nil
	case int64:
		*t.Value = src != 0
		return nil
	default:
		return fmt.Errorf("sqltypes.BoolScanner: could not scan input type of %T", src)
	}
}

type JSONStringSlice []string

func (s JSONStringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}

	return json.Marshal(s)
}

func (s *JSONStringSlice) Scan(src interface{}) error {
	switch src := src.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		if err := json.Unmarshal(src, s); err != nil {
			return fmt.Errorf("sqltypes.JSONStringSlice: could not decode input (%T) as JSON: %w", src, err)
		}
		return nil
	case string:
		if err := json.Unmarshal([]byte(src), s); err != nil {
			return fmt.Errorf("sqltypes.JSONStringSlice: could not decode input (%T) as JSON: %w", src, err)
		}
		return nil
	default:
		return fmt.Errorf("sqltypes.JSONStringSlice: could not scan input type of %T", src)
	}
}
