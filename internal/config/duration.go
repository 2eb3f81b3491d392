package config

import (
	"fmt"
	"time"
)

// Duration is a time.Duration that decodes from a Go duration string
// ("100ms") or a number of seconds (0.1).
type Duration time.Duration

func (d Duration) D() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d *Duration) UnmarshalTOML(v any) error {
	switch x := v.(type) {
	case string:
		pd, err := time.ParseDuration(x)
		if err != nil {
			return err
		}
		*d = Duration(pd)
	case int64:
		*d = Duration(time.Duration(x) * time.Second)
	case float64:
		*d = Duration(x * float64(time.Second))
	default:
		return fmt.Errorf("invalid duration %v (%T)", v, v)
	}
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}
