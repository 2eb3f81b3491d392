package scheduler

import (
	"errors"
	"fmt"
	"math"
	"unicode/utf8"
)

const (
	// MinOrder and MaxOrder bound the orders accepted by IdleRequire.
	MinOrder = -1_000_000
	MaxOrder = 1_000_000

	// OrderLoadCache sorts before every legal order so the cache is resident
	// before any expansion runs.
	OrderLoadCache = MinOrder - 1
	// OrderFallback sorts after every legal order and every sub-order
	// derived from one.
	OrderFallback = MaxOrder + 1
)

var (
	// ErrInvalidOrder is matched by every *InvalidOrderError.
	ErrInvalidOrder = errors.New("invalid order")
	ErrEmptyFeature = errors.New("empty feature name")
	// ErrInvalidFeature rejects names that would not survive the cache
	// file unchanged.
	ErrInvalidFeature = errors.New("feature name is not valid UTF-8")
)

// InvalidOrderError reports an order that is not an integer in
// [MinOrder, MaxOrder].
type InvalidOrderError struct {
	Order float64
}

func (e *InvalidOrderError) Error() string {
	return fmt.Sprintf("invalid order %v: must be an integer in [%d, %d]", e.Order, MinOrder, MaxOrder)
}

func (e *InvalidOrderError) Is(target error) bool {
	return target == ErrInvalidOrder
}

// ValidateOrder returns an *InvalidOrderError unless order is a finite
// integer within [MinOrder, MaxOrder].
func ValidateOrder(order float64) error {
	if math.IsNaN(order) || math.IsInf(order, 0) || order != math.Trunc(order) ||
		order < MinOrder || order > MaxOrder {
		return &InvalidOrderError{Order: order}
	}
	return nil
}

// IdleRequire asks for f to be loaded during a later idle period. Lower
// orders run first. The dependency cache is scheduled to load ahead of the
// request so that expansion can use it.
func (s *Scheduler) IdleRequire(f Feature, order float64) error {
	if err := ValidateOrder(order); err != nil {
		return err
	}
	if f == "" {
		return ErrEmptyFeature
	}
	if !utf8.ValidString(string(f)) {
		return ErrInvalidFeature
	}
	if s.closed {
		return ErrClosed
	}
	s.Schedule(LoadCache(), OrderLoadCache)
	s.Schedule(IdleRequire(f), order)
	return nil
}
