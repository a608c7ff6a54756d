package tracker

import (
	"iter"
	"slices"
	"sort"
)

// Series stores a chronological sequence of values, each associated with a
// calendar day. Days are unique and the sequence is always sorted.
//
// It backs both the per-ticker daily balances and the per-ticker daily
// candles, which only ever need day-keyed lookups.
type Series[T any] struct {
	days   []Date
	values []T
}

// Len returns the number of points in the series.
func (s *Series[T]) Len() int { return len(s.days) }

// First returns the earliest day and value in the series.
// If the series is empty, it returns zero values.
func (s *Series[T]) First() (day Date, value T) {
	if len(s.days) == 0 {
		return Date{}, *new(T)
	}
	return s.days[0], s.values[0]
}

// Latest returns the latest day and value in the series.
// If the series is empty, it returns zero values.
func (s *Series[T]) Latest() (day Date, value T) {
	last := len(s.days) - 1
	if last < 0 {
		return Date{}, *new(T)
	}
	return s.days[last], s.values[last]
}

// chronological is a private implementation to keep the series sorted by day.
type chronological[T any] struct{ *Series[T] }

func (c chronological[T]) Len() int           { return len(c.days) }
func (c chronological[T]) Less(i, j int) bool { return c.days[i].Before(c.days[j]) }
func (c chronological[T]) Swap(i, j int) {
	c.days[i], c.days[j] = c.days[j], c.days[i]
	c.values[i], c.values[j] = c.values[j], c.values[i]
}

func (s *Series[T]) sort() { sort.Sort(chronological[T]{s}) }

// Append adds a point to the series.
//
// An existing value on that day is overwritten: when entries are appended in
// ledger order, the last value of the day wins.
func (s *Series[T]) Append(on Date, v T) *Series[T] {
	if i := slices.Index(s.days, on); i >= 0 {
		s.values[i] = v
		return s
	}
	s.days, s.values = append(s.days, on), append(s.values, v)
	s.sort()
	return s
}

// Values returns an iterator over all day/value pairs, in chronological order.
func (s *Series[T]) Values() iter.Seq2[Date, T] {
	return func(yield func(Date, T) bool) {
		for i, on := range s.days {
			if !yield(on, s.values[i]) {
				return
			}
		}
	}
}

// search locates 'day' in the sorted day index.
func (s *Series[T]) search(day Date) (i int, found bool) {
	return slices.BinarySearchFunc(s.days, day, Date.Compare)
}

// Get returns the value recorded exactly on 'day', or the zero value and false.
func (s *Series[T]) Get(day Date) (T, bool) {
	if i, found := s.search(day); found {
		return s.values[i], true
	}
	var zero T
	return zero, false
}

// Backfill returns the value for 'day' using the backfill rule: the value
// recorded on that day if present, otherwise the next recorded value going
// forward in the series. Days after the last recorded value fall back to that
// last value, so a balance persists once the ledger goes quiet.
//
// It returns false only when the series is empty.
func (s *Series[T]) Backfill(day Date) (T, bool) {
	if len(s.days) == 0 {
		var zero T
		return zero, false
	}
	i, found := s.search(day)
	if found {
		return s.values[i], true
	}
	if i == len(s.days) {
		// past the end: nearest known value is the last one.
		return s.values[i-1], true
	}
	return s.values[i], true
}
