// Package timeseries provides the ordered daily series type shared by the
// risk estimators and the history storage layer.
package timeseries

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Point is a single dated observation. A NaN value marks an undefined
// observation (e.g. the first entry of a return series derived from prices).
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Series is an ordered sequence of dated observations with strictly
// increasing dates. It is built incrementally, one point per day, and is
// owned by the caller once complete.
type Series struct {
	points []Point
}

// New creates an empty series with capacity for n points
func New(n int) *Series {
	return &Series{points: make([]Point, 0, n)}
}

// FromPoints creates a series from pre-built points, validating date order
func FromPoints(points []Point) (*Series, error) {
	s := New(len(points))
	for _, p := range points {
		if err := s.Append(p.Date, p.Value); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Append adds one observation. Dates must be strictly increasing.
func (s *Series) Append(date time.Time, value float64) error {
	if n := len(s.points); n > 0 && !s.points[n-1].Date.Before(date) {
		return fmt.Errorf("out-of-order append: %s does not follow %s",
			date.Format("2006-01-02"), s.points[n-1].Date.Format("2006-01-02"))
	}
	s.points = append(s.points, Point{Date: date, Value: value})
	return nil
}

// Len returns the number of observations
func (s *Series) Len() int {
	return len(s.points)
}

// At returns the observation at position i
func (s *Series) At(i int) Point {
	return s.points[i]
}

// Date returns the date at position i
func (s *Series) Date(i int) time.Time {
	return s.points[i].Date
}

// Value returns the value at position i
func (s *Series) Value(i int) float64 {
	return s.points[i].Value
}

// IndexOf locates a date in the series index via binary search
func (s *Series) IndexOf(date time.Time) (int, bool) {
	i := sort.Search(len(s.points), func(j int) bool {
		return !s.points[j].Date.Before(date)
	})
	if i < len(s.points) && s.points[i].Date.Equal(date) {
		return i, true
	}
	return 0, false
}

// Values returns a copy of the values in the half-open index range [i, j)
func (s *Series) Values(i, j int) []float64 {
	out := make([]float64, j-i)
	for k := i; k < j; k++ {
		out[k-i] = s.points[k].Value
	}
	return out
}

// Points returns a copy of all observations
func (s *Series) Points() []Point {
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

// Defined returns the values that are not NaN
func (s *Series) Defined() []float64 {
	out := make([]float64, 0, len(s.points))
	for _, p := range s.points {
		if !math.IsNaN(p.Value) {
			out = append(out, p.Value)
		}
	}
	return out
}
