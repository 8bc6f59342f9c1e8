package services

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

var (
	// ErrInvalidArgument marks input the caller must fix (HTTP 400).
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrComputation marks arithmetic that has no finite result (HTTP 500).
	ErrComputation = errors.New("computation error")
)

// MathService implements the pure operations exposed over HTTP.
type MathService struct {
	maxN int64
}

// NewMathService returns a MathService. maxN bounds the n of fibonacci and
// factorial; zero leaves them unbounded.
func NewMathService(maxN int64) *MathService {
	return &MathService{maxN: maxN}
}

// Power returns base^exponent with float64 semantics.
func (s *MathService) Power(base, exponent float64) (float64, error) {
	result := math.Pow(base, exponent)
	if math.IsNaN(result) && !math.IsNaN(base) && !math.IsNaN(exponent) {
		return 0, fmt.Errorf("%w: math domain error", ErrComputation)
	}
	if math.IsInf(result, 0) && !math.IsInf(base, 0) && !math.IsInf(exponent, 0) {
		if base == 0 {
			return 0, fmt.Errorf("%w: math domain error", ErrComputation)
		}
		return 0, fmt.Errorf("%w: math range error", ErrComputation)
	}
	return result, nil
}

// Fibonacci returns the n-th Fibonacci number, fib(0)=0 and fib(1)=1.
func (s *MathService) Fibonacci(n int64) (*big.Int, error) {
	if err := s.checkN(n); err != nil {
		return nil, err
	}

	a, b := big.NewInt(0), big.NewInt(1)
	for i := int64(0); i < n; i++ {
		a.Add(a, b)
		a, b = b, a
	}
	return a, nil
}

// Factorial returns n! exactly.
func (s *MathService) Factorial(n int64) (*big.Int, error) {
	if err := s.checkN(n); err != nil {
		return nil, err
	}
	if n < 2 {
		return big.NewInt(1), nil
	}
	return new(big.Int).MulRange(1, n), nil
}

func (s *MathService) checkN(n int64) error {
	if n < 0 {
		return fmt.Errorf("%w: n must be non-negative", ErrInvalidArgument)
	}
	if s.maxN > 0 && n > s.maxN {
		return fmt.Errorf("%w: n must not exceed %d", ErrInvalidArgument, s.maxN)
	}
	return nil
}

// FormatFloat renders f the way it is stored in request_logs: shortest
// round-trip digits, always with a fractional part or exponent ("1024.0",
// "0.5", "1e+16").
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e16 || abs < 1e-4) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
