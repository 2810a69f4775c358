package formulas

import "errors"

// Failure kinds surfaced by the estimators. Callers classify them with
// errors.Is; every returned error wraps exactly one of these.
var (
	// ErrInsufficientData - fewer observations than a variance or quantile needs
	ErrInsufficientData = errors.New("insufficient data")
	// ErrDateNotFound - an evaluation date is absent from the series index
	ErrDateNotFound = errors.New("date not found in series index")
	// ErrWindowUnderflow - fewer than window observations precede an evaluation date
	ErrWindowUnderflow = errors.New("window underflow")
	// ErrThresholdNotReached - cumulative weights never reach the tail probability
	ErrThresholdNotReached = errors.New("cumulative weight never reached tail probability")
	// ErrInvalidParameter - confidence, window, or weight vector failed validation
	ErrInvalidParameter = errors.New("invalid parameter")
)
