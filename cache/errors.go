package cache

// RefreshError wraps a failed or panicking refresh callback.
type RefreshError struct {
	Category string
	Err      error
}

func (e *RefreshError) Error() string {
	return "cache: refresh " + e.Category + ": " + e.Err.Error()
}

func (e *RefreshError) Unwrap() error { return e.Err }
