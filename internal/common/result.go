package common

// StepFetchResult represents the result of fetching one date step in a
// batch run. The worker pool reports these back out of order; Index
// preserves the step position.
type StepFetchResult struct {
	// From/To bound the step's time range (RFC3339)
	From string
	To   string

	// Data contains the raster bytes when the fetch succeeded
	Data []byte

	// ContentType of the returned raster
	ContentType string

	// CacheKey the raster was stored under, when caching is on
	CacheKey string

	// Success indicates whether the fetch succeeded
	Success bool

	// Error contains any error that occurred during the fetch
	Error error

	// Index preserves the original step order for async operations
	Index int
}
