package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")
	// ErrMissingName marks a listing dropped because it has no product name
	ErrMissingName = errors.New("listing has no product name")
	// ErrReportNotFound is returned when a stored report does not exist
	ErrReportNotFound = errors.New("report not found")
	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
	// ErrFeedFailure is returned when the listing feed request fails
	ErrFeedFailure = errors.New("listing feed request failed")
	// ErrSourceUnavailable is returned when a listing source has nothing to serve
	ErrSourceUnavailable = errors.New("listing source unavailable")
	// ErrInvalidTables is returned when matching tables fail validation
	ErrInvalidTables = errors.New("invalid matching tables")
)
