package repository

import "errors"

var (
	// ErrFetcherUnavailable indicates no fetcher is configured for a source kind
	ErrFetcherUnavailable = errors.New("no fetcher configured for source")

	// ErrAnalysisNotFound indicates the analysis result was not found
	ErrAnalysisNotFound = errors.New("analysis result not found")

	// ErrInvalidAnalysisID indicates an ID that cannot name a stored report
	ErrInvalidAnalysisID = errors.New("invalid analysis id")
)
