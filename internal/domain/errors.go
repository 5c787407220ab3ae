package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Component errors wrap exactly one of these so callers can classify with errors.Is.
var (
	ErrUnknownSymbol    = errors.New("unknown symbol")
	ErrNoFilingFound    = errors.New("no recent filing of this type")
	ErrFetchFailure     = errors.New("source unavailable")
	ErrMalformedSource  = errors.New("malformed source response")
	ErrPriceUnavailable = errors.New("price data unavailable")
)

// Stage names a step of the filing pipeline
type Stage string

const (
	StageResolveIdentifier Stage = "resolve_identifier"
	StageLocateFiling      Stage = "locate_filing"
	StageFetchDocument     Stage = "fetch_document"
	StageAlignPrices       Stage = "align_prices"
	StageAssemble          Stage = "assemble"
)

// PipelineError reports a fatal pipeline failure and the stage it happened in
type PipelineError struct {
	Symbol string
	Stage  Stage
	Cause  error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Symbol, e.Stage, e.Cause)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Kind returns the error kind wrapped by Cause, or nil if it is unclassified.
func (e *PipelineError) Kind() error {
	return KindOf(e.Cause)
}

// UserMessage returns a cause description without URLs or internal detail
func (e *PipelineError) UserMessage() string {
	switch e.Kind() {
	case ErrUnknownSymbol:
		return fmt.Sprintf("Unknown symbol %q", e.Symbol)
	case ErrNoFilingFound:
		return fmt.Sprintf("No recent filing of the requested type for %s", e.Symbol)
	case ErrFetchFailure:
		return fmt.Sprintf("A data source is temporarily unavailable while processing %s (%s)", e.Symbol, e.Stage)
	case ErrMalformedSource:
		return fmt.Sprintf("A data source returned an unexpected response for %s (%s)", e.Symbol, e.Stage)
	default:
		return fmt.Sprintf("Failed to process %s (%s)", e.Symbol, e.Stage)
	}
}

// KindOf classifies err into one of the error kinds
func KindOf(err error) error {
	for _, kind := range []error{ErrUnknownSymbol, ErrNoFilingFound, ErrFetchFailure, ErrMalformedSource, ErrPriceUnavailable} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
