// Package domain provides core domain models and types.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegistryEntry maps a ticker symbol to its registry identifier.
// Symbol is uppercase; Identifier is the 10-digit zero-padded CIK.
type RegistryEntry struct {
	Symbol     string `json:"symbol" msgpack:"symbol"`
	Identifier string `json:"identifier" msgpack:"identifier"`
	Name       string `json:"name,omitempty" msgpack:"name,omitempty"` // Registry title, used as company name fallback
}

// FilingRecord describes a located regulatory filing
type FilingRecord struct {
	Symbol      string    `json:"symbol"`
	CompanyName string    `json:"company_name"`
	FilingType  string    `json:"filing_type"` // e.g. "10-Q"
	FilingDate  time.Time `json:"filing_date"`
	DocumentURL string    `json:"document_url"`
	AccessionID string    `json:"accession_id"`
}

// PriceObservation is a single daily adjusted close
type PriceObservation struct {
	Timestamp time.Time       `json:"timestamp"`
	Price     decimal.Decimal `json:"price"`
}

// AlignedPrices holds the outcome of aligning a filing date against a price series.
// A nil field means no observation qualified.
type AlignedPrices struct {
	AtOrAfterFiling *decimal.Decimal
	MostRecent      *decimal.Decimal
}

// CorrelationResult is the terminal output of the filing pipeline
type CorrelationResult struct {
	Symbol                         string           `json:"symbol"`
	CompanyName                    string           `json:"company_name"`
	FilingType                     string           `json:"filing_type"`
	FilingDate                     time.Time        `json:"filing_date"`
	FilingURL                      string           `json:"filing_url"`
	AccessionID                    string           `json:"accession_id"`
	FilingPriceAtOrAfterFilingDate *decimal.Decimal `json:"filing_price_at_or_after_filing_date"`
	MostRecentPrice                *decimal.Decimal `json:"most_recent_price"`
	DocumentText                   string           `json:"document_text"`
}

// PriceChange returns the relative move from the filing price to the most recent price.
// ok is false when either price is missing or the filing price is zero.
func (r *CorrelationResult) PriceChange() (change decimal.Decimal, ok bool) {
	if r.FilingPriceAtOrAfterFilingDate == nil || r.MostRecentPrice == nil {
		return decimal.Zero, false
	}
	if r.FilingPriceAtOrAfterFilingDate.IsZero() {
		return decimal.Zero, false
	}
	return r.MostRecentPrice.Sub(*r.FilingPriceAtOrAfterFilingDate).Div(*r.FilingPriceAtOrAfterFilingDate), true
}
