package matching

import (
	"fmt"

	"github.com/concilia-app/concilia-backend/internal/infrastructure/storage"
)

// Weights holds the contribution of each scoring factor to the composite
// confidence. The defaults sum to 1.0, keeping confidence in [0, 1].
type Weights struct {
	Value          float64
	Identification float64
	Date           float64
	OrderReference float64
}

// Config holds matcher configuration.
type Config struct {
	Weights Weights

	// ValueTolerance is the relative amount difference still considered
	// a near match.
	ValueTolerance float64

	// DateToleranceDays bounds the due-date proximity window.
	DateToleranceDays int

	// CreatedDateToleranceDays bounds the wider creation-date window
	// used when a receivable has no due date.
	CreatedDateToleranceDays int

	// MinConfidence filters out candidates below this composite score.
	MinConfidence float64
}

// DefaultConfig returns the production weighting: amount similarity
// dominates, then payer identification, date proximity, and finally the
// order-number reference in the description.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Value:          0.40,
			Identification: 0.30,
			Date:           0.20,
			OrderReference: 0.10,
		},
		ValueTolerance:           0.05,
		DateToleranceDays:        7,
		CreatedDateToleranceDays: 30,
		MinConfidence:            0.3,
	}
}

// Factors records each factor's raw score for a candidate. The breakdown
// is shown verbatim to operators reviewing suggestions and is embedded
// in the notes of automatic reconciliations.
type Factors struct {
	Value          float64 `json:"value"`
	Identification float64 `json:"identification"`
	Date           float64 `json:"date"`
	OrderReference float64 `json:"order_reference"`
}

// String renders the breakdown in the fixed operator-facing format.
func (f Factors) String() string {
	return fmt.Sprintf("value: %.2f, identification: %.2f, date: %.2f, order: %.2f",
		f.Value, f.Identification, f.Date, f.OrderReference)
}

// Match is one ranked candidate for a transaction.
type Match struct {
	Receivable *storage.Receivable `json:"receivable"`
	Confidence float64             `json:"confidence"`
	Factors    Factors             `json:"factors"`
}
