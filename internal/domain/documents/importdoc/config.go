package importdoc

import "storeroom/internal/core/numerator"

const (
	// NumeratorStrategy defines the numbering strategy for this document type.
	// Receipts feed accounting, numbers must be gapless.
	NumeratorStrategy = numerator.StrategyStrict
)
