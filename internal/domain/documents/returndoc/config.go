package returndoc

import "storeroom/internal/core/numerator"

const (
	// NumeratorStrategy defines the numbering strategy for this document type.
	// Returns feed accounting, numbers must be gapless.
	NumeratorStrategy = numerator.StrategyStrict
)
