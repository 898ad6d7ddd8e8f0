package exportdoc

import "storeroom/internal/core/numerator"

const (
	// NumeratorStrategy defines the numbering strategy for this document type.
	// Issues are billing documents, numbers must be gapless.
	NumeratorStrategy = numerator.StrategyStrict
)
