package purchase

import "storeroom/internal/core/numerator"

const (
	// NumeratorStrategy defines the numbering strategy for this document type.
	// Purchase orders are internal documents, gaps are acceptable.
	NumeratorStrategy = numerator.StrategyCached
)
