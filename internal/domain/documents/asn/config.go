package asn

import "storeroom/internal/core/numerator"

const (
	// NumeratorStrategy defines the numbering strategy for this document type.
	// Notices are internal planning documents, gaps are acceptable.
	NumeratorStrategy = numerator.StrategyCached
)
