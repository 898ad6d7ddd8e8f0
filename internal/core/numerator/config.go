// Package numerator provides domain contracts for document auto-numbering.
package numerator

// Strategy defines the numbering generation strategy.
type Strategy int

const (
	// StrategyStrict uses UPDATE ... RETURNING for every number.
	// Guarantees sequential numbers without gaps.
	// Slower, suitable for receipts and accounting documents.
	StrategyStrict Strategy = iota

	// StrategyCached allocates ranges of numbers in memory.
	// Much faster, but may produce gaps if application restarts.
	// Suitable for internal documents (purchase orders, shipment notices).
	StrategyCached
)

// Options configuration for number generation.
type Options struct {
	// Strategy to use for number generation
	Strategy Strategy
	// RangeSize is the number of IDs to allocate at once in Cached strategy.
	// Default is 50.
	RangeSize int64
}

// DefaultOptions returns standard options (Strict).
func DefaultOptions() *Options {
	return &Options{
		Strategy: StrategyStrict,
	}
}

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g., "PN", "PX", "PO")
	Prefix string

	// IncludeYear adds year segment to the number (PREFIX-YYYY-NNNN)
	IncludeYear bool

	// PadWidth is the minimum number width (default 4)
	PadWidth int

	// ResetPeriod: "year", "month", "never"
	ResetPeriod string
}

// DefaultConfig returns the plain sequential scheme used for all warehouse
// documents: PREFIX immediately followed by a zero-padded counter that never
// resets, e.g. PN0001, PN0002.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: false,
		PadWidth:    4,
		ResetPeriod: "never",
	}
}

// Well-known prefixes per document type.
const (
	PrefixImport        = "PN"
	PrefixExport        = "PX"
	PrefixReturn        = "PH"
	PrefixPurchaseOrder = "PO"
	PrefixASN           = "ASN"
)
