// Package guard provides stateless cross-document quantity-conservation
// checks. Every check computes
//
//	bound = upstream − Σ(downstream already recorded, excluding the record
//	being saved)
//
// and rejects when the requested quantity exceeds the bound.
package guard

import (
	"storeroom/internal/core/apperror"
)

// Relation names reported in QuantityBoundExceeded details.
const (
	RelationPOToASN        = "po_asn"
	RelationExportToReturn = "export_return"
)

// CheckBound is the generic bound check.
func CheckBound(relation string, upstream, alreadyRecorded, requested int64) error {
	bound := upstream - alreadyRecorded
	if requested > bound {
		return apperror.NewQuantityBoundExceeded(relation, bound, requested)
	}
	return nil
}

// CheckASNAgainstPO validates that cumulative ASN line quantity for a
// (PO, product) pair stays within the PO line's ordered quantity.
// alreadyDelivered excludes the line being saved.
func CheckASNAgainstPO(ordered, alreadyDelivered, requested int64) error {
	return CheckBound(RelationPOToASN, ordered, alreadyDelivered, requested)
}

// CheckReturnAgainstExport validates that cumulative returned quantity
// against an export line stays within the exported quantity.
// alreadyReturned excludes the line being saved.
func CheckReturnAgainstExport(exported, alreadyReturned, requested int64) error {
	return CheckBound(RelationExportToReturn, exported, alreadyReturned, requested)
}
