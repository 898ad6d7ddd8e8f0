package asn

import (
	"context"
	"time"

	"storeroom/internal/core/id"
	"storeroom/internal/domain"
)

// Repository defines operations for shipment notice documents.
type Repository interface {
	// CRUD operations
	Create(ctx context.Context, doc *AdvanceShipmentNotice) error
	GetByID(ctx context.Context, docID id.ID) (*AdvanceShipmentNotice, error)
	GetByNumber(ctx context.Context, number string) (*AdvanceShipmentNotice, error)
	Update(ctx context.Context, doc *AdvanceShipmentNotice) error
	Delete(ctx context.Context, docID id.ID) error

	// Line operations
	GetLines(ctx context.Context, docID id.ID) ([]ASNLine, error)
	SaveLines(ctx context.Context, docID id.ID, lines []ASNLine) error

	// UpdateStatus sets the delivery status.
	UpdateStatus(ctx context.Context, docID id.ID, status Status) error

	// SumDelivered returns the total quantity of a product already notified
	// against a purchase order across all notices, optionally excluding one
	// notice (the one currently being re-saved).
	SumDelivered(ctx context.Context, poID, productID id.ID, excludeASNID *id.ID) (int64, error)

	// List operations
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*AdvanceShipmentNotice], error)

	// Locking
	GetForUpdate(ctx context.Context, docID id.ID) (*AdvanceShipmentNotice, error)
}

// ListFilter for filtering shipment notices.
type ListFilter struct {
	domain.ListFilter

	PurchaseOrderID *id.ID
	SupplierID      *id.ID
	Status          *Status
	DateFrom        *time.Time
	DateTo          *time.Time
}
