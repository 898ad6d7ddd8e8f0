// Package purchase provides the PurchaseOrder document repository.
package purchase

import (
	"context"
	"time"

	"storeroom/internal/core/id"
	"storeroom/internal/domain"
)

// Repository defines operations for purchase order documents.
type Repository interface {
	// CRUD operations
	Create(ctx context.Context, doc *PurchaseOrder) error
	GetByID(ctx context.Context, docID id.ID) (*PurchaseOrder, error)
	GetByNumber(ctx context.Context, number string) (*PurchaseOrder, error)
	Update(ctx context.Context, doc *PurchaseOrder) error
	Delete(ctx context.Context, docID id.ID) error

	// Line operations
	GetLines(ctx context.Context, docID id.ID) ([]POLine, error)
	SaveLines(ctx context.Context, docID id.ID, lines []POLine) error

	// UpdateStatus sets the informational status.
	UpdateStatus(ctx context.Context, docID id.ID, status Status) error

	// List operations
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*PurchaseOrder], error)

	// Locking
	GetForUpdate(ctx context.Context, docID id.ID) (*PurchaseOrder, error)
}

// ListFilter for filtering purchase orders.
type ListFilter struct {
	domain.ListFilter

	SupplierID *id.ID
	Status     *Status
	DateFrom   *time.Time
	DateTo     *time.Time
}
