package importdoc

import (
	"context"
	"time"

	"storeroom/internal/core/id"
	"storeroom/internal/domain"
)

// Repository defines operations for import documents.
type Repository interface {
	// CRUD operations
	Create(ctx context.Context, doc *ImportDocument) error
	GetByID(ctx context.Context, docID id.ID) (*ImportDocument, error)
	GetByNumber(ctx context.Context, number string) (*ImportDocument, error)
	Update(ctx context.Context, doc *ImportDocument) error
	Delete(ctx context.Context, docID id.ID) error

	// Line operations
	GetLines(ctx context.Context, docID id.ID) ([]ImportLine, error)
	SaveLines(ctx context.Context, docID id.ID, lines []ImportLine) error

	// ExistsByASN reports whether any receipt references the shipment notice.
	ExistsByASN(ctx context.Context, asnID id.ID) (bool, error)

	// List operations
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*ImportDocument], error)

	// Locking
	GetForUpdate(ctx context.Context, docID id.ID) (*ImportDocument, error)
}

// ListFilter for filtering import documents.
type ListFilter struct {
	domain.ListFilter

	SupplierID *id.ID
	ASNID      *id.ID
	DateFrom   *time.Time
	DateTo     *time.Time
}
