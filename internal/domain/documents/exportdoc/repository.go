package exportdoc

import (
	"context"
	"time"

	"storeroom/internal/core/id"
	"storeroom/internal/domain"
)

// Repository defines operations for export documents.
type Repository interface {
	// CRUD operations
	Create(ctx context.Context, doc *ExportDocument) error
	GetByID(ctx context.Context, docID id.ID) (*ExportDocument, error)
	GetByNumber(ctx context.Context, number string) (*ExportDocument, error)
	Update(ctx context.Context, doc *ExportDocument) error
	Delete(ctx context.Context, docID id.ID) error

	// Line operations
	GetLines(ctx context.Context, docID id.ID) ([]ExportLine, error)
	GetLine(ctx context.Context, lineID id.ID) (*ExportLine, error)
	SaveLines(ctx context.Context, docID id.ID, lines []ExportLine) error

	// List operations
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*ExportDocument], error)

	// Locking
	GetForUpdate(ctx context.Context, docID id.ID) (*ExportDocument, error)
}

// ListFilter for filtering export documents.
type ListFilter struct {
	domain.ListFilter

	Customer string
	DateFrom *time.Time
	DateTo   *time.Time
}
