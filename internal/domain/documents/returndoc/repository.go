package returndoc

import (
	"context"
	"time"

	"storeroom/internal/core/id"
	"storeroom/internal/domain"
)

// Repository defines operations for return documents.
type Repository interface {
	// CRUD operations
	Create(ctx context.Context, doc *ReturnDocument) error
	GetByID(ctx context.Context, docID id.ID) (*ReturnDocument, error)
	GetByNumber(ctx context.Context, number string) (*ReturnDocument, error)
	Update(ctx context.Context, doc *ReturnDocument) error
	Delete(ctx context.Context, docID id.ID) error

	// Line operations
	GetLines(ctx context.Context, docID id.ID) ([]ReturnLine, error)
	SaveLines(ctx context.Context, docID id.ID, lines []ReturnLine) error

	// SumReturnedByExportLine returns the total quantity already returned
	// against an export line across all return documents, optionally
	// excluding one document (the one currently being re-saved).
	SumReturnedByExportLine(ctx context.Context, exportLineID id.ID, excludeDocID *id.ID) (int64, error)

	// List operations
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*ReturnDocument], error)

	// Locking
	GetForUpdate(ctx context.Context, docID id.ID) (*ReturnDocument, error)
}

// ListFilter for filtering return documents.
type ListFilter struct {
	domain.ListFilter

	Customer string
	DateFrom *time.Time
	DateTo   *time.Time
}
