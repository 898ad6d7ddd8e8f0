package exportdoc

import (
	"context"
	"fmt"
	"time"

	"storeroom/internal/core/id"
	"storeroom/internal/core/numerator"
	"storeroom/internal/core/tx"
	"storeroom/internal/core/types"
	"storeroom/internal/domain"
	"storeroom/internal/domain/audit"
	"storeroom/internal/domain/ledger"
	"storeroom/pkg/logger"
)

// Stock is the slice of the ledger service an issue needs.
type Stock interface {
	GetByID(ctx context.Context, lotID id.ID) (*ledger.StockLot, error)
	DecrementLot(ctx context.Context, lotID id.ID, amount int64) (*ledger.StockLot, error)
	RestoreLot(ctx context.Context, lotID id.ID, amount int64) (*ledger.StockLot, error)
}

// Service provides business operations for export documents.
type Service struct {
	repo      Repository
	stock     Stock
	numerator numerator.Generator
	txManager tx.Manager
	audit     audit.Recorder
	hooks     *domain.HookRegistry[*ExportDocument]
}

// NewService creates a new export document service.
func NewService(
	repo Repository,
	stock Stock,
	gen numerator.Generator,
	txManager tx.Manager,
	auditRec audit.Recorder,
) *Service {
	if auditRec == nil {
		auditRec = audit.Nop{}
	}
	svc := &Service{
		repo:      repo,
		stock:     stock,
		numerator: gen,
		txManager: txManager,
		audit:     auditRec,
		hooks:     domain.NewHookRegistry[*ExportDocument](),
	}
	svc.hooks.OnBeforeCreate(func(ctx context.Context, doc *ExportDocument) error {
		return audit.EnrichCreatedBy(ctx, doc)
	})
	return svc
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*ExportDocument] {
	return s.hooks
}

// resolveLine fills the line from its lot: the product comes from the lot,
// and a zero line price falls back to the lot's unit cost. The total is
// rounded once, after discount.
func resolveLine(line *ExportLine, lot *ledger.StockLot) {
	line.ProductID = lot.ProductID
	if line.UnitPrice.IsZero() {
		line.UnitPrice = lot.UnitCost
	}
	line.Total = types.LineTotal(line.Quantity, line.UnitPrice, line.DiscountPercent)
}

// Create creates a goods issue and decrements every referenced lot. Any
// line exceeding its lot's quantity fails the whole document.
func (s *Service) Create(ctx context.Context, doc *ExportDocument) error {
	if err := s.hooks.RunBeforeCreate(ctx, doc); err != nil {
		return err
	}

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	if doc.Number == "" {
		cfg := numerator.DefaultConfig(numerator.PrefixExport)
		number, err := s.numerator.GetNextNumber(ctx, cfg, &numerator.Options{Strategy: NumeratorStrategy}, time.Now())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		doc.Number = number
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for i := range doc.Lines {
			line := &doc.Lines[i]
			lot, err := s.stock.DecrementLot(ctx, line.LotID, line.Quantity)
			if err != nil {
				return err
			}
			resolveLine(line, lot)
		}

		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return s.audit.RecordChange(ctx, "export_document", doc.ID, audit.ActionCreate, map[string]any{
			"number":   doc.Number,
			"customer": doc.Customer,
			"total":    doc.TotalAmount().String(),
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "export document created",
		"id", doc.ID,
		"number", doc.Number,
		"total", doc.TotalAmount())

	return nil
}

// GetByID retrieves an export document with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*ExportDocument, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines

	return doc, nil
}

// GetByNumber retrieves an export document by its human-readable code.
func (s *Service) GetByNumber(ctx context.Context, number string) (*ExportDocument, error) {
	doc, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines

	return doc, nil
}

// GetLine retrieves a single issued line. Used by the return document
// service to bound cumulative returns.
func (s *Service) GetLine(ctx context.Context, lineID id.ID) (*ExportLine, error) {
	return s.repo.GetLine(ctx, lineID)
}

// Update replaces the issue and its lines, adjusting the ledger by deltas:
// a grown line decrements the difference, a shrunk line restores it, a
// removed line restores in full, and a line moved to another lot is
// treated as remove plus add.
func (s *Service) Update(ctx context.Context, doc *ExportDocument) error {
	if err := audit.EnrichUpdatedBy(ctx, doc); err != nil {
		return err
	}

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetForUpdate(ctx, doc.ID); err != nil {
			return err
		}

		oldLines, err := s.repo.GetLines(ctx, doc.ID)
		if err != nil {
			return fmt.Errorf("get lines: %w", err)
		}
		oldByID := make(map[id.ID]ExportLine, len(oldLines))
		for _, line := range oldLines {
			oldByID[line.LineID] = line
		}

		for i := range doc.Lines {
			line := &doc.Lines[i]
			old, existed := oldByID[line.LineID]
			if existed {
				delete(oldByID, line.LineID)
			}

			switch {
			case existed && old.LotID == line.LotID:
				delta := line.Quantity - old.Quantity
				if delta > 0 {
					if _, err := s.stock.DecrementLot(ctx, line.LotID, delta); err != nil {
						return err
					}
				} else if delta < 0 {
					if _, err := s.stock.RestoreLot(ctx, line.LotID, -delta); err != nil {
						return err
					}
				}
			case existed:
				// Line moved to another lot
				if _, err := s.stock.RestoreLot(ctx, old.LotID, old.Quantity); err != nil {
					return err
				}
				if _, err := s.stock.DecrementLot(ctx, line.LotID, line.Quantity); err != nil {
					return err
				}
			default:
				if _, err := s.stock.DecrementLot(ctx, line.LotID, line.Quantity); err != nil {
					return err
				}
			}

			lot, err := s.stock.GetByID(ctx, line.LotID)
			if err != nil {
				return err
			}
			resolveLine(line, lot)
		}

		// Lines removed from the document
		for _, old := range oldByID {
			if _, err := s.stock.RestoreLot(ctx, old.LotID, old.Quantity); err != nil {
				return err
			}
		}

		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return s.audit.RecordChange(ctx, "export_document", doc.ID, audit.ActionUpdate, map[string]any{
			"number": doc.Number,
			"total":  doc.TotalAmount().String(),
		})
	})
}

// Delete restores every issued quantity to its lot and removes the
// document.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, line := range doc.Lines {
			if _, err := s.stock.RestoreLot(ctx, line.LotID, line.Quantity); err != nil {
				return err
			}
		}

		if err := s.repo.Delete(ctx, docID); err != nil {
			return fmt.Errorf("delete document: %w", err)
		}
		return s.audit.RecordChange(ctx, "export_document", docID, audit.ActionDelete, map[string]any{
			"number": doc.Number,
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "export document deleted",
		"id", docID,
		"number", doc.Number)

	return nil
}

// DeleteByNumber removes the issue addressed by its code.
func (s *Service) DeleteByNumber(ctx context.Context, number string) error {
	doc, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		return err
	}
	return s.Delete(ctx, doc.ID)
}

// List retrieves export documents with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*ExportDocument], error) {
	return s.repo.List(ctx, filter)
}
