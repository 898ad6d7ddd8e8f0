package returndoc

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
	"storeroom/internal/domain/documents/exportdoc"
	"storeroom/internal/domain/guard"
	"storeroom/internal/domain/ledger"
	"storeroom/pkg/logger"
)

// Stock is the slice of the ledger service a return needs.
type Stock interface {
	GetByID(ctx context.Context, lotID id.ID) (*ledger.StockLot, error)
	SetLot(ctx context.Context, ref ledger.DocumentRef, productID id.ID, expiry *time.Time, quantity int64, unit, location string, unitCost types.Money) (*ledger.StockLot, error)
	DeleteBySource(ctx context.Context, ref ledger.DocumentRef) error
}

// ExportSource loads issued lines. Implemented by the export document
// service.
type ExportSource interface {
	GetLine(ctx context.Context, lineID id.ID) (*exportdoc.ExportLine, error)
}

// defaultReason is stamped on tied lines that carry no reason of their own.
const defaultReason = "customer return"

// Service provides business operations for return documents.
type Service struct {
	repo      Repository
	stock     Stock
	exports   ExportSource
	numerator numerator.Generator
	txManager tx.Manager
	audit     audit.Recorder
	hooks     *domain.HookRegistry[*ReturnDocument]
}

// NewService creates a new return document service.
func NewService(
	repo Repository,
	stock Stock,
	exports ExportSource,
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
		exports:   exports,
		numerator: gen,
		txManager: txManager,
		audit:     auditRec,
		hooks:     domain.NewHookRegistry[*ReturnDocument](),
	}
	svc.hooks.OnBeforeCreate(func(ctx context.Context, doc *ReturnDocument) error {
		return audit.EnrichCreatedBy(ctx, doc)
	})
	return svc
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*ReturnDocument] {
	return s.hooks
}

// resolveLines checks tied lines against their export lines and fills
// inherited fields. The cumulative bound per export line counts quantities
// already recorded in other documents plus earlier lines of this one.
func (s *Service) resolveLines(ctx context.Context, doc *ReturnDocument, excludeSelf bool) error {
	var exclude *id.ID
	if excludeSelf {
		exclude = &doc.ID
	}

	pending := make(map[id.ID]int64)
	for i := range doc.Lines {
		line := &doc.Lines[i]
		if line.ExportLineID == nil {
			continue
		}

		exportLine, err := s.exports.GetLine(ctx, *line.ExportLineID)
		if err != nil {
			return err
		}

		returned, err := s.repo.SumReturnedByExportLine(ctx, exportLine.LineID, exclude)
		if err != nil {
			return fmt.Errorf("sum returned: %w", err)
		}

		already := returned + pending[exportLine.LineID]
		if err := guard.CheckReturnAgainstExport(exportLine.Quantity, already, line.Quantity); err != nil {
			return err
		}
		pending[exportLine.LineID] += line.Quantity

		// Inherit from the originally issued lot. The lot may be gone
		// (issue deleted); the export line still carries enough.
		line.ProductID = exportLine.ProductID
		if line.UnitPrice.IsZero() {
			line.UnitPrice = exportLine.UnitPrice
		}
		lot, err := s.stock.GetByID(ctx, exportLine.LotID)
		if err == nil {
			if line.Unit == "" {
				line.Unit = lot.Unit
			}
			if line.Location == "" {
				line.Location = lot.Location
			}
			if line.ExpiryDate == nil {
				line.ExpiryDate = lot.ExpiryDate
			}
			line.UnitPrice = lot.UnitCost
		}
		if line.Reason == "" {
			line.Reason = defaultReason
		}
	}

	return nil
}

// postLines writes one return-sourced lot per line and records the lot ID
// back on the line. The ref is line-scoped: two lines returning the same
// product and expiry materialize as two lots.
func (s *Service) postLines(ctx context.Context, doc *ReturnDocument) error {
	for i := range doc.Lines {
		line := &doc.Lines[i]
		ref := ledger.ReturnLineRef(doc.ID, line.LineID)
		lot, err := s.stock.SetLot(ctx, ref, line.ProductID, line.ExpiryDate,
			line.Quantity, line.Unit, line.Location, line.UnitPrice)
		if err != nil {
			return err
		}
		lotID := lot.ID
		line.LotID = &lotID
	}
	return nil
}

// Create creates a customer return. Tied lines are bounded by their export
// line's issued quantity; each line materializes as one stock lot.
func (s *Service) Create(ctx context.Context, doc *ReturnDocument) error {
	if err := s.hooks.RunBeforeCreate(ctx, doc); err != nil {
		return err
	}

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	if err := s.resolveLines(ctx, doc, false); err != nil {
		return err
	}

	if doc.Number == "" {
		cfg := numerator.DefaultConfig(numerator.PrefixReturn)
		number, err := s.numerator.GetNextNumber(ctx, cfg, &numerator.Options{Strategy: NumeratorStrategy}, time.Now())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		doc.Number = number
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.postLines(ctx, doc); err != nil {
			return err
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return s.audit.RecordChange(ctx, "return_document", doc.ID, audit.ActionCreate, map[string]any{
			"number":   doc.Number,
			"customer": doc.Customer,
			"lines":    len(doc.Lines),
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "return document created",
		"id", doc.ID,
		"number", doc.Number)

	return nil
}

// GetByID retrieves a return document with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*ReturnDocument, error) {
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

// GetByNumber retrieves a return document by its human-readable code.
func (s *Service) GetByNumber(ctx context.Context, number string) (*ReturnDocument, error) {
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

// Update replaces the return and its lines. The document's owned lots are
// dropped and rewritten from the new lines; the cumulative bound excludes
// this document's previously saved quantities.
func (s *Service) Update(ctx context.Context, doc *ReturnDocument) error {
	if err := audit.EnrichUpdatedBy(ctx, doc); err != nil {
		return err
	}

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	if err := s.resolveLines(ctx, doc, true); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetForUpdate(ctx, doc.ID); err != nil {
			return err
		}

		ref := ledger.ReturnRef(doc.ID)
		if err := s.stock.DeleteBySource(ctx, ref); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if err := s.postLines(ctx, doc); err != nil {
			return err
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return s.audit.RecordChange(ctx, "return_document", doc.ID, audit.ActionUpdate, map[string]any{
			"number": doc.Number,
		})
	})
}

// Delete removes the return and every lot it owns.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.stock.DeleteBySource(ctx, ledger.ReturnRef(docID)); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, docID); err != nil {
			return fmt.Errorf("delete document: %w", err)
		}
		return s.audit.RecordChange(ctx, "return_document", docID, audit.ActionDelete, map[string]any{
			"number": doc.Number,
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "return document deleted",
		"id", docID,
		"number", doc.Number)

	return nil
}

// DeleteByNumber removes the return addressed by its code.
func (s *Service) DeleteByNumber(ctx context.Context, number string) error {
	doc, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		return err
	}
	return s.Delete(ctx, doc.ID)
}

// RemainingReturnable reports how much of an issued line can still come
// back: issued − Σ(returned). Used by the web layer to pre-fill forms.
func (s *Service) RemainingReturnable(ctx context.Context, exportLineID id.ID) (int64, error) {
	exportLine, err := s.exports.GetLine(ctx, exportLineID)
	if err != nil {
		return 0, err
	}

	returned, err := s.repo.SumReturnedByExportLine(ctx, exportLineID, nil)
	if err != nil {
		return 0, fmt.Errorf("sum returned: %w", err)
	}

	return exportLine.Quantity - returned, nil
}

// List retrieves return documents with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*ReturnDocument], error) {
	return s.repo.List(ctx, filter)
}
