package importdoc

import (
	"context"
	"fmt"
	"time"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/id"
	"storeroom/internal/core/numerator"
	"storeroom/internal/core/tx"
	"storeroom/internal/core/types"
	"storeroom/internal/domain"
	"storeroom/internal/domain/audit"
	"storeroom/internal/domain/catalogs/supplier"
	"storeroom/internal/domain/documents/asn"
	"storeroom/internal/domain/ledger"
	"storeroom/pkg/logger"
)

// Stock is the slice of the ledger service a receipt needs.
type Stock interface {
	UpsertLot(ctx context.Context, ref ledger.DocumentRef, productID id.ID, expiry *time.Time, quantityDelta int64, unit, location string, unitCost types.Money) (*ledger.StockLot, error)
	DecrementAndPrune(ctx context.Context, ref ledger.DocumentRef, productID id.ID, expiry *time.Time, amount int64) error
}

// ASNSource loads and updates shipment notices.
// Implemented by the shipment notice service.
type ASNSource interface {
	GetByID(ctx context.Context, docID id.ID) (*asn.AdvanceShipmentNotice, error)
	MarkDelivered(ctx context.Context, docID id.ID) error
	MarkNotDelivered(ctx context.Context, docID id.ID) error
}

// ProductChecker verifies product/supplier ownership.
// Implemented by the supplier catalog service.
type ProductChecker interface {
	CheckOwnership(ctx context.Context, supplierID, productID id.ID) (*supplier.Product, error)
}

// Service provides business operations for import documents.
type Service struct {
	repo      Repository
	stock     Stock
	asns      ASNSource
	products  ProductChecker
	numerator numerator.Generator
	txManager tx.Manager
	audit     audit.Recorder
	hooks     *domain.HookRegistry[*ImportDocument]
}

// NewService creates a new import document service.
func NewService(
	repo Repository,
	stock Stock,
	asns ASNSource,
	products ProductChecker,
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
		asns:      asns,
		products:  products,
		numerator: gen,
		txManager: txManager,
		audit:     auditRec,
		hooks:     domain.NewHookRegistry[*ImportDocument](),
	}
	svc.hooks.OnBeforeCreate(func(ctx context.Context, doc *ImportDocument) error {
		return audit.EnrichCreatedBy(ctx, doc)
	})
	return svc
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*ImportDocument] {
	return s.hooks
}

// applyASN resolves the linked shipment notice: the receipt inherits the
// notice's supplier (or must match it) and, when the receipt carries no
// lines of its own, the notice's lines including their announced prices.
// Lines keyed to a notice line fill their blank fields from it.
func (s *Service) applyASN(ctx context.Context, doc *ImportDocument) error {
	if doc.ASNID == nil {
		return nil
	}

	notice, err := s.asns.GetByID(ctx, *doc.ASNID)
	if err != nil {
		return err
	}
	if notice.IsDelivered() {
		return apperror.NewConflict("shipment notice was already received").
			WithDetail("asn_number", notice.Number)
	}

	if id.IsNil(doc.SupplierID) {
		doc.SupplierID = notice.SupplierID
	} else if doc.SupplierID != notice.SupplierID {
		return apperror.NewReferentialMismatch("import supplier differs from shipment notice supplier").
			WithDetail("asn_number", notice.Number).
			WithDetail("expected_supplier", notice.SupplierID.String()).
			WithDetail("actual_supplier", doc.SupplierID.String())
	}

	if len(doc.Lines) == 0 {
		for _, nl := range notice.Lines {
			lineID := nl.LineID
			doc.AddLine(nl.ProductID, nl.Quantity, nl.Unit, nl.UnitPrice, nl.ExpiryDate, "")
			doc.Lines[len(doc.Lines)-1].ASNLineID = &lineID
		}
		return nil
	}

	byLine := make(map[id.ID]asn.ASNLine, len(notice.Lines))
	for _, nl := range notice.Lines {
		byLine[nl.LineID] = nl
	}
	for i := range doc.Lines {
		line := &doc.Lines[i]
		if line.ASNLineID == nil {
			continue
		}
		nl, ok := byLine[*line.ASNLineID]
		if !ok {
			return apperror.NewReferentialMismatch("import line references an unknown shipment notice line").
				WithDetail("asn_number", notice.Number).
				WithDetail("lineNo", line.LineNo)
		}
		if id.IsNil(line.ProductID) {
			line.ProductID = nl.ProductID
		}
		if line.Unit == "" {
			line.Unit = nl.Unit
		}
		if line.UnitPrice.IsZero() {
			line.UnitPrice = nl.UnitPrice
		}
		if line.ExpiryDate == nil {
			line.ExpiryDate = nl.ExpiryDate
		}
	}

	return nil
}

// checkLines validates ownership and fills supplier defaults: a blank unit
// comes from the product card, a zero price from the list price.
func (s *Service) checkLines(ctx context.Context, doc *ImportDocument) error {
	for i := range doc.Lines {
		line := &doc.Lines[i]
		product, err := s.products.CheckOwnership(ctx, doc.SupplierID, line.ProductID)
		if err != nil {
			return err
		}
		if line.Unit == "" {
			line.Unit = product.Unit
		}
		if line.UnitPrice.IsZero() {
			line.UnitPrice = product.ListPrice
		}
	}
	return nil
}

// Create creates a goods receipt and posts every line into the stock
// ledger: one UpsertLot per line, merging into an existing lot when the
// (document, product, expiry) identity matches.
func (s *Service) Create(ctx context.Context, doc *ImportDocument) error {
	if err := s.hooks.RunBeforeCreate(ctx, doc); err != nil {
		return err
	}

	if err := s.applyASN(ctx, doc); err != nil {
		return err
	}

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	if err := s.checkLines(ctx, doc); err != nil {
		return err
	}

	if doc.Number == "" {
		cfg := numerator.DefaultConfig(numerator.PrefixImport)
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
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}

		ref := ledger.ImportRef(doc.ID)
		for _, line := range doc.Lines {
			if _, err := s.stock.UpsertLot(ctx, ref, line.ProductID, line.ExpiryDate,
				line.Quantity, line.Unit, line.Location, line.UnitPrice); err != nil {
				return err
			}
		}

		if doc.ASNID != nil {
			if err := s.asns.MarkDelivered(ctx, *doc.ASNID); err != nil {
				return fmt.Errorf("mark notice delivered: %w", err)
			}
		}

		return s.audit.RecordChange(ctx, "import_document", doc.ID, audit.ActionCreate, map[string]any{
			"number":   doc.Number,
			"supplier": doc.SupplierID.String(),
			"lines":    len(doc.Lines),
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "import document created",
		"id", doc.ID,
		"number", doc.Number,
		"lines", len(doc.Lines))

	return nil
}

// GetByID retrieves an import document with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*ImportDocument, error) {
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

// GetByNumber retrieves an import document by its human-readable code.
func (s *Service) GetByNumber(ctx context.Context, number string) (*ImportDocument, error) {
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

// Update replaces the receipt and its lines, keeping the ledger in step:
// every previously posted line is reversed, then the new lines are posted,
// all inside one transaction.
func (s *Service) Update(ctx context.Context, doc *ImportDocument) error {
	if err := audit.EnrichUpdatedBy(ctx, doc); err != nil {
		return err
	}

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	if err := s.checkLines(ctx, doc); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetForUpdate(ctx, doc.ID)
		if err != nil {
			return err
		}
		if !equalASN(current.ASNID, doc.ASNID) {
			return apperror.NewValidation("shipment notice link cannot be changed").
				WithDetail("field", "asnId")
		}

		oldLines, err := s.repo.GetLines(ctx, doc.ID)
		if err != nil {
			return fmt.Errorf("get lines: %w", err)
		}

		ref := ledger.ImportRef(doc.ID)
		for _, line := range oldLines {
			if err := s.stock.DecrementAndPrune(ctx, ref, line.ProductID, line.ExpiryDate, line.Quantity); err != nil {
				return err
			}
		}

		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}

		for _, line := range doc.Lines {
			if _, err := s.stock.UpsertLot(ctx, ref, line.ProductID, line.ExpiryDate,
				line.Quantity, line.Unit, line.Location, line.UnitPrice); err != nil {
				return err
			}
		}

		return s.audit.RecordChange(ctx, "import_document", doc.ID, audit.ActionUpdate, map[string]any{
			"number": doc.Number,
		})
	})
}

// Delete reverses every posted line and removes the receipt. A linked
// shipment notice is reverted so it can be received again.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		ref := ledger.ImportRef(doc.ID)
		for _, line := range doc.Lines {
			if err := s.stock.DecrementAndPrune(ctx, ref, line.ProductID, line.ExpiryDate, line.Quantity); err != nil {
				return err
			}
		}

		if err := s.repo.Delete(ctx, docID); err != nil {
			return fmt.Errorf("delete document: %w", err)
		}

		if doc.ASNID != nil {
			if err := s.asns.MarkNotDelivered(ctx, *doc.ASNID); err != nil {
				return fmt.Errorf("revert notice status: %w", err)
			}
		}

		return s.audit.RecordChange(ctx, "import_document", docID, audit.ActionDelete, map[string]any{
			"number": doc.Number,
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "import document deleted",
		"id", docID,
		"number", doc.Number)

	return nil
}

// DeleteByNumber removes the receipt addressed by its code.
func (s *Service) DeleteByNumber(ctx context.Context, number string) error {
	doc, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		return err
	}
	return s.Delete(ctx, doc.ID)
}

// List retrieves import documents with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*ImportDocument], error) {
	return s.repo.List(ctx, filter)
}

func equalASN(a, b *id.ID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
