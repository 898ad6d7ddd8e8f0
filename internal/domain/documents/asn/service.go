package asn

import (
	"context"
	"fmt"
	"time"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/id"
	"storeroom/internal/core/numerator"
	"storeroom/internal/core/tx"
	"storeroom/internal/domain"
	"storeroom/internal/domain/audit"
	"storeroom/internal/domain/documents/purchase"
	"storeroom/internal/domain/guard"
	"storeroom/pkg/logger"
)

// OrderReader loads purchase orders with lines.
// Implemented by the purchase order service.
type OrderReader interface {
	GetByID(ctx context.Context, docID id.ID) (*purchase.PurchaseOrder, error)
}

// ReceiptChecker reports whether a notice was already turned into an
// import document. Implemented by the import document repository.
type ReceiptChecker interface {
	ExistsByASN(ctx context.Context, asnID id.ID) (bool, error)
}

// Service provides business operations for shipment notice documents.
type Service struct {
	repo      Repository
	orders    OrderReader
	receipts  ReceiptChecker
	numerator numerator.Generator
	txManager tx.Manager
	audit     audit.Recorder
	hooks     *domain.HookRegistry[*AdvanceShipmentNotice]
}

// NewService creates a new shipment notice service.
func NewService(
	repo Repository,
	orders OrderReader,
	receipts ReceiptChecker,
	gen numerator.Generator,
	txManager tx.Manager,
	auditRec audit.Recorder,
) *Service {
	if auditRec == nil {
		auditRec = audit.Nop{}
	}
	svc := &Service{
		repo:      repo,
		orders:    orders,
		receipts:  receipts,
		numerator: gen,
		txManager: txManager,
		audit:     auditRec,
		hooks:     domain.NewHookRegistry[*AdvanceShipmentNotice](),
	}
	svc.hooks.OnBeforeCreate(func(ctx context.Context, doc *AdvanceShipmentNotice) error {
		return audit.EnrichCreatedBy(ctx, doc)
	})
	return svc
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*AdvanceShipmentNotice] {
	return s.hooks
}

// checkAgainstOrder validates the notice against its purchase order:
// supplier must match (or is inherited), every product must be on the
// order, and cumulative notified quantities must stay within ordered.
func (s *Service) checkAgainstOrder(ctx context.Context, doc *AdvanceShipmentNotice, excludeSelf bool) error {
	order, err := s.orders.GetByID(ctx, doc.PurchaseOrderID)
	if err != nil {
		return err
	}

	if id.IsNil(doc.SupplierID) {
		doc.SupplierID = order.SupplierID
	} else if doc.SupplierID != order.SupplierID {
		return apperror.NewReferentialMismatch("shipment notice supplier differs from purchase order supplier").
			WithDetail("purchase_order", order.Number).
			WithDetail("expected_supplier", order.SupplierID.String()).
			WithDetail("actual_supplier", doc.SupplierID.String())
	}

	var exclude *id.ID
	if excludeSelf {
		exclude = &doc.ID
	}

	// Guard per product, aggregating this notice's own lines first so a
	// product split across lines is bounded as a whole.
	pending := make(map[id.ID]int64)
	var products []id.ID
	for _, line := range doc.Lines {
		if _, seen := pending[line.ProductID]; !seen {
			products = append(products, line.ProductID)
		}
		pending[line.ProductID] += line.Quantity
	}

	for _, productID := range products {
		ordered := order.OrderedQuantity(productID)
		if ordered == 0 {
			return apperror.NewReferentialMismatch("product is not on the purchase order").
				WithDetail("purchase_order", order.Number).
				WithDetail("product_id", productID.String())
		}

		delivered, err := s.repo.SumDelivered(ctx, order.ID, productID, exclude)
		if err != nil {
			return fmt.Errorf("sum delivered: %w", err)
		}

		if err := guard.CheckASNAgainstPO(ordered, delivered, pending[productID]); err != nil {
			return err
		}
	}

	return nil
}

// Create creates a new shipment notice after validating it against its
// purchase order.
func (s *Service) Create(ctx context.Context, doc *AdvanceShipmentNotice) error {
	if err := s.hooks.RunBeforeCreate(ctx, doc); err != nil {
		return err
	}

	if doc.Status == "" {
		doc.Status = StatusNotDelivered
	}

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	if err := s.checkAgainstOrder(ctx, doc, false); err != nil {
		return err
	}

	if doc.Number == "" {
		cfg := numerator.DefaultConfig(numerator.PrefixASN)
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
		return s.audit.RecordChange(ctx, "shipment_notice", doc.ID, audit.ActionCreate, map[string]any{
			"number":         doc.Number,
			"purchase_order": doc.PurchaseOrderID.String(),
			"lines":          len(doc.Lines),
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "shipment notice created",
		"id", doc.ID,
		"number", doc.Number)

	return nil
}

// GetByID retrieves a shipment notice with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*AdvanceShipmentNotice, error) {
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

// GetByNumber retrieves a shipment notice by its human-readable code.
func (s *Service) GetByNumber(ctx context.Context, number string) (*AdvanceShipmentNotice, error) {
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

// Update replaces the notice and its lines, re-running the order checks.
// The notice's own previously saved quantities are excluded from the
// cumulative bound.
func (s *Service) Update(ctx context.Context, doc *AdvanceShipmentNotice) error {
	if err := audit.EnrichUpdatedBy(ctx, doc); err != nil {
		return err
	}

	current, err := s.repo.GetByID(ctx, doc.ID)
	if err != nil {
		return err
	}
	if current.IsDelivered() {
		return apperror.NewConflict("shipment notice already received, editing is not allowed").
			WithDetail("number", current.Number)
	}

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	if err := s.checkAgainstOrder(ctx, doc, true); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return s.audit.RecordChange(ctx, "shipment_notice", doc.ID, audit.ActionUpdate, map[string]any{
			"number": doc.Number,
		})
	})
}

// MarkDelivered flips the notice to delivered. Called by the import
// document service when a receipt referencing the notice is saved.
func (s *Service) MarkDelivered(ctx context.Context, docID id.ID) error {
	return s.repo.UpdateStatus(ctx, docID, StatusDelivered)
}

// MarkNotDelivered reverts the notice to not delivered. Called when the
// receipt referencing it is deleted, so the notice can be received again.
func (s *Service) MarkNotDelivered(ctx context.Context, docID id.ID) error {
	return s.repo.UpdateStatus(ctx, docID, StatusNotDelivered)
}

// Delete removes a shipment notice. A notice that was already received
// cannot be deleted while the receipt exists.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return err
	}

	received, err := s.receipts.ExistsByASN(ctx, docID)
	if err != nil {
		return fmt.Errorf("check receipts: %w", err)
	}
	if received {
		return apperror.NewConflict("shipment notice has a linked import document").
			WithDetail("number", doc.Number)
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, docID); err != nil {
			return fmt.Errorf("delete document: %w", err)
		}
		return s.audit.RecordChange(ctx, "shipment_notice", docID, audit.ActionDelete, map[string]any{
			"number": doc.Number,
		})
	})
}

// DeleteByNumber removes the notice addressed by its code.
func (s *Service) DeleteByNumber(ctx context.Context, number string) error {
	doc, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		return err
	}
	return s.Delete(ctx, doc.ID)
}

// List retrieves shipment notices with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*AdvanceShipmentNotice], error) {
	return s.repo.List(ctx, filter)
}

// ListAvailable returns notices that have not yet been received, for the
// web layer to offer when creating an import document.
func (s *Service) ListAvailable(ctx context.Context) ([]*AdvanceShipmentNotice, error) {
	status := StatusNotDelivered
	result, err := s.repo.List(ctx, ListFilter{
		ListFilter: domain.DefaultListFilter(),
		Status:     &status,
	})
	if err != nil {
		return nil, err
	}
	return result.Items, nil
}
