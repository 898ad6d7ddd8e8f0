// Package purchase provides the PurchaseOrder document service.
package purchase

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
	"storeroom/internal/domain/catalogs/supplier"
	"storeroom/pkg/logger"
)

// ProductChecker verifies product/supplier ownership.
// Implemented by the supplier catalog service.
type ProductChecker interface {
	CheckOwnership(ctx context.Context, supplierID, productID id.ID) (*supplier.Product, error)
}

// DeliverySummer sums already-notified quantities per (PO, product).
// Implemented by the ASN repository.
type DeliverySummer interface {
	SumDelivered(ctx context.Context, poID, productID id.ID, excludeASNID *id.ID) (int64, error)
}

// Service provides business operations for purchase order documents.
type Service struct {
	repo       Repository
	products   ProductChecker
	deliveries DeliverySummer
	numerator  numerator.Generator
	txManager  tx.Manager
	audit      audit.Recorder
	hooks      *domain.HookRegistry[*PurchaseOrder]
}

// NewService creates a new purchase order service.
func NewService(
	repo Repository,
	products ProductChecker,
	deliveries DeliverySummer,
	gen numerator.Generator,
	txManager tx.Manager,
	auditRec audit.Recorder,
) *Service {
	if auditRec == nil {
		auditRec = audit.Nop{}
	}
	svc := &Service{
		repo:       repo,
		products:   products,
		deliveries: deliveries,
		numerator:  gen,
		txManager:  txManager,
		audit:      auditRec,
		hooks:      domain.NewHookRegistry[*PurchaseOrder](),
	}
	svc.hooks.OnBeforeCreate(func(ctx context.Context, doc *PurchaseOrder) error {
		return audit.EnrichCreatedBy(ctx, doc)
	})
	return svc
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*PurchaseOrder] {
	return s.hooks
}

// Create creates a new purchase order. Every line's product must belong to
// the order's supplier.
func (s *Service) Create(ctx context.Context, doc *PurchaseOrder) error {
	if err := s.hooks.RunBeforeCreate(ctx, doc); err != nil {
		return err
	}

	if doc.Status == "" {
		doc.Status = StatusPending
	}

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	// Referential check: a PO line must reference the supplier's own product.
	for _, line := range doc.Lines {
		if _, err := s.products.CheckOwnership(ctx, doc.SupplierID, line.ProductID); err != nil {
			return err
		}
	}

	if doc.Number == "" {
		cfg := numerator.DefaultConfig(numerator.PrefixPurchaseOrder)
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
		return s.audit.RecordChange(ctx, "purchase_order", doc.ID, audit.ActionCreate, map[string]any{
			"number":   doc.Number,
			"supplier": doc.SupplierID.String(),
			"lines":    len(doc.Lines),
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "purchase order created",
		"id", doc.ID,
		"number", doc.Number)

	return nil
}

// GetByID retrieves a purchase order with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*PurchaseOrder, error) {
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

// GetByNumber retrieves a purchase order by its human-readable code.
func (s *Service) GetByNumber(ctx context.Context, number string) (*PurchaseOrder, error) {
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

// Update replaces the order and its lines.
func (s *Service) Update(ctx context.Context, doc *PurchaseOrder) error {
	if err := audit.EnrichUpdatedBy(ctx, doc); err != nil {
		return err
	}

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	for _, line := range doc.Lines {
		if _, err := s.products.CheckOwnership(ctx, doc.SupplierID, line.ProductID); err != nil {
			return err
		}
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return s.audit.RecordChange(ctx, "purchase_order", doc.ID, audit.ActionUpdate, map[string]any{
			"number": doc.Number,
		})
	})
}

// UpdateStatus sets the informational status (pending/approved/closed).
func (s *Service) UpdateStatus(ctx context.Context, docID id.ID, status Status) error {
	switch status {
	case StatusPending, StatusApproved, StatusClosed:
	default:
		return apperror.NewValidation("invalid purchase order status").
			WithDetail("value", string(status))
	}
	return s.repo.UpdateStatus(ctx, docID, status)
}

// Delete removes the purchase order and its lines. Orders never touch the
// stock ledger, so there is nothing to reverse.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, docID); err != nil {
			return fmt.Errorf("delete document: %w", err)
		}
		return s.audit.RecordChange(ctx, "purchase_order", docID, audit.ActionDelete, map[string]any{
			"number": doc.Number,
		})
	})
}

// DeleteByNumber removes the order addressed by its code.
func (s *Service) DeleteByNumber(ctx context.Context, number string) error {
	doc, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		return err
	}
	return s.Delete(ctx, doc.ID)
}

// RemainingLine describes how much of an ordered product is still
// undelivered: ordered − Σ(ASN quantities already recorded).
type RemainingLine struct {
	ProductID id.ID `json:"productId"`
	Ordered   int64 `json:"ordered"`
	Delivered int64 `json:"delivered"`
	Remaining int64 `json:"remaining"`
}

// Remaining computes per-product remaining quantities for an order.
// Used by the web layer to pre-fill ASN forms.
func (s *Service) Remaining(ctx context.Context, docID id.ID) ([]RemainingLine, error) {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	// Aggregate ordered quantities per product first: a PO may carry
	// several lines of the same product.
	ordered := make(map[id.ID]int64)
	var order []id.ID
	for _, line := range doc.Lines {
		if _, seen := ordered[line.ProductID]; !seen {
			order = append(order, line.ProductID)
		}
		ordered[line.ProductID] += line.Quantity
	}

	result := make([]RemainingLine, 0, len(order))
	for _, productID := range order {
		delivered, err := s.deliveries.SumDelivered(ctx, doc.ID, productID, nil)
		if err != nil {
			return nil, fmt.Errorf("sum delivered: %w", err)
		}
		result = append(result, RemainingLine{
			ProductID: productID,
			Ordered:   ordered[productID],
			Delivered: delivered,
			Remaining: ordered[productID] - delivered,
		})
	}

	return result, nil
}

// List retrieves purchase orders with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*PurchaseOrder], error) {
	return s.repo.List(ctx, filter)
}
