package supplier

import (
	"context"
	"fmt"
	"time"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/id"
	"storeroom/internal/core/numerator"
	"storeroom/internal/core/tx"
	"storeroom/internal/domain"
	"storeroom/pkg/logger"
)

// Service provides business logic for the Supplier catalog.
// Product list changes are saved together with the supplier in one
// transaction.
type Service struct {
	*domain.CatalogService[*Supplier]
	repo      Repository
	numerator numerator.Generator
	txManager tx.Manager
}

// NewService creates a new Supplier service.
func NewService(repo Repository, gen numerator.Generator, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Supplier]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "supplier",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      gen,
		txManager:      txManager,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)

	return svc
}

// prepareForCreate generates a code when the client did not provide one.
func (s *Service) prepareForCreate(ctx context.Context, sup *Supplier) error {
	if sup.Code == "" {
		cfg := numerator.DefaultConfig("SUP")
		code, err := s.numerator.GetNextNumber(ctx, cfg, nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		sup.Code = code
	}
	return nil
}

// Create saves the supplier together with its product list.
func (s *Service) Create(ctx context.Context, sup *Supplier) error {
	if err := sup.Validate(ctx); err != nil {
		return err
	}
	if err := s.prepareForCreate(ctx, sup); err != nil {
		return err
	}

	for i := range sup.Products {
		if id.IsNil(sup.Products[i].ID) {
			sup.Products[i].ID = id.New()
		}
		sup.Products[i].SupplierID = sup.ID
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, sup); err != nil {
			return fmt.Errorf("create supplier: %w", err)
		}
		if len(sup.Products) > 0 {
			if err := s.repo.SaveProducts(ctx, sup.ID, sup.Products); err != nil {
				return fmt.Errorf("save products: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "supplier created", "id", sup.ID, "code", sup.Code)
	return nil
}

// Update saves the supplier and replaces its product list.
func (s *Service) Update(ctx context.Context, sup *Supplier) error {
	if err := sup.Validate(ctx); err != nil {
		return err
	}

	for i := range sup.Products {
		if id.IsNil(sup.Products[i].ID) {
			sup.Products[i].ID = id.New()
		}
		sup.Products[i].SupplierID = sup.ID
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, sup); err != nil {
			return fmt.Errorf("update supplier: %w", err)
		}
		if err := s.repo.SaveProducts(ctx, sup.ID, sup.Products); err != nil {
			return fmt.Errorf("save products: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a supplier with its product list.
func (s *Service) GetByID(ctx context.Context, supplierID id.ID) (*Supplier, error) {
	sup, err := s.CatalogService.GetByID(ctx, supplierID)
	if err != nil {
		return nil, err
	}

	products, err := s.repo.GetProducts(ctx, supplierID)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	sup.Products = products

	return sup, nil
}

// GetProduct retrieves a single supplier product.
func (s *Service) GetProduct(ctx context.Context, productID id.ID) (*Product, error) {
	p, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("supplier product", productID.String())
		}
		return nil, err
	}
	return p, nil
}

// ListProducts retrieves supplier products with filtering.
func (s *Service) ListProducts(ctx context.Context, filter ProductFilter) (domain.ListResult[*Product], error) {
	return s.repo.ListProducts(ctx, filter)
}

// CheckOwnership verifies a product belongs to the given supplier.
// Used by document services for referential integrity.
func (s *Service) CheckOwnership(ctx context.Context, supplierID, productID id.ID) (*Product, error) {
	p, err := s.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.SupplierID != supplierID {
		return nil, apperror.NewReferentialMismatch("product belongs to a different supplier").
			WithDetail("product_id", productID.String()).
			WithDetail("expected_supplier", supplierID.String()).
			WithDetail("actual_supplier", p.SupplierID.String())
	}
	return p, nil
}
