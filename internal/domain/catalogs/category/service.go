package category

import (
	"context"
	"fmt"
	"time"

	"storeroom/internal/core/numerator"
	"storeroom/internal/core/tx"
	"storeroom/internal/domain"
)

// Service provides business logic for the Category catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Category]
	repo      Repository
	numerator numerator.Generator
}

// NewService creates a new Category service.
func NewService(repo Repository, gen numerator.Generator, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Category]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "category",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      gen,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)

	return svc
}

// prepareForCreate generates a code when the client did not provide one.
func (s *Service) prepareForCreate(ctx context.Context, c *Category) error {
	if c.Code == "" {
		cfg := numerator.DefaultConfig("CAT")
		code, err := s.numerator.GetNextNumber(ctx, cfg, nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		c.Code = code
	}
	return nil
}
