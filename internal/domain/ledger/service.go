// Package ledger provides the stock ledger service.
package ledger

import (
	"context"
	"time"

	"storeroom/internal/core/apperror"
	"storeroom/internal/core/id"
	"storeroom/internal/core/tx"
	"storeroom/internal/core/types"
	"storeroom/internal/domain"
	"storeroom/pkg/logger"
)

// Service implements the stock ledger contract. Document services call it
// explicitly for every line-item effect; the ledger never mutates as a
// persistence side effect.
type Service struct {
	repo      Repository
	txManager tx.Manager

	// now is swappable in tests for deterministic status computation
	now func() time.Time
}

// NewService creates a new stock ledger service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// UpsertLot finds the lot keyed by (sourceDoc, product, expiry); if found,
// adds quantityDelta to its quantity and overwrites unit/location/unitCost;
// otherwise creates a new lot with quantity = quantityDelta. Status is
// recomputed afterward. Fails with NegativeQuantity if the resulting
// quantity would be negative.
func (s *Service) UpsertLot(ctx context.Context, ref DocumentRef, productID id.ID, expiry *time.Time, quantityDelta int64, unit, location string, unitCost types.Money) (*StockLot, error) {
	if id.IsNil(productID) {
		return nil, apperror.NewValidation("product is required").
			WithDetail("field", "productId")
	}

	var result *StockLot
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		lot, err := s.repo.FindByIdentity(ctx, ref, productID, expiry)
		if err != nil {
			if !apperror.IsNotFound(err) {
				return err
			}
			// New lot
			if quantityDelta < 0 {
				return apperror.NewNegativeQuantity(nil, quantityDelta)
			}
			lot = NewStockLot(ref, productID, quantityDelta, unit, location, expiry, unitCost)
			if err := lot.Validate(ctx); err != nil {
				return err
			}
			if err := s.repo.Create(ctx, lot); err != nil {
				return err
			}
			result = lot
			return nil
		}

		newQty := lot.Quantity + quantityDelta
		if newQty < 0 {
			return apperror.NewNegativeQuantity(lot.ID.String(), newQty)
		}
		lot.Quantity = newQty
		lot.Unit = unit
		lot.Location = location
		lot.UnitCost = unitCost
		lot.RecomputeStatus(s.now())
		lot.UpdatedAt = s.now()
		lot.Touch()
		if err := s.repo.Update(ctx, lot); err != nil {
			return err
		}
		result = lot
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SetLot writes the absolute quantity of the lot keyed by
// (sourceDoc, sourceLine, product, expiry): "set", not "add". Used for
// return-owned lots where one return line owns exactly one lot; callers pass
// a line-scoped ref so lines of the same product never collide.
func (s *Service) SetLot(ctx context.Context, ref DocumentRef, productID id.ID, expiry *time.Time, quantity int64, unit, location string, unitCost types.Money) (*StockLot, error) {
	if quantity < 0 {
		return nil, apperror.NewNegativeQuantity(nil, quantity)
	}

	var result *StockLot
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		lot, err := s.repo.FindByIdentity(ctx, ref, productID, expiry)
		if err != nil {
			if !apperror.IsNotFound(err) {
				return err
			}
			lot = NewStockLot(ref, productID, quantity, unit, location, expiry, unitCost)
			if err := lot.Validate(ctx); err != nil {
				return err
			}
			if err := s.repo.Create(ctx, lot); err != nil {
				return err
			}
			result = lot
			return nil
		}

		lot.Quantity = quantity
		lot.Unit = unit
		lot.Location = location
		lot.UnitCost = unitCost
		lot.RecomputeStatus(s.now())
		lot.UpdatedAt = s.now()
		lot.Touch()
		if err := s.repo.Update(ctx, lot); err != nil {
			return err
		}
		result = lot
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DecrementLot subtracts amount from a lot under a row lock. Fails with
// InsufficientStock if amount exceeds the current quantity; the lot is left
// unchanged in that case. A lot reaching zero remains; callers choose
// whether to prune.
func (s *Service) DecrementLot(ctx context.Context, lotID id.ID, amount int64) (*StockLot, error) {
	if amount < 0 {
		return nil, apperror.NewValidation("decrement amount must not be negative").
			WithDetail("amount", amount)
	}

	var result *StockLot
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		lot, err := s.repo.GetForUpdate(ctx, lotID)
		if err != nil {
			return err
		}

		if amount > lot.Quantity {
			return apperror.NewInsufficientStock(lot.ID.String(), amount, lot.Quantity)
		}

		lot.Quantity -= amount
		lot.RecomputeStatus(s.now())
		lot.UpdatedAt = s.now()
		lot.Touch()
		if err := s.repo.Update(ctx, lot); err != nil {
			return err
		}
		result = lot
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RestoreLot adds amount back to a lot (export line delete, or downward
// edit delta).
func (s *Service) RestoreLot(ctx context.Context, lotID id.ID, amount int64) (*StockLot, error) {
	if amount < 0 {
		return nil, apperror.NewValidation("restore amount must not be negative").
			WithDetail("amount", amount)
	}

	var result *StockLot
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		lot, err := s.repo.GetForUpdate(ctx, lotID)
		if err != nil {
			return err
		}

		lot.Quantity += amount
		lot.RecomputeStatus(s.now())
		lot.UpdatedAt = s.now()
		lot.Touch()
		if err := s.repo.Update(ctx, lot); err != nil {
			return err
		}
		result = lot
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DecrementAndPrune reverses an import line: subtracts amount from the lot
// keyed by (sourceDoc, product, expiry) and deletes the lot when its
// quantity reaches zero or below. A missing lot is a no-op so the reversal
// is idempotent.
func (s *Service) DecrementAndPrune(ctx context.Context, ref DocumentRef, productID id.ID, expiry *time.Time, amount int64) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		lot, err := s.repo.FindByIdentity(ctx, ref, productID, expiry)
		if err != nil {
			if apperror.IsNotFound(err) {
				logger.Debug(ctx, "lot already gone, skipping reversal",
					"source_doc", ref.DocID,
					"product_id", productID,
				)
				return nil
			}
			return err
		}

		lot.Quantity -= amount
		if lot.Quantity <= 0 {
			return s.repo.Delete(ctx, lot.ID)
		}

		lot.RecomputeStatus(s.now())
		lot.UpdatedAt = s.now()
		lot.Touch()
		return s.repo.Update(ctx, lot)
	})
}

// DeleteLot removes a lot outright. Used for return-owned lots, which exist
// solely for their line. Missing lots are ignored.
func (s *Service) DeleteLot(ctx context.Context, lotID id.ID) error {
	err := s.repo.Delete(ctx, lotID)
	if err != nil && apperror.IsNotFound(err) {
		return nil
	}
	return err
}

// DeleteBySource removes every lot owned by a document (return receipt
// deletion).
func (s *Service) DeleteBySource(ctx context.Context, ref DocumentRef) error {
	return s.repo.DeleteBySource(ctx, ref)
}

// GetByID retrieves a lot.
func (s *Service) GetByID(ctx context.Context, lotID id.ID) (*StockLot, error) {
	return s.repo.GetByID(ctx, lotID)
}

// List retrieves lots and recomputes their statuses as a self-healing pass:
// any drift between the stored status and the derived one is persisted
// best-effort before returning.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*StockLot], error) {
	result, err := s.repo.List(ctx, filter)
	if err != nil {
		return result, err
	}

	asOf := s.now()
	var stale []*StockLot
	for _, lot := range result.Items {
		if lot.RecomputeStatus(asOf) {
			stale = append(stale, lot)
		}
	}

	if len(stale) > 0 {
		if err := s.repo.SaveStatuses(ctx, stale); err != nil {
			// Listing still returns the freshly derived statuses.
			logger.Warn(ctx, "failed to persist recomputed lot statuses",
				"count", len(stale),
				"error", err,
			)
		}
	}

	return result, nil
}

// TotalQuantityByProduct returns the on-hand total for a product across lots.
func (s *Service) TotalQuantityByProduct(ctx context.Context, productID id.ID) (int64, error) {
	return s.repo.SumQuantityByProduct(ctx, productID)
}
