package dto

import (
	"time"

	"storeroom/internal/core/types"
	"storeroom/internal/domain/ledger"
)

// StockLotResponse represents a stock lot in API responses.
type StockLotResponse struct {
	ID          string      `json:"id"`
	Source      string      `json:"source"`
	SourceDocID string      `json:"sourceDocId"`
	ProductID   string      `json:"productId"`
	Quantity    int64       `json:"quantity"`
	Unit        string      `json:"unit"`
	Location    string      `json:"location,omitempty"`
	ExpiryDate  *time.Time  `json:"expiryDate,omitempty"`
	Status      string      `json:"status"`
	UnitCost    types.Money `json:"unitCost"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// FromStockLot converts a stock lot to response DTO.
func FromStockLot(lot *ledger.StockLot) StockLotResponse {
	return StockLotResponse{
		ID:          lot.ID.String(),
		Source:      string(lot.Source),
		SourceDocID: lot.SourceDocID.String(),
		ProductID:   lot.ProductID.String(),
		Quantity:    lot.Quantity,
		Unit:        lot.Unit,
		Location:    lot.Location,
		ExpiryDate:  lot.ExpiryDate,
		Status:      string(lot.Status),
		UnitCost:    lot.UnitCost,
		CreatedAt:   lot.CreatedAt,
		UpdatedAt:   lot.UpdatedAt,
	}
}

// StockLotListResponse represents a list of stock lots.
type StockLotListResponse struct {
	Items      []StockLotResponse `json:"items"`
	TotalCount int64              `json:"totalCount"`
	Limit      int                `json:"limit"`
	Offset     int                `json:"offset"`
}

// ProductAvailabilityResponse is the total on-hand quantity of one product.
type ProductAvailabilityResponse struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}
