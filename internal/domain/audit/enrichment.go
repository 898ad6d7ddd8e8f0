// Package audit provides utilities for audit field enrichment in domain entities.
package audit

import (
	"context"

	"storeroom/internal/core/actor"
)

// EnrichCreatedBy sets CreatedBy and UpdatedBy fields from the context actor.
// Use in BeforeCreate hooks. If no actor is in context, this is a no-op.
func EnrichCreatedBy(ctx context.Context, entity interface{}) error {
	username := actor.Username(ctx)
	if username == "" {
		return nil
	}

	switch e := entity.(type) {
	case interface {
		SetCreatedBy(string)
		SetUpdatedBy(string)
	}:
		e.SetCreatedBy(username)
		e.SetUpdatedBy(username)
	case interface{ SetCreatedBy(string) }:
		e.SetCreatedBy(username)
	}

	return nil
}

// EnrichUpdatedBy sets only the UpdatedBy field from the context actor.
// Use in BeforeUpdate hooks. If no actor is in context, this is a no-op.
func EnrichUpdatedBy(ctx context.Context, entity interface{}) error {
	username := actor.Username(ctx)
	if username == "" {
		return nil
	}

	if e, ok := entity.(interface{ SetUpdatedBy(string) }); ok {
		e.SetUpdatedBy(username)
	}

	return nil
}
