// Package audit provides the audit trail contract for document operations.
package audit

import (
	"context"

	"storeroom/internal/core/id"
)

// Action represents the type of audited operation.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Recorder records document operations for the audit trail.
// The postgres implementation compresses large change payloads.
type Recorder interface {
	// RecordChange logs an operation on a document.
	RecordChange(ctx context.Context, entityType string, entityID id.ID, action Action, changes map[string]any) error
}

// Nop is a Recorder that discards everything. Used in tests and when the
// audit trail is disabled.
type Nop struct{}

// RecordChange implements Recorder.
func (Nop) RecordChange(ctx context.Context, entityType string, entityID id.ID, action Action, changes map[string]any) error {
	return nil
}

var _ Recorder = Nop{}
