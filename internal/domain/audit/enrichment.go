// Package audit provides utilities for audit field enrichment in domain entities.
package audit

import (
	"context"

	appctx "smartsewing/internal/core/context"
)

// EnrichCreatedBy sets CreatedBy and UpdatedBy from the authenticated user.
// Use in BeforeCreate hooks. Without a user in context it is a no-op.
func EnrichCreatedBy(ctx context.Context, entity any) error {
	userID := appctx.GetUserID(ctx)
	if userID == "" {
		return nil
	}
	if e, ok := entity.(interface{ SetCreatedBy(string) }); ok {
		e.SetCreatedBy(userID)
	}
	return nil
}

// EnrichUpdatedBy sets only UpdatedBy. Use in BeforeUpdate hooks.
func EnrichUpdatedBy(ctx context.Context, entity any) error {
	userID := appctx.GetUserID(ctx)
	if userID == "" {
		return nil
	}
	if e, ok := entity.(interface{ SetUpdatedBy(string) }); ok {
		e.SetUpdatedBy(userID)
	}
	return nil
}
