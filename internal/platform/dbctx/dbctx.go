package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
// Repositories run on Tx when it is set so a guard and the mutation it gates
// observe the same snapshot.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}
