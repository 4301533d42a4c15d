// Package history feeds transaction status transitions into the append-only
// audit trail without blocking the caller.
package history

import (
	"context"

	"github.com/younicoin/LunariumCoin-2.0/internal/wallet/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	EventStore interface {
		InsertStatusEvents(ctx context.Context, events []model.StatusEvent) error
	}
)
