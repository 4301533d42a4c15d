package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/younicoin/LunariumCoin-2.0/internal/wallet/model"
)

// InsertStatusEvents appends status history rows in ClickHouse.
func (r *Repository) InsertStatusEvents(ctx context.Context, events []model.StatusEvent) error {
	start := time.Now()
	var err error
	defer func() {
		r.metrics.Observe("insert_status_events", firstCoin(events), firstNetwork(events), err, start)
	}()

	if len(events) == 0 {
		return nil
	}

	const query = `
INSERT INTO wallet_status_events (
	coin,
	network,
	txid,
	status,
	block_hash,
	block_height,
	event_time
) VALUES`

	batch, err := r.conn.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare status events batch: %w", err)
	}

	for _, event := range events {
		if err = batch.Append(
			string(event.Coin),
			string(event.Network),
			event.TxID,
			event.Status.String(),
			event.BlockHash,
			event.BlockHeight,
			event.Time,
		); err != nil {
			return fmt.Errorf("append status event: %w", err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("insert status events: %w", err)
	}
	return nil
}

func firstCoin(events []model.StatusEvent) model.Coin {
	if len(events) == 0 {
		return ""
	}
	return events[0].Coin
}

func firstNetwork(events []model.StatusEvent) model.Network {
	if len(events) == 0 {
		return ""
	}
	return events[0].Network
}
