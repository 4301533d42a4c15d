package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/younicoin/LunariumCoin-2.0/internal/wallet/model"
)

// StatusEventsByTxID returns the status history for a transaction in the
// order the events were recorded.
func (r *Repository) StatusEventsByTxID(ctx context.Context, coin model.Coin, network model.Network, txid string) ([]model.StatusEvent, error) {
	start := time.Now()
	var err error
	defer func() {
		r.metrics.Observe("status_events_by_txid", coin, network, err, start)
	}()

	const query = `
SELECT
	status,
	block_hash,
	block_height,
	event_time
FROM wallet_status_events
WHERE coin = ? AND network = ? AND txid = CAST(? AS FixedString(64))
ORDER BY event_time ASC`

	rows, err := r.conn.Query(ctx, query, coin, network, txid)
	if err != nil {
		return nil, fmt.Errorf("query status events: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close rows: %w", cerr)
		}
	}()

	var events []model.StatusEvent
	for rows.Next() {
		var (
			event  model.StatusEvent
			status string
		)
		event.Coin = coin
		event.Network = network
		event.TxID = txid
		if err = rows.Scan(
			&status,
			&event.BlockHash,
			&event.BlockHeight,
			&event.Time,
		); err != nil {
			return nil, fmt.Errorf("scan status event: %w", err)
		}
		event.Status, err = parseStatus(status)
		if err != nil {
			return nil, err
		}

		events = append(events, event)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status events: %w", err)
	}

	return events, nil
}

func parseStatus(s string) (model.Status, error) {
	switch s {
	case model.StatusUnconfirmed.String():
		return model.StatusUnconfirmed, nil
	case model.StatusMined.String():
		return model.StatusMined, nil
	case model.StatusConflicted.String():
		return model.StatusConflicted, nil
	default:
		return 0, fmt.Errorf("unknown status %q", s)
	}
}
