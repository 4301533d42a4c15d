package clickhouse

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/younicoin/LunariumCoin-2.0/internal/wallet/model"
)

func TestRepository_StatusEventsByTxID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	coin := model.LNR
	network := model.Regtest
	txid := "b6f6991d03df0e2e04dafffcd6bc418aac66049e2cd74b80f14ac86db1e3f0da"

	tests := []struct {
		name     string
		setup    func(t *testing.T) *Repository
		want     []model.StatusEvent
		wantErr  bool
		wantErrf string
	}{
		{
			name: "query error",
			setup: func(t *testing.T) *Repository {
				ctrl := gomock.NewController(t)
				t.Cleanup(ctrl.Finish)

				mockConn := NewMockConn(ctrl)
				mockMetrics := NewMockMetrics(ctrl)
				queryErr := errors.New("query failed")

				gomock.InOrder(
					mockConn.EXPECT().
						Query(ctx, statusEventsByTxIDQuery(), coin, network, txid).
						Return(nil, queryErr),
					mockMetrics.EXPECT().
						Observe("status_events_by_txid", coin, network, gomock.Any(), gomock.AssignableToTypeOf(time.Time{})).
						Do(func(_ string, _ model.Coin, _ model.Network, err error, _ time.Time) {
							if !errors.Is(err, queryErr) {
								t.Fatalf("unexpected error propagated to metrics: %v", err)
							}
						}),
				)

				return &Repository{conn: mockConn, metrics: mockMetrics}
			},
			wantErr:  true,
			wantErrf: "query status events",
		},
		{
			name: "unknown status",
			setup: func(t *testing.T) *Repository {
				ctrl := gomock.NewController(t)
				t.Cleanup(ctrl.Finish)

				mockConn := NewMockConn(ctrl)
				mockRows := NewMockRows(ctrl)
				mockMetrics := NewMockMetrics(ctrl)

				gomock.InOrder(
					mockConn.EXPECT().
						Query(ctx, statusEventsByTxIDQuery(), coin, network, txid).
						Return(mockRows, nil),
					mockRows.EXPECT().
						Next().
						Return(true),
					mockRows.EXPECT().
						Scan(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
						Do(func(dest ...any) {
							*dest[0].(*string) = "garbage"
						}).
						Return(nil),
					mockRows.EXPECT().
						Close().
						Return(nil),
					mockMetrics.EXPECT().
						Observe("status_events_by_txid", coin, network, gomock.Any(), gomock.AssignableToTypeOf(time.Time{})),
				)

				return &Repository{conn: mockConn, metrics: mockMetrics}
			},
			wantErr:  true,
			wantErrf: "unknown status",
		},
		{
			name: "success",
			setup: func(t *testing.T) *Repository {
				ctrl := gomock.NewController(t)
				t.Cleanup(ctrl.Finish)

				mockConn := NewMockConn(ctrl)
				mockRows := NewMockRows(ctrl)
				mockMetrics := NewMockMetrics(ctrl)

				gomock.InOrder(
					mockConn.EXPECT().
						Query(ctx, statusEventsByTxIDQuery(), coin, network, txid).
						Return(mockRows, nil),
					mockRows.EXPECT().
						Next().
						Return(true),
					mockRows.EXPECT().
						Scan(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
						Do(func(dest ...any) {
							*dest[0].(*string) = "mined"
							*dest[1].(*string) = "blockhash"
							*dest[2].(*uint64) = 7
							*dest[3].(*time.Time) = time.Unix(1700000000, 0)
						}).
						Return(nil),
					mockRows.EXPECT().
						Next().
						Return(false),
					mockRows.EXPECT().
						Err().
						Return(nil),
					mockRows.EXPECT().
						Close().
						Return(nil),
					mockMetrics.EXPECT().
						Observe("status_events_by_txid", coin, network, nil, gomock.AssignableToTypeOf(time.Time{})),
				)

				return &Repository{conn: mockConn, metrics: mockMetrics}
			},
			want: []model.StatusEvent{
				{
					Coin:        coin,
					Network:     network,
					TxID:        txid,
					Status:      model.StatusMined,
					BlockHash:   "blockhash",
					BlockHeight: 7,
					Time:        time.Unix(1700000000, 0),
				},
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			repo := tt.setup(t)

			got, err := repo.StatusEventsByTxID(ctx, coin, network, txid)
			if (err != nil) != tt.wantErr {
				t.Fatalf("StatusEventsByTxID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && tt.wantErrf != "" && !strings.Contains(err.Error(), tt.wantErrf) {
				t.Fatalf("StatusEventsByTxID() error = %v, want contains %q", err, tt.wantErrf)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("StatusEventsByTxID() returned %d events, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("StatusEventsByTxID()[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func statusEventsByTxIDQuery() string {
	return `
SELECT
	status,
	block_hash,
	block_height,
	event_time
FROM wallet_status_events
WHERE coin = ? AND network = ? AND txid = CAST(? AS FixedString(64))
ORDER BY event_time ASC`
}

func TestParseStatus(t *testing.T) {
	t.Parallel()

	for _, status := range []model.Status{model.StatusUnconfirmed, model.StatusMined, model.StatusConflicted} {
		got, err := parseStatus(status.String())
		if err != nil {
			t.Fatalf("parseStatus(%q) returned error: %v", status, err)
		}
		if got != status {
			t.Fatalf("parseStatus(%q) = %v, want %v", status, got, status)
		}
	}

	if _, err := parseStatus("bogus"); err == nil {
		t.Fatal("parseStatus accepted an unknown label")
	}
}
