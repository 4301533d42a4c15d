package clickhouse

import (
	"time"

	"github.com/golang/mock/gomock"
	"github.com/younicoin/LunariumCoin-2.0/internal/wallet/model"
)

func (s *RepositorySuite) TestInsertStatusEvents() {
	now := time.Now().UTC().Truncate(time.Second)
	events := []model.StatusEvent{
		newStatusEvent("a", model.StatusUnconfirmed, 0, now),
		newStatusEvent("a", model.StatusMined, 10, now.Add(time.Second)),
		newStatusEvent("b", model.StatusConflicted, 10, now.Add(2*time.Second)),
	}

	s.metrics.EXPECT().Observe("insert_status_events", model.LNR, model.Regtest, gomock.Nil(), gomock.Any()).Times(1)

	s.Require().NoError(s.repo.InsertStatusEvents(s.testCtx, events))
	s.Equal(uint64(len(events)), s.countRows("wallet_status_events"))
}

func (s *RepositorySuite) TestStatusEventsByTxIDOrdersByTime() {
	now := time.Now().UTC().Truncate(time.Second)
	events := []model.StatusEvent{
		newStatusEvent("a", model.StatusMined, 10, now.Add(time.Second)),
		newStatusEvent("a", model.StatusUnconfirmed, 0, now),
		newStatusEvent("b", model.StatusMined, 10, now),
	}

	s.metrics.EXPECT().Observe("insert_status_events", model.LNR, model.Regtest, gomock.Nil(), gomock.Any()).Times(1)
	s.metrics.EXPECT().Observe("status_events_by_txid", model.LNR, model.Regtest, gomock.Nil(), gomock.Any()).Times(1)

	s.Require().NoError(s.repo.InsertStatusEvents(s.testCtx, events))

	got, err := s.repo.StatusEventsByTxID(s.testCtx, model.LNR, model.Regtest, events[0].TxID)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(model.StatusUnconfirmed, got[0].Status)
	s.Equal(model.StatusMined, got[1].Status)
	s.Equal(uint64(10), got[1].BlockHeight)
}

func (s *RepositorySuite) TestStatusEventsByTxIDUnknownTransaction() {
	s.metrics.EXPECT().Observe("status_events_by_txid", model.LNR, model.Regtest, gomock.Nil(), gomock.Any()).Times(1)

	got, err := s.repo.StatusEventsByTxID(s.testCtx, model.LNR, model.Regtest, newStatusEvent("c", model.StatusMined, 0, time.Now()).TxID)
	s.Require().NoError(err)
	s.Empty(got)
}
