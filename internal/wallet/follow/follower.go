package follow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/younicoin/LunariumCoin-2.0/internal/clock"
	"github.com/younicoin/LunariumCoin-2.0/internal/wallet/model"
	"github.com/younicoin/LunariumCoin-2.0/pkg/workerpool"
	"go.uber.org/zap"
)

// Vars to allow overriding in tests.
var (
	sleepDuration     = 5 * time.Second
	longSleepDuration = 30 * time.Second
	fetchBatchLimit   = uint64(64)
	fetchWorkers      = 4
)

// Service polls a node and replays chain movement into the tracker. One
// iteration performs at most one of: unwind one stale tip block, or connect
// the next batch of new blocks.
type Service struct {
	logger            *zap.Logger
	metrics           Metrics
	sleep             func(context.Context, time.Duration) error
	sleepDuration     time.Duration
	longSleepDuration time.Duration
	source            Source
	tracker           Tracker
	blockSignal       <-chan struct{}
	startHeight       uint64
}

// NewService builds a follower. startHeight is the first height to scan when
// the tracker has no chain state yet (wallet birthday). blockSignal may be
// nil; when set, a send wakes the loop early.
func NewService(
	source Source,
	tracker Tracker,
	metrics Metrics,
	startHeight uint64,
	logger *zap.Logger,
	blockSignal <-chan struct{},
) (*Service, error) {
	if source == nil {
		return nil, errors.New("follower source is required")
	}
	if tracker == nil {
		return nil, errors.New("follower tracker is required")
	}
	if metrics == nil {
		return nil, errors.New("follower metrics is required")
	}

	return &Service{
		logger:            logger,
		metrics:           metrics,
		sleep:             clock.SleepWithContext,
		sleepDuration:     sleepDuration,
		longSleepDuration: longSleepDuration,
		source:            source,
		tracker:           tracker,
		blockSignal:       blockSignal,
		startHeight:       startHeight,
	}, nil
}

// Run starts the follow loop until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.run(ctx); err != nil {
			s.logger.Warn("follow iteration failed, backing off", zap.Error(err), zap.Duration("sleep", s.sleepDuration))
			if sleepErr := s.wait(ctx, s.sleepDuration); sleepErr != nil {
				return sleepErr
			}
		}
	}
}

func (s *Service) run(ctx context.Context) error {
	started := time.Now()
	best, err := s.source.BestBlock(ctx)
	s.metrics.ObserveBestBlock(err, started)
	if err != nil {
		return fmt.Errorf("best block: %w", err)
	}

	tip, haveTip := s.tracker.Tip()
	if haveTip {
		if tip.Hash == best.Hash {
			s.logger.Debug("in sync with node", zap.Uint64("height", tip.Height))
			return s.wait(ctx, s.longSleepDuration)
		}

		onChain, err := s.tipStillOnChain(ctx, tip)
		if err != nil {
			return err
		}
		if !onChain {
			s.logger.Info("tip replaced by node, disconnecting",
				zap.Stringer("hash", tip.Hash),
				zap.Uint64("height", tip.Height),
			)
			started = time.Now()
			err = s.tracker.DisconnectBlock(ctx, tip.Hash)
			s.metrics.ObserveDisconnect(err, started)
			if err != nil {
				return fmt.Errorf("disconnect %s: %w", tip.Hash, err)
			}
			// Next iteration unwinds further or starts connecting.
			return nil
		}
	}

	start := s.startHeight
	if haveTip {
		start = tip.Height + 1
	}
	if best.Height < start {
		return s.wait(ctx, s.longSleepDuration)
	}
	end := best.Height
	if end-start+1 > fetchBatchLimit {
		end = start + fetchBatchLimit - 1
	}

	blocks, err := s.fetchRange(ctx, start, end)
	if err != nil {
		return err
	}

	s.logger.Info("connecting blocks", zap.Uint64("from", start), zap.Uint64("to", end))
	started = time.Now()
	for _, b := range blocks {
		if err = s.tracker.ConnectBlock(ctx, b.Hash, b.Height, b.Txs); err != nil {
			break
		}
	}
	s.metrics.ObserveApplyBatch(err, len(blocks), started)
	if err != nil {
		return fmt.Errorf("connect blocks: %w", err)
	}

	if end < best.Height {
		// Still behind; keep going without sleeping.
		return nil
	}
	return s.wait(ctx, s.sleepDuration)
}

// tipStillOnChain reports whether the node's chain still contains our tip at
// its height.
func (s *Service) tipStillOnChain(ctx context.Context, tip model.BlockRef) (bool, error) {
	nodeBlock, err := s.source.FetchBlock(ctx, tip.Height)
	if err != nil {
		return false, fmt.Errorf("fetch block at %d: %w", tip.Height, err)
	}
	return nodeBlock.Hash == tip.Hash, nil
}

// fetchRange fetches [start, end] concurrently and returns the blocks in
// ascending height order.
func (s *Service) fetchRange(ctx context.Context, start, end uint64) ([]*Block, error) {
	heights := make([]uint64, 0, end-start+1)
	for h := start; h <= end; h++ {
		heights = append(heights, h)
	}

	blocks := make([]*Block, len(heights))
	err := workerpool.Process(ctx, fetchWorkers, heights, func(ctx context.Context, height uint64) error {
		b, err := s.source.FetchBlock(ctx, height)
		if err != nil {
			return fmt.Errorf("fetch block at %d: %w", height, err)
		}
		blocks[height-start] = b
		return nil
	}, nil)
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

func (s *Service) wait(ctx context.Context, d time.Duration) error {
	if s.blockSignal == nil {
		return s.sleep(ctx, d)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.blockSignal:
		return nil
	case <-timer.C:
		return nil
	}
}
