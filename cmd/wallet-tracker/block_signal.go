//go:build !zmq

package main

import (
	"context"

	"go.uber.org/zap"
)

// Without ZMQ support the follower relies on polling alone.
func startBlockSignal(_ context.Context, addr string, logger *zap.Logger) (<-chan struct{}, error) {
	if addr != "" {
		logger.Warn("zmq addr configured but binary built without zmq support", zap.String("addr", addr))
	}
	return nil, nil
}
