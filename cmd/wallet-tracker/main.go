package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/btcsuite/btcd/txscript"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/younicoin/LunariumCoin-2.0/internal/metrics"
	rpcclient2 "github.com/younicoin/LunariumCoin-2.0/internal/pkg/btcd/rpcclient"
	"github.com/younicoin/LunariumCoin-2.0/internal/transport"
	"github.com/younicoin/LunariumCoin-2.0/internal/wallet/bitcoin"
	"github.com/younicoin/LunariumCoin-2.0/internal/wallet/follow"
	"github.com/younicoin/LunariumCoin-2.0/internal/wallet/history"
	"github.com/younicoin/LunariumCoin-2.0/internal/wallet/model"
	"github.com/younicoin/LunariumCoin-2.0/internal/wallet/repository/clickhouse"
	"github.com/younicoin/LunariumCoin-2.0/internal/wallet/track"
)

type config struct {
	Coin           model.Coin    `long:"coin" env:"WALLET_TRACKER_COIN" description:"coin name" default:"LNR"`
	Network        model.Network `long:"network" env:"WALLET_TRACKER_NETWORK" description:"network name" default:"mainnet"`
	RPCURL         string        `long:"rpc-url" env:"WALLET_TRACKER_RPC_URL" description:"node RPC URL" default:"http://127.0.0.1:8332"`
	RPCUser        string        `long:"rpc-user" env:"WALLET_TRACKER_RPC_USER" description:"node RPC username"`
	RPCPassword    string        `long:"rpc-password" env:"WALLET_TRACKER_RPC_PASSWORD" description:"node RPC password"`
	WatchAddresses []string      `long:"watch-address" env:"WALLET_TRACKER_WATCH_ADDRESSES" env-delim:"," description:"wallet addresses to track" required:"true"`
	BirthHeight    uint64        `long:"birth-height" env:"WALLET_TRACKER_BIRTH_HEIGHT" description:"first height to scan when no chain state exists"`
	ClickhouseDSN  string        `long:"clickhouse-dsn" env:"WALLET_TRACKER_CLICKHOUSE_DSN" description:"ClickHouse DSN for the status history (optional)"`
	ZMQAddr        string        `long:"zmq-addr" env:"WALLET_TRACKER_ZMQ_ADDR" description:"node ZMQ hashblock endpoint (optional)"`
	APIAddr        string        `long:"api-addr" env:"WALLET_TRACKER_API_ADDR" description:"address for the query API" default:":8080"`
	MetricsAddr    string        `long:"metrics-addr" env:"WALLET_TRACKER_METRICS_ADDR" description:"address for metrics server" default:":2112"`
}

func main() {
	cfg := config{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	if _, err := flags.ParseArgs(&cfg, os.Args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		logger.Fatal("failed to parse flags", zap.Error(err))
	}

	logger = logger.With(zap.String("coin", string(cfg.Coin)), zap.String("network", string(cfg.Network)))

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("wallet tracker failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	startMetricsServer(ctx, cfg.MetricsAddr, logger)

	owns, err := ownershipFromAddresses(cfg.WatchAddresses, cfg.Network)
	if err != nil {
		return fmt.Errorf("parse watch addresses: %w", err)
	}

	var recorder track.StatusRecorder
	if cfg.ClickhouseDSN != "" {
		repo, err := clickhouse.NewRepository(cfg.ClickhouseDSN, metrics.NewClickhouseRepository())
		if err != nil {
			return fmt.Errorf("init repository: %w", err)
		}
		rec, err := history.NewRecorder(repo, logger.Named("history"))
		if err != nil {
			return fmt.Errorf("init history recorder: %w", err)
		}
		rec.Start(ctx)
		defer rec.Stop()
		recorder = rec
	}

	tracker, err := track.NewTracker(
		cfg.Coin,
		cfg.Network,
		owns,
		metrics.NewTracker(cfg.Coin, cfg.Network),
		recorder,
		logger.Named("tracker"),
	)
	if err != nil {
		return fmt.Errorf("init tracker: %w", err)
	}

	rpcClient, err := newRPCClient(cfg.RPCURL, cfg.RPCUser, cfg.RPCPassword)
	if err != nil {
		return fmt.Errorf("init rpc client: %w", err)
	}
	defer func() {
		rpcClient.Shutdown()
		rpcClient.WaitForShutdown()
	}()
	rpc := rpcclient2.NewObservedClient(rpcClient, metrics.NewRPCClient(cfg.Coin, cfg.Network))
	source := bitcoin.NewSource(rpc, cfg.Coin, cfg.Network)

	blockSignal, err := startBlockSignal(ctx, cfg.ZMQAddr, logger.Named("blockSignal"))
	if err != nil {
		return fmt.Errorf("init block signal: %w", err)
	}

	follower, err := follow.NewService(
		source,
		tracker,
		metrics.NewChainFollower(cfg.Coin, cfg.Network),
		cfg.BirthHeight,
		logger.Named("follower"),
		blockSignal,
	)
	if err != nil {
		return fmt.Errorf("init follower: %w", err)
	}

	startAPIServer(ctx, cfg.APIAddr, tracker, logger)

	return follower.Run(ctx)
}

// ownershipFromAddresses compiles the watched addresses into a script set so
// ownership checks are a map lookup on the serialized pkScript.
func ownershipFromAddresses(addresses []string, network model.Network) (track.OwnershipFunc, error) {
	params, err := chainParams(network)
	if err != nil {
		return nil, err
	}

	scripts := make([][]byte, 0, len(addresses))
	for _, addr := range addresses {
		decoded, err := btcutil.DecodeAddress(addr, params)
		if err != nil {
			return nil, fmt.Errorf("decode address %q: %w", addr, err)
		}
		script, err := txscript.PayToAddrScript(decoded)
		if err != nil {
			return nil, fmt.Errorf("script for address %q: %w", addr, err)
		}
		scripts = append(scripts, script)
	}

	return func(pkScript []byte) bool {
		for _, script := range scripts {
			if bytes.Equal(script, pkScript) {
				return true
			}
		}
		return false
	}, nil
}

func chainParams(network model.Network) (*chaincfg.Params, error) {
	switch network {
	case model.Mainnet:
		return &chaincfg.MainNetParams, nil
	case model.Testnet:
		return &chaincfg.TestNet3Params, nil
	case model.Regtest:
		return &chaincfg.RegressionNetParams, nil
	default:
		return nil, fmt.Errorf("unsupported network %q", network)
	}
}

func startAPIServer(ctx context.Context, addr string, tracker *track.Tracker, logger *zap.Logger) {
	mux := http.NewServeMux()
	transport.NewWalletHandler(tracker, logger.Named("api")).Register(mux)

	srv := &http.Server{
		Addr:              addr,
		Handler:           cors.Default().Handler(mux),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("starting api server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown api server", zap.Error(err))
		}
	}()
}

func startMetricsServer(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("starting metrics server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown metrics server", zap.Error(err))
		}
	}()
}

func newRPCClient(rawURL, user, password string) (*rpcclient.Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse rpc url: %w", err)
	}
	if parsed.Scheme != "http" {
		return nil, fmt.Errorf("rpc url scheme %q not supported, use http", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, errors.New("rpc url missing host")
	}

	cfg := &rpcclient.ConnConfig{
		Host:         parsed.Host,
		User:         user,
		Pass:         password,
		HTTPPostMode: true,
		DisableTLS:   true,
	}

	return rpcclient.New(cfg, nil)
}
