// Package main runs a simulated Nexus node for local development.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/nexus-dashboard/internal/logger"
	"github.com/fd1az/nexus-dashboard/internal/nodesim"
)

func main() {
	addr := flag.String("addr", ":8001", "Listen address")
	blockInterval := flag.Duration("block-interval", 10*time.Second, "Time between mined blocks")
	txInterval := flag.Duration("tx-interval", 3*time.Second, "Time between generated transactions (0 disables)")
	noWelcome := flag.Bool("no-welcome", false, "Skip the plain-text welcome frame")
	ignorePings := flag.Bool("ignore-pings", false, "Never answer PING")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	log := logger.New(os.Stderr, logger.ParseLevel(*logLevel), "nodesim", nil)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := nodesim.DefaultConfig()
	cfg.BlockInterval = *blockInterval
	cfg.Welcome = !*noWelcome
	cfg.IgnorePings = *ignorePings

	if err := run(ctx, *addr, cfg, *txInterval, log); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, addr string, cfg nodesim.Config, txInterval time.Duration, log *logger.Logger) error {
	node := nodesim.New(cfg, log)

	srv := &http.Server{
		Addr:              addr,
		Handler:           node.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go node.Run(ctx)
	if txInterval > 0 {
		go generateTransactions(ctx, node, txInterval)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		node.DropConnections()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info(ctx, "simulated node listening", "addr", addr, "ws", "/ws", "block_interval", cfg.BlockInterval)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

var wallets = []string{"alice", "bob", "carol", "dave", "erin"}

func generateTransactions(ctx context.Context, node *nodesim.Node, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			from := wallets[rand.IntN(len(wallets))]
			to := wallets[rand.IntN(len(wallets))]
			amount := decimal.NewFromInt(int64(rand.IntN(10_000))).Shift(-2)
			node.SubmitTransaction(ctx, from, to, amount)
		}
	}
}
