// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command hsyncd runs the header-synchronization node: it loads or
// initializes the chain state, starts the header-sync manager and the
// local control socket, and periodically persists the header snapshot to
// disk until told to stop.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/decred/slog"

	"github.com/unicitynetwork/hsyncd/addrpeer"
	"github.com/unicitynetwork/hsyncd/blockchain"
	"github.com/unicitynetwork/hsyncd/chainstate"
	"github.com/unicitynetwork/hsyncd/config"
	"github.com/unicitynetwork/hsyncd/internal/hslog"
	"github.com/unicitynetwork/hsyncd/lockfile"
	"github.com/unicitynetwork/hsyncd/netsync"
	"github.com/unicitynetwork/hsyncd/notifier"
	"github.com/unicitynetwork/hsyncd/pow"
	"github.com/unicitynetwork/hsyncd/rpc"
	"github.com/unicitynetwork/hsyncd/strutil"
	"github.com/unicitynetwork/hsyncd/wire"
)

// headerSaveInterval mirrors the original implementation's periodic
// header-snapshot save cadence (application.cpp saves headers every ten
// minutes as a background task outside the exclusive section).
const headerSaveInterval = 10 * time.Minute

var log = hslog.NewSubsystemLogger("HSYD")

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, _, err := config.LoadConfig("hsyncd", os.Args[1:])
	if err != nil {
		return fmt.Errorf("hsyncd: %w", err)
	}

	net := netByName(cfg.NetworkName())
	if net == nil {
		return fmt.Errorf("hsyncd: unknown network %q", cfg.NetworkName())
	}
	cfg.DataDir = filepath.Join(cfg.DataDir, netName(net))
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return fmt.Errorf("hsyncd: create data directory: %w", err)
	}
	if cfg.SuspiciousReorgDepth > 0 {
		net.Params.SuspiciousReorgDepth = cfg.SuspiciousReorgDepth
	}

	if !cfg.NoFileLogging {
		if err := hslog.InitLogRotator(cfg.LogFilePath()); err != nil {
			return fmt.Errorf("hsyncd: init log rotator: %w", err)
		}
	}
	hslog.SetLogLevels(map[string]slog.Logger{"HSYD": log}, cfg.DebugLevel)

	dataLock, err := lockfile.Acquire(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("hsyncd: %w", err)
	}
	defer dataLock.Release()

	bus := notifier.New()
	logNotifications(bus)

	headersPath := cfg.HeadersFilePath()
	state, err := chainstate.LoadOrNew(net.Params, pow.NewEngine(), bus, headersPath)
	if err != nil {
		return fmt.Errorf("hsyncd: load chain state: %w", err)
	}
	log.Infof("chain state ready: tip height=%d", chainHeight(state))

	peers := addrpeer.New()
	manager := netsync.New(state, peers, noopSender{})

	sockPath := cfg.ControlSocketPath()
	shutdown := make(chan struct{})
	var shutdownOnce sync.Once
	stop := func() {
		shutdownOnce.Do(func() { close(shutdown) })
	}

	rpcSrv, err := rpc.New(sockPath, state, stop, hslog.NewSubsystemLogger("RPCS"))
	if err != nil {
		return fmt.Errorf("hsyncd: start control socket: %w", err)
	}
	defer rpcSrv.Close()
	go rpcSrv.Run()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(headerSaveInterval)
	defer ticker.Stop()

	timers := time.NewTicker(time.Second)
	defer timers.Stop()

	log.Infof("hsyncd started, network=%s datadir=%s", cfg.NetworkName(), cfg.DataDir)

loop:
	for {
		select {
		case <-sigCh:
			log.Info("received interrupt, shutting down")
			break loop
		case <-shutdown:
			log.Info("received stop command, shutting down")
			break loop
		case <-ticker.C:
			if err := state.Save(headersPath); err != nil {
				log.Errorf("periodic header save failed: %v", err)
			} else if cfg.MaxHeadersFileSize != "" {
				limit, _ := strutil.ParseByteSize(cfg.MaxHeadersFileSize)
				if info, err := os.Stat(headersPath); err == nil && info.Size() > limit {
					log.Warnf("header snapshot %s is %d bytes, past --maxheadersfilesize %s",
						headersPath, info.Size(), cfg.MaxHeadersFileSize)
				}
			}
		case <-timers.C:
			manager.ProcessTimers()
		}
	}

	if err := state.Save(headersPath); err != nil {
		return fmt.Errorf("hsyncd: final header save: %w", err)
	}
	return nil
}

func chainHeight(state *chainstate.State) int64 {
	tip := state.GetTip()
	if tip == nil {
		return 0
	}
	return blockchain.NodeHeight(tip)
}

// logNotifications subscribes a logging-only listener to the ChainTip,
// SuspiciousReorg and NetworkExpired topics on the bus, standing in for the richer consumers (wallet/explorer feeds)
// a production deployment would also attach here.
func logNotifications(bus *notifier.Bus) {
	bus.OnChainTip(func(ev notifier.ChainTipEvent) {
		log.Infof("new chain tip: height=%d hash=%s", ev.Height, blockchain.NodeHash(ev.Node))
	})
	bus.OnSuspiciousReorg(func(ev notifier.SuspiciousReorgEvent) {
		log.Warnf("suspicious reorg: depth=%d max_allowed=%d", ev.Depth, ev.MaxAllowed)
	})
	bus.OnNetworkExpired(func(ev notifier.NetworkExpiredEvent) {
		log.Warnf("network expired at height %d (expiration height %d)", ev.CurrentHeight, ev.ExpirationHeight)
	})
}

// noopSender is the seam where a real peer-transport implementation would
// plug in; the transport layer itself is out of scope here (spec.md scopes
// networking out), so outgoing GETHEADERS/HEADERS messages are only logged.
type noopSender struct{}

func (noopSender) SendGetHeaders(peer netsync.PeerID, msg *wire.MsgGetHeaders) {
	log.Debugf("(no transport) SendGetHeaders to peer %d, %d locator hashes", peer, len(msg.BlockLocatorHashes))
}

func (noopSender) SendHeaders(peer netsync.PeerID, msg *wire.MsgHeaders) {
	log.Debugf("(no transport) SendHeaders to peer %d, %d headers", peer, len(msg.Headers))
}
