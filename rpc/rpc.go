// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package rpc implements the local control interface: a unix datagram
// socket at <datadir>/node.sock answering small JSON requests with a
// single JSON response line. It is intentionally thin — a read-only chain
// query and a stop command — mirroring the amount of control surface the
// spec calls for, not a general-purpose RPC server.
package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/decred/base58"
	"github.com/decred/slog"

	"github.com/unicitynetwork/hsyncd/blockchain"
	"github.com/unicitynetwork/hsyncd/chainstate"
)

// maxRequestSize bounds a single datagram read; requests are a handful of
// bytes of JSON and never need more.
const maxRequestSize = 4096

// request is the wire shape of every control-socket message.
type request struct {
	Cmd string `json:"cmd"`
}

type resultResponse struct {
	Result string `json:"result"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server answers control-socket requests against a chainstate.State,
// supporting a "stop" command that invokes a caller-supplied shutdown
// function.
type Server struct {
	log   slog.Logger
	state *chainstate.State
	stop  func()

	conn *net.UnixConn

	wg       sync.WaitGroup
	closeOne sync.Once
}

// New binds a unix datagram socket at path, removing any stale socket file
// left behind by an unclean previous shutdown. stop is invoked (once, from
// the serve goroutine) when a "stop" command is received.
func New(path string, state *chainstate.State, stop func(), log slog.Logger) (*Server, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("rpc: remove stale socket %s: %w", path, err)
	}

	addr := &net.UnixAddr{Name: path, Net: "unixgram"}
	conn, err := net.ListenUnixgram("unixgram", addr)
	if err != nil {
		return nil, fmt.Errorf("rpc: listen %s: %w", path, err)
	}

	return &Server{
		log:   log,
		state: state,
		stop:  stop,
		conn:  conn,
	}, nil
}

// Run serves requests until the socket is closed by Close. It is meant to
// be run in its own goroutine.
func (s *Server) Run() {
	s.wg.Add(1)
	defer s.wg.Done()

	buf := make([]byte, maxRequestSize)
	for {
		n, from, err := s.conn.ReadFromUnix(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Warnf("rpc: read: %v", err)
			continue
		}
		s.handle(buf[:n], from)
	}
}

func (s *Server) handle(data []byte, from *net.UnixAddr) {
	var req request
	if err := json.Unmarshal(data, &req); err != nil {
		s.reply(from, errorResponse{Error: fmt.Sprintf("malformed request: %v", err)})
		return
	}

	switch req.Cmd {
	case "tip":
		s.reply(from, resultResponse{Result: s.tipSummary()})
	case "stop":
		s.reply(from, resultResponse{Result: "stopping"})
		if s.stop != nil {
			go s.stop()
		}
	default:
		s.reply(from, errorResponse{Error: fmt.Sprintf("unknown command %q", req.Cmd)})
	}
}

// tipSummary renders the active chain tip as a single human-readable line:
// height, hash, and the base58check-style rendering of the miner address
// the way a block-explorer log line would show it.
func (s *Server) tipSummary() string {
	tip := s.state.GetTip()
	if tip == nil {
		return "no tip"
	}
	header := blockchain.NodeHeader(tip)
	minerAddr := base58.Encode(header.MinerAddress[:])
	return fmt.Sprintf("height=%d hash=%s miner=%s", blockchain.NodeHeight(tip), blockchain.NodeHash(tip), minerAddr)
}

// reply sends resp as a single JSON line back to the requesting address.
// from is nil when the requester's socket is not bound to a path, and the
// write then fails. A failed write is only logged: the caller has no
// retransmit path and the socket is best-effort by design.
func (s *Server) reply(from *net.UnixAddr, resp interface{}) {
	line, err := json.Marshal(resp)
	if err != nil {
		s.log.Errorf("rpc: marshal response: %v", err)
		return
	}
	line = append(line, '\n')
	if _, err := s.conn.WriteToUnix(line, from); err != nil {
		s.log.Warnf("rpc: write to %s: %v", from, err)
	}
}

// Close shuts down the listening socket and waits for Run to return.
func (s *Server) Close() error {
	var err error
	s.closeOne.Do(func() {
		err = s.conn.Close()
	})
	s.wg.Wait()
	return err
}
