// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package netsync implements the header-sync protocol state machine:
// sync-peer election, HEADERS/GETHEADERS handling with its anti-DoS gates,
// and the 120-second stall timer. It consumes a chainstate.State for
// validation/indexing and a PeerMisbehaviorAdapter for everything
// peer-shaped (scoring, disconnecting, permissions), matching the role
// spec.md assigns the sync manager of driving the façade without owning
// any consensus state of its own.
package netsync

import (
	"math/big"
	"sync"
	"time"

	"github.com/decred/dcrd/blockchain/standalone/v2"
	"github.com/decred/dcrd/chaincfg/chainhash"

	"github.com/unicitynetwork/hsyncd/blockchain"
	"github.com/unicitynetwork/hsyncd/chainstate"
	"github.com/unicitynetwork/hsyncd/clock"
	"github.com/unicitynetwork/hsyncd/wire"
)

// noSyncPeer is the sentinel sync_peer_id value meaning "no peer
// currently selected", mirroring the original's NO_SYNC_PEER constant.
const noSyncPeer PeerID = -1

// maxUnsolicitedAnnouncement bounds the size of a HEADERS batch that is
// always processed during IBD regardless of which peer sent it, so a
// single new-block announcement is never starved by sync-peer gating.
const maxUnsolicitedAnnouncement = 2

// stallTimeout is how long the sync manager waits for the sync peer to
// deliver another HEADERS message before disconnecting it.
const stallTimeout = 120 * time.Second

// Sender abstracts sending wire messages to a peer; the actual socket
// write lives in the transport layer, out of this module's scope.
type Sender interface {
	SendGetHeaders(peer PeerID, msg *wire.MsgGetHeaders)
	SendHeaders(peer PeerID, msg *wire.MsgHeaders)
}

// Manager drives header synchronization against a single chainstate.State.
// It holds no consensus state itself, only the bookkeeping needed to pick
// and babysit a sync peer.
type Manager struct {
	chain  *chainstate.State
	peers  PeerMisbehaviorAdapter
	sender Sender

	mu                   sync.Mutex
	syncPeer             PeerID
	syncStartTime        time.Time
	lastHeadersReceived  time.Time
	lastBatchSize        int
}

// New constructs a Manager. chain, peers, and sender must all be non-nil.
func New(chain *chainstate.State, peers PeerMisbehaviorAdapter, sender Sender) *Manager {
	return &Manager{
		chain:    chain,
		peers:    peers,
		sender:   sender,
		syncPeer: noSyncPeer,
	}
}

// HasSyncPeer reports whether a sync peer is currently selected.
func (m *Manager) HasSyncPeer() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.syncPeer != noSyncPeer
}

// SyncPeer returns the currently selected sync peer, or (0, false) if none.
func (m *Manager) SyncPeer() (PeerID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.syncPeer == noSyncPeer {
		return 0, false
	}
	return m.syncPeer, true
}

func (m *Manager) setSyncPeerLocked(peer PeerID) {
	now := clock.Now()
	m.syncPeer = peer
	m.syncStartTime = now
	m.lastHeadersReceived = now
}

func (m *Manager) clearSyncPeerLocked() {
	m.syncPeer = noSyncPeer
	m.syncStartTime = time.Time{}
}

// CheckInitialSync elects a sync peer if none is currently set. It is
// idempotent and safe to call repeatedly (e.g. on every new outbound
// connection and every maintenance tick); at most one sync peer is ever
// selected at a time.
func (m *Manager) CheckInitialSync() {
	m.mu.Lock()
	if m.syncPeer != noSyncPeer {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	for _, peer := range m.peers.OutboundPeers() {
		if m.peers.SyncStarted(peer) {
			continue
		}
		if m.peers.IsFeeler(peer) {
			continue
		}
		if !m.peers.SuccessfullyConnected(peer) {
			continue
		}

		m.mu.Lock()
		m.setSyncPeerLocked(peer)
		m.mu.Unlock()
		m.peers.SetSyncStarted(peer, true)
		m.requestHeadersFrom(peer)
		return
	}
}

// requestHeadersFrom sends a GETHEADERS built from the locator of tip's
// parent rather than tip itself (the "pprev trick"): this guarantees the
// peer's reply is non-empty even when we are already at their tip, since
// our own tip header will be included in the response.
func (m *Manager) requestHeadersFrom(peer PeerID) {
	tip := m.chain.GetTip()
	var locator blockchain.BlockLocator
	if tip == nil {
		locator = m.chain.GetLocator(nil)
	} else if parent := blockchain.NodeParent(tip); parent != nil {
		locator = m.chain.GetLocator(parent)
	} else {
		locator = m.chain.GetLocator(tip)
	}

	msg := wire.NewMsgGetHeaders()
	msg.BlockLocatorHashes = append(msg.BlockLocatorHashes, locator...)
	m.sender.SendGetHeaders(peer, msg)
}

// OnPeerDisconnected must be called by the transport layer whenever a peer
// goes away. If it was the sync peer, sync state is cleared and every
// remaining outbound peer's sync_started flag is reset so CheckInitialSync
// can reselect among them, even in a small peer set where every peer has
// already been tried once.
func (m *Manager) OnPeerDisconnected(peer PeerID) {
	m.mu.Lock()
	wasSyncPeer := m.syncPeer == peer
	if wasSyncPeer {
		m.clearSyncPeerLocked()
	}
	m.mu.Unlock()

	if !wasSyncPeer {
		return
	}
	for _, p := range m.peers.OutboundPeers() {
		if m.peers.SyncStarted(p) {
			m.peers.SetSyncStarted(p, false)
		}
	}
}

// ProcessTimers should be called on every maintenance tick. It disconnects
// the sync peer if it has not delivered a HEADERS message within
// stallTimeout; OnPeerDisconnected (invoked by the transport's disconnect
// callback) clears sync state and frees up reselection.
func (m *Manager) ProcessTimers() {
	m.mu.Lock()
	peer := m.syncPeer
	last := m.lastHeadersReceived
	m.mu.Unlock()

	if peer == noSyncPeer || last.IsZero() {
		return
	}
	if clock.Now().Sub(last) > stallTimeout {
		m.peers.RemovePeer(peer)
	}
}

// headersWork sums the per-header proof-of-work contribution of a headers
// batch using the same bits-to-work conversion the validator uses for
// chain_work, letting the low-work gate reason about a not-yet-indexed
// batch's total work before any header is accepted.
func headersWork(headers []*wire.BlockHeader) *big.Int {
	total := big.NewInt(0)
	for _, h := range headers {
		total.Add(total, standalone.CalcWork(h.Bits))
	}
	return total
}

// antiDoSWorkThreshold computes the dynamic low-work gate threshold:
// max(minimum_chain_work, tip.chain_work - bufferBlocks blocks' worth of
// work at the tip's current difficulty). Using the tip's current bits as a
// stand-in for the buffer window's per-block work is a deliberate
// simplification (the exact historical per-block work would require
// walking back bufferBlocks ancestors); see DESIGN.md.
func antiDoSWorkThreshold(tip *blockchain.Node, params antiDoSParams) *big.Int {
	minWork := params.MinimumChainWork
	if minWork == nil {
		minWork = big.NewInt(0)
	}
	if tip == nil {
		return new(big.Int).Set(minWork)
	}

	tipWork := blockchain.NodeWork(tip)
	perBlock := standalone.CalcWork(blockchain.NodeBits(tip))
	buffer := new(big.Int).Mul(perBlock, big.NewInt(params.WorkBufferBlocks))

	threshold := new(big.Int).Sub(tipWork, buffer)
	if threshold.Sign() < 0 {
		threshold.SetInt64(0)
	}
	if threshold.Cmp(minWork) < 0 {
		threshold = minWork
	}
	return threshold
}

// antiDoSParams is the slice of chaincfg.Params the low-work gate needs;
// declared narrowly here so headersWork/antiDoSWorkThreshold don't import
// chaincfg's full surface.
type antiDoSParams struct {
	MinimumChainWork *big.Int
	WorkBufferBlocks int64
}

// HandleHeadersMessage processes a HEADERS message received from peer,
// implementing spec.md §4.5's full gate sequence in order. It returns
// false when the batch is rejected for peer misbehavior or when
// ActivateBestChain returns false (suspicious reorg or network
// expiration); ordinary "nothing to do" outcomes (empty batch, low-work
// batch, IBD gating) return true.
func (m *Manager) HandleHeadersMessage(peer PeerID, headers []*wire.BlockHeader) bool {
	params := m.chain.Params()

	if m.chain.IsInitialBlockDownload() {
		syncPeer, hasSync := m.SyncPeer()
		if len(headers) > 0 && len(headers) > maxUnsolicitedAnnouncement &&
			(!hasSync || peer != syncPeer) {
			return true
		}
	}

	skipDoSChecks := false
	if len(headers) > 0 {
		last := headers[len(headers)-1]
		if node := m.chain.LookupBlockIndex(last.BlockHash()); node != nil && m.chain.IsOnActiveChain(node) {
			skipDoSChecks = true
		}
	}

	m.mu.Lock()
	m.lastHeadersReceived = clock.Now()
	m.mu.Unlock()

	if len(headers) == 0 {
		// Keep the current sync peer; an empty reply means "no more
		// headers from this locator", not failure.
		return true
	}

	if len(headers) > wire.MaxHeadersPerMsg {
		m.peers.ReportMisbehavior(peer, MisbehaviorOversizedMessage)
		if m.peers.ShouldDisconnect(peer) {
			m.peers.RemovePeer(peer)
		}
		m.clearSyncPeer()
		return false
	}

	firstPrev := headers[0].PrevBlock
	prevExists := m.chain.LookupBlockIndex(firstPrev) != nil

	if !prevExists {
		m.peers.IncrementUnconnectingHeaders(peer)
		if m.peers.ShouldDisconnect(peer) {
			m.peers.RemovePeer(peer)
		}
		// Do not clear the sync peer; treat the whole batch as orphans
		// and ask for the missing ancestors below.
	}

	if idx := m.chain.CheckHeadersPoW(headers); idx != -1 {
		m.peers.ReportMisbehavior(peer, MisbehaviorInvalidPoW)
		if m.peers.ShouldDisconnect(peer) {
			m.peers.RemovePeer(peer)
		}
		m.clearSyncPeer()
		return false
	}

	if !headersAreContinuous(headers) {
		m.peers.ReportMisbehavior(peer, MisbehaviorNonContinuous)
		if m.peers.ShouldDisconnect(peer) {
			m.peers.RemovePeer(peer)
		}
		m.clearSyncPeer()
		return false
	}

	if prevExists {
		m.peers.ResetUnconnectingHeaders(peer)
	}

	if !skipDoSChecks {
		if chainStart := m.chain.LookupBlockIndex(firstPrev); chainStart != nil {
			total := new(big.Int).Add(blockchain.NodeWork(chainStart), headersWork(headers))
			threshold := antiDoSWorkThreshold(m.chain.GetTip(), antiDoSParams{
				MinimumChainWork: params.MinimumChainWork,
				WorkBufferBlocks: params.WorkBufferBlocks,
			})
			if total.Cmp(threshold) < 0 {
				if len(headers) != wire.MaxHeadersPerMsg {
					// Batch wasn't full: the peer has no more headers
					// to offer on this branch. Ignore without penalty
					// and without disturbing the sync peer.
					return true
				}
				// Batch was full: more (possibly sufficient) work may
				// follow. Ask for more and rely on the stall timer if
				// the peer is lying.
				m.requestHeadersFrom(peer)
				return true
			}
		}
	}

	m.mu.Lock()
	m.lastBatchSize = len(headers)
	m.mu.Unlock()

	for _, header := range headers {
		node, vs := m.chain.AcceptBlockHeader(header, true)

		if !vs.Valid() {
			switch vs.Reason {
			case blockchain.RejectPrevBlockUnknown:
				if err := m.chain.AddOrphan(header, int32(peer)); err != nil {
					m.peers.ReportMisbehavior(peer, MisbehaviorTooManyOrphans)
					if m.peers.ShouldDisconnect(peer) {
						m.peers.RemovePeer(peer)
					}
					m.clearSyncPeer()
					return false
				}
				continue

			case blockchain.RejectDuplicate, blockchain.RejectGenesisViaAccept:
				// Duplicate of a known-valid header, or a redelivery of
				// the network's own genesis: benign, ignore.
				continue

			case blockchain.RejectDuplicateInvalid:
				if skipDoSChecks {
					continue
				}
				hash := header.BlockHash()
				if m.peers.HasInvalidHeaderHash(peer, hash) {
					continue
				}
				m.peers.ReportMisbehavior(peer, MisbehaviorInvalidHeader)
				m.peers.NoteInvalidHeaderHash(peer, hash)
				if m.peers.ShouldDisconnect(peer) {
					m.peers.RemovePeer(peer)
				}
				m.clearSyncPeer()
				return false

			default:
				hash := header.BlockHash()
				if m.peers.HasInvalidHeaderHash(peer, hash) {
					continue
				}
				m.peers.ReportMisbehavior(peer, MisbehaviorInvalidHeader)
				m.peers.NoteInvalidHeaderHash(peer, hash)
				if m.peers.ShouldDisconnect(peer) {
					m.peers.RemovePeer(peer)
				}
				m.clearSyncPeer()
				return false
			}
		}

		m.chain.TryAddBlockIndexCandidate(node)
	}

	if !m.chain.ActivateBestChain() {
		m.clearSyncPeer()
		return false
	}

	if m.shouldRequestMore() {
		m.requestHeadersFrom(peer)
	}
	// Otherwise keep peer as the sync peer with no follow-up request;
	// sync_started stays set until timeout or disconnect (sticky
	// semantics), matching the original's comment that not clearing it
	// here avoids cycling through every peer sequentially.

	return true
}

func (m *Manager) clearSyncPeer() {
	m.mu.Lock()
	m.clearSyncPeerLocked()
	m.mu.Unlock()
}

func (m *Manager) shouldRequestMore() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastBatchSize == wire.MaxHeadersPerMsg
}

// headersAreContinuous reports whether each header's PrevBlock equals the
// hash of the header before it in the batch.
func headersAreContinuous(headers []*wire.BlockHeader) bool {
	for i := 1; i < len(headers); i++ {
		if headers[i].PrevBlock != headers[i-1].BlockHash() {
			return false
		}
	}
	return true
}

// HandleGetHeadersMessage serves a GETHEADERS request from peer, replying
// via m.sender. It never reports misbehavior: an ill-formed or
// unsatisfiable locator is answered with an empty HEADERS message rather
// than penalized, matching spec.md §4.5.
func (m *Manager) HandleGetHeadersMessage(peer PeerID, locator []chainhash.Hash, hashStop chainhash.Hash) {
	params := m.chain.Params()
	tip := m.chain.GetTip()

	tooLittleWork := tip == nil ||
		(params.MinimumChainWork != nil && blockchain.NodeWork(tip).Cmp(params.MinimumChainWork) < 0)
	if tooLittleWork && m.peers.Permissions(peer)&PermissionDownload == 0 {
		m.sender.SendHeaders(peer, wire.NewMsgHeaders())
		return
	}

	var fork *blockchain.Node
	for _, hash := range locator {
		node := m.chain.LookupBlockIndex(hash)
		if node != nil && m.chain.IsOnActiveChain(node) {
			fork = node
			break
		}
	}
	if fork == nil {
		m.sender.SendHeaders(peer, wire.NewMsgHeaders())
		return
	}

	var zero chainhash.Hash
	hasStop := hashStop != zero

	resp := wire.NewMsgHeaders()
	node := m.chain.GetBlockAtHeight(blockchain.NodeHeight(fork) + 1)
	for node != nil && len(resp.Headers) < wire.MaxHeadersPerMsg {
		hdr := blockchain.NodeHeader(node)
		resp.Headers = append(resp.Headers, &hdr)

		if hasStop && blockchain.NodeHash(node) == hashStop {
			break
		}
		if node == tip {
			break
		}
		node = m.chain.GetBlockAtHeight(blockchain.NodeHeight(node) + 1)
	}

	m.sender.SendHeaders(peer, resp)
}
