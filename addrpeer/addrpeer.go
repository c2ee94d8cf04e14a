// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package addrpeer implements the minimal peer table the header-sync
// manager needs: per-peer sync bookkeeping, invalid-header dedup, and
// misbehavior scoring with disconnect-on-threshold. It is the concrete
// implementation of netsync.PeerMisbehaviorAdapter shipped with this
// module so the binary is runnable without an external peer package; a
// production deployment would typically replace it with a fuller
// transport-integrated peer manager while keeping the same interface.
package addrpeer

import (
	"sync"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/jrick/bitset"

	"github.com/unicitynetwork/hsyncd/netaddr"
	"github.com/unicitynetwork/hsyncd/netsync"
)

// Permission bit indices within a Peer's permission Bitset.
const (
	permBitDownload = iota
	permBitNoBan
	permBitCount
)

// Peer tracks the header-sync-relevant state for one connection. The
// transport layer (out of scope here) owns the socket; this struct only
// carries what HandleHeadersMessage/CheckInitialSync need to see.
type Peer struct {
	ID                    netsync.PeerID
	Addr                  netaddr.NetAddress
	Outbound              bool
	Feeler                bool
	SuccessfullyConnected bool

	mu                   sync.Mutex
	syncStarted          bool
	misbehaviorScore     int
	unconnectingHeaders  int
	invalidHeaderHashes  map[chainhash.Hash]struct{}
	permissions          bitset.Bitset
}

func newPeer(id netsync.PeerID, addr netaddr.NetAddress, outbound, feeler bool) *Peer {
	return &Peer{
		ID:                  id,
		Addr:                addr,
		Outbound:            outbound,
		Feeler:              feeler,
		invalidHeaderHashes: make(map[chainhash.Hash]struct{}),
		permissions:         bitset.New(permBitCount),
	}
}

// GrantDownload marks the peer as having NoBan/Download-equivalent
// permission, letting it receive headers even while our own chain has too
// little work (spec.md §4.5 step 1 of HandleGetHeadersMessage).
func (p *Peer) GrantDownload() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.permissions.Set(permBitDownload)
}

// misbehaviorPenalty returns the score increment for a given kind, mirroring
// the weight the original implementation gives each category: protocol
// violations that are cheap for an attacker to repeat (oversized messages,
// bad PoW, discontinuity) score higher than ambiguous ones (too-many-orphans
// can legitimately happen to a well-behaved peer during a reorg storm).
func misbehaviorPenalty(kind netsync.MisbehaviorKind) int {
	switch kind {
	case netsync.MisbehaviorOversizedMessage, netsync.MisbehaviorInvalidPoW, netsync.MisbehaviorNonContinuous:
		return 100
	case netsync.MisbehaviorInvalidHeader:
		return 50
	case netsync.MisbehaviorUnconnectingHeaders:
		return 10
	case netsync.MisbehaviorTooManyOrphans:
		return 20
	default:
		return 1
	}
}

// disconnectThreshold is the cumulative misbehavior score at or beyond
// which ShouldDisconnect reports true.
const disconnectThreshold = 100

// Table is a process-local registry of connected peers. It implements
// netsync.PeerMisbehaviorAdapter directly.
type Table struct {
	mu    sync.Mutex
	peers map[netsync.PeerID]*Peer
}

// New returns an empty peer table.
func New() *Table {
	return &Table{peers: make(map[netsync.PeerID]*Peer)}
}

// AddPeer registers a newly connected peer.
func (t *Table) AddPeer(id netsync.PeerID, addr netaddr.NetAddress, outbound, feeler bool) *Peer {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := newPeer(id, addr, outbound, feeler)
	t.peers[id] = p
	return p
}

// MarkHandshakeComplete records that id has finished the version/verack
// exchange, making it eligible for sync-peer election.
func (t *Table) MarkHandshakeComplete(id netsync.PeerID) {
	t.mu.Lock()
	p := t.peers[id]
	t.mu.Unlock()
	if p == nil {
		return
	}
	p.mu.Lock()
	p.SuccessfullyConnected = true
	p.mu.Unlock()
}

func (t *Table) get(id netsync.PeerID) *Peer {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.peers[id]
}

// OutboundPeers implements netsync.PeerMisbehaviorAdapter.
func (t *Table) OutboundPeers() []netsync.PeerID {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []netsync.PeerID
	for id, p := range t.peers {
		if p.Outbound {
			out = append(out, id)
		}
	}
	return out
}

// IsFeeler implements netsync.PeerMisbehaviorAdapter.
func (t *Table) IsFeeler(id netsync.PeerID) bool {
	p := t.get(id)
	return p != nil && p.Feeler
}

// SuccessfullyConnected implements netsync.PeerMisbehaviorAdapter.
func (t *Table) SuccessfullyConnected(id netsync.PeerID) bool {
	p := t.get(id)
	if p == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.SuccessfullyConnected
}

// SyncStarted implements netsync.PeerMisbehaviorAdapter.
func (t *Table) SyncStarted(id netsync.PeerID) bool {
	p := t.get(id)
	if p == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.syncStarted
}

// SetSyncStarted implements netsync.PeerMisbehaviorAdapter.
func (t *Table) SetSyncStarted(id netsync.PeerID, started bool) {
	p := t.get(id)
	if p == nil {
		return
	}
	p.mu.Lock()
	p.syncStarted = started
	p.mu.Unlock()
}

// ReportMisbehavior implements netsync.PeerMisbehaviorAdapter.
func (t *Table) ReportMisbehavior(id netsync.PeerID, kind netsync.MisbehaviorKind) {
	p := t.get(id)
	if p == nil {
		return
	}
	p.mu.Lock()
	p.misbehaviorScore += misbehaviorPenalty(kind)
	p.mu.Unlock()
}

// ShouldDisconnect implements netsync.PeerMisbehaviorAdapter.
func (t *Table) ShouldDisconnect(id netsync.PeerID) bool {
	p := t.get(id)
	if p == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.permissions.Get(permBitNoBan) {
		return false
	}
	// The unconnecting-headers counter contributes to the same score as
	// an explicitly reported misbehavior kind would, even though the
	// header-sync manager only increments the counter directly (see
	// netsync.Manager.HandleHeadersMessage) rather than calling
	// ReportMisbehavior for it.
	score := p.misbehaviorScore + p.unconnectingHeaders*misbehaviorPenalty(netsync.MisbehaviorUnconnectingHeaders)
	return score >= disconnectThreshold
}

// RemovePeer implements netsync.PeerMisbehaviorAdapter.
func (t *Table) RemovePeer(id netsync.PeerID) {
	t.mu.Lock()
	delete(t.peers, id)
	t.mu.Unlock()
}

// Permissions implements netsync.PeerMisbehaviorAdapter.
func (t *Table) Permissions(id netsync.PeerID) netsync.PermissionFlags {
	p := t.get(id)
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	var flags netsync.PermissionFlags
	if p.permissions.Get(permBitDownload) || p.permissions.Get(permBitNoBan) {
		flags |= netsync.PermissionDownload
	}
	return flags
}

// HasInvalidHeaderHash implements netsync.PeerMisbehaviorAdapter.
func (t *Table) HasInvalidHeaderHash(id netsync.PeerID, hash chainhash.Hash) bool {
	p := t.get(id)
	if p == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.invalidHeaderHashes[hash]
	return ok
}

// NoteInvalidHeaderHash implements netsync.PeerMisbehaviorAdapter.
func (t *Table) NoteInvalidHeaderHash(id netsync.PeerID, hash chainhash.Hash) {
	p := t.get(id)
	if p == nil {
		return
	}
	p.mu.Lock()
	p.invalidHeaderHashes[hash] = struct{}{}
	p.mu.Unlock()
}

// UnconnectingHeadersCount implements netsync.PeerMisbehaviorAdapter.
func (t *Table) UnconnectingHeadersCount(id netsync.PeerID) int {
	p := t.get(id)
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.unconnectingHeaders
}

// IncrementUnconnectingHeaders implements netsync.PeerMisbehaviorAdapter.
func (t *Table) IncrementUnconnectingHeaders(id netsync.PeerID) {
	p := t.get(id)
	if p == nil {
		return
	}
	p.mu.Lock()
	p.unconnectingHeaders++
	p.mu.Unlock()
}

// ResetUnconnectingHeaders implements netsync.PeerMisbehaviorAdapter.
func (t *Table) ResetUnconnectingHeaders(id netsync.PeerID) {
	p := t.get(id)
	if p == nil {
		return
	}
	p.mu.Lock()
	p.unconnectingHeaders = 0
	p.mu.Unlock()
}
