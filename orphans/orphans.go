// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package orphans implements the bounded, dual-indexed pool of headers
// whose parent is not yet known to the block index. Entries are indexed
// both by their own hash, for dedup, and by their claimed parent hash, for
// O(1) cascade resolution once the missing parent arrives.
package orphans

import (
	"time"

	"github.com/decred/dcrd/chaincfg/chainhash"

	"github.com/unicitynetwork/hsyncd/clock"
	"github.com/unicitynetwork/hsyncd/wire"
)

// Per-peer and global hard caps, per the sizing in SPEC_FULL.md §4.3.
const (
	MaxOrphansPerPeer = 50
	MaxOrphans        = 1000
)

// Entry is a single pooled orphan header.
type Entry struct {
	Header     *wire.BlockHeader
	PeerID     int32
	InsertTime time.Time
}

// Pool is the dual-indexed orphan header cache. A Pool is not
// self-synchronizing; the chainstate facade that owns it is expected to
// serialize access to it the same way it serializes its other state.
type Pool struct {
	orphanHorizon time.Duration

	byHash   map[chainhash.Hash]*Entry
	byPrev   map[chainhash.Hash]map[chainhash.Hash]struct{}
	perPeer  map[int32]int
	order    []chainhash.Hash // insertion order, oldest first, for global eviction
}

// New returns an empty orphan pool that evicts entries older than horizon.
func New(horizon time.Duration) *Pool {
	return &Pool{
		orphanHorizon: horizon,
		byHash:        make(map[chainhash.Hash]*Entry),
		byPrev:        make(map[chainhash.Hash]map[chainhash.Hash]struct{}),
		perPeer:       make(map[int32]int),
	}
}

// Len returns the total number of pooled orphans.
func (p *Pool) Len() int {
	return len(p.byHash)
}

// PeerLen returns the number of orphans currently attributed to peerID.
func (p *Pool) PeerLen(peerID int32) int {
	return p.perPeer[peerID]
}

// Have reports whether hash is already pooled.
func (p *Pool) Have(hash chainhash.Hash) bool {
	_, ok := p.byHash[hash]
	return ok
}

// ErrTooManyOrphans is returned by Add when peerID is already at its
// per-peer cap; the caller is expected to report peer misbehavior of kind
// "too-many-orphans" and refuse the insert, exactly as it arrived.
type ErrTooManyOrphans struct{ PeerID int32 }

func (e ErrTooManyOrphans) Error() string {
	return "orphans: per-peer orphan cap exceeded"
}

// Add inserts header, claimed to originate from peerID, into the pool. If
// the peer is already at MaxOrphansPerPeer, the insert is refused and
// ErrTooManyOrphans is returned. If the global pool is at MaxOrphans, the
// single oldest entry (regardless of peer) is evicted to make room.
func (p *Pool) Add(header *wire.BlockHeader, peerID int32) error {
	hash := header.BlockHash()
	if _, ok := p.byHash[hash]; ok {
		return nil
	}
	if p.perPeer[peerID] >= MaxOrphansPerPeer {
		return ErrTooManyOrphans{PeerID: peerID}
	}
	if len(p.byHash) >= MaxOrphans {
		p.evictOldest()
	}

	entry := &Entry{Header: header, PeerID: peerID, InsertTime: clock.Now()}
	p.byHash[hash] = entry
	p.perPeer[peerID]++
	p.order = append(p.order, hash)

	prev := header.PrevBlock
	set := p.byPrev[prev]
	if set == nil {
		set = make(map[chainhash.Hash]struct{})
		p.byPrev[prev] = set
	}
	set[hash] = struct{}{}

	return nil
}

// Children returns the pooled headers whose PrevBlock equals hash, i.e.
// the orphans ready to be reconsidered once hash is accepted.
func (p *Pool) Children(hash chainhash.Hash) []*wire.BlockHeader {
	set := p.byPrev[hash]
	if len(set) == 0 {
		return nil
	}
	headers := make([]*wire.BlockHeader, 0, len(set))
	for childHash := range set {
		if entry, ok := p.byHash[childHash]; ok {
			headers = append(headers, entry.Header)
		}
	}
	return headers
}

// Remove removes the orphan with the given hash from both indices, if
// present. It is called once a pooled header has been promoted into the
// block index, or evicted.
func (p *Pool) Remove(hash chainhash.Hash) {
	entry, ok := p.byHash[hash]
	if !ok {
		return
	}
	delete(p.byHash, hash)
	p.perPeer[entry.PeerID]--
	if p.perPeer[entry.PeerID] <= 0 {
		delete(p.perPeer, entry.PeerID)
	}

	prev := entry.Header.PrevBlock
	if set, ok := p.byPrev[prev]; ok {
		delete(set, hash)
		if len(set) == 0 {
			delete(p.byPrev, prev)
		}
	}

	for i, h := range p.order {
		if h == hash {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// evictOldest removes the single oldest-inserted orphan, irrespective of
// which peer it came from.
func (p *Pool) evictOldest() {
	if len(p.order) == 0 {
		return
	}
	p.Remove(p.order[0])
}

// EvictOrphans removes every orphan whose InsertTime is older than the
// pool's configured orphan horizon, relative to the current clock.Now.
// The facade calls this opportunistically; the sync manager may also call
// it from its periodic maintenance tick.
func (p *Pool) EvictOrphans() int {
	cutoff := clock.Now().Add(-p.orphanHorizon)
	var stale []chainhash.Hash
	for hash, entry := range p.byHash {
		if entry.InsertTime.Before(cutoff) {
			stale = append(stale, hash)
		}
	}
	for _, hash := range stale {
		p.Remove(hash)
	}
	return len(stale)
}
