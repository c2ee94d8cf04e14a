// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chainstate implements the single entry point through which the
// rest of the node touches consensus state: AcceptBlockHeader,
// ActivateBestChain, InvalidateBlock, and the initial-block-download
// latch. It exclusively owns the block index, active chain, candidate
// set, and orphan pool, and drives the notifier whenever the active tip
// changes.
package chainstate

import (
	"fmt"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/decred/dcrd/chaincfg/chainhash"

	"github.com/unicitynetwork/hsyncd/blockchain"
	"github.com/unicitynetwork/hsyncd/chaincfg"
	"github.com/unicitynetwork/hsyncd/clock"
	"github.com/unicitynetwork/hsyncd/notifier"
	"github.com/unicitynetwork/hsyncd/orphans"
	"github.com/unicitynetwork/hsyncd/persistence"
	"github.com/unicitynetwork/hsyncd/pow"
	"github.com/unicitynetwork/hsyncd/wire"
)

// State is the chainstate facade. The zero value is not usable; construct
// one with New.
type State struct {
	params   *chaincfg.Params
	verifier pow.Verifier
	bus      *notifier.Bus

	// mu serializes every mutating operation (AcceptBlockHeader,
	// ActivateBestChain, InvalidateBlock); index lookups such as
	// LookupBlockIndex take only the chain's own internal RWMutex via
	// LookupNode/HaveBlock, not mu, and so may run concurrently with each
	// other and with a mutator.
	mu sync.Mutex

	chain   *blockchain.Chain
	orphans *orphans.Pool

	candidates   []*blockchain.Node
	candidateSet map[chainhash.Hash]struct{}

	ibdResult  bool
	ibdLatched bool
}

// New constructs a chainstate facade over a freshly-created Chain for
// params.
func New(params *chaincfg.Params, verifier pow.Verifier, bus *notifier.Bus) (*State, error) {
	chain, err := blockchain.New(params)
	if err != nil {
		return nil, err
	}
	return &State{
		params:       params,
		verifier:     verifier,
		bus:          bus,
		chain:        chain,
		orphans:      orphans.New(params.OrphanHorizon),
		candidateSet: make(map[chainhash.Hash]struct{}),
	}, nil
}

// LoadOrNew constructs a chainstate facade for params the same way New
// does, then attempts to restore prior state from the header snapshot at
// path. Any failure to load or reconcile the snapshot (missing file,
// corrupt JSON, a genesis mismatch, a dangling parent reference) is not
// fatal: the facade simply keeps the fresh genesis-only chain New already
// built, matching the persisted snapshot's documented tolerant-reader
// contract.
func LoadOrNew(params *chaincfg.Params, verifier pow.Verifier, bus *notifier.Bus, path string) (*State, error) {
	s, err := New(params, verifier, bus)
	if err != nil {
		return nil, err
	}

	snap, err := persistence.Load(path)
	if err != nil {
		return s, nil
	}
	if err := s.restoreSnapshot(snap); err != nil {
		return New(params, verifier, bus)
	}
	return s, nil
}

// restoreSnapshot threads every persisted node into a freshly-constructed
// chain (so it must run before any other mutator observes s, and takes no
// lock of its own), in the height order the snapshot was written in, then
// rebuilds the candidate set by scanning the resulting chain tips.
func (s *State) restoreSnapshot(snap *persistence.Snapshot) error {
	if len(snap.Nodes) == 0 {
		return fmt.Errorf("chainstate: empty snapshot")
	}

	genesisHash := blockchain.NodeHash(s.chain.Genesis())
	byHash := make(map[chainhash.Hash]*blockchain.Node, len(snap.Nodes))

	var tipNode *blockchain.Node
	for i, rec := range snap.Nodes {
		hash, err := chainhash.NewHashFromStr(rec.Hash)
		if err != nil {
			return fmt.Errorf("chainstate: snapshot node %d: %w", i, err)
		}

		var node *blockchain.Node
		if i == 0 {
			if *hash != genesisHash {
				return fmt.Errorf("chainstate: snapshot genesis %s does not match configured genesis %s", hash, genesisHash)
			}
			node = s.chain.Genesis()
		} else {
			prevHash, err := chainhash.NewHashFromStr(rec.Prev)
			if err != nil {
				return fmt.Errorf("chainstate: snapshot node %d: %w", i, err)
			}
			parent, ok := byHash[*prevHash]
			if !ok {
				return fmt.Errorf("chainstate: snapshot node %s references unknown parent %s", hash, prevHash)
			}
			header := &wire.BlockHeader{
				PrevBlock: *prevHash,
				Timestamp: time.Unix(rec.Time, 0),
				Bits:      rec.Bits,
			}
			node = s.chain.RestoreNode(header, parent, blockchain.StatusFromPersisted(rec.Status))
		}

		byHash[*hash] = node
		if rec.Hash == snap.Tip {
			tipNode = node
		}
	}

	if tipNode == nil {
		return fmt.Errorf("chainstate: snapshot tip %s not found among its nodes", snap.Tip)
	}
	s.chain.SetTip(tipNode)

	for _, tip := range s.chain.ChainTips() {
		status := blockchain.NodeStatus(tip)
		if status.HasFlags(blockchain.StatusHeaderValid) && status&(blockchain.StatusValidationFailed|blockchain.StatusAncestorFailed) == 0 {
			s.tryAddCandidateLocked(tip)
		}
	}
	s.pruneCandidatesLocked()
	s.updateIBDLocked()

	return nil
}

// Save writes the full header graph to path, atomically. It takes a
// consistent snapshot under the facade's exclusive section but performs
// the actual (potentially slow) disk I/O outside it, so a caller on a
// periodic save timer never blocks AcceptBlockHeader/ActivateBestChain for
// the duration of an fsync.
func (s *State) Save(path string) error {
	snap := s.snapshot()
	return persistence.WriteAtomic(path, snap)
}

func (s *State) snapshot() *persistence.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	nodes := s.chain.AllNodes()
	sort.Slice(nodes, func(i, j int) bool {
		return blockchain.NodeHeight(nodes[i]) < blockchain.NodeHeight(nodes[j])
	})

	records := make([]persistence.NodeRecord, 0, len(nodes))
	for _, n := range nodes {
		var prevHash chainhash.Hash
		if parent := blockchain.NodeParent(n); parent != nil {
			prevHash = blockchain.NodeHash(parent)
		}
		hash := blockchain.NodeHash(n)
		records = append(records, persistence.NodeRecord{
			Hash:   hash.String(),
			Prev:   prevHash.String(),
			Height: blockchain.NodeHeight(n),
			Time:   blockchain.NodeHeader(n).Timestamp.Unix(),
			Bits:   blockchain.NodeBits(n),
			Status: blockchain.PersistedStatus(n),
			Work:   fmt.Sprintf("%064x", workOrZero(blockchain.NodeWork(n))),
		})
	}

	tip := blockchain.NodeHash(s.chain.Tip())
	return &persistence.Snapshot{
		Version: persistence.SchemaVersion,
		Tip:     tip.String(),
		Nodes:   records,
	}
}

func workOrZero(work *big.Int) *big.Int {
	if work == nil {
		return big.NewInt(0)
	}
	return work
}

// LookupBlockIndex returns the node for hash, or nil if unknown. Safe to
// call concurrently with any other State method.
func (s *State) LookupBlockIndex(hash chainhash.Hash) *blockchain.Node {
	return s.chain.LookupNode(&hash)
}

// GetTip returns the current active chain tip.
func (s *State) GetTip() *blockchain.Node {
	return s.chain.Tip()
}

// GetBlockAtHeight returns the active-chain node at height, or nil.
func (s *State) GetBlockAtHeight(height int64) *blockchain.Node {
	return s.chain.NodeByHeight(height)
}

// IsOnActiveChain reports whether node is on the active chain.
func (s *State) IsOnActiveChain(node *blockchain.Node) bool {
	return s.chain.Contains(node)
}

// GetLocator returns a block locator starting at node.
func (s *State) GetLocator(node *blockchain.Node) blockchain.BlockLocator {
	return blockchain.GetLocator(node)
}

// CheckHeadersPoW runs the cheap commitment-mode PoW pre-filter over
// headers using a bounded worker pool, returning the index of the first
// header that fails, or -1 if all pass.
func (s *State) CheckHeadersPoW(headers []*wire.BlockHeader) int {
	return pow.VerifyCommitmentBatch(s.verifier, headers)
}

// Params returns the network parameters this facade was constructed with.
func (s *State) Params() *chaincfg.Params { return s.params }

// Anchor returns the chain's fixed ASERT anchor node (ordinarily genesis).
func (s *State) Anchor() *blockchain.Node { return s.chain.Anchor() }

// NewDetachedNode constructs, but does not index, a node for header given
// parent. It lets callers (test harnesses mining a chain of headers, or a
// miner computing the difficulty its next block must carry) walk a
// candidate chain of ASERT computations without mutating chainstate.
func (s *State) NewDetachedNode(header *wire.BlockHeader, parent *blockchain.Node) *blockchain.Node {
	return s.chain.NewNode(header, parent)
}

// AcceptBlockHeader validates and, if valid, indexes header. If
// minPowChecked is true the caller asserts the context-free PoW check
// already ran (typically during batch pre-filtering) and it is skipped
// here. It returns the resulting (possibly pre-existing) node, which may
// be nil if the header could not be indexed (e.g. unknown parent), along
// with the validation outcome.
func (s *State) AcceptBlockHeader(header *wire.BlockHeader, minPowChecked bool) (*blockchain.Node, blockchain.ValidationState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acceptLocked(header, minPowChecked)
}

func (s *State) acceptLocked(header *wire.BlockHeader, minPowChecked bool) (*blockchain.Node, blockchain.ValidationState) {
	hash := header.BlockHash()

	if existing := s.chain.LookupNode(&hash); existing != nil {
		if blockchain.NodeStatus(existing)&(blockchain.StatusValidationFailed|blockchain.StatusAncestorFailed) != 0 {
			return existing, blockchain.ValidationState{Reason: blockchain.RejectDuplicateInvalid}
		}
		if hash == s.params.GenesisHash {
			return existing, blockchain.ValidationState{Reason: blockchain.RejectGenesisViaAccept}
		}
		return existing, blockchain.ValidationState{Reason: blockchain.RejectDuplicate}
	}

	var zero chainhash.Hash
	if header.PrevBlock == zero {
		return nil, blockchain.ValidationState{Reason: blockchain.RejectBadGenesis}
	}

	prev := s.chain.LookupNode(&header.PrevBlock)
	if prev == nil {
		return nil, blockchain.ValidationState{Reason: blockchain.RejectPrevBlockUnknown}
	}

	prevStatus := blockchain.NodeStatus(prev)
	ancestorFailed := prevStatus&(blockchain.StatusValidationFailed|blockchain.StatusAncestorFailed) != 0

	if !minPowChecked {
		if vs := blockchain.CheckHeader(s.verifier, header); !vs.Valid() {
			return nil, vs
		}
	}

	if vs := s.chain.ContextualCheckHeader(header, prev, clock.Now()); !vs.Valid() {
		return nil, vs
	}

	node := s.chain.NewNode(header, prev)
	if ancestorFailed {
		s.chain.SetStatusFlags(node, blockchain.StatusAncestorFailed)
	} else {
		s.chain.SetStatusFlags(node, blockchain.StatusHeaderValid)
	}
	s.chain.AddNode(node)

	if ancestorFailed {
		return node, blockchain.ValidationState{Reason: blockchain.RejectBadPrevBlock}
	}

	s.tryAddCandidateLocked(node)
	s.recoverOrphanDescendantsLocked(hash)

	return node, blockchain.ValidationState{}
}

// recoverOrphanDescendantsLocked performs the breadth-first orphan-ancestor
// recovery cascade: any pooled orphan whose claimed parent is hash is
// popped and re-offered to AcceptBlockHeader, whose own success may in
// turn unblock further orphans.
func (s *State) recoverOrphanDescendantsLocked(hash chainhash.Hash) {
	queue := []chainhash.Hash{hash}
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]

		children := s.orphans.Children(h)
		for _, childHeader := range children {
			childHash := childHeader.BlockHash()
			node, vs := s.acceptLocked(childHeader, false)
			if vs.Valid() || (node != nil && vs.Reason == blockchain.RejectDuplicate) {
				s.orphans.Remove(childHash)
				queue = append(queue, childHash)
			}
		}
	}
}

// TryAddBlockIndexCandidate admits node to the candidate set if it meets
// the admission rule: HEADER_VALID, chain work at least that of the
// current tip, and no failed ancestor.
func (s *State) TryAddBlockIndexCandidate(node *blockchain.Node) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tryAddCandidateLocked(node)
}

func (s *State) tryAddCandidateLocked(node *blockchain.Node) bool {
	status := blockchain.NodeStatus(node)
	if status&blockchain.StatusHeaderValid == 0 {
		return false
	}
	if status&(blockchain.StatusValidationFailed|blockchain.StatusAncestorFailed) != 0 {
		return false
	}
	tip := s.chain.Tip()
	if tip != nil && blockchain.NodeWork(node).Cmp(blockchain.NodeWork(tip)) < 0 {
		return false
	}

	hash := blockchain.NodeHash(node)
	if _, ok := s.candidateSet[hash]; ok {
		return true
	}
	s.candidateSet[hash] = struct{}{}
	s.candidates = append(s.candidates, node)
	return true
}

// pruneCandidatesLocked drops candidates that are now ancestors of the tip
// or that have strictly less work than it.
func (s *State) pruneCandidatesLocked() {
	tip := s.chain.Tip()
	if tip == nil {
		return
	}
	kept := s.candidates[:0]
	for _, c := range s.candidates {
		if blockchain.NodeWork(c).Cmp(blockchain.NodeWork(tip)) < 0 {
			delete(s.candidateSet, blockchain.NodeHash(c))
			continue
		}
		if s.chain.Contains(c) && c != tip {
			delete(s.candidateSet, blockchain.NodeHash(c))
			continue
		}
		kept = append(kept, c)
	}
	s.candidates = kept
}

// bestCandidateLocked returns the candidate with maximum chain work,
// first-seen (insertion order) breaking ties.
func (s *State) bestCandidateLocked() *blockchain.Node {
	var best *blockchain.Node
	for _, c := range s.candidates {
		if best == nil || blockchain.NodeWork(c).Cmp(blockchain.NodeWork(best)) > 0 {
			best = c
		}
	}
	return best
}

// ActivateBestChain searches the candidate set for the most-work valid
// branch and, if it differs from the current tip, reorganizes the active
// chain onto it, emitting BlockDisconnected/BlockConnected/ChainTip
// notifications as it goes. It returns false if a candidate reorg was
// refused as suspicious, if network expiration halted activation partway
// through, or if the tip is already above the network expiration height
// (then nothing is connected); any partial progress already made is
// retained (the facade never silently rolls back a partial reorg).
func (s *State) ActivateBestChain() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	tip := s.chain.Tip()
	candidate := s.bestCandidateLocked()
	if candidate == nil || candidate == tip {
		s.pruneCandidatesLocked()
		s.updateIBDLocked()
		return true
	}
	if tip != nil && blockchain.NodeHeight(tip) > s.params.NetworkExpirationHeight {
		return false
	}

	fork := blockchain.FindFork(tip, candidate)
	depth := blockchain.NodeHeight(tip) - blockchain.NodeHeight(fork)

	if depth >= s.params.SuspiciousReorgDepth {
		s.bus.NotifySuspiciousReorg(notifier.SuspiciousReorgEvent{
			Depth:      depth,
			MaxAllowed: s.params.SuspiciousReorgDepth - 1,
		})
		return false
	}

	// Disconnect back to fork, newest-first.
	var disconnectChain []*blockchain.Node
	for n := tip; n != nil && n != fork; n = blockchain.NodeParent(n) {
		disconnectChain = append(disconnectChain, n)
	}
	for _, n := range disconnectChain {
		s.bus.NotifyBlockDisconnected(notifier.BlockDisconnectedEvent{Node: n})
	}

	// Build the connect path oldest-first.
	var connectChain []*blockchain.Node
	for n := candidate; n != nil && n != fork; n = blockchain.NodeParent(n) {
		connectChain = append(connectChain, n)
	}
	for i, j := 0, len(connectChain)-1; i < j; i, j = i+1, j-1 {
		connectChain[i], connectChain[j] = connectChain[j], connectChain[i]
	}

	newTip := fork
	expired := false
	for _, n := range connectChain {
		s.chain.SetTip(n)
		newTip = n
		s.bus.NotifyBlockConnected(notifier.BlockConnectedEvent{Node: n})

		if blockchain.NodeHeight(n) > s.params.NetworkExpirationHeight {
			s.bus.NotifyNetworkExpired(notifier.NetworkExpiredEvent{
				CurrentHeight:    blockchain.NodeHeight(n),
				ExpirationHeight: s.params.NetworkExpirationHeight,
			})
			expired = true
			break
		}
	}
	if len(connectChain) == 0 {
		s.chain.SetTip(fork)
		newTip = fork
	}

	s.bus.NotifyChainTip(notifier.ChainTipEvent{Node: newTip, Height: blockchain.NodeHeight(newTip)})

	s.pruneCandidatesLocked()
	s.updateIBDLocked()

	return !expired
}

// updateIBDLocked recomputes the IBD latch's cached result if it has not
// already latched to false.
func (s *State) updateIBDLocked() {
	if s.ibdLatched {
		return
	}

	tip := s.chain.Tip()
	inIBD := true
	if tip != nil {
		work := blockchain.NodeWork(tip)
		tooLittleWork := s.params.MinimumChainWork != nil && work.Cmp(s.params.MinimumChainWork) < 0
		tooShort := blockchain.NodeHeight(tip) == 0
		tooOld := blockchain.NodeHeader(tip).Timestamp.Before(clock.Now().Add(-s.params.IBDAgeThreshold))
		inIBD = tooLittleWork || tooShort || tooOld
	}

	s.ibdResult = inIBD
	if !inIBD {
		s.ibdLatched = true
	}
}

// IsInitialBlockDownload reports whether the node is still in initial
// block download. Once it returns false it latches, returning false for
// the remaining lifetime of the process regardless of subsequent reorgs
// or clock skew.
func (s *State) IsInitialBlockDownload() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ibdLatched {
		s.updateIBDLocked()
	}
	return s.ibdResult
}

// AddOrphan pools header as having arrived from peerID with an unknown
// parent. It is the caller's responsibility to have already received
// RejectPrevBlockUnknown from AcceptBlockHeader for this header.
func (s *State) AddOrphan(header *wire.BlockHeader, peerID int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orphans.Add(header, peerID)
}

// EvictOrphans removes every orphan older than the configured horizon.
func (s *State) EvictOrphans() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orphans.EvictOrphans()
}

// OrphanLen returns the total number of pooled orphans.
func (s *State) OrphanLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orphans.Len()
}

// OrphanPeerLen returns the number of orphans attributed to peerID.
func (s *State) OrphanPeerLen(peerID int32) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orphans.PeerLen(peerID)
}

// InvalidateBlock marks the node at hash, and every descendant reachable
// through the block index, as failed. It refuses to invalidate genesis.
// Invalidation never auto-activates; the next ActivateBestChain call
// completes whatever reorg the resulting candidate set implies.
func (s *State) InvalidateBlock(hash chainhash.Hash) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	node := s.chain.LookupNode(&hash)
	if node == nil {
		return false
	}
	if node == s.chain.Genesis() {
		return false
	}

	s.chain.SetStatusFlags(node, blockchain.StatusValidationFailed)

	// Walk of descendants via every known chain tip that currently
	// passes through node, marking each as ANCESTOR_FAILED. The block
	// index does not maintain a forward child index (headers only ever
	// reference their parent), so descendants are discovered by walking
	// every tip back to node, or to a descendant already marked by an
	// earlier tip's walk.
	seen := make(map[chainhash.Hash]bool)
	for _, tip := range s.chain.ChainTips() {
		var path []*blockchain.Node
		n := tip
		for n != nil && n != node && !seen[blockchain.NodeHash(n)] {
			path = append(path, n)
			n = blockchain.NodeParent(n)
		}
		if n == node || (n != nil && seen[blockchain.NodeHash(n)]) {
			for _, anc := range path {
				h := blockchain.NodeHash(anc)
				if !seen[h] {
					seen[h] = true
					s.chain.SetStatusFlags(anc, blockchain.StatusAncestorFailed)
				}
			}
		}
	}

	// If node (or one of the ancestor-failed descendants just marked) is
	// on the active chain, it stays there until the next
	// ActivateBestChain call finds a replacement candidate; invalidation
	// only ever populates candidates.
	delete(s.candidateSet, blockchain.NodeHash(node))

	return true
}
