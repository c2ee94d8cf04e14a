// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"
	"math/big"
	"time"

	"github.com/decred/dcrd/chaincfg/chainhash"

	"github.com/unicitynetwork/hsyncd/chaincfg"
	"github.com/unicitynetwork/hsyncd/wire"
)

// Node is the exported handle to a blockNode. The chainstate facade
// and netsync manager carry these around but never reach inside one;
// every observation goes through a Chain method.
type Node = blockNode

// Chain owns the block index, the ASERT anchor and the current active
// chain for a single network. It holds no lock of its own: the chainstate
// facade serializes every call into a Chain the same way it serializes
// access to the rest of its state, so a Chain is only ever accessed by one
// goroutine at a time except where a method documents otherwise (the
// blockIndex's own RWMutex allows concurrent reads from LookupNode/
// HaveBlock while a write is not in flight).
type Chain struct {
	params  *chaincfg.Params
	index   *blockIndex
	best    *activeChain
	genesis *Node
	anchor  *Node
}

// New creates a Chain seeded with the network's genesis header as both the
// genesis node and the initial ASERT anchor, and sets it as the initial
// active chain tip.
func New(params *chaincfg.Params) (*Chain, error) {
	idx := newBlockIndex(params)
	genesisHeader := params.GenesisHeader
	genesis := newBlockNode(&genesisHeader, nil)
	if genesis.hash != params.GenesisHash {
		return nil, fmt.Errorf("blockchain: configured genesis hash %s does not match computed hash %s",
			params.GenesisHash, genesis.hash)
	}
	genesis.status = statusHeaderValid
	idx.AddNode(genesis)

	best := newActiveChain()
	best.SetTip(genesis)

	return &Chain{
		params:  params,
		index:   idx,
		best:    best,
		genesis: genesis,
		anchor:  genesis,
	}, nil
}

// Params returns the chain's network parameters.
func (c *Chain) Params() *chaincfg.Params { return c.params }

// Genesis returns the chain's genesis node.
func (c *Chain) Genesis() *Node { return c.genesis }

// Anchor returns the chain's fixed ASERT anchor node.
func (c *Chain) Anchor() *Node { return c.anchor }

// Tip returns the current active chain tip.
func (c *Chain) Tip() *Node { return c.best.Tip() }

// Height returns the height of the active chain tip.
func (c *Chain) Height() int64 { return c.best.Height() }

// NodeByHeight returns the active-chain node at the given height.
func (c *Chain) NodeByHeight(height int64) *Node { return c.best.NodeByHeight(height) }

// Contains reports whether node is on the active chain.
func (c *Chain) Contains(node *Node) bool { return c.best.Contains(node) }

// SetTip moves the active chain to end at node.
func (c *Chain) SetTip(node *Node) { c.best.SetTip(node) }

// LookupNode returns the node for hash, or nil if unknown.
func (c *Chain) LookupNode(hash *chainhash.Hash) *Node { return c.index.LookupNode(hash) }

// HaveBlock reports whether hash is already present in the block index.
func (c *Chain) HaveBlock(hash *chainhash.Hash) bool { return c.index.HaveBlock(hash) }

// ChainTips returns every current leaf of the block index DAG.
func (c *Chain) ChainTips() []*Node { return c.index.ChainTips() }

// CalcPastMedianTime returns the median time of the 11 blocks ending at
// node, inclusive.
func (c *Chain) CalcPastMedianTime(node *Node) (time.Time, error) {
	return c.index.CalcPastMedianTime(node)
}

// NewNode constructs (but does not index) a node for header, whose parent
// is parent. Callers must call AddNode once the header has passed
// validation to make the node visible to LookupNode/HaveBlock.
func (c *Chain) NewNode(header *wire.BlockHeader, parent *Node) *Node {
	return newBlockNode(header, parent)
}

// AddNode indexes node, updating chain tips.
func (c *Chain) AddNode(node *Node) { c.index.AddNode(node) }

// AllNodes returns every node currently in the block index.
func (c *Chain) AllNodes() []*Node { return c.index.AllNodes() }

// RestoreNode reconstructs a node from previously persisted data and
// indexes it immediately, trusting status rather than recomputing it
// through validation. It exists only for the persistence loader: header
// fields the persisted schema doesn't carry (version, miner address,
// nonce, PoW commitment hash) are left zero-valued on the returned node,
// since a restored node is only ever re-served over the wire again once
// the network resends it in full past this height.
func (c *Chain) RestoreNode(header *wire.BlockHeader, parent *Node, status statusFlags) *Node {
	node := newBlockNode(header, parent)
	node.status = status
	c.index.AddNode(node)
	return node
}

// StatusFromPersisted reconstructs a status bitfield from its persisted
// uint8 form, for use only by the persistence loader.
func StatusFromPersisted(v uint8) statusFlags { return statusFlags(v) }

// PersistedStatus returns node's status flags in the uint8 form the
// persistence layer stores, for use only by the persistence saver.
func PersistedStatus(node *Node) uint8 { return uint8(node.status) }

// SetStatusFlags ORs flags into node's status.
func (c *Chain) SetStatusFlags(node *Node, flags statusFlags) { c.index.SetStatusFlags(node, flags) }

// UnsetStatusFlags clears flags from node's status.
func (c *Chain) UnsetStatusFlags(node *Node, flags statusFlags) {
	c.index.UnsetStatusFlags(node, flags)
}

// Exported status flag names, for use by the chainstate facade.
const (
	StatusHeaderValid     = statusHeaderValid
	StatusValidationFailed = statusValidationFailed
	StatusAncestorFailed   = statusAncestorFailed
)

// NodeHash returns node's hash.
func NodeHash(node *Node) chainhash.Hash { return node.hash }

// NodeHeight returns node's height.
func NodeHeight(node *Node) int64 { return node.height }

// NodeBits returns node's difficulty bits.
func NodeBits(node *Node) uint32 { return node.bits }

// NodeWork returns node's cumulative chain work.
func NodeWork(node *Node) *big.Int { return node.chainWork }

// NodeStatus returns node's status flags.
func NodeStatus(node *Node) statusFlags { return node.status }

// NodeParent returns node's parent, or nil for genesis.
func NodeParent(node *Node) *Node { return node.parent }

// NodeHeader reconstructs node's original header.
func NodeHeader(node *Node) wire.BlockHeader { return node.Header() }

// ContextualCheckHeader validates header given its parent and this
// chain's fixed anchor, using adjustedTime as the local clock reading.
func (c *Chain) ContextualCheckHeader(header *wire.BlockHeader, parent *Node, adjustedTime time.Time) ValidationState {
	return ContextualCheckHeader(c.params, c.index, header, parent, c.anchor, adjustedTime)
}

// RequiredDifficulty returns the bits a header extending parent must carry
// given anchor as a chain's fixed ASERT anchor node and params as the
// network's ASERT configuration. It is exported so test harnesses can
// compute the expected difficulty without reaching into package-private
// ASERT internals.
func RequiredDifficulty(parent, anchor *Node, params *chaincfg.Params) uint32 {
	return calcNextRequiredDifficulty(parent, anchor,
		int64(params.TargetSpacing/time.Second), params.ASERTHalfLife,
		params.PowLimit, params.PowLimitBits)
}
