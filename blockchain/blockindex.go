// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/decred/dcrd/chaincfg/chainhash"

	"github.com/unicitynetwork/hsyncd/chaincfg"
	"github.com/unicitynetwork/hsyncd/wire"
)

// medianTimeBlocks is the number of previous blocks, including the block
// itself, used to calculate the median time used to validate block
// timestamps.
const medianTimeBlocks = 11

// blockIndex provides facilities for keeping track of an in-memory arena of
// block nodes and their status, and exposing the chain tips, i.e. the
// leaves of the DAG of known headers. Every blockNode ever created lives in
// this index for the lifetime of the process; nothing is ever evicted.
type blockIndex struct {
	params *chaincfg.Params

	sync.RWMutex
	index     map[chainhash.Hash]*blockNode
	chainTips map[int64][]*blockNode
}

// newBlockIndex returns a new empty instance of a block index.
func newBlockIndex(params *chaincfg.Params) *blockIndex {
	return &blockIndex{
		params:    params,
		index:     make(map[chainhash.Hash]*blockNode),
		chainTips: make(map[int64][]*blockNode),
	}
}

// HaveBlock returns whether or not the block index contains the provided
// hash.
func (bi *blockIndex) HaveBlock(hash *chainhash.Hash) bool {
	bi.RLock()
	_, ok := bi.index[*hash]
	bi.RUnlock()
	return ok
}

// LookupNode returns the block node identified by the provided hash. It
// returns nil if the hash does not exist in the index.
func (bi *blockIndex) LookupNode(hash *chainhash.Hash) *blockNode {
	bi.RLock()
	node := bi.index[*hash]
	bi.RUnlock()
	return node
}

// AddNode adds the provided node to the block index and updates the chain
// tips accordingly: the new node becomes a tip, and its parent, if it was
// previously a tip, no longer is.
func (bi *blockIndex) AddNode(node *blockNode) {
	bi.Lock()
	bi.index[node.hash] = node
	bi.addChainTip(node)
	if node.parent != nil {
		bi.removeChainTip(node.parent)
	}
	bi.Unlock()
}

// addChainTip marks node as a chain tip. Callers must hold the write lock.
func (bi *blockIndex) addChainTip(node *blockNode) {
	bi.chainTips[node.height] = append(bi.chainTips[node.height], node)
}

// removeChainTip unmarks node as a chain tip, if present. Callers must hold
// the write lock.
func (bi *blockIndex) removeChainTip(node *blockNode) {
	nodes := bi.chainTips[node.height]
	for i, n := range nodes {
		if n == node {
			nodes[i] = nodes[len(nodes)-1]
			nodes = nodes[:len(nodes)-1]
			break
		}
	}
	if len(nodes) == 0 {
		delete(bi.chainTips, node.height)
	} else {
		bi.chainTips[node.height] = nodes
	}
}

// AllNodes returns a snapshot slice of every node currently in the index,
// in no particular order. Used only by the persistence layer, which sorts
// the result by height before writing it out.
func (bi *blockIndex) AllNodes() []*blockNode {
	bi.RLock()
	defer bi.RUnlock()

	nodes := make([]*blockNode, 0, len(bi.index))
	for _, n := range bi.index {
		nodes = append(nodes, n)
	}
	return nodes
}

// ChainTips returns a snapshot slice of every current chain tip across all
// heights.
func (bi *blockIndex) ChainTips() []*blockNode {
	bi.RLock()
	defer bi.RUnlock()

	tips := make([]*blockNode, 0)
	for _, nodes := range bi.chainTips {
		tips = append(tips, nodes...)
	}
	return tips
}

// SetStatusFlags sets the provided status flags on node, leaving any other
// bits already set untouched.
func (bi *blockIndex) SetStatusFlags(node *blockNode, flags statusFlags) {
	bi.Lock()
	node.status |= flags
	bi.Unlock()
}

// UnsetStatusFlags clears the provided status flags on node.
func (bi *blockIndex) UnsetStatusFlags(node *blockNode, flags statusFlags) {
	bi.Lock()
	node.status &^= flags
	bi.Unlock()
}

// CalcPastMedianTime calculates the median time of the previous few blocks
// prior to, and including, the passed block node.
func (bi *blockIndex) CalcPastMedianTime(node *blockNode) (time.Time, error) {
	if node == nil {
		return time.Time{}, fmt.Errorf("blockchain: CalcPastMedianTime called with nil node")
	}

	timestamps := make([]int64, 0, medianTimeBlocks)
	iter := node
	for i := 0; i < medianTimeBlocks && iter != nil; i++ {
		timestamps = append(timestamps, iter.timestamp)
		iter = iter.parent
	}

	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i] < timestamps[j] })
	return time.Unix(timestamps[len(timestamps)/2], 0), nil
}
