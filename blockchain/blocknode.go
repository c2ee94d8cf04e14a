// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package blockchain implements the consensus-critical parts of the
// system: header validation (context-free and contextual, including ASERT
// difficulty) and the block index / active chain / chain selector that
// together maintain the DAG of known headers and pick the most-work valid
// branch as the active chain.
package blockchain

import (
	"math/big"

	"github.com/decred/dcrd/blockchain/standalone/v2"
	"github.com/decred/dcrd/chaincfg/chainhash"

	"github.com/unicitynetwork/hsyncd/clock"
	"github.com/unicitynetwork/hsyncd/wire"
)

// statusFlags is a bitmask describing the validation state of a blockNode.
type statusFlags uint8

const (
	// statusHeaderValid indicates the header has passed context-free and
	// contextual validation.
	statusHeaderValid statusFlags = 1 << iota

	// statusValidationFailed indicates the header itself was marked
	// invalid, e.g. by InvalidateBlock.
	statusValidationFailed

	// statusAncestorFailed indicates some ancestor of the header was
	// marked statusValidationFailed.
	statusAncestorFailed
)

// HasFlags returns whether the statusFlags instance contains all of the
// passed flags.
func (s statusFlags) HasFlags(flags statusFlags) bool {
	return s&flags == flags
}

// KnownValid returns whether the node is known to be valid, ignoring any
// descendant-of-failed-ancestor bit.
func (s statusFlags) KnownValid() bool {
	return s.HasFlags(statusHeaderValid) && !s.HasFlags(statusValidationFailed)
}

// blockNode represents a block within the block DAG and is the primary
// structure used to track ancestors, difficulty information, and
// validation state. blockNodes are never relocated or freed once created;
// the block index is append-only for the lifetime of the process.
type blockNode struct {
	// parent is a non-owning reference to this node's parent in the
	// arena. It is nil only for the genesis node.
	parent *blockNode

	// hash is the hash of the block this node represents.
	hash chainhash.Hash

	// height is this node's height in the DAG, i.e. the number of
	// blocks between it and the genesis block (genesis is height 0).
	height int64

	// bits is the difficulty target for this block in compact form.
	bits uint32

	// timestamp is this block header's timestamp, in unix seconds.
	timestamp int64

	// header is a copy of the original header this node was created
	// from, retained so Header() can reconstruct it losslessly.
	header wire.BlockHeader

	// chainWork is the total amount of work in the chain up to and
	// including this node.
	chainWork *big.Int

	// status is a bitfield representing the validation state of this
	// node, protected by the owning blockIndex's lock.
	status statusFlags

	// receivedTime is the wall-clock time this node was first seen,
	// used for relay-age gating.
	receivedTime int64
}

// newBlockNode returns a new block node for the given block header and
// parent node. The genesis node is created by passing a nil parent.
func newBlockNode(header *wire.BlockHeader, parent *blockNode) *blockNode {
	node := &blockNode{
		parent:       parent,
		hash:         header.BlockHash(),
		bits:         header.Bits,
		timestamp:    header.Timestamp.Unix(),
		header:       *header,
		receivedTime: clock.Now().Unix(),
	}

	work := standalone.CalcWork(header.Bits)
	if parent != nil {
		node.height = parent.height + 1
		node.chainWork = new(big.Int).Add(parent.chainWork, work)
	} else {
		node.height = 0
		node.chainWork = work
	}
	return node
}

// Header reconstructs the block header for the node.
func (node *blockNode) Header() wire.BlockHeader {
	return node.header
}

// RelativeAncestor returns the ancestor block node at a relative distance
// of "distance" blocks before this node, or nil if no such ancestor exists.
func (node *blockNode) RelativeAncestor(distance int64) *blockNode {
	if distance < 0 || distance > node.height {
		return nil
	}
	n := node
	for i := int64(0); i < distance && n != nil; i++ {
		n = n.parent
	}
	return n
}

// Ancestor returns the ancestor block node at the provided height, or nil
// if no such ancestor exists.
func (node *blockNode) Ancestor(height int64) *blockNode {
	if height < 0 || height > node.height {
		return nil
	}
	return node.RelativeAncestor(node.height - height)
}
