// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import "github.com/decred/dcrd/chaincfg/chainhash"

// BlockLocator is a sparse list of block hashes used to locate a common
// point between two nodes' views of the chain, in decreasing order of
// height and always terminating at genesis.
type BlockLocator []chainhash.Hash

// GetLocator returns a block locator for node: a list of hashes starting
// at node and following the chain backwards with exponentially increasing
// step sizes, always terminating at the genesis block.
func GetLocator(node *blockNode) BlockLocator {
	if node == nil {
		return nil
	}

	var locator BlockLocator
	step := int64(1)
	for n := node; n != nil; {
		locator = append(locator, n.hash)

		if n.parent == nil {
			break
		}

		// Walk back 'step' blocks, stopping early at genesis.
		var next *blockNode
		for i := int64(0); i < step; i++ {
			if n.parent == nil {
				break
			}
			n = n.parent
			next = n
		}
		if next == nil {
			break
		}

		// Double the step once the locator has collected enough
		// close-in entries, as the Bitcoin reference locator does.
		if len(locator) >= 10 {
			step *= 2
		}
	}
	return locator
}
