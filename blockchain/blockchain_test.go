// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"math/big"
	"testing"
	"time"

	"github.com/decred/dcrd/blockchain/standalone/v2"

	"github.com/unicitynetwork/hsyncd/chaincfg"
	"github.com/unicitynetwork/hsyncd/pow"
	"github.com/unicitynetwork/hsyncd/wire"
)

func compactToBigForTest(bits uint32) *big.Int {
	return standalone.CompactToBig(bits)
}

// chainedFakeNodes returns a slice of num fake nodes built on top of
// parent, each extending the previous, mirroring the helper of the same
// name the teacher's own block index tests use.
func chainedFakeNodes(parent *blockNode, num int) []*blockNode {
	nodes := make([]*blockNode, 0, num)
	tip := parent
	for i := 0; i < num; i++ {
		header := &wire.BlockHeader{
			Version:   1,
			Bits:      0x1e0ffff0,
			Timestamp: time.Unix(int64(1531731600+(i+1)*120), 0),
			Nonce:     uint32(i),
		}
		if tip != nil {
			header.PrevBlock = tip.hash
		}
		node := newBlockNode(header, tip)
		nodes = append(nodes, node)
		tip = node
	}
	return nodes
}

func newFakeGenesis() *blockNode {
	header := &wire.BlockHeader{
		Version:   1,
		Bits:      0x1e0ffff0,
		Timestamp: time.Unix(1531731600, 0),
	}
	return newBlockNode(header, nil)
}

func TestBlockIndexChainTips(t *testing.T) {
	idx := newBlockIndex(nil)
	genesis := newFakeGenesis()
	idx.AddNode(genesis)

	branchA := chainedFakeNodes(genesis, 3)
	for _, n := range branchA {
		idx.AddNode(n)
	}
	branchB := chainedFakeNodes(genesis, 2)
	for _, n := range branchB {
		idx.AddNode(n)
	}

	tips := idx.ChainTips()
	if len(tips) != 2 {
		t.Fatalf("expected 2 chain tips, got %d", len(tips))
	}

	found := make(map[int64]bool)
	for _, tip := range tips {
		found[tip.height] = true
	}
	if !found[branchA[len(branchA)-1].height] || !found[branchB[len(branchB)-1].height] {
		t.Fatalf("chain tips do not match expected branch tips: %+v", tips)
	}
}

func TestBlockNodeAncestor(t *testing.T) {
	genesis := newFakeGenesis()
	nodes := chainedFakeNodes(genesis, 10)
	tip := nodes[len(nodes)-1]

	for h := int64(0); h <= tip.height; h++ {
		ancestor := tip.Ancestor(h)
		if ancestor == nil {
			t.Fatalf("Ancestor(%d) returned nil", h)
		}
		if ancestor.height != h {
			t.Fatalf("Ancestor(%d) returned node at height %d", h, ancestor.height)
		}
	}
	if tip.Ancestor(tip.height + 1) != nil {
		t.Fatalf("Ancestor beyond tip height should be nil")
	}
}

func TestFindFork(t *testing.T) {
	genesis := newFakeGenesis()
	common := chainedFakeNodes(genesis, 5)
	fork := common[len(common)-1]

	branchA := chainedFakeNodes(fork, 4)
	branchB := chainedFakeNodes(fork, 7)

	got := FindFork(branchA[len(branchA)-1], branchB[len(branchB)-1])
	if got != fork {
		t.Fatalf("FindFork returned height %d, want %d", got.height, fork.height)
	}

	if FindFork(fork, fork) != fork {
		t.Fatalf("FindFork(x, x) should return x")
	}
}

func TestGetLocatorTerminatesAtGenesis(t *testing.T) {
	genesis := newFakeGenesis()
	nodes := chainedFakeNodes(genesis, 50)
	tip := nodes[len(nodes)-1]

	locator := GetLocator(tip)
	if len(locator) == 0 {
		t.Fatalf("locator should not be empty")
	}
	if locator[0] != tip.hash {
		t.Fatalf("locator must start at the requested tip")
	}
	if locator[len(locator)-1] != genesis.hash {
		t.Fatalf("locator must terminate at genesis")
	}
}

func TestCalcPastMedianTime(t *testing.T) {
	idx := newBlockIndex(nil)
	genesis := newFakeGenesis()
	idx.AddNode(genesis)
	nodes := chainedFakeNodes(genesis, 20)
	for _, n := range nodes {
		idx.AddNode(n)
	}

	mtp, err := idx.CalcPastMedianTime(nodes[len(nodes)-1])
	if err != nil {
		t.Fatalf("CalcPastMedianTime returned error: %v", err)
	}
	if mtp.After(nodes[len(nodes)-1].header.Timestamp) {
		t.Fatalf("median time past must not be after the node's own timestamp")
	}

	if _, err := idx.CalcPastMedianTime(nil); err == nil {
		t.Fatalf("expected error for nil node")
	}
}

func TestCheckHeaderCommitmentAndFull(t *testing.T) {
	genesis := newFakeGenesis()
	header := genesis.header

	if vs := CheckHeaderCommitment(pow.PassThrough{}, &header); !vs.Valid() {
		t.Fatalf("expected pass-through verifier to accept commitment: %v", vs)
	}
	if vs := CheckHeader(pow.PassThrough{}, &header); !vs.Valid() {
		t.Fatalf("expected pass-through verifier to accept full check: %v", vs)
	}
}

func TestContextualCheckHeaderRejectsBadVersion(t *testing.T) {
	idx := newBlockIndex(nil)
	genesis := newFakeGenesis()
	idx.AddNode(genesis)

	params := &chaincfg.Params{TargetSpacing: 2 * time.Minute, ASERTHalfLife: 7200}
	header := genesis.header
	header.Version = 0
	header.PrevBlock = genesis.hash
	header.Timestamp = genesis.header.Timestamp.Add(time.Hour)

	vs := ContextualCheckHeader(params, idx, &header, genesis, genesis, header.Timestamp)
	if vs.Reason != RejectBadVersion {
		t.Fatalf("expected RejectBadVersion, got %v", vs.Reason)
	}
}

func TestASERTDifficultyRespondsToDrift(t *testing.T) {
	idx := newBlockIndex(nil)
	genesis := newFakeGenesis()
	idx.AddNode(genesis)

	const targetSpacing = int64(120)
	const halfLife = int64(7200)
	powLimitBits := genesis.bits

	onSchedule := calcNextRequiredDifficulty(genesis, genesis, targetSpacing, halfLife, nil, powLimitBits)
	if onSchedule != genesis.bits {
		t.Fatalf("on-schedule difficulty should equal anchor bits, got %x want %x", onSchedule, genesis.bits)
	}

	late := &blockNode{height: 1, bits: genesis.bits, timestamp: genesis.timestamp + targetSpacing*10}
	loosened := calcNextRequiredDifficulty(late, genesis, targetSpacing, halfLife, nil, powLimitBits)
	loosenedTarget := compactToBigForTest(loosened)
	anchorTarget := compactToBigForTest(genesis.bits)
	if loosenedTarget.Cmp(anchorTarget) <= 0 {
		t.Fatalf("slow blocks should loosen (raise) the target")
	}
}
