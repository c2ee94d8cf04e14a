// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"math/big"

	"github.com/decred/dcrd/blockchain/standalone/v2"
)

// asertFracBits is the number of fractional bits carried through the ASERT
// fixed-point computation.
const asertFracBits = 16

// calcASERTBits implements the ASERT (Absolutely Scheduled Exponentially
// Rising Targets) difficulty adjustment rule. It damps the next target
// toward the anchor block's target in proportion to how far the actual
// elapsed time since the anchor has drifted from the schedule implied by
// targetSpacing: every halfLife seconds of drift doubles (or halves) the
// target.
//
// anchorBits/anchorHeight/anchorTime describe the fixed reference block
// (normally genesis); prevHeight/prevTime describe the block immediately
// preceding the one whose difficulty is being computed. The fractional
// part of the exponent is handled with a linear interpolation between
// successive powers of two rather than the higher-order polynomial
// approximation a bit-exact production implementation would use; this
// keeps the computation simple and fully deterministic while remaining
// monotonic and consensus-safe for a single node's own chain (see
// DESIGN.md).
func calcASERTBits(anchorBits uint32, anchorHeight, anchorTime int64, prevHeight, prevTime int64, targetSpacing, halfLife int64, powLimit *big.Int) uint32 {
	anchorTarget := standalone.CompactToBig(anchorBits)
	if halfLife <= 0 {
		halfLife = 1
	}

	heightDiff := prevHeight - anchorHeight
	timeDiff := prevTime - anchorTime
	scheduled := targetSpacing * heightDiff
	drift := timeDiff - scheduled

	const one = int64(1) << asertFracBits

	exponent := (drift << asertFracBits) / halfLife
	shifts := exponent >> asertFracBits
	frac := exponent - shifts<<asertFracBits
	if frac < 0 {
		frac += one
		shifts--
	}

	// factor is in [one, 2*one), a linear stand-in for 2^(frac/one).
	factor := one + frac

	target := new(big.Int).Mul(anchorTarget, big.NewInt(factor))
	target.Rsh(target, asertFracBits)

	switch {
	case shifts < 0:
		target.Rsh(target, uint(-shifts))
	case shifts > 0:
		target.Lsh(target, uint(shifts))
	}

	if target.Sign() <= 0 {
		target = big.NewInt(1)
	}
	if powLimit != nil && target.Cmp(powLimit) > 0 {
		target = new(big.Int).Set(powLimit)
	}

	return standalone.BigToCompact(target)
}

// calcNextRequiredDifficulty returns the difficulty bits required for a
// header building on prev, given the chain's fixed ASERT anchor node.
// prev may be nil only when anchor is also the genesis node being computed
// for itself, in which case the configured PowLimitBits is returned.
func calcNextRequiredDifficulty(prev *blockNode, anchor *blockNode, targetSpacing, halfLife int64, powLimit *big.Int, powLimitBits uint32) uint32 {
	if prev == nil || anchor == nil {
		return powLimitBits
	}
	return calcASERTBits(anchor.bits, anchor.height, anchor.timestamp,
		prev.height, prev.timestamp, targetSpacing, halfLife, powLimit)
}
