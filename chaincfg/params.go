// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chaincfg defines the per-network consensus parameters consumed by
// the validator, block index, and header-sync manager: genesis header, PoW
// limit, ASERT difficulty parameters, and the various anti-DoS horizons.
package chaincfg

import (
	"math/big"
	"time"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/unicitynetwork/hsyncd/wire"
)

// bigOne is 1 represented as a big.Int. Defined here to avoid the overhead
// of creating it multiple times.
var bigOne = big.NewInt(1)

// Params defines the network parameters for a specific network, such as the
// main network or a test network. None of the fields are consensus-critical
// for any subsystem outside the ones named here; transaction/address/stake
// parameters that the original dcrd Params type carries are out of scope.
type Params struct {
	// Name and Net identify the network for logging and wire framing.
	Name string
	Net  wire.CurrencyNet

	// DefaultPort is the default peer-to-peer port for the network.
	DefaultPort string

	// GenesisHeader is the network's genesis header. It has no parent and
	// is the unique node with prev == nil in the block index.
	GenesisHeader wire.BlockHeader

	// GenesisHash is the hash of GenesisHeader, cached to avoid
	// recomputing it on every lookup.
	GenesisHash chainhash.Hash

	// PowLimit is the highest proof-of-work target (lowest difficulty)
	// permitted on the network, i.e. the difficulty floor.
	PowLimit *big.Int

	// PowLimitBits is PowLimit in its compact representation.
	PowLimitBits uint32

	// TargetSpacing is the desired average time between blocks, the
	// value the ASERT rule damps the observed spacing toward.
	TargetSpacing time.Duration

	// ASERTHalfLife is the ASERT damping half-life: the number of
	// seconds of cumulative schedule deviation required to double or
	// halve the difficulty.
	ASERTHalfLife int64

	// ASERTAnchorHeight and ASERTAnchorBits are the anchor block height
	// and its difficulty bits used as the ASERT rule's fixed reference
	// point.
	ASERTAnchorHeight int64
	ASERTAnchorBits   uint32

	// MinimumChainWork is the minimum amount of known cumulative work
	// the tip must have for IsInitialBlockDownload to return false.
	MinimumChainWork *big.Int

	// WorkBufferBlocks is the anti-DoS low-work gate buffer, expressed
	// as a number of blocks' worth of work subtracted from the tip's
	// chain work to produce the minimum acceptable headers-batch work.
	WorkBufferBlocks int64

	// SuspiciousReorgDepth is the reorg depth at or beyond which
	// ActivateBestChain refuses to switch the active chain and instead
	// emits SuspiciousReorg.
	SuspiciousReorgDepth int64

	// OrphanHorizon is the maximum age an orphan header may reach before
	// EvictOrphans removes it.
	OrphanHorizon time.Duration

	// NetworkExpirationHeight is the height beyond which the network is
	// considered expired. The ActivateBestChain call that connects the
	// first block above it emits NetworkExpired and returns false; later
	// calls connect no further blocks.
	NetworkExpirationHeight int64

	// NetworkExpirationGrace is an additional grace period honored by
	// operators before enforcing NetworkExpirationHeight; it is carried
	// here for display purposes only and does not affect activation.
	NetworkExpirationGrace time.Duration

	// IBDAgeThreshold is the maximum tip age, relative to now, for the
	// chain to be considered out of initial block download.
	IBDAgeThreshold time.Duration
}

// hexDecode decodes the passed hex string and returns the resulting bytes.
// It panics if an error occurs, so it MUST only be called with hard-coded,
// and therefore known good, hex strings.
func hexDecode(s string) []byte {
	b := make([]byte, len(s)/2)
	for i := 0; i < len(b); i++ {
		hi := hexDigit(s[i*2])
		lo := hexDigit(s[i*2+1])
		b[i] = hi<<4 | lo
	}
	return b
}

func hexDigit(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		panic("invalid hex digit in source file: " + string(c))
	}
}
