// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"math/big"
	"time"

	"github.com/decred/dcrd/blockchain/standalone/v2"
	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/unicitynetwork/hsyncd/wire"
)

// MainNetParams returns the network parameters for the main network.
func MainNetParams() *Params {
	// mainPowLimit is the highest proof of work target permitted on the
	// main network. It is the value 2^224 - 1.
	mainPowLimit := new(big.Int).Sub(new(big.Int).Lsh(bigOne, 224), bigOne)
	mainPowLimitBits := standalone.BigToCompact(mainPowLimit)

	// The genesis header is not evaluated for proof of work; its only
	// uses elsewhere in the chain are as PrevBlock for height-1 headers
	// and as the starting point for difficulty and median-time-past
	// calculations.
	genesisHeader := wire.BlockHeader{
		Version:      1,
		PrevBlock:    chainhash.Hash{},
		MinerAddress: wire.Hash160{},
		Timestamp:    time.Unix(1531731600, 0), // 2018-07-16 09:00:00 UTC
		Bits:         mainPowLimitBits,
		Nonce:        0,
	}
	genesisHash := genesisHeader.BlockHash()

	params := &Params{
		Name:        "mainnet",
		Net:         wire.MainNet,
		DefaultPort: "9666",

		GenesisHeader: genesisHeader,
		GenesisHash:   genesisHash,

		PowLimit:     mainPowLimit,
		PowLimitBits: mainPowLimitBits,

		TargetSpacing: 2 * time.Minute,
		ASERTHalfLife: int64((2 * time.Hour).Seconds()),

		ASERTAnchorHeight: 0,
		ASERTAnchorBits:   mainPowLimitBits,

		MinimumChainWork: hexToBigInt("0000000000000000000000000000000000000000000000000000b60cab914c"),

		WorkBufferBlocks:     6,
		SuspiciousReorgDepth: 100,
		OrphanHorizon:        20 * time.Minute,

		NetworkExpirationHeight: 10_500_000,
		NetworkExpirationGrace:  30 * 24 * time.Hour,

		IBDAgeThreshold: 24 * time.Hour,
	}
	return params
}

// hexToBigInt decodes a hex string into a big.Int. It panics on malformed
// input, so it MUST only be called with hard-coded, known good strings.
func hexToBigInt(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("invalid hex big.Int literal in source file: " + s)
	}
	return n
}
