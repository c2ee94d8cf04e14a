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

// TestNetParams returns the network parameters for the public test network.
func TestNetParams() *Params {
	testPowLimit := new(big.Int).Sub(new(big.Int).Lsh(bigOne, 232), bigOne)
	testPowLimitBits := standalone.BigToCompact(testPowLimit)

	genesisHeader := wire.BlockHeader{
		Version:      1,
		PrevBlock:    chainhash.Hash{},
		MinerAddress: wire.Hash160{},
		Timestamp:    time.Unix(1533081600, 0), // 2018-08-01 00:00:00 UTC
		Bits:         testPowLimitBits,
		Nonce:        0,
	}

	return &Params{
		Name:        "testnet",
		Net:         wire.TestNet,
		DefaultPort: "19666",

		GenesisHeader: genesisHeader,
		GenesisHash:   genesisHeader.BlockHash(),

		PowLimit:     testPowLimit,
		PowLimitBits: testPowLimitBits,

		TargetSpacing: 2 * time.Minute,
		ASERTHalfLife: int64((30 * time.Minute).Seconds()),

		ASERTAnchorHeight: 0,
		ASERTAnchorBits:   testPowLimitBits,

		MinimumChainWork: big.NewInt(0),

		WorkBufferBlocks:     144,
		SuspiciousReorgDepth: 288,
		OrphanHorizon:        20 * time.Minute,

		NetworkExpirationHeight: 10_500_000,
		NetworkExpirationGrace:  7 * 24 * time.Hour,

		IBDAgeThreshold: 24 * time.Hour,
	}
}
