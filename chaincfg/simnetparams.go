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

// SimNetParams returns the network parameters for the simulation test
// network, intended for integration tests between independent processes.
func SimNetParams() *Params {
	simPowLimit := new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)
	simPowLimitBits := standalone.BigToCompact(simPowLimit)

	genesisHeader := wire.BlockHeader{
		Version:      1,
		PrevBlock:    chainhash.Hash{},
		MinerAddress: wire.Hash160{},
		Timestamp:    time.Unix(1401292357, 0),
		Bits:         simPowLimitBits,
		Nonce:        0,
	}

	return &Params{
		Name:        "simnet",
		Net:         wire.SimNet,
		DefaultPort: "19556",

		GenesisHeader: genesisHeader,
		GenesisHash:   genesisHeader.BlockHash(),

		PowLimit:     simPowLimit,
		PowLimitBits: simPowLimitBits,

		TargetSpacing: time.Minute,
		ASERTHalfLife: int64((10 * time.Minute).Seconds()),

		ASERTAnchorHeight: 0,
		ASERTAnchorBits:   simPowLimitBits,

		MinimumChainWork: big.NewInt(0),

		WorkBufferBlocks:     144,
		SuspiciousReorgDepth: 1000,
		OrphanHorizon:        time.Hour,

		NetworkExpirationHeight: 10_500_000,
		NetworkExpirationGrace:  0,

		IBDAgeThreshold: 24 * time.Hour,
	}
}
