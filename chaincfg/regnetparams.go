// Copyright (c) 2018-2021 The Decred developers
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

// RegNetParams returns the network parameters for the regression test
// network. This should not be confused with the public test network or the
// simulation test network; it exists purely for unit and scenario tests and
// its values are subject to change freely.
func RegNetParams() *Params {
	regNetPowLimit := new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)
	regNetPowLimitBits := standalone.BigToCompact(regNetPowLimit)

	genesisHeader := wire.BlockHeader{
		Version:      1,
		PrevBlock:    chainhash.Hash{},
		MinerAddress: wire.Hash160{},
		Timestamp:    time.Unix(1538524800, 0), // 2018-10-03 00:00:00 UTC
		Bits:         regNetPowLimitBits,
		Nonce:        0,
	}

	return &Params{
		Name:        "regnet",
		Net:         wire.RegNet,
		DefaultPort: "19777",

		GenesisHeader: genesisHeader,
		GenesisHash:   genesisHeader.BlockHash(),

		PowLimit:     regNetPowLimit,
		PowLimitBits: regNetPowLimitBits,

		TargetSpacing: time.Second,
		ASERTHalfLife: 10,

		ASERTAnchorHeight: 0,
		ASERTAnchorBits:   regNetPowLimitBits,

		MinimumChainWork: big.NewInt(0),

		WorkBufferBlocks:     144,
		SuspiciousReorgDepth: 7,
		OrphanHorizon:        time.Minute,

		NetworkExpirationHeight: 1_000_000_000,
		NetworkExpirationGrace:  0,

		IBDAgeThreshold: 24 * time.Hour,
	}
}
