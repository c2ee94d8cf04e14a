// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2015-2019 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"bytes"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/decred/dcrd/blockchain/standalone/v2"
	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/unicitynetwork/hsyncd/wire"
)

// allNetParams lists the per-network constructors so the genesis and PoW
// limit checks below run once per network instead of once per mainnet.
var allNetParams = map[string]func() *Params{
	"mainnet": MainNetParams,
	"testnet": TestNetParams,
	"simnet":  SimNetParams,
	"regnet":  RegNetParams,
}

// TestGenesisHeaderRoundTrips encodes each network's genesis header and
// decodes it back, failing with a spew dump of both headers if the
// round-trip doesn't reproduce the original — the same failure-diagnostic
// style the teacher's own TestGenesisBlock uses for its hardcoded byte
// comparison.
func TestGenesisHeaderRoundTrips(t *testing.T) {
	for name, newParams := range allNetParams {
		params := newParams()
		raw, err := params.GenesisHeader.Serialize()
		if err != nil {
			t.Fatalf("%s: Serialize: %v", name, err)
		}

		var decoded wire.BlockHeader
		if err := decoded.BtcDecode(bytes.NewReader(raw)); err != nil {
			t.Fatalf("%s: BtcDecode: %v", name, err)
		}

		if decoded.BlockHash() != params.GenesisHash {
			t.Fatalf("%s: genesis header round-trip hash mismatch - got %s, want %s",
				name, spew.Sdump(decoded), spew.Sdump(params.GenesisHeader))
		}
	}
}

// TestGenesisHashMatchesHeader ensures each network's cached GenesisHash
// field actually agrees with hashing its own GenesisHeader, the way the
// teacher's TestGenesisBlock checks params.GenesisHash against a freshly
// computed hash rather than trusting the cached field blindly.
func TestGenesisHashMatchesHeader(t *testing.T) {
	for name, newParams := range allNetParams {
		params := newParams()
		hash := params.GenesisHeader.BlockHash()
		if hash != params.GenesisHash {
			t.Fatalf("%s: GenesisHash does not match GenesisHeader - got %s, want %s",
				name, spew.Sdump(params.GenesisHash), spew.Sdump(hash))
		}
		if params.GenesisHeader.PrevBlock != (chainhash.Hash{}) {
			t.Fatalf("%s: genesis header must have a zero PrevBlock, got %s",
				name, spew.Sdump(params.GenesisHeader.PrevBlock))
		}
	}
}

// TestPowLimitBitsRoundTrip ensures each network's PowLimit and
// PowLimitBits agree: converting PowLimit to its compact form must
// reproduce PowLimitBits, and converting PowLimitBits back must reproduce
// a target no more permissive than PowLimit. Getting this wrong for any
// network silently raises or lowers its difficulty floor.
func TestPowLimitBitsRoundTrip(t *testing.T) {
	for name, newParams := range allNetParams {
		params := newParams()

		gotBits := standalone.BigToCompact(params.PowLimit)
		if gotBits != params.PowLimitBits {
			t.Fatalf("%s: PowLimitBits does not match BigToCompact(PowLimit) - got %s, want %s",
				name, spew.Sdump(gotBits), spew.Sdump(params.PowLimitBits))
		}

		gotLimit := standalone.CompactToBig(params.PowLimitBits)
		if gotLimit.Cmp(params.PowLimit) > 0 {
			t.Fatalf("%s: CompactToBig(PowLimitBits) is more permissive than PowLimit - got %s, want at most %s",
				name, spew.Sdump(gotLimit), spew.Sdump(params.PowLimit))
		}

		if params.ASERTAnchorBits != params.PowLimitBits {
			t.Fatalf("%s: ASERTAnchorBits at anchor height 0 must equal PowLimitBits - got %s, want %s",
				name, spew.Sdump(params.ASERTAnchorBits), spew.Sdump(params.PowLimitBits))
		}
	}
}
