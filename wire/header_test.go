// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"testing"
	"time"

	"github.com/decred/dcrd/chaincfg/chainhash"
)

func sampleHeader() *BlockHeader {
	return &BlockHeader{
		Version:      1,
		PrevBlock:    chainhash.HashH([]byte("prev")),
		MinerAddress: Hash160{1, 2, 3, 4, 5},
		Timestamp:    time.Unix(1700000000, 0),
		Bits:         0x1d00ffff,
		Nonce:        424242,
		PowHash:      chainhash.HashH([]byte("pow")),
	}
}

func TestBlockHeaderRoundTrip(t *testing.T) {
	h := sampleHeader()

	var buf bytes.Buffer
	if err := h.BtcEncode(&buf); err != nil {
		t.Fatalf("BtcEncode: %v", err)
	}

	var got BlockHeader
	if err := got.BtcDecode(&buf); err != nil {
		t.Fatalf("BtcDecode: %v", err)
	}

	if got.Version != h.Version || got.PrevBlock != h.PrevBlock ||
		got.MinerAddress != h.MinerAddress || got.Bits != h.Bits ||
		got.Nonce != h.Nonce || got.PowHash != h.PowHash ||
		got.Timestamp.Unix() != h.Timestamp.Unix() {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, h)
	}
}

func TestBlockHeaderHashStable(t *testing.T) {
	h := sampleHeader()
	h1 := h.BlockHash()
	h2 := h.BlockHash()
	if h1 != h2 {
		t.Fatalf("BlockHash is not deterministic: %v != %v", h1, h2)
	}

	other := sampleHeader()
	other.Nonce++
	if h.BlockHash() == other.BlockHash() {
		t.Fatalf("BlockHash did not change with Nonce")
	}
}

func TestMsgHeadersRoundTrip(t *testing.T) {
	msg := NewMsgHeaders()
	for i := 0; i < 3; i++ {
		h := sampleHeader()
		h.Nonce = uint32(i)
		if err := msg.AddBlockHeader(h); err != nil {
			t.Fatalf("AddBlockHeader: %v", err)
		}
	}

	var buf bytes.Buffer
	if err := msg.BtcEncode(&buf); err != nil {
		t.Fatalf("BtcEncode: %v", err)
	}

	var got MsgHeaders
	if err := got.BtcDecode(&buf); err != nil {
		t.Fatalf("BtcDecode: %v", err)
	}
	if len(got.Headers) != len(msg.Headers) {
		t.Fatalf("got %d headers, want %d", len(got.Headers), len(msg.Headers))
	}
	for i := range got.Headers {
		if got.Headers[i].BlockHash() != msg.Headers[i].BlockHash() {
			t.Fatalf("header %d mismatch after round trip", i)
		}
	}
}

func TestMsgGetHeadersRoundTrip(t *testing.T) {
	msg := NewMsgGetHeaders()
	msg.ProtocolVersion = 1
	for i := 0; i < 5; i++ {
		hash := chainhash.HashH([]byte{byte(i)})
		if err := msg.AddBlockLocatorHash(&hash); err != nil {
			t.Fatalf("AddBlockLocatorHash: %v", err)
		}
	}

	var buf bytes.Buffer
	if err := msg.BtcEncode(&buf); err != nil {
		t.Fatalf("BtcEncode: %v", err)
	}

	var got MsgGetHeaders
	if err := got.BtcDecode(&buf); err != nil {
		t.Fatalf("BtcDecode: %v", err)
	}
	if len(got.BlockLocatorHashes) != len(msg.BlockLocatorHashes) {
		t.Fatalf("got %d locator hashes, want %d",
			len(got.BlockLocatorHashes), len(msg.BlockLocatorHashes))
	}
}

func TestMsgHeadersTooMany(t *testing.T) {
	msg := &MsgHeaders{Headers: make([]*BlockHeader, MaxHeadersPerMsg)}
	if err := msg.AddBlockHeader(sampleHeader()); err == nil {
		t.Fatalf("expected error adding header beyond MaxHeadersPerMsg")
	}
}
