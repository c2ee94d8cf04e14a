// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"io"
	"time"

	"github.com/decred/dcrd/chaincfg/chainhash"
)

// Hash160 is a 20-byte RIPEMD160-sized value used to identify the miner
// that produced a block header. It has no relation to the transaction
// output scripts a full node would use it for; here it is simply an
// opaque per-miner identifier carried in the header.
type Hash160 [20]byte

// String returns the hex representation of the hash, most-significant byte
// first, matching chainhash.Hash's convention.
func (h Hash160) String() string {
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 0, len(h)*2)
	for i := len(h) - 1; i >= 0; i-- {
		buf = append(buf, hexDigits[h[i]>>4], hexDigits[h[i]&0x0f])
	}
	return string(buf)
}

// BlockHeader defines information about a block and is used in the HEADERS
// (and GETHEADERS response) messages.
type BlockHeader struct {
	// Version of the block. This is not the same as the protocol version.
	Version int32

	// Hash of the previous block header in the block chain.
	PrevBlock chainhash.Hash

	// MinerAddress identifies the miner that produced the block.
	MinerAddress Hash160

	// Timestamp at which the block was created.
	Timestamp time.Time

	// Bits defines the target difficulty in compact form.
	Bits uint32

	// Nonce used to generate the block.
	Nonce uint32

	// PowHash is the proof-of-work commitment the miner produced; it must
	// match the PoW oracle's full-mode output for the header to be valid.
	PowHash chainhash.Hash
}

// commitmentBytes returns the serialized form of every field of the header
// except PowHash itself. This is the input the PoW oracle hashes to produce
// (or verify) PowHash.
func (h *BlockHeader) commitmentBytes() []byte {
	buf := make([]byte, 0, HeaderSize-chainhashSize)
	var b [4]byte

	putU32 := func(v uint32) {
		b[0] = byte(v)
		b[1] = byte(v >> 8)
		b[2] = byte(v >> 16)
		b[3] = byte(v >> 24)
		buf = append(buf, b[:]...)
	}

	putU32(uint32(h.Version))
	buf = append(buf, h.PrevBlock[:]...)
	buf = append(buf, h.MinerAddress[:]...)
	putU32(uint32(h.Timestamp.Unix()))
	putU32(h.Bits)
	putU32(h.Nonce)
	return buf
}

// BlockHash computes the domain-separated hash identifying the header,
// including the miner-chosen PowHash. This is the hash used to key the
// block index and as PrevBlock in a child header; it is distinct from the
// PoW commitment check performed by the pow package.
func (h *BlockHeader) BlockHash() chainhash.Hash {
	buf := h.commitmentBytes()
	buf = append(buf, h.PowHash[:]...)
	return chainhash.HashH(append([]byte("hsyncd-header:"), buf...))
}

// CommitmentBytes exposes the pre-PowHash serialization for use by the pow
// package, which must hash everything the miner committed to except the
// value it is itself producing.
func (h *BlockHeader) CommitmentBytes() []byte {
	return h.commitmentBytes()
}

// BtcDecode decodes r using the header-sync wire encoding into the receiver.
func (h *BlockHeader) BtcDecode(r io.Reader) error {
	if err := readElement(r, &h.Version); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, h.PrevBlock[:]); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, h.MinerAddress[:]); err != nil {
		return err
	}
	var ts uint32
	if err := readElement(r, &ts); err != nil {
		return err
	}
	h.Timestamp = time.Unix(int64(ts), 0)
	if err := readElement(r, &h.Bits); err != nil {
		return err
	}
	if err := readElement(r, &h.Nonce); err != nil {
		return err
	}
	_, err := io.ReadFull(r, h.PowHash[:])
	return err
}

// BtcEncode encodes the receiver to w using the header-sync wire encoding.
func (h *BlockHeader) BtcEncode(w io.Writer) error {
	if err := writeElement(w, h.Version); err != nil {
		return err
	}
	if err := writeElement(w, h.PrevBlock[:]); err != nil {
		return err
	}
	if err := writeElement(w, h.MinerAddress[:]); err != nil {
		return err
	}
	if err := writeElement(w, uint32(h.Timestamp.Unix())); err != nil {
		return err
	}
	if err := writeElement(w, h.Bits); err != nil {
		return err
	}
	if err := writeElement(w, h.Nonce); err != nil {
		return err
	}
	return writeElement(w, h.PowHash[:])
}

// Serialize returns the wire-encoded representation of the header.
func (h *BlockHeader) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	if err := h.BtcEncode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
