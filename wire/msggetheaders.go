// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"io"

	"github.com/decred/dcrd/chaincfg/chainhash"
)

// MaxBlockLocatorsPerMsg is the maximum number of block locator hashes
// allowed per message.
const MaxBlockLocatorsPerMsg = 500

// MsgGetHeaders implements the GETHEADERS message: a sparse locator of
// known hashes plus an optional stop hash, used to request a batch of
// headers extending the locator's fork point.
type MsgGetHeaders struct {
	ProtocolVersion    uint32
	BlockLocatorHashes []chainhash.Hash
	HashStop           chainhash.Hash
}

// AddBlockLocatorHash adds a new block locator hash to the message.
func (msg *MsgGetHeaders) AddBlockLocatorHash(hash *chainhash.Hash) error {
	if len(msg.BlockLocatorHashes)+1 > MaxBlockLocatorsPerMsg {
		return messageError("MsgGetHeaders.AddBlockLocatorHash",
			fmt.Sprintf("too many block locator hashes for message [max %d]",
				MaxBlockLocatorsPerMsg))
	}
	msg.BlockLocatorHashes = append(msg.BlockLocatorHashes, *hash)
	return nil
}

// BtcDecode decodes r into the receiver using the header-sync wire encoding.
func (msg *MsgGetHeaders) BtcDecode(r io.Reader) error {
	if err := readElement(r, &msg.ProtocolVersion); err != nil {
		return err
	}

	count, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if count > MaxBlockLocatorsPerMsg {
		return messageError("MsgGetHeaders.BtcDecode",
			fmt.Sprintf("too many block locator hashes for message [count %d, max %d]",
				count, MaxBlockLocatorsPerMsg))
	}

	locatorHashes := make([]chainhash.Hash, count)
	msg.BlockLocatorHashes = make([]chainhash.Hash, 0, count)
	for i := uint64(0); i < count; i++ {
		hash := &locatorHashes[i]
		if _, err := io.ReadFull(r, hash[:]); err != nil {
			return err
		}
		msg.BlockLocatorHashes = append(msg.BlockLocatorHashes, *hash)
	}

	_, err = io.ReadFull(r, msg.HashStop[:])
	return err
}

// BtcEncode encodes the receiver to w using the header-sync wire encoding.
func (msg *MsgGetHeaders) BtcEncode(w io.Writer) error {
	count := len(msg.BlockLocatorHashes)
	if count > MaxBlockLocatorsPerMsg {
		return messageError("MsgGetHeaders.BtcEncode",
			fmt.Sprintf("too many block locator hashes for message [count %d, max %d]",
				count, MaxBlockLocatorsPerMsg))
	}

	if err := writeElement(w, msg.ProtocolVersion); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(count)); err != nil {
		return err
	}
	for i := range msg.BlockLocatorHashes {
		hash := &msg.BlockLocatorHashes[i]
		if _, err := w.Write(hash[:]); err != nil {
			return err
		}
	}
	_, err := w.Write(msg.HashStop[:])
	return err
}

// Command returns the protocol command string for the message.
func (msg *MsgGetHeaders) Command() string {
	return "getheaders"
}

// NewMsgGetHeaders returns a new GETHEADERS message that conforms to the
// Message interface using the defaults for the fields that do not have to
// be explicitly provided.
func NewMsgGetHeaders() *MsgGetHeaders {
	return &MsgGetHeaders{
		BlockLocatorHashes: make([]chainhash.Hash, 0, MaxBlockLocatorsPerMsg),
	}
}
