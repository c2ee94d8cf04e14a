// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"io"
)

// MsgHeaders implements the HEADERS message: a batch of up to
// MaxHeadersPerMsg block headers, sent in response to a GETHEADERS
// request or as an unsolicited announcement of new tips.
type MsgHeaders struct {
	Headers []*BlockHeader
}

// AddBlockHeader adds a new block header to the message.
func (msg *MsgHeaders) AddBlockHeader(header *BlockHeader) error {
	if len(msg.Headers)+1 > MaxHeadersPerMsg {
		return messageError("MsgHeaders.AddBlockHeader",
			fmt.Sprintf("too many block headers for message [max %d]",
				MaxHeadersPerMsg))
	}
	msg.Headers = append(msg.Headers, header)
	return nil
}

// BtcDecode decodes r into the receiver using the header-sync wire encoding.
// Each header on the wire is followed by a transaction count, which is
// always zero for a headers-only message; it is read and discarded.
func (msg *MsgHeaders) BtcDecode(r io.Reader) error {
	count, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if count > MaxHeadersPerMsg {
		return messageError("MsgHeaders.BtcDecode",
			fmt.Sprintf("too many block headers for message [count %d, max %d]",
				count, MaxHeadersPerMsg))
	}

	headers := make([]BlockHeader, count)
	msg.Headers = make([]*BlockHeader, 0, count)
	for i := uint64(0); i < count; i++ {
		header := &headers[i]
		if err := header.BtcDecode(r); err != nil {
			return err
		}

		txCount, err := ReadVarInt(r)
		if err != nil {
			return err
		}
		if txCount != 0 {
			return messageError("MsgHeaders.BtcDecode",
				"headers message contains non-zero transaction count")
		}

		msg.Headers = append(msg.Headers, header)
	}
	return nil
}

// BtcEncode encodes the receiver to w using the header-sync wire encoding.
func (msg *MsgHeaders) BtcEncode(w io.Writer) error {
	count := len(msg.Headers)
	if count > MaxHeadersPerMsg {
		return messageError("MsgHeaders.BtcEncode",
			fmt.Sprintf("too many block headers for message [count %d, max %d]",
				count, MaxHeadersPerMsg))
	}

	if err := WriteVarInt(w, uint64(count)); err != nil {
		return err
	}
	for _, header := range msg.Headers {
		if err := header.BtcEncode(w); err != nil {
			return err
		}
		if err := WriteVarInt(w, 0); err != nil {
			return err
		}
	}
	return nil
}

// Command returns the protocol command string for the message.
func (msg *MsgHeaders) Command() string {
	return "headers"
}

// NewMsgHeaders returns a new HEADERS message that conforms to the Message
// interface.
func NewMsgHeaders() *MsgHeaders {
	return &MsgHeaders{
		Headers: make([]*BlockHeader, 0, MaxHeadersPerMsg),
	}
}
