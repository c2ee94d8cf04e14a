// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wire implements the header-sync subset of the peer wire protocol:
// block headers and the GETHEADERS/HEADERS messages that carry them. Full
// block bodies, transactions, and the rest of the protocol suite are out of
// scope for this module.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// CurrencyNet represents which network a message belongs to.
type CurrencyNet uint32

// Network magic values. Mirrors the teacher's wire.MainNet/TestNet/SimNet
// constants; RegNet is added for the regression-test network used in tests.
const (
	MainNet CurrencyNet = 0xd9b4bef9
	TestNet CurrencyNet = 0x0709110b
	SimNet  CurrencyNet = 0x12141c16
	RegNet  CurrencyNet = 0xdab5bffa
)

// MaxHeadersPerMsg is the maximum number of headers that can be in a single
// HEADERS message.
const MaxHeadersPerMsg = 2000

// HeaderSize is the serialized size, in bytes, of a BlockHeader.
const HeaderSize = 4 + chainhashSize + hash160Size + 4 + 4 + 4 + chainhashSize

const (
	chainhashSize = 32
	hash160Size   = 20
)

// messageError creates an error for the given function and description.
func messageError(op, desc string) error {
	return fmt.Errorf("%s: %s", op, desc)
}

// readElement reads a single integer-ish element from r using little-endian
// byte order, matching the teacher's wire.readElement helper.
func readElement(r io.Reader, element interface{}) error {
	switch e := element.(type) {
	case *int32:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = int32(binary.LittleEndian.Uint32(b[:]))
		return nil
	case *uint32:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*e = binary.LittleEndian.Uint32(b[:])
		return nil
	case *[]byte:
		_, err := io.ReadFull(r, *e)
		return err
	}
	return fmt.Errorf("readElement: unsupported type %T", element)
}

// writeElement writes a single integer-ish element to w using little-endian
// byte order, matching the teacher's wire.writeElement helper.
func writeElement(w io.Writer, element interface{}) error {
	switch e := element.(type) {
	case int32:
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(e))
		_, err := w.Write(b[:])
		return err
	case uint32:
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], e)
		_, err := w.Write(b[:])
		return err
	case []byte:
		_, err := w.Write(e)
		return err
	}
	return fmt.Errorf("writeElement: unsupported type %T", element)
}

// ReadVarInt reads a variable length integer from r and returns it as a
// uint64, using the same compact encoding as the teacher's wire package
// (single byte for values under 0xfd, then a length-prefixed fixed width
// integer for larger values).
func ReadVarInt(r io.Reader) (uint64, error) {
	var prefix [1]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return 0, err
	}

	switch prefix[0] {
	case 0xff:
		var b [8]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint64(b[:]), nil
	case 0xfe:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint32(b[:])), nil
	case 0xfd:
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint16(b[:])), nil
	default:
		return uint64(prefix[0]), nil
	}
}

// WriteVarInt writes val to w using the compact variable length integer
// encoding described in ReadVarInt.
func WriteVarInt(w io.Writer, val uint64) error {
	if val < 0xfd {
		_, err := w.Write([]byte{byte(val)})
		return err
	}
	if val <= 0xffff {
		buf := make([]byte, 3)
		buf[0] = 0xfd
		binary.LittleEndian.PutUint16(buf[1:], uint16(val))
		_, err := w.Write(buf)
		return err
	}
	if val <= 0xffffffff {
		buf := make([]byte, 5)
		buf[0] = 0xfe
		binary.LittleEndian.PutUint32(buf[1:], uint32(val))
		_, err := w.Write(buf)
		return err
	}
	buf := make([]byte, 9)
	buf[0] = 0xff
	binary.LittleEndian.PutUint64(buf[1:], val)
	_, err := w.Write(buf)
	return err
}

// VarIntSerializeSize returns the number of bytes it would take to serialize
// val as a variable length integer.
func VarIntSerializeSize(val uint64) int {
	switch {
	case val < 0xfd:
		return 1
	case val <= 0xffff:
		return 3
	case val <= 0xffffffff:
		return 5
	default:
		return 9
	}
}
