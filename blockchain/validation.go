// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"time"

	"github.com/unicitynetwork/hsyncd/chaincfg"
	"github.com/unicitynetwork/hsyncd/pow"
	"github.com/unicitynetwork/hsyncd/wire"
)

// RejectReason is a fixed enumeration of the reasons a header can fail
// validation. The set is closed deliberately: callers (netsync's
// misbehavior scoring in particular) switch over it exhaustively rather
// than pattern-matching error strings.
type RejectReason int

const (
	// RejectNone indicates the header was accepted.
	RejectNone RejectReason = iota

	// RejectHighHash indicates the header's PoW hash (commitment or
	// full, including a recomputation mismatch) does not meet its own
	// claimed difficulty bits.
	RejectHighHash

	// RejectBadDiffBits indicates the header's bits field does not match
	// the difficulty the ASERT rule requires at this height.
	RejectBadDiffBits

	// RejectTimeTooOld indicates the header's timestamp is not greater
	// than the median time of the preceding 11 blocks.
	RejectTimeTooOld

	// RejectTimeTooNew indicates the header's timestamp is too far in
	// the future relative to the local adjusted clock.
	RejectTimeTooNew

	// RejectBadVersion indicates the header declares a version this
	// node does not understand.
	RejectBadVersion

	// RejectPrevBlockUnknown indicates the header's claimed parent is
	// not present in the block index; the header should be considered
	// for the orphan pool rather than rejected outright.
	RejectPrevBlockUnknown

	// RejectBadPrevBlock indicates the header's claimed parent is known
	// but already marked VALIDATION_FAILED or ANCESTOR_FAILED.
	RejectBadPrevBlock

	// RejectBadGenesis indicates the header declares a zero PrevBlock
	// (claiming to be a network genesis) but its hash does not match the
	// network's actual genesis hash.
	RejectBadGenesis

	// RejectGenesisViaAccept indicates the header is the network's own
	// genesis header arriving through the normal accept path rather than
	// chain initialization; harmless, but not a fresh acceptance.
	RejectGenesisViaAccept

	// RejectDuplicate indicates the header is already known and valid.
	RejectDuplicate

	// RejectDuplicateInvalid indicates the header is already known and
	// was previously marked VALIDATION_FAILED or ANCESTOR_FAILED.
	RejectDuplicateInvalid
)

// String implements fmt.Stringer for RejectReason.
func (r RejectReason) String() string {
	switch r {
	case RejectNone:
		return "none"
	case RejectHighHash:
		return "high-hash"
	case RejectBadDiffBits:
		return "bad-diffbits"
	case RejectTimeTooOld:
		return "time-too-old"
	case RejectTimeTooNew:
		return "time-too-new"
	case RejectBadVersion:
		return "bad-version"
	case RejectPrevBlockUnknown:
		return "prev-blk-not-found"
	case RejectBadPrevBlock:
		return "bad-prevblk"
	case RejectBadGenesis:
		return "bad-genesis"
	case RejectGenesisViaAccept:
		return "genesis-via-accept"
	case RejectDuplicate:
		return "duplicate"
	case RejectDuplicateInvalid:
		return "duplicate-invalid"
	default:
		return "unknown"
	}
}

// ValidationState carries the outcome of a validation check. A zero-value
// ValidationState (Reason == RejectNone) is valid.
type ValidationState struct {
	Reason RejectReason
	Detail string
}

// Valid reports whether the state represents a passing check.
func (vs ValidationState) Valid() bool {
	return vs.Reason == RejectNone
}

// Error implements the error interface so a ValidationState can be
// returned directly from functions that otherwise use idiomatic error
// returns.
func (vs ValidationState) Error() string {
	if vs.Valid() {
		return "valid"
	}
	if vs.Detail != "" {
		return vs.Reason.String() + ": " + vs.Detail
	}
	return vs.Reason.String()
}

func invalid(reason RejectReason, detail string) ValidationState {
	return ValidationState{Reason: reason, Detail: detail}
}

// maxFutureBlockTime is how far into the future, relative to the adjusted
// local clock, a header's timestamp may be before it is rejected outright.
const maxFutureBlockTime = 2 * time.Hour

// minAcceptedHeaderVersion is the lowest header version this node
// considers valid.
const minAcceptedHeaderVersion = 1

// CheckHeaderCommitment performs the cheap, context-free PoW pre-filter: it
// checks only that the header's claimed hash meets its claimed bits,
// without recomputing the hash. It is intended for pipeline stage one,
// run before a header's parent linkage is even known.
func CheckHeaderCommitment(verifier pow.Verifier, header *wire.BlockHeader) ValidationState {
	if !verifier.CommitmentOK(header, header.Bits) {
		return invalid(RejectHighHash, "commitment hash does not meet claimed bits")
	}
	return ValidationState{}
}

// CheckHeader performs full context-free validation of a header: it
// recomputes and checks the PoW hash. The header version is checked by
// ContextualCheckHeader, not here. It does not consult the block index, so
// it makes no claim about the header's parent, difficulty, or timestamp
// ordering.
func CheckHeader(verifier pow.Verifier, header *wire.BlockHeader) ValidationState {
	if !verifier.FullOK(header, header.Bits) {
		return invalid(RejectHighHash, "full PoW check failed")
	}
	return ValidationState{}
}

// ContextualCheckHeader performs the checks that require knowledge of the
// header's position in the chain: required difficulty, median-time-past
// ordering, and future-time bounding against the supplied adjusted clock
// reading. prev is the header's parent node and anchor is the chain's
// fixed ASERT anchor node (ordinarily genesis); both must already be
// present in the block index.
func ContextualCheckHeader(params *chaincfg.Params, idx *blockIndex, header *wire.BlockHeader, prev, anchor *blockNode, adjustedTime time.Time) ValidationState {
	if header.Version < minAcceptedHeaderVersion {
		return invalid(RejectBadVersion, "header version below minimum accepted")
	}

	requiredBits := calcNextRequiredDifficulty(prev, anchor,
		int64(params.TargetSpacing/time.Second), params.ASERTHalfLife,
		params.PowLimit, params.PowLimitBits)
	if header.Bits != requiredBits {
		return invalid(RejectBadDiffBits, "bits does not match required ASERT difficulty")
	}

	medianTime, err := idx.CalcPastMedianTime(prev)
	if err != nil {
		return invalid(RejectTimeTooOld, err.Error())
	}
	if !header.Timestamp.After(medianTime) {
		return invalid(RejectTimeTooOld, "timestamp is not after median time past")
	}

	if header.Timestamp.After(adjustedTime.Add(maxFutureBlockTime)) {
		return invalid(RejectTimeTooNew, "timestamp too far in the future")
	}

	return ValidationState{}
}
