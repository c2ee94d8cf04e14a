// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netsync

import "github.com/decred/dcrd/chaincfg/chainhash"

// PeerID identifies a connection to the header-sync manager. The manager
// never interprets it beyond equality and map-keying; the transport layer
// owns the actual socket behind it.
type PeerID int32

// MisbehaviorKind enumerates the fixed set of reportable protocol
// violations from spec.md §4.6. The set is closed: PeerMisbehaviorAdapter
// implementations may score each kind differently, but the manager never
// invents a new one.
type MisbehaviorKind int

const (
	MisbehaviorOversizedMessage MisbehaviorKind = iota
	MisbehaviorInvalidPoW
	MisbehaviorNonContinuous
	MisbehaviorInvalidHeader
	MisbehaviorTooManyOrphans
	MisbehaviorUnconnectingHeaders
)

// String implements fmt.Stringer for MisbehaviorKind.
func (k MisbehaviorKind) String() string {
	switch k {
	case MisbehaviorOversizedMessage:
		return "oversized-message"
	case MisbehaviorInvalidPoW:
		return "invalid-pow"
	case MisbehaviorNonContinuous:
		return "non-continuous"
	case MisbehaviorInvalidHeader:
		return "invalid-header"
	case MisbehaviorTooManyOrphans:
		return "too-many-orphans"
	case MisbehaviorUnconnectingHeaders:
		return "unconnecting-headers"
	default:
		return "unknown"
	}
}

// PermissionFlags is a bitmask of per-peer permissions the sync manager
// consults. Only Download is meaningful to this module; a full peer layer
// would carry others (NoBan, Relay, ...) behind the same type.
type PermissionFlags uint32

// PermissionDownload lets a peer receive headers via GETHEADERS even while
// our own active chain has less than the network's minimum chain work.
const PermissionDownload PermissionFlags = 1 << 0

// PeerMisbehaviorAdapter is the narrow interface the header-sync manager
// uses to query and discipline peers, matching spec.md §4.6 exactly. The
// manager owns no peer state itself; everything peer-shaped is reached
// through this interface so the manager can be tested without a real
// transport (see the fake adapter in manager_test.go) and so a full
// transport package can supply its own implementation (this module ships
// addrpeer.Table as the default).
type PeerMisbehaviorAdapter interface {
	// OutboundPeers returns the IDs of currently connected outbound
	// peers, in no particular order.
	OutboundPeers() []PeerID

	// IsFeeler reports whether peer is a short-lived address-probing
	// connection that should never be chosen as a sync peer.
	IsFeeler(peer PeerID) bool

	// SuccessfullyConnected reports whether the version/verack handshake
	// with peer has completed.
	SuccessfullyConnected(peer PeerID) bool

	// SyncStarted/SetSyncStarted track the sticky "we have already
	// attempted to sync from this peer" flag, which persists across a
	// single empty-HEADERS reply and is only cleared by disconnect.
	SyncStarted(peer PeerID) bool
	SetSyncStarted(peer PeerID, started bool)

	// ReportMisbehavior records one instance of kind against peer.
	ReportMisbehavior(peer PeerID, kind MisbehaviorKind)

	// ShouldDisconnect reports whether peer's accumulated misbehavior
	// has crossed the adapter's disconnect threshold.
	ShouldDisconnect(peer PeerID) bool

	// RemovePeer disconnects peer immediately.
	RemovePeer(peer PeerID)

	// Permissions returns peer's granted permission flags.
	Permissions(peer PeerID) PermissionFlags

	// HasInvalidHeaderHash/NoteInvalidHeaderHash implement the
	// per-peer, per-hash dedup that limits an invalid header to at most
	// one misbehavior report no matter how many times it is resent.
	HasInvalidHeaderHash(peer PeerID, hash chainhash.Hash) bool
	NoteInvalidHeaderHash(peer PeerID, hash chainhash.Hash)

	// UnconnectingHeadersCount/IncrementUnconnectingHeaders/
	// ResetUnconnectingHeaders track the unconnecting-headers gate's
	// per-peer counter.
	UnconnectingHeadersCount(peer PeerID) int
	IncrementUnconnectingHeaders(peer PeerID)
	ResetUnconnectingHeaders(peer PeerID)
}
