// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package addrpeer

import (
	"testing"

	"github.com/decred/dcrd/chaincfg/chainhash"

	"github.com/unicitynetwork/hsyncd/netaddr"
	"github.com/unicitynetwork/hsyncd/netsync"
)

func TestOutboundPeersAndFeeler(t *testing.T) {
	table := New()
	table.AddPeer(1, netaddr.NetAddress{}, true, false)
	table.AddPeer(2, netaddr.NetAddress{}, false, false)
	table.AddPeer(3, netaddr.NetAddress{}, true, true)

	outbound := table.OutboundPeers()
	if len(outbound) != 2 {
		t.Fatalf("expected 2 outbound peers, got %d", len(outbound))
	}
	if !table.IsFeeler(3) {
		t.Fatalf("peer 3 should be a feeler")
	}
	if table.IsFeeler(1) {
		t.Fatalf("peer 1 should not be a feeler")
	}
}

func TestMisbehaviorDisconnectThreshold(t *testing.T) {
	table := New()
	table.AddPeer(1, netaddr.NetAddress{}, true, false)

	for i := 0; i < 1; i++ {
		table.ReportMisbehavior(1, netsync.MisbehaviorInvalidHeader)
	}
	if table.ShouldDisconnect(1) {
		t.Fatalf("should not yet disconnect after 1 invalid-header report (50 total)")
	}

	table.ReportMisbehavior(1, netsync.MisbehaviorOversizedMessage)
	if !table.ShouldDisconnect(1) {
		t.Fatalf("expected disconnect once cumulative score reaches the threshold")
	}
}

func TestUnconnectingHeadersCounterContributesToDisconnect(t *testing.T) {
	table := New()
	table.AddPeer(1, netaddr.NetAddress{}, true, false)

	for i := 0; i < 9; i++ {
		table.IncrementUnconnectingHeaders(1)
	}
	if table.ShouldDisconnect(1) {
		t.Fatalf("should not disconnect before the 10th unconnecting-headers report")
	}
	table.IncrementUnconnectingHeaders(1)
	if !table.ShouldDisconnect(1) {
		t.Fatalf("expected disconnect on the 10th unconnecting-headers report")
	}
	if table.UnconnectingHeadersCount(1) != 10 {
		t.Fatalf("expected counter 10, got %d", table.UnconnectingHeadersCount(1))
	}

	table.ResetUnconnectingHeaders(1)
	if table.ShouldDisconnect(1) {
		t.Fatalf("expected reset to clear the disconnect condition")
	}
}

func TestInvalidHeaderHashDedup(t *testing.T) {
	table := New()
	table.AddPeer(1, netaddr.NetAddress{}, true, false)

	var hash chainhash.Hash
	hash[0] = 0x42

	if table.HasInvalidHeaderHash(1, hash) {
		t.Fatalf("hash should not be known yet")
	}
	table.NoteInvalidHeaderHash(1, hash)
	if !table.HasInvalidHeaderHash(1, hash) {
		t.Fatalf("hash should now be known")
	}
}

func TestPermissionsAndRemovedPeer(t *testing.T) {
	table := New()
	p := table.AddPeer(1, netaddr.NetAddress{}, true, false)
	p.GrantDownload()

	if table.Permissions(1)&netsync.PermissionDownload == 0 {
		t.Fatalf("expected download permission to be granted")
	}

	table.RemovePeer(1)
	if table.Permissions(1) != 0 {
		t.Fatalf("removed peer should report no permissions")
	}
}
