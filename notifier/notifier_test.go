// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package notifier

import "testing"

func TestBusDeliversInRegistrationOrder(t *testing.T) {
	bus := New()
	var order []int

	bus.OnChainTip(func(ChainTipEvent) { order = append(order, 1) })
	bus.OnChainTip(func(ChainTipEvent) { order = append(order, 2) })
	bus.OnChainTip(func(ChainTipEvent) { order = append(order, 3) })

	bus.NotifyChainTip(ChainTipEvent{Height: 10})

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("unexpected delivery order: %v", order)
	}
}

func TestSubscriptionUnsubscribe(t *testing.T) {
	bus := New()
	calls := 0
	sub := bus.OnSuspiciousReorg(func(SuspiciousReorgEvent) { calls++ })

	bus.NotifySuspiciousReorg(SuspiciousReorgEvent{Depth: 7, MaxAllowed: 6})
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}

	sub.Unsubscribe()
	bus.NotifySuspiciousReorg(SuspiciousReorgEvent{Depth: 8, MaxAllowed: 6})
	if calls != 1 {
		t.Fatalf("expected call count to stay at 1 after unsubscribe, got %d", calls)
	}

	sub.Unsubscribe() // idempotent
}

func TestTopicsAreIndependent(t *testing.T) {
	bus := New()
	var connected, disconnected int
	bus.OnBlockConnected(func(BlockConnectedEvent) { connected++ })
	bus.OnBlockDisconnected(func(BlockDisconnectedEvent) { disconnected++ })

	bus.NotifyBlockConnected(BlockConnectedEvent{})
	if connected != 1 || disconnected != 0 {
		t.Fatalf("expected only the connected topic to fire, got connected=%d disconnected=%d", connected, disconnected)
	}
}
