// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package notifier implements the process-wide, topic-indexed publish/
// subscribe bus the chainstate facade uses to announce chain-state
// transitions. It is a singleton resource: callers construct one at
// startup, before the chainstate facade, and every subscriber is invoked
// synchronously and in the delivery order the facade guarantees (see
// SPEC_FULL.md §5).
package notifier

import (
	"sync"

	"github.com/unicitynetwork/hsyncd/blockchain"
)

// BlockConnectedEvent is delivered once per header newly connected to the
// active chain, oldest-first.
type BlockConnectedEvent struct {
	Node *blockchain.Node
}

// BlockDisconnectedEvent is delivered once per header disconnected from
// the active chain during a reorg, newest-first.
type BlockDisconnectedEvent struct {
	Node *blockchain.Node
}

// ChainTipEvent is delivered once per completed activation, after every
// connect/disconnect event for that activation has been delivered.
type ChainTipEvent struct {
	Node   *blockchain.Node
	Height int64
}

// SuspiciousReorgEvent is delivered when a candidate reorg's depth meets
// or exceeds the network's suspicious-reorg threshold and activation was
// aborted.
type SuspiciousReorgEvent struct {
	Depth      int64
	MaxAllowed int64
}

// NetworkExpiredEvent is delivered when a connected block's height
// exceeds the network's configured expiration height.
type NetworkExpiredEvent struct {
	CurrentHeight    int64
	ExpirationHeight int64
}

// Subscription is an RAII-style handle: calling Unsubscribe removes the
// associated callback from the bus. Unsubscribe is idempotent.
type Subscription struct {
	bus   *Bus
	topic topic
	id    uint64
}

// Unsubscribe removes the callback this subscription was issued for.
func (s *Subscription) Unsubscribe() {
	s.bus.unsubscribe(s.topic, s.id)
}

type topic int

const (
	topicBlockConnected topic = iota
	topicBlockDisconnected
	topicChainTip
	topicSuspiciousReorg
	topicNetworkExpired
)

type callbackEntry struct {
	id uint64
	fn interface{}
}

// Bus is the process-wide notification bus. The zero value is not usable;
// construct one with New.
type Bus struct {
	mu       sync.Mutex
	nextID   uint64
	handlers map[topic][]callbackEntry
}

// New returns an empty notification bus.
func New() *Bus {
	return &Bus{handlers: make(map[topic][]callbackEntry)}
}

func (b *Bus) subscribe(t topic, fn interface{}) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.handlers[t] = append(b.handlers[t], callbackEntry{id: id, fn: fn})
	return &Subscription{bus: b, topic: t, id: id}
}

func (b *Bus) unsubscribe(t topic, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := b.handlers[t]
	for i, e := range entries {
		if e.id == id {
			b.handlers[t] = append(entries[:i], entries[i+1:]...)
			return
		}
	}
}

func (b *Bus) snapshot(t topic) []interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := b.handlers[t]
	fns := make([]interface{}, len(entries))
	for i, e := range entries {
		fns[i] = e.fn
	}
	return fns
}

// OnBlockConnected registers fn to be called synchronously for every
// BlockConnectedEvent.
func (b *Bus) OnBlockConnected(fn func(BlockConnectedEvent)) *Subscription {
	return b.subscribe(topicBlockConnected, fn)
}

// OnBlockDisconnected registers fn to be called synchronously for every
// BlockDisconnectedEvent.
func (b *Bus) OnBlockDisconnected(fn func(BlockDisconnectedEvent)) *Subscription {
	return b.subscribe(topicBlockDisconnected, fn)
}

// OnChainTip registers fn to be called synchronously for every
// ChainTipEvent.
func (b *Bus) OnChainTip(fn func(ChainTipEvent)) *Subscription {
	return b.subscribe(topicChainTip, fn)
}

// OnSuspiciousReorg registers fn to be called synchronously for every
// SuspiciousReorgEvent.
func (b *Bus) OnSuspiciousReorg(fn func(SuspiciousReorgEvent)) *Subscription {
	return b.subscribe(topicSuspiciousReorg, fn)
}

// OnNetworkExpired registers fn to be called synchronously for every
// NetworkExpiredEvent.
func (b *Bus) OnNetworkExpired(fn func(NetworkExpiredEvent)) *Subscription {
	return b.subscribe(topicNetworkExpired, fn)
}

// NotifyBlockConnected delivers ev to every current BlockConnected
// subscriber, in registration order.
func (b *Bus) NotifyBlockConnected(ev BlockConnectedEvent) {
	for _, fn := range b.snapshot(topicBlockConnected) {
		fn.(func(BlockConnectedEvent))(ev)
	}
}

// NotifyBlockDisconnected delivers ev to every current BlockDisconnected
// subscriber, in registration order.
func (b *Bus) NotifyBlockDisconnected(ev BlockDisconnectedEvent) {
	for _, fn := range b.snapshot(topicBlockDisconnected) {
		fn.(func(BlockDisconnectedEvent))(ev)
	}
}

// NotifyChainTip delivers ev to every current ChainTip subscriber.
func (b *Bus) NotifyChainTip(ev ChainTipEvent) {
	for _, fn := range b.snapshot(topicChainTip) {
		fn.(func(ChainTipEvent))(ev)
	}
}

// NotifySuspiciousReorg delivers ev to every current SuspiciousReorg
// subscriber.
func (b *Bus) NotifySuspiciousReorg(ev SuspiciousReorgEvent) {
	for _, fn := range b.snapshot(topicSuspiciousReorg) {
		fn.(func(SuspiciousReorgEvent))(ev)
	}
}

// NotifyNetworkExpired delivers ev to every current NetworkExpired
// subscriber.
func (b *Bus) NotifyNetworkExpired(ev NetworkExpiredEvent) {
	for _, fn := range b.snapshot(topicNetworkExpired) {
		fn.(func(NetworkExpiredEvent))(ev)
	}
}
