// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package netaddr provides the minimal peer-network-address value type the
// rest of the module needs: enough to dial and gossip a peer without the
// full address-relay/discovery machinery a production node would also
// carry (out of scope here).
package netaddr

import (
	"fmt"
	"net"
	"time"
)

// Services is a bitfield of protocol services a peer advertises.
type Services uint64

// NetAddress is a single peer's dialable address plus the bookkeeping the
// (otherwise out-of-scope) address manager would need: when it was last
// seen advertising these services.
type NetAddress struct {
	IP        net.IP
	Port      uint16
	Services  Services
	Timestamp time.Time
}

// String renders the address as "host:port", using brackets around the
// host when it is an IPv6 literal.
func (a NetAddress) String() string {
	return net.JoinHostPort(a.IP.String(), fmt.Sprintf("%d", a.Port))
}

// Key returns a string uniquely identifying the address for use as a map
// key in an address-book-style cache, ignoring Services/Timestamp.
func (a NetAddress) Key() string {
	return a.String()
}
