// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package clock provides the process-global mockable wall clock used
// everywhere the spec says "now()". Production code reads the real clock;
// tests call SetMock to pin time and make stall timers, MTP checks, and IBD
// transitions deterministic.
package clock

import (
	"sync/atomic"
	"time"
)

var mockUnixNano atomic.Int64

// Now returns the current time. When a mock time has been set via SetMock
// it is returned instead of the real wall clock.
func Now() time.Time {
	if ns := mockUnixNano.Load(); ns != 0 {
		return time.Unix(0, ns)
	}
	return time.Now()
}

// SetMock pins Now to return t until ClearMock is called. Intended for
// tests only.
func SetMock(t time.Time) {
	mockUnixNano.Store(t.UnixNano())
}

// ClearMock restores Now to the real wall clock.
func ClearMock() {
	mockUnixNano.Store(0)
}
