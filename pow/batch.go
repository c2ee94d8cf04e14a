// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pow

import (
	"runtime"
	"sync"

	"github.com/unicitynetwork/hsyncd/wire"
)

// VerifyCommitmentBatch runs the cheap commitment-mode check over headers
// using a bounded worker pool, fanning out across GOMAXPROCS workers. It
// returns the index of the first header that fails the check, or -1 if all
// headers pass. All workers complete before this call returns, satisfying
// the facade's requirement that PoW fan-out never outlive the caller's
// exclusive section.
func VerifyCommitmentBatch(v Verifier, headers []*wire.BlockHeader) int {
	return verifyBatch(headers, func(h *wire.BlockHeader) bool {
		return v.CommitmentOK(h, h.Bits)
	})
}

// VerifyFullBatch is the full-mode analogue of VerifyCommitmentBatch.
func VerifyFullBatch(v Verifier, headers []*wire.BlockHeader) int {
	return verifyBatch(headers, func(h *wire.BlockHeader) bool {
		return v.FullOK(h, h.Bits)
	})
}

func verifyBatch(headers []*wire.BlockHeader, check func(*wire.BlockHeader) bool) int {
	if len(headers) == 0 {
		return -1
	}

	results := make([]bool, len(headers))

	workers := runtime.GOMAXPROCS(0)
	if workers > len(headers) {
		workers = len(headers)
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	indexCh := make(chan int)
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range indexCh {
				results[i] = check(headers[i])
			}
		}()
	}
	for i := range headers {
		indexCh <- i
	}
	close(indexCh)
	wg.Wait()

	for i, ok := range results {
		if !ok {
			return i
		}
	}
	return -1
}
