// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package persistence

import "runtime"

// isDirSyncUnsupported reports whether err is the platform telling us that
// fsyncing a directory handle isn't a thing, rather than a real I/O
// failure. Windows (and some exotic filesystems) fall into this bucket;
// on Linux/macOS a non-nil err here is a genuine problem.
func isDirSyncUnsupported(err error) bool {
	return err != nil && runtime.GOOS == "windows"
}
