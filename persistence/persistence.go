// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package persistence implements the on-disk header-graph snapshot: a
// single JSON file written atomically (temp file, fsync file, rename, fsync
// parent directory) and read back tolerantly, reinitializing from genesis
// on any missing-file or corrupt-data error rather than refusing to start.
package persistence

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SchemaVersion is the only snapshot format this package knows how to
// write or read. A file whose "version" field doesn't match is treated as
// corrupt by Load.
const SchemaVersion = 1

// NodeRecord is one entry in a Snapshot's node list: just enough of a
// blockNode to re-thread the DAG and its validation status on load. It
// intentionally omits the header fields irrelevant to chain selection
// (version, miner address, nonce, PoW commitment hash) — those are
// supplied again by the network the next time a peer headers-syncs past
// this height.
type NodeRecord struct {
	Hash   string `json:"hash"`
	Prev   string `json:"prev"`
	Height int64  `json:"height"`
	Time   int64  `json:"time"`
	Bits   uint32 `json:"bits"`
	Status uint8  `json:"status"`
	Work   string `json:"work"`
}

// Snapshot is the full persisted header graph.
type Snapshot struct {
	Version int          `json:"version"`
	Tip     string       `json:"tip"`
	Nodes   []NodeRecord `json:"nodes"`
}

// WriteAtomic serializes snap as indented JSON and installs it at path
// without ever leaving a partially-written file in its place: it writes to
// a uniquely-named temp file in the same directory, fsyncs the temp file,
// renames it over path, then fsyncs the containing directory so the rename
// itself survives a crash. The final file is permission 0600.
func WriteAtomic(path string, snap *Snapshot) error {
	dir := filepath.Dir(path)

	tmp, err := tempFile(dir)
	if err != nil {
		return fmt.Errorf("persistence: create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("persistence: marshal snapshot: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("persistence: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("persistence: fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("persistence: close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("persistence: chmod temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("persistence: rename temp file: %w", err)
	}

	if err := fsyncDir(dir); err != nil {
		return fmt.Errorf("persistence: fsync directory: %w", err)
	}
	return nil
}

// tempFile creates headers.json.tmp.<rand> in dir and returns it open for writing.
func tempFile(dir string) (*os.File, error) {
	var suffix [8]byte
	if _, err := rand.Read(suffix[:]); err != nil {
		return nil, err
	}
	name := filepath.Join(dir, "headers.json.tmp."+hex.EncodeToString(suffix[:]))
	return os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
}

// fsyncDir fsyncs a directory so a preceding rename within it is durable.
// Not supported on every platform (notably Windows), where it is a no-op.
func fsyncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	err = d.Sync()
	if isDirSyncUnsupported(err) {
		return nil
	}
	return err
}

// Load reads and parses the snapshot at path. Any error (missing file,
// unreadable, invalid JSON, unsupported schema version) is returned
// verbatim; callers reinitialize from genesis rather than treating this as
// fatal, per the persisted-snapshot's documented tolerant-reader contract.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("persistence: parse %s: %w", path, err)
	}
	if snap.Version != SchemaVersion {
		return nil, fmt.Errorf("persistence: %s has schema version %d, want %d", path, snap.Version, SchemaVersion)
	}
	if len(snap.Nodes) == 0 {
		return nil, fmt.Errorf("persistence: %s has no nodes", path)
	}
	return &snap, nil
}
