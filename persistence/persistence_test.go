// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package persistence

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteAtomicThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "headers.json")

	snap := &Snapshot{
		Version: SchemaVersion,
		Tip:     "aa",
		Nodes: []NodeRecord{
			{Hash: "00", Prev: "", Height: 0, Time: 1000, Bits: 0x1d00ffff, Status: 1, Work: "01"},
			{Hash: "aa", Prev: "00", Height: 1, Time: 1600, Bits: 0x1d00ffff, Status: 1, Work: "02"},
		},
	}

	if err := WriteAtomic(path, snap); err != nil {
		t.Fatalf("WriteAtomic: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected permissions 0600, got %v", info.Mode().Perm())
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Tip != snap.Tip || len(loaded.Nodes) != len(snap.Nodes) {
		t.Fatalf("round trip mismatch: got %+v", loaded)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the final file to remain, found %d entries", len(entries))
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "headers.json")); err == nil {
		t.Fatalf("expected an error loading a nonexistent snapshot")
	}
}

func TestLoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "headers.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error loading corrupt JSON")
	}
}

func TestLoadWrongSchemaVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "headers.json")
	snap := &Snapshot{Version: 2, Tip: "aa", Nodes: []NodeRecord{{Hash: "aa"}}}
	if err := WriteAtomic(path, snap); err != nil {
		t.Fatalf("WriteAtomic: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error loading an unsupported schema version")
	}
}

func TestLoadEmptyNodeList(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "headers.json")
	snap := &Snapshot{Version: SchemaVersion, Tip: "aa"}
	if err := WriteAtomic(path, snap); err != nil {
		t.Fatalf("WriteAtomic: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error loading a snapshot with no nodes")
	}
}
