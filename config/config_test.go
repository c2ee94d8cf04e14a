// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, _, err := LoadConfig("hsyncd", []string{"--datadir", dir})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.NetworkName() != "mainnet" {
		t.Errorf("NetworkName() = %q, want mainnet", cfg.NetworkName())
	}
	if cfg.MaxPeers != 125 {
		t.Errorf("MaxPeers = %d, want 125", cfg.MaxPeers)
	}
	wantHeaders := filepath.Join(dir, "headers.json")
	if got := cfg.HeadersFilePath(); got != wantHeaders {
		t.Errorf("HeadersFilePath() = %q, want %q", got, wantHeaders)
	}
}

func TestLoadConfigRejectsMultipleNetworks(t *testing.T) {
	dir := t.TempDir()
	_, _, err := LoadConfig("hsyncd", []string{"--datadir", dir, "--testnet", "--simnet"})
	if err == nil {
		t.Fatalf("expected an error for --testnet combined with --simnet")
	}
}

func TestLoadConfigReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	confPath := filepath.Join(dir, "hsyncd.conf")
	if err := os.WriteFile(confPath, []byte("maxpeers=8\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, _, err := LoadConfig("hsyncd", []string{"--datadir", dir})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.MaxPeers != 8 {
		t.Errorf("MaxPeers = %d, want 8 (from config file)", cfg.MaxPeers)
	}
}

func TestLoadConfigFlagOverridesFile(t *testing.T) {
	dir := t.TempDir()
	confPath := filepath.Join(dir, "hsyncd.conf")
	if err := os.WriteFile(confPath, []byte("maxpeers=8\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, _, err := LoadConfig("hsyncd", []string{"--datadir", dir, "--maxpeers", "20"})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.MaxPeers != 20 {
		t.Errorf("MaxPeers = %d, want 20 (flag overrides file)", cfg.MaxPeers)
	}
}

func TestLoadConfigRejectsBadByteSize(t *testing.T) {
	dir := t.TempDir()
	_, _, err := LoadConfig("hsyncd", []string{"--datadir", dir, "--maxheadersfilesize", "lots"})
	if err == nil {
		t.Fatalf("expected an error for an unparseable --maxheadersfilesize")
	}
}

func TestListenAddrsDefaultsToWildcard(t *testing.T) {
	dir := t.TempDir()
	cfg, _, err := LoadConfig("hsyncd", []string{"--datadir", dir})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	addrs, err := cfg.ListenAddrs()
	if err != nil {
		t.Fatalf("ListenAddrs: %v", err)
	}
	if len(addrs) != 1 || addrs[0] != ":8444" {
		t.Errorf("ListenAddrs() = %v, want [\":8444\"]", addrs)
	}
}

func TestLoadConfigRejectsBadListenAddr(t *testing.T) {
	dir := t.TempDir()
	_, _, err := LoadConfig("hsyncd", []string{"--datadir", dir, "--listen", "example.com:8444"})
	if err == nil {
		t.Fatalf("expected an error for a hostname --listen value")
	}
}

func TestConnectAddrsNormalizesPort(t *testing.T) {
	dir := t.TempDir()
	cfg, _, err := LoadConfig("hsyncd", []string{"--datadir", dir, "--connect", "127.0.0.1"})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	addrs, err := cfg.ConnectAddrs()
	if err != nil {
		t.Fatalf("ConnectAddrs: %v", err)
	}
	if len(addrs) != 1 || addrs[0] != "127.0.0.1:8444" {
		t.Errorf("ConnectAddrs() = %v, want [\"127.0.0.1:8444\"]", addrs)
	}
}
