// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package config implements cmd/hsyncd's command-line and INI-file
// configuration, following dcrd's own config.go convention: a struct of
// go-flags-tagged options, a pre-parse pass that only looks for
// --configfile/--datadir, then a full parse of the config file followed by
// the command line so flags always win over the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	flags "github.com/jessevdk/go-flags"

	"github.com/unicitynetwork/hsyncd/strutil"
)

const (
	defaultConfigFilename = "hsyncd.conf"
	defaultDataDirname    = "data"
	defaultLogFilename    = "hsyncd.log"
	defaultLogLevel       = "info"
	defaultListenPort     = "8444"
	defaultMaxOrphans     = 1000
)

// Config holds every configuration option cmd/hsyncd understands. Field
// tags follow jessevdk/go-flags conventions: "long" is the flag name with
// no leading dashes, "description" is the --help text.
type Config struct {
	ConfigFile string `short:"C" long:"configfile" description:"Path to configuration file"`
	DataDir    string `short:"b" long:"datadir" description:"Directory to store headers and data"`
	LogDir     string `long:"logdir" description:"Directory to log output"`

	TestNet bool `long:"testnet" description:"Use the test network"`
	SimNet  bool `long:"simnet" description:"Use the simulation test network"`
	RegNet  bool `long:"regnet" description:"Use the regression test network"`

	Listen       []string `long:"listen" description:"Add an interface/port to listen for connections (default all interfaces' default port)"`
	ConnectPeers []string `long:"connect" description:"Connect only to the specified peers at startup"`
	MaxPeers     int      `long:"maxpeers" description:"Max number of inbound and outbound peers (parsed but not applied; the peer table has no connection limit)"`
	MaxOrphans   int      `long:"maxorphans" description:"Max number of orphan headers to keep in memory (parsed but not applied; the orphan pool's cap is fixed at 1000)"`

	MaxHeadersFileSize string `long:"maxheadersfilesize" description:"Warn if the persisted header snapshot grows past this size (e.g. 50MiB)"`

	SuspiciousReorgDepth int64 `long:"suspiciousreorgdepth" description:"Override the network's suspicious-reorg depth (0 keeps the network default)"`

	DebugLevel string `long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical}"`

	NoFileLogging bool `long:"nofilelogging" description:"Disable logging to a log file"`
}

// defaultConfig returns a Config pre-populated with every default value,
// before any file or command-line flags are applied.
func defaultConfig() Config {
	return Config{
		ConfigFile: defaultConfigFilename,
		DataDir:    defaultDataDirname,
		MaxPeers:   125,
		MaxOrphans: defaultMaxOrphans,
		DebugLevel: defaultLogLevel,
	}
}

// LoadConfig parses the config file (if one exists) and then the command
// line over it, command-line flags winning on conflicts; it defaults
// --logdir to <datadir>/logs (the per-network data subdirectory is
// appended later, by cmd/hsyncd) and validates option
// values that go-flags' own tags can't express (mutually exclusive
// network-selection flags, a parseable --maxheadersfilesize).
func LoadConfig(appName string, args []string) (*Config, []string, error) {
	cfg := defaultConfig()

	// Pre-parse, ignoring unknown flags, purely to learn --configfile and
	// --datadir before the INI file is read (a later --datadir flag could
	// otherwise only take effect after the file it names has already been
	// read from the default location).
	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.Default|flags.IgnoreUnknown)
	if _, err := preParser.ParseArgs(args); err != nil {
		return nil, nil, err
	}
	if preCfg.DataDir != "" {
		cfg.DataDir = preCfg.DataDir
	}
	if preCfg.ConfigFile != "" {
		cfg.ConfigFile = preCfg.ConfigFile
	}

	configPath := cfg.ConfigFile
	if !filepath.IsAbs(configPath) {
		configPath = filepath.Join(cfg.DataDir, configPath)
	}
	if _, err := os.Stat(configPath); err == nil {
		fileParser := flags.NewParser(&cfg, flags.Default)
		if err := flags.NewIniParser(fileParser).ParseFile(configPath); err != nil {
			return nil, nil, fmt.Errorf("config: parse %s: %w", configPath, err)
		}
	}

	parser := flags.NewParser(&cfg, flags.Default)
	remainingArgs, err := parser.ParseArgs(args)
	if err != nil {
		return nil, nil, err
	}

	if err := validateNetworkFlags(&cfg); err != nil {
		return nil, nil, err
	}

	if cfg.MaxHeadersFileSize != "" {
		if _, err := strutil.ParseByteSize(cfg.MaxHeadersFileSize); err != nil {
			return nil, nil, fmt.Errorf("config: invalid --maxheadersfilesize: %w", err)
		}
	}

	if _, err := cfg.ListenAddrs(); err != nil {
		return nil, nil, fmt.Errorf("config: invalid --listen: %w", err)
	}
	if _, err := cfg.ConnectAddrs(); err != nil {
		return nil, nil, fmt.Errorf("config: invalid --connect: %w", err)
	}

	if cfg.LogDir == "" {
		cfg.LogDir = filepath.Join(cfg.DataDir, "logs")
	}

	return &cfg, remainingArgs, nil
}

func validateNetworkFlags(cfg *Config) error {
	count := 0
	for _, set := range []bool{cfg.TestNet, cfg.SimNet, cfg.RegNet} {
		if set {
			count++
		}
	}
	if count > 1 {
		return fmt.Errorf("config: --testnet, --simnet, and --regnet are mutually exclusive")
	}
	return nil
}

// NetworkName returns the network name selected by cfg's flags, defaulting
// to "mainnet".
func (cfg *Config) NetworkName() string {
	switch {
	case cfg.TestNet:
		return "testnet"
	case cfg.SimNet:
		return "simnet"
	case cfg.RegNet:
		return "regnet"
	default:
		return "mainnet"
	}
}

// LogFilePath returns the path cmd/hsyncd should pass to the log rotator.
func (cfg *Config) LogFilePath() string {
	return filepath.Join(cfg.LogDir, defaultLogFilename)
}

// ListenAddrs returns cfg.Listen normalized to always carry a port,
// defaulting to a single wildcard listener when none were configured. It
// returns an error if any --listen value isn't a valid numeric host:port
// address.
func (cfg *Config) ListenAddrs() ([]string, error) {
	if len(cfg.Listen) == 0 {
		addr, err := strutil.NormalizeAddress(":"+defaultListenPort, defaultListenPort)
		if err != nil {
			return nil, err
		}
		return []string{addr}, nil
	}
	addrs := make([]string, len(cfg.Listen))
	for i, a := range cfg.Listen {
		addr, err := strutil.NormalizeAddress(a, defaultListenPort)
		if err != nil {
			return nil, err
		}
		addrs[i] = addr
	}
	return addrs, nil
}

// ConnectAddrs returns cfg.ConnectPeers normalized to always carry a port.
// It returns an error if any --connect value isn't a valid numeric
// host:port address.
func (cfg *Config) ConnectAddrs() ([]string, error) {
	addrs := make([]string, len(cfg.ConnectPeers))
	for i, a := range cfg.ConnectPeers {
		addr, err := strutil.NormalizeAddress(a, defaultListenPort)
		if err != nil {
			return nil, err
		}
		addrs[i] = addr
	}
	return addrs, nil
}

// ControlSocketPath returns the path of the local control datagram socket
// for cfg's data directory.
func (cfg *Config) ControlSocketPath() string {
	return filepath.Join(cfg.DataDir, "node.sock")
}

// HeadersFilePath returns the path of the persisted header snapshot for
// cfg's data directory.
func (cfg *Config) HeadersFilePath() string {
	return filepath.Join(cfg.DataDir, "headers.json")
}
