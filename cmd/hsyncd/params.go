// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2016 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"github.com/unicitynetwork/hsyncd/chaincfg"
)

// netParams groups a network's consensus parameters with the ancillary
// values cmd/hsyncd needs but that aren't consensus-critical: the control
// socket doesn't carry a port of its own (it's a unix datagram socket), so
// unlike the teacher's rpcPort field this only adds the data subdirectory
// name.
type netParams struct {
	*chaincfg.Params
	dataDirName string
}

var mainNetParams = netParams{
	Params:      chaincfg.MainNetParams(),
	dataDirName: "mainnet",
}

var testNetParams = netParams{
	Params:      chaincfg.TestNetParams(),
	dataDirName: "testnet",
}

var simNetParams = netParams{
	Params:      chaincfg.SimNetParams(),
	dataDirName: "simnet",
}

var regNetParams = netParams{
	Params:      chaincfg.RegNetParams(),
	dataDirName: "regnet",
}

// netByName resolves one of "mainnet", "testnet", "simnet", "regnet" (the
// config layer's --testnet/--simnet/--regnet flags feed this), returning
// nil for an unknown name.
func netByName(name string) *netParams {
	switch name {
	case "mainnet", "":
		return &mainNetParams
	case "testnet":
		return &testNetParams
	case "simnet":
		return &simNetParams
	case "regnet":
		return &regNetParams
	default:
		return nil
	}
}

// netName returns the directory name cmd/hsyncd appends to --datadir for
// this network, so mainnet/testnet/simnet/regnet data never collides.
func netName(p *netParams) string {
	return p.dataDirName
}
