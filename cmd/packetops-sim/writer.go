package main

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"packetops-sim/internal/config"
	"packetops-sim/internal/sim"
)

// newWriters sets up record writers based on flags and env vars.
// It returns the writer and a cleanup function to close any resources.
func newWriters(cfg *config.SimulationConfig, printOnly, tui bool) (sim.RecordWriter, func(), error) {
	cleanup := func() {}

	if printOnly {
		return sim.NewStdoutWriter(), cleanup, nil
	}

	writers := []sim.RecordWriter{}
	closers := []func(){}

	if cfg.LogPath != "" {
		fw, err := sim.NewFileWriter(cfg.LogPath)
		if err != nil {
			return nil, nil, err
		}
		writers = append(writers, fw)
		closers = append(closers, func() { fw.Close() })
	}

	if endpoint := os.Getenv("GREPTIMEDB_ENDPOINT"); endpoint != "" {
		host, port, err := splitEndpoint(endpoint)
		if err != nil {
			return nil, nil, err
		}
		database := os.Getenv("GREPTIMEDB_DATABASE")
		if database == "" {
			database = "public"
		}
		gw, err := sim.NewGreptimeDBWriter(host, port, database, os.Getenv("GREPTIMEDB_TABLE"))
		if err != nil {
			return nil, nil, err
		}
		writers = append(writers, gw)
	}

	if tui {
		tw := sim.NewTUIWriter(cfg.Hostname)
		writers = append(writers, tw)
		closers = append(closers, func() { tw.Close() })
	}

	if len(writers) == 0 {
		return sim.NewStdoutWriter(), cleanup, nil
	}

	cleanup = func() {
		for _, c := range closers {
			c()
		}
	}
	if len(writers) == 1 {
		return writers[0], cleanup, nil
	}
	return sim.NewMultiWriter(writers...), cleanup, nil
}

// splitEndpoint parses "host:port" with a default GreptimeDB gRPC port of 4001.
func splitEndpoint(endpoint string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		return endpoint, 4001, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid GREPTIMEDB_ENDPOINT port %q: %w", portStr, err)
	}
	return host, port, nil
}
