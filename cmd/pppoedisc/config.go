/*
config.go loads PPPoE discovery settings from a TOML file under a
[pppoe] table:

	[pppoe]
	iface = "eth0"
	service_name = "internet"
	ac_name = "isp-pop-1"
	host_uniq = [0x01, 0x02, 0x03, 0x04]
	timeout_ms = 5000
	max_attempts = 3
	persist = false
	print_ac_names = false
	skip_discovery = false
	kill_session = false
	debug = false

Every key is optional; flags passed on the command line override whatever
the file supplies. Adapted from katalix-go-l2tp/config/config.go's
LoadFile/ToMap/toString-family conversion idiom, since go-toml v1 decodes
into a map[string]interface{} tree rather than a typed struct.
*/
package main

import (
	"fmt"
	"time"

	"github.com/pelletier/go-toml"
)

// fileConfig holds whatever the [pppoe] table of a config file supplied;
// zero values mean "not set in the file".
type fileConfig struct {
	Iface          string
	ServiceName    string
	serviceNameSet bool
	ACName         string
	HostUniq       []byte
	Timeout        time.Duration
	MaxAttempts    int
	Persist        bool
	PrintACNames   bool
	SkipDiscovery  bool
	KillSession    bool
	Debug          bool
}

func toString(v interface{}) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("supplied value could not be parsed as a string")
}

func toBool(v interface{}) (bool, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	return false, fmt.Errorf("supplied value could not be parsed as a bool")
}

// go-toml's ToMap represents integers as either int64 or uint64 depending
// on sign, so callers must check both (katalix-go-l2tp/config/config.go's
// toUint32 does the same).
func toInt(v interface{}) (int, error) {
	if i, ok := v.(int64); ok {
		return int(i), nil
	}
	if u, ok := v.(uint64); ok {
		return int(u), nil
	}
	return 0, fmt.Errorf("unexpected %T value %v", v, v)
}

func toByte(v interface{}) (byte, error) {
	i, err := toInt(v)
	if err != nil {
		return 0, err
	}
	if i < 0 || i > 0xff {
		return 0, fmt.Errorf("value %#x out of range", i)
	}
	return byte(i), nil
}

func toBytes(v interface{}) ([]byte, error) {
	items, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected array value")
	}
	out := make([]byte, 0, len(items))
	for _, item := range items {
		b, err := toByte(item)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func newFileConfig(m map[string]interface{}) (*fileConfig, error) {
	fc := &fileConfig{}
	pppoeTable, ok := m["pppoe"]
	if !ok {
		return fc, nil
	}
	pppoeMap, ok := pppoeTable.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("'pppoe' must be a table, e.g. '[pppoe]'")
	}

	for k, v := range pppoeMap {
		var err error
		switch k {
		case "iface":
			fc.Iface, err = toString(v)
		case "service_name":
			fc.ServiceName, err = toString(v)
			fc.serviceNameSet = err == nil
		case "ac_name":
			fc.ACName, err = toString(v)
		case "host_uniq":
			fc.HostUniq, err = toBytes(v)
		case "timeout_ms":
			var ms int
			ms, err = toInt(v)
			fc.Timeout = time.Duration(ms) * time.Millisecond
		case "max_attempts":
			fc.MaxAttempts, err = toInt(v)
		case "persist":
			fc.Persist, err = toBool(v)
		case "print_ac_names":
			fc.PrintACNames, err = toBool(v)
		case "skip_discovery":
			fc.SkipDiscovery, err = toBool(v)
		case "kill_session":
			fc.KillSession, err = toBool(v)
		case "debug":
			fc.Debug, err = toBool(v)
		default:
			return nil, fmt.Errorf("unrecognised parameter %q in [pppoe]", k)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to process %q: %w", k, err)
		}
	}
	return fc, nil
}

// loadFileConfig loads and parses a [pppoe] table from a TOML file.
func loadFileConfig(path string) (*fileConfig, error) {
	tree, err := toml.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	return newFileConfig(tree.ToMap())
}
