// Package config resolves run settings from the legacy parameter file, an
// optional YAML file and command-line flags.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

var ErrInvalidConfig = errors.New("invalid configuration")

const (
	allInstances   = "all_instances"
	someInstances  = "some_instances"
	allAlgorithms  = "all_algorithms"
	someAlgorithms = "some_algorithms"
)

// Params are the file names carried by a parameter file. Empty Instances or
// Algorithms means every name in the results log is used.
type Params struct {
	Results    string `yaml:"results"`
	Instances  string `yaml:"instances,omitempty"`
	Algorithms string `yaml:"algorithms,omitempty"`
	Stats      string `yaml:"stats"`
}

// ReadParameterFile parses whitespace-separated tokens in strict order:
// results file, all_instances or some_instances <list>, all_algorithms or
// some_algorithms <list>, statistics output file. Line breaks are not
// significant.
func ReadParameterFile(r io.Reader) (Params, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)
	next := func() string {
		if scanner.Scan() {
			return scanner.Text()
		}
		return ""
	}

	var p Params
	if p.Results = next(); p.Results == "" {
		return Params{}, fmt.Errorf("%w: results file name missing in parameter file", ErrInvalidConfig)
	}

	switch set := next(); set {
	case allInstances:
	case someInstances:
		if p.Instances = next(); p.Instances == "" {
			return Params{}, fmt.Errorf("%w: instance list file name missing in parameter file", ErrInvalidConfig)
		}
	default:
		return Params{}, fmt.Errorf("%w: %q or %q missing in parameter file, got %q", ErrInvalidConfig, allInstances, someInstances, set)
	}

	switch set := next(); set {
	case allAlgorithms:
	case someAlgorithms:
		if p.Algorithms = next(); p.Algorithms == "" {
			return Params{}, fmt.Errorf("%w: algorithm list file name missing in parameter file", ErrInvalidConfig)
		}
	default:
		return Params{}, fmt.Errorf("%w: %q or %q missing in parameter file, got %q", ErrInvalidConfig, allAlgorithms, someAlgorithms, set)
	}

	if p.Stats = next(); p.Stats == "" {
		return Params{}, fmt.Errorf("%w: output file name missing in parameter file", ErrInvalidConfig)
	}
	if err := scanner.Err(); err != nil {
		return Params{}, fmt.Errorf("read parameter file: %w", err)
	}
	return p, nil
}
