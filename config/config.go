// Package config holds the options recognized by the core parsing pipeline
// and the validation that must pass before a run starts.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Options enumerates every configuration value the core reads: a plain
// struct populated by the CLI layer, with no external parsing library
// involved at this level.
type Options struct {
	Primer5 []byte
	Primer3 []byte

	RandomizedRegionSize      int // exact size; 0 means unset, takes precedence when set
	RandomizedRegionLowerBound int
	RandomizedRegionUpperBound int

	IsPerFile                  bool
	OnlyRandomizedRegionInData bool
	BatchMode                  bool
	StoreReverseComplement     bool
	CheckReverseComplement     bool

	Barcodes5Prime [][]byte
	Barcodes3Prime [][]byte

	PrimerTolerance  int
	BarcodeTolerance int

	PairedEndMinOverlap    int
	PairedEndMaxMutations  int
	PairedEndMaxScoreValue int

	BlockingQueueSize int
	MaxCores          int

	ForwardFiles []string
	ReverseFiles []string

	// CycleNames lists the selection cycles in round order, round 0 first.
	// Barcodes5Prime/Barcodes3Prime, when present, are aligned by index
	// with CycleNames.
	CycleNames []string
}

// HasExactSize reports whether an exact randomized-region size was
// configured; it takes precedence over the lower/upper bound pair.
func (o Options) HasExactSize() bool {
	return o.RandomizedRegionSize > 0
}

// Validate checks the configuration for the inconsistencies the core must
// reject at construction, returning a descriptive error naming the missing
// or inconsistent option. A nil return means the options are fit to run.
func Validate(o Options) error {
	if len(o.Primer5) == 0 {
		return fmt.Errorf("config: primer5 is required and was not specified")
	}

	if len(o.Primer3) == 0 && !o.HasExactSize() {
		return fmt.Errorf("config: neither 3' primer nor randomized region size specified; at least one is required for sequence extraction")
	}

	if !o.HasExactSize() {
		haveLower := o.RandomizedRegionLowerBound > 0
		haveUpper := o.RandomizedRegionUpperBound > 0
		if haveLower != haveUpper {
			return fmt.Errorf("config: both lower and upper bounds must be specified for randomized region size range")
		}
		if haveLower && haveUpper && o.RandomizedRegionLowerBound >= o.RandomizedRegionUpperBound {
			return fmt.Errorf("config: lower bound (%d) must be less than upper bound (%d) for randomized region size", o.RandomizedRegionLowerBound, o.RandomizedRegionUpperBound)
		}
	}

	if len(o.ReverseFiles) > 0 && len(o.ReverseFiles) != len(o.ForwardFiles) {
		return fmt.Errorf("config: forward file count (%d) does not match reverse file count (%d)", len(o.ForwardFiles), len(o.ReverseFiles))
	}

	if len(o.ForwardFiles) == 0 {
		return fmt.Errorf("config: at least one forward file must be listed")
	}

	return nil
}

// Load reads a `key = value` text configuration file, one setting per line,
// and returns the resulting Options after running Validate against them.
// Blank lines and lines starting with '#' are skipped. This is the only
// config.Options source the CLI uses; there is no per-flag override.
func Load(path string) (Options, error) {
	f, err := os.Open(path)
	if err != nil {
		return Options{}, fmt.Errorf("config: opening %s: %w", path, err)
	}
	defer f.Close()

	var o Options
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			return Options{}, fmt.Errorf("config: %s: malformed line %q, expected key = value", path, line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if err := setField(&o, key, value); err != nil {
			return Options{}, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return Options{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := Validate(o); err != nil {
		return Options{}, err
	}
	return o, nil
}

func setField(o *Options, key, value string) error {
	switch key {
	case "primer5":
		o.Primer5 = []byte(value)
	case "primer3":
		o.Primer3 = []byte(value)
	case "randomizedRegionSize":
		return setInt(&o.RandomizedRegionSize, key, value)
	case "randomizedRegionSizeLowerBound":
		return setInt(&o.RandomizedRegionLowerBound, key, value)
	case "randomizedRegionSizeUpperBound":
		return setInt(&o.RandomizedRegionUpperBound, key, value)
	case "isPerFile":
		return setBool(&o.IsPerFile, key, value)
	case "onlyRandomizedRegionInData":
		return setBool(&o.OnlyRandomizedRegionInData, key, value)
	case "batchMode":
		return setBool(&o.BatchMode, key, value)
	case "storeReverseComplement":
		return setBool(&o.StoreReverseComplement, key, value)
	case "checkReverseComplement":
		return setBool(&o.CheckReverseComplement, key, value)
	case "barcodes5Prime":
		o.Barcodes5Prime = splitBytes(value)
	case "barcodes3Prime":
		o.Barcodes3Prime = splitBytes(value)
	case "primerTolerance":
		return setInt(&o.PrimerTolerance, key, value)
	case "barcodeTolerance":
		return setInt(&o.BarcodeTolerance, key, value)
	case "pairedEndMinOverlap":
		return setInt(&o.PairedEndMinOverlap, key, value)
	case "pairedEndMaxMutations":
		return setInt(&o.PairedEndMaxMutations, key, value)
	case "pairedEndMaxScoreValue":
		return setInt(&o.PairedEndMaxScoreValue, key, value)
	case "blockingQueueSize":
		return setInt(&o.BlockingQueueSize, key, value)
	case "maxCores":
		return setInt(&o.MaxCores, key, value)
	case "forwardFiles":
		o.ForwardFiles = splitStrings(value)
	case "reverseFiles":
		o.ReverseFiles = splitStrings(value)
	case "cycleNames":
		o.CycleNames = splitStrings(value)
	default:
		return fmt.Errorf("unrecognized key %q", key)
	}
	return nil
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s: %q is not an integer", key, value)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s: %q is not a boolean", key, value)
	}
	*dst = b
	return nil
}

func splitStrings(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitBytes(value string) [][]byte {
	strs := splitStrings(value)
	if strs == nil {
		return nil
	}
	out := make([][]byte, len(strs))
	for i, s := range strs {
		out[i] = []byte(s)
	}
	return out
}
