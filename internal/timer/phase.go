// Package timer drives the pipeline's rotating-phase schedule
// (trends -> orders -> profit -> orders), persisting the current
// phase index to a small state file between invocations.
package timer

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// phaseCount is the length of the trends -> orders -> profit -> orders
// rotation.
const phaseCount = 4

const (
	phaseTrends  = 0
	phaseOrders1 = 1
	phaseProfit  = 2
	phaseOrders2 = 3
)

// readPhase loads the persisted phase index from path. A missing file
// or a value that fails to parse as an integer in [0, phaseCount) is
// treated as phase 0, restarting the rotation rather than failing.
func readPhase(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}

	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || n < 0 || n >= phaseCount {
		return 0
	}
	return n
}

// writePhase persists phase to path via write-temp-then-rename so a
// crash between the two never leaves a half-written state file.
func writePhase(path string, phase int) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".timer-daemon-state-*")
	if err != nil {
		return fmt.Errorf("timer: create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(strconv.Itoa(phase)); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("timer: write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("timer: close temp state file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("timer: rename state file: %w", err)
	}
	return nil
}
