package pack

import (
	"github.com/foundryvtt/foundryvtt-cli/internal/logstore"
	"github.com/foundryvtt/foundryvtt-cli/internal/sortedstore"
)

// RepairPack runs the backend's own recovery routine against a
// possibly-corrupted pack at src. The compile and extract paths never
// call this themselves; it exists for a caller to invoke explicitly
// after detecting a crash-damaged pack.
func RepairPack(src string, opts RepairOptions) error {
	if opts.Log {
		_, err := logstore.Repair(src)
		return err
	}
	return sortedstore.Repair(src)
}
