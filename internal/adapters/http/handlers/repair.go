package handlers

import (
	"context"
	"log/slog"

	"github.com/sylvester-francis/sensu-api/core/ports"
)

// repairer prunes dangling set members discovered during enumeration.
// Removal is fire-and-forget: responses never wait on it and its failure
// is only logged.
type repairer struct {
	repairKV     ports.Registry
	repairLogger *slog.Logger
}

func newRepairer(kv ports.Registry, logger *slog.Logger) repairer {
	if logger == nil {
		logger = slog.Default()
	}
	return repairer{repairKV: kv, repairLogger: logger}
}

// repair removes member from the set at setKey in the background.
func (r repairer) repair(setKey, member string) {
	go func() {
		if err := r.repairKV.SRem(context.Background(), setKey, member); err != nil {
			r.repairLogger.Error("set self-repair failed",
				slog.String("set", setKey),
				slog.String("member", member),
				slog.String("error", err.Error()),
			)
		}
	}()
}
