// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package observe

import (
	"go.uber.org/zap"

	"github.com/abhilashpatra04/Deepresercher/pkg/types"
)

// ZapObserver logs every step event as one structured entry.
type ZapObserver struct {
	log *zap.Logger
}

// NewZap returns an observer that writes step events to log.
func NewZap(log *zap.Logger) *ZapObserver {
	return &ZapObserver{log: log}
}

func (o *ZapObserver) OnStep(name string, paradigm types.Paradigm, status string, details map[string]any) {
	fields := []zap.Field{
		zap.String("step", name),
		zap.String("paradigm", string(paradigm)),
		zap.String("status", status),
	}
	if len(details) > 0 {
		fields = append(fields, zap.Any("details", details))
	}
	o.log.Info("pipeline step", fields...)
}
