package telemetry

import (
	"context"
	"log/slog"

	"sentinelx/internal/model"
)

// SensorSource is the injected capability that supplies accelerometer+GPS
// samples. The OS sensor adapter, the UDP feed, and tests all satisfy it.
type SensorSource interface {
	Samples() <-chan model.SensorSample
}

// ChannelSource adapts a plain channel into a SensorSource.
type ChannelSource chan model.SensorSample

func (c ChannelSource) Samples() <-chan model.SensorSample {
	return c
}

// sendNonBlocking pushes a sample toward the monitor, dropping it when the
// buffer is full. Sensor feeds must never stall on downstream consumers.
func sendNonBlocking(ctx context.Context, out chan<- model.SensorSample, s model.SensorSample, logger *slog.Logger) bool {
	select {
	case out <- s:
		return true
	case <-ctx.Done():
		return false
	default:
		if logger != nil {
			logger.Warn("sample channel full, dropping sample", "timestamp", s.Timestamp)
		}
		return false
	}
}
