package workers

import (
	"context"
	"log/slog"
	"os"
	goruntime "runtime"
	"time"

	"chat-hub/contract"
	"chat-hub/observability"

	"github.com/shirou/gopsutil/process"
)

// ProcessStatsWorker samples the server process and the session count into gauges.
type ProcessStatsWorker struct {
	log      *slog.Logger
	registry contract.IRegistry
	metrics  *observability.Metrics
	interval time.Duration
}

func NewProcessStatsWorker(log *slog.Logger, registry contract.IRegistry,
	metrics *observability.Metrics, interval time.Duration) *ProcessStatsWorker {
	return &ProcessStatsWorker{
		log:      log,
		registry: registry,
		metrics:  metrics,
		interval: interval,
	}
}

func (w *ProcessStatsWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping process stats")
			return nil
		case <-ticker.C:
			w.sample(p)
		}
	}
}

func (w *ProcessStatsWorker) sample(p *process.Process) {
	w.metrics.ActiveSessions.Set(float64(w.registry.Count()))
	w.metrics.Goroutines.Set(float64(goruntime.NumGoroutine()))

	memInfo, err := p.MemoryInfo()
	if err != nil {
		w.log.Error("Error while finding process ram usage", "err", err)
	} else {
		w.metrics.ProcessRSS.Set(float64(memInfo.RSS))
	}

	cpu, err := p.CPUPercent()
	if err != nil {
		w.log.Error("Error while finding process cpu usage", "err", err)
		return
	}
	w.metrics.ProcessCPU.Set(cpu)
}
