package workers

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"chat-hub/mocks"
	"chat-hub/observability"

	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestProcessStatsWorker_Samples_Until_Cancelled(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	mockRegistry.EXPECT().Count().Return(3).MinTimes(1)
	metrics := observability.NewMetrics()

	worker := NewProcessStatsWorker(logs.GetLoggerFromLevel(slog.LevelError), mockRegistry, metrics, 10*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// A cancelled context is a clean stop
	req.NoError(worker.Run(ctx))

	req.Equal(float64(3), testutil.ToFloat64(metrics.ActiveSessions))
	req.Greater(testutil.ToFloat64(metrics.ProcessRSS), float64(0))
	req.Greater(testutil.ToFloat64(metrics.Goroutines), float64(0))
}
