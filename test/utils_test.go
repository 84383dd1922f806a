package test

import (
	"context"
	"net"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ridedispatch/app"
	"github.com/kilianp07/ridedispatch/config"
	"github.com/kilianp07/ridedispatch/test/util"
)

const gridSize = 5

// gridConfig returns a config for a gridSize x gridSize grid graph with a
// JSONL dispatch log in a temp directory.
func gridConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	nodes, adj, err := util.WriteGridGraph(dir, gridSize)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Graph.NodesPath = nodes
	cfg.Graph.GraphPath = adj
	cfg.Logging.Path = filepath.Join(dir, "dispatch.log")
	cfg.Dispatch.AverageSpeedMPS = 10
	cfg.Fleet.PublishAssignments = true
	cfg.Log.Level = "warn"
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	return cfg
}

// startService runs svc on a random local port until the test ends and
// returns its base URL.
func startService(t *testing.T, svc *app.Service) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = svc.Serve(ctx, ln)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Errorf("service did not stop")
		}
		_ = svc.Close()
	})
	return "http://" + ln.Addr().String()
}

func gridPos(r, c int) string {
	return `{"lat":` + ftoa(util.GridOriginLat+float64(r)*util.GridStep) + `,"lon":` + ftoa(util.GridOriginLon+float64(c)*util.GridStep) + `}`
}

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
