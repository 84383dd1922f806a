// Package util provides helper functions shared across integration tests.
//
// WriteGridGraph writes a nodes.json/graph.json pair describing a small
// bidirectional grid.
//
// StartMosquitto launches a disposable Mosquitto broker in a Docker container
// for MQTT-based tests. It returns the broker URL and a cleanup function.
//
// WaitForMetric polls a Prometheus metrics endpoint until the desired metric
// appears in the output.
package util

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// Default timeouts for helper operations
	MosquittoReadyTimeout = 5 * time.Second
	MetricTimeout         = 5 * time.Second

	// GridOrigin is the position of node "0" in WriteGridGraph.
	GridOriginLat = 45.0
	GridOriginLon = 5.0
	// GridStep is the spacing in degrees between neighboring grid nodes.
	GridStep = 0.001

	pollInterval = 50 * time.Millisecond
)

// GridNodeID returns the id of the node at row r, column c of a grid of the
// given width.
func GridNodeID(r, c, width int) string { return fmt.Sprint(r*width + c) }

// WriteGridGraph writes a size x size grid into dir. Neighbors are connected
// both ways with a cost of 100. It returns the nodes and graph paths.
func WriteGridGraph(dir string, size int) (string, string, error) {
	nodes := map[string][2]float64{}
	adj := map[string][][2]any{}
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			id := GridNodeID(r, c, size)
			nodes[id] = [2]float64{GridOriginLat + float64(r)*GridStep, GridOriginLon + float64(c)*GridStep}
			link := func(to string) { adj[id] = append(adj[id], [2]any{to, 100}) }
			if c > 0 {
				link(GridNodeID(r, c-1, size))
			}
			if c < size-1 {
				link(GridNodeID(r, c+1, size))
			}
			if r > 0 {
				link(GridNodeID(r-1, c, size))
			}
			if r < size-1 {
				link(GridNodeID(r+1, c, size))
			}
		}
	}
	nodesPath := filepath.Join(dir, "nodes.json")
	graphPath := filepath.Join(dir, "graph.json")
	for path, v := range map[string]any{nodesPath: nodes, graphPath: adj} {
		b, err := json.Marshal(v)
		if err != nil {
			return "", "", err
		}
		if err := os.WriteFile(path, b, 0o644); err != nil {
			return "", "", err
		}
	}
	return nodesPath, graphPath, nil
}

// WaitForMetric polls the given metrics URL until the provided substring is
// found in the output or the context is done.
func WaitForMetric(ctx context.Context, metricsURL, substr string) error {
	for {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, metricsURL, nil)
		resp, err := http.DefaultClient.Do(req)
		if err == nil {
			body, rerr := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if rerr != nil {
				return fmt.Errorf("read metrics body: %w", rerr)
			}
			if strings.Contains(string(body), substr) {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("metric %q not found: %w", substr, ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}

// StartMosquitto launches a temporary Mosquitto broker inside a Docker
// container and returns its broker URL along with a cleanup function.
func StartMosquitto(ctx context.Context) (string, func(), error) {
	conf := `listener 1883
allow_anonymous true
persistence false
log_dest stdout
log_type error
log_type warning
connection_messages true
`

	dir, err := os.MkdirTemp("", "mosq")
	if err != nil {
		return "", nil, err
	}
	path := filepath.Join(dir, "mosquitto.conf")
	if err := os.WriteFile(path, []byte(conf), 0o644); err != nil {
		_ = os.RemoveAll(dir)
		return "", nil, err
	}

	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2.0",
		ExposedPorts: []string{"1883/tcp"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
		Files: []tc.ContainerFile{
			{
				HostFilePath:      path,
				ContainerFilePath: "/mosquitto/config/mosquitto.conf",
				FileMode:          0o644,
			},
		},
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		_ = os.RemoveAll(dir)
		return "", nil, err
	}

	cleanup := func() {
		_ = cont.Terminate(context.Background())
		_ = os.RemoveAll(dir)
	}

	host, err := cont.Host(ctx)
	if err != nil {
		cleanup()
		return "", nil, err
	}
	port, err := cont.MappedPort(ctx, "1883")
	if err != nil {
		cleanup()
		return "", nil, err
	}
	broker := fmt.Sprintf("tcp://%s:%s", host, port.Port())

	waitCtx, cancel := context.WithTimeout(ctx, MosquittoReadyTimeout)
	defer cancel()
	if err := waitForMQTTReady(waitCtx, broker); err != nil {
		cleanup()
		return "", nil, err
	}

	return broker, cleanup, nil
}

func waitForMQTTReady(ctx context.Context, broker string) error {
	opts := paho.NewClientOptions().AddBroker(broker).SetClientID("probe")
	for {
		cli := paho.NewClient(opts)
		token := cli.Connect()
		token.Wait()
		if token.Error() == nil {
			cli.Disconnect(100)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}
