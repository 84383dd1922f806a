package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kilianp07/ridedispatch/app/plugins"
	"github.com/kilianp07/ridedispatch/config"
	"github.com/kilianp07/ridedispatch/core/dispatch"
	"github.com/kilianp07/ridedispatch/core/dispatch/logging"
	"github.com/kilianp07/ridedispatch/core/graph"
	"github.com/kilianp07/ridedispatch/core/model"
	"github.com/kilianp07/ridedispatch/core/resolver"
	"github.com/kilianp07/ridedispatch/infra/graphio"
	"github.com/kilianp07/ridedispatch/infra/logger"
)

// offline bundles the graph components used by the one-shot commands.
type offline struct {
	store    *graph.Store
	resolver resolver.Resolver
	coord    *dispatch.Coordinator
	logs     logging.LogStore
}

func (o *offline) Close() {
	if o.logs != nil {
		_ = o.logs.Close()
	}
}

func loadOffline(ctx context.Context, cfg *config.Config) (*offline, error) {
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		return nil, err
	}
	store, err := graphio.Load(ctx, cfg.Graph)
	if err != nil {
		return nil, fmt.Errorf("load graph: %w", err)
	}
	res, err := resolver.New(cfg.Resolver, store)
	if err != nil {
		return nil, err
	}
	logs, err := plugins.NewLogStore(cfg.Logging)
	if err != nil {
		return nil, err
	}
	opts := []dispatch.Option{dispatch.WithLogger(logger.New("dispatch"))}
	if logs != nil {
		opts = append(opts, dispatch.WithLogStore(logs))
	}
	coord, err := dispatch.NewCoordinator(store, res, cfg.Dispatch, opts...)
	if err != nil {
		if logs != nil {
			_ = logs.Close()
		}
		return nil, err
	}
	return &offline{store: store, resolver: res, coord: coord, logs: logs}, nil
}

// parsePosition reads "lat,lon".
func parsePosition(s string) (model.Position, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return model.Position{}, fmt.Errorf("position %q: expected lat,lon", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return model.Position{}, fmt.Errorf("position %q: %w", s, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return model.Position{}, fmt.Errorf("position %q: %w", s, err)
	}
	p := model.Position{Lat: lat, Lon: lon}
	return p, p.Validate()
}

// parseDriver reads "id=lat,lon".
func parseDriver(s string) (model.Driver, error) {
	id, pos, ok := strings.Cut(s, "=")
	if !ok || id == "" {
		return model.Driver{}, fmt.Errorf("driver %q: expected id=lat,lon", s)
	}
	p, err := parsePosition(pos)
	if err != nil {
		return model.Driver{}, err
	}
	return model.Driver{ID: id, Position: p}, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
