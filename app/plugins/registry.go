// Package plugins maps configuration backend names to implementations.
package plugins

import (
	"fmt"
	"sort"

	"github.com/kilianp07/ridedispatch/config"
	dispatchlog "github.com/kilianp07/ridedispatch/core/dispatch/logging"
)

// LogStoreFactory builds a dispatch log store. A nil store disables logging.
type LogStoreFactory func(cfg config.LoggingConfig) (dispatchlog.LogStore, error)

// LogStores holds the registered log store backends.
var LogStores = map[string]LogStoreFactory{}

func RegisterLogStore(name string, f LogStoreFactory) { LogStores[name] = f }

func init() {
	RegisterLogStore("jsonl", func(cfg config.LoggingConfig) (dispatchlog.LogStore, error) {
		return dispatchlog.NewJSONLStore(cfg.Path)
	})
	RegisterLogStore("rotating", func(cfg config.LoggingConfig) (dispatchlog.LogStore, error) {
		return dispatchlog.NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	})
	RegisterLogStore("none", func(config.LoggingConfig) (dispatchlog.LogStore, error) {
		return nil, nil
	})
}

// NewLogStore builds the store selected by cfg.Backend.
func NewLogStore(cfg config.LoggingConfig) (dispatchlog.LogStore, error) {
	f, ok := LogStores[cfg.Backend]
	if !ok {
		names := make([]string, 0, len(LogStores))
		for n := range LogStores {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("unknown log store %q (known: %v)", cfg.Backend, names)
	}
	return f(cfg)
}
