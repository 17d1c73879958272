package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/mj1618/winsync/internal/logging"
	"github.com/mj1618/winsync/internal/model"
	"github.com/mj1618/winsync/internal/registry"
	"github.com/mj1618/winsync/internal/store"
)

// openStore opens the configured shared store. The closer stops background
// pollers.
func openStore(ctx context.Context) (store.Store, io.Closer, error) {
	s, closer, err := store.Open(ctx, activeConfig.Store, store.OpenOptions{
		PollInterval: activeConfig.PollInterval,
		Logger:       logging.FromContext(ctx),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	if _, ok := s.(*store.MemoryStore); ok {
		logging.FromContext(ctx).Warn("memory store is private to this process; other winsync processes will not see it")
	}
	return s, closer, nil
}

// readRoster reads the configured roster key. A corrupt value is logged and
// reported as empty, the way a joining window would treat it.
func readRoster(ctx context.Context, s store.Store) (model.RosterResult, error) {
	res, err := registry.ReadRoster(s, activeConfig.Key)
	if err != nil {
		return res, fmt.Errorf("read roster: %w", err)
	}
	if res.Status == model.RosterCorrupt {
		logging.FromContext(ctx).Warn("stored roster is corrupt", "key", activeConfig.Key, "error", res.Err)
	}
	return res, nil
}
