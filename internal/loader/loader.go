// Package loader turns a sales dataset (CSV, XLSX or a Postgres table) into an
// immutable models.SalesTable and memoizes it for the life of the process.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"sales-insights/internal/models"
)

// Load reads the dataset named by key. table only applies to Postgres sources.
func Load(ctx context.Context, key, table string) (*models.SalesTable, error) {
	if isPostgresURL(key) {
		return loadPostgres(ctx, key, table)
	}

	switch strings.ToLower(filepath.Ext(key)) {
	case ".csv":
		return loadCSV(ctx, key)
	case ".xlsx":
		return loadXLSX(ctx, key)
	default:
		return nil, newLoadError(key, ErrUnsupported,
			fmt.Errorf("expected a .csv or .xlsx file or a postgres:// URL"))
	}
}

// Cache memoizes loaded tables by source key with no invalidation. Concurrent
// first loads of one key share a single read; failures are not cached.
type Cache struct {
	mu     sync.RWMutex
	tables map[string]*models.SalesTable
	group  singleflight.Group
	table  string
	logger *slog.Logger
	load   func(ctx context.Context, key, table string) (*models.SalesTable, error)
}

func NewCache(table string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		tables: make(map[string]*models.SalesTable),
		table:  table,
		logger: logger,
		load:   Load,
	}
}

func (c *Cache) Get(ctx context.Context, key string) (*models.SalesTable, error) {
	c.mu.RLock()
	t, ok := c.tables[key]
	c.mu.RUnlock()
	if ok {
		return t, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.RLock()
		t, ok := c.tables[key]
		c.mu.RUnlock()
		if ok {
			return t, nil
		}

		start := time.Now()
		t, err := c.load(ctx, key, c.table)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.tables[key] = t
		c.mu.Unlock()

		c.logger.Info("dataset loaded",
			"source", t.Source(),
			"rows", t.Len(),
			"duration", time.Since(start),
		)
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.SalesTable), nil
}
