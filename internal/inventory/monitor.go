package inventory

import (
	"context"
	"time"

	applog "bakeline/internal/log"
	"bakeline/models"
)

// LowStockSource is anything that can list low ingredients.
type LowStockSource interface {
	LowStock(ctx context.Context) ([]models.Ingredient, error)
}

// Monitor polls a LowStockSource and logs ingredients as they become low.
// An ingredient is reported again only after it has recovered.
type Monitor struct {
	source   LowStockSource
	interval time.Duration
	notify   func(context.Context, []models.Ingredient)
	known    map[uint]struct{}
}

func NewMonitor(source LowStockSource, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Monitor{source: source, interval: interval, known: make(map[uint]struct{})}
}

// OnAlert registers a callback receiving each batch of newly low ingredients.
func (m *Monitor) OnAlert(fn func(context.Context, []models.Ingredient)) {
	m.notify = fn
}

// Run scans once immediately and then on every tick until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	applog.Info(ctx, "low stock monitor started", "interval", m.interval.String())

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		if _, err := m.Scan(ctx); err != nil && ctx.Err() == nil {
			applog.Error(ctx, "low stock scan failed", "error", err)
		}

		select {
		case <-ctx.Done():
			applog.Info(context.Background(), "low stock monitor stopped")
			return
		case <-ticker.C:
		}
	}
}

// Scan runs one poll and returns the ingredients that became low since the
// previous poll.
func (m *Monitor) Scan(ctx context.Context) ([]models.Ingredient, error) {
	low, err := m.source.LowStock(ctx)
	if err != nil {
		return nil, err
	}

	current := make(map[uint]struct{}, len(low))
	var fresh []models.Ingredient
	for _, ing := range low {
		current[ing.ID] = struct{}{}
		if _, seen := m.known[ing.ID]; seen {
			continue
		}
		fresh = append(fresh, ing)
		applog.Warn(ctx, "ingredient stock low",
			"ingredient_id", ing.ID,
			"name", ing.Name,
			"current_stock", ing.CurrentStock.String(),
			"min_stock", ing.MinStock.String(),
			"unit", ing.Unit,
		)
	}
	m.known = current

	if len(fresh) > 0 && m.notify != nil {
		m.notify(ctx, fresh)
	}
	return fresh, nil
}
