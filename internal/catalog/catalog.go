package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-salad/salad-golem-stats-sub000/internal/models"
)

// NoGPU is the sentinel category for intervals without a GPU class.
const NoGPU = "No GPU"

// Loader fetches the full GPU-class catalog from the relational store.
type Loader interface {
	GpuClasses(ctx context.Context) ([]models.GpuClass, error)
}

// Catalog is the in-memory GPU-class lookup, loaded once at startup and
// read-only afterwards. A failed load is non-fatal: the catalog degrades to
// raw identifiers so aggregation keeps working with uglier labels.
type Catalog struct {
	byID     map[int64]models.GpuClass
	degraded bool
}

// Load preloads the catalog. On failure it logs a warning and returns a
// degraded catalog instead of an error.
func Load(ctx context.Context, loader Loader, log *zap.Logger) *Catalog {
	classes, err := loader.GpuClasses(ctx)
	if err != nil {
		log.Warn("GPU class catalog unavailable, falling back to raw identifiers", zap.Error(err))
		return &Catalog{byID: map[int64]models.GpuClass{}, degraded: true}
	}

	byID := make(map[int64]models.GpuClass, len(classes))
	for _, c := range classes {
		byID[c.ID] = c
	}
	log.Info("Loaded GPU class catalog", zap.Int("classes", len(byID)))
	return &Catalog{byID: byID}
}

// Degraded reports whether the catalog failed to preload.
func (c *Catalog) Degraded() bool {
	return c.degraded
}

// ModelName resolves an optional GPU-class reference to a display name.
func (c *Catalog) ModelName(id *int64) string {
	if id == nil {
		return NoGPU
	}
	if class, ok := c.byID[*id]; ok {
		return class.Name
	}
	return fmt.Sprintf("gpu-%d", *id)
}

// VRAMLabel resolves an optional GPU-class reference to a VRAM size label.
func (c *Catalog) VRAMLabel(id *int64) string {
	if id == nil {
		return NoGPU
	}
	if class, ok := c.byID[*id]; ok {
		return fmt.Sprintf("%d GB", class.VRAMGB)
	}
	return fmt.Sprintf("gpu-%d", *id)
}
