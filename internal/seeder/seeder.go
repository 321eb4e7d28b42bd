package seeder

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/serviceorders/internal/database"
	"github.com/Additional-Code/serviceorders/internal/entity"
)

// Module provides the seeder to Fx.
var Module = fx.Provide(New)

// Seeder inserts sample orders for local and demo setups.
type Seeder struct {
	db     database.Handle
	logger *zap.Logger
	now    func() time.Time
}

// New constructs a Seeder writing through the primary connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{
		db:     conns,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Samples lists the seeded orders.
func Samples(now time.Time) []entity.ServiceOrder {
	now = now.Truncate(time.Second)
	return []entity.ServiceOrder{
		{Reference: "SO-1000", Company: "Acme Industrial", Description: "Quarterly maintenance of the main compressor", Status: entity.StatusPending, CreatedAt: now},
		{Reference: "SO-1001", Company: "Globex", Description: "Replace damaged conveyor belt on line 2", Status: entity.StatusInProgress, CreatedAt: now},
		{Reference: "SO-1002", Company: "Initech", Description: "Network cabling for the new office wing", Status: entity.StatusCompleted, CreatedAt: now},
		{Reference: "SO-1003", Company: "Umbrella Logistics", Description: "Forklift battery inspection", Status: entity.StatusCancelled, CreatedAt: now},
	}
}

// Orders inserts the sample orders, skipping references that already exist.
// It returns how many rows were inserted.
func (s *Seeder) Orders(ctx context.Context) (int64, error) {
	db, err := s.db.Writer(ctx)
	if err != nil {
		return 0, err
	}

	var inserted int64
	for _, sample := range Samples(s.now()) {
		order := sample
		res, err := db.NewInsert().Model(&order).Ignore().Exec(ctx)
		if err != nil {
			return inserted, fmt.Errorf("seed %s: %w", order.Reference, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += n
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded orders", zap.Int64("inserted", inserted))
	}
	return inserted, nil
}
