package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/serviceorders/internal/database"
	"github.com/Additional-Code/serviceorders/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/serviceorders/repository/order")

var (
	// ErrNotFound is returned when an order is missing.
	ErrNotFound = errors.New("order not found")
	// ErrDuplicateReference is returned when the reference is already taken by another order.
	ErrDuplicateReference = errors.New("order reference already exists")
)

// Repository encapsulates read/write access for service orders. Every method
// runs against the executor it is handed, so callers decide which connection
// (request session, pool, transaction) the statement uses.
type Repository struct{}

// NewRepository constructs a Repository.
func NewRepository() *Repository {
	return &Repository{}
}

// List returns orders newest first. A non-empty query keeps rows whose reference,
// company or description contains it.
func (r *Repository) List(ctx context.Context, db bun.IDB, query string) ([]entity.ServiceOrder, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.List", trace.WithAttributes(attribute.String("order.query", query)))
	defer span.End()

	orders := make([]entity.ServiceOrder, 0)
	q := db.NewSelect().Model(&orders).OrderExpr("so.id DESC")
	if query != "" {
		like := "%" + query + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("so.reference LIKE ?", like).
				WhereOr("so.company LIKE ?", like).
				WhereOr("so.description LIKE ?", like)
		})
	}

	if err := q.Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, fmt.Errorf("list orders: %w", err)
	}
	span.SetAttributes(attribute.Int("order.count", len(orders)))
	return orders, nil
}

// GetByID fetches an order by primary key.
func (r *Repository) GetByID(ctx context.Context, db bun.IDB, id int64) (*entity.ServiceOrder, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order := new(entity.ServiceOrder)
	err := db.NewSelect().Model(order).Where("so.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, fmt.Errorf("get order %d: %w", id, err)
	}
	return order, nil
}

// Create inserts order in its own transaction and fills in the generated id.
func (r *Repository) Create(ctx context.Context, db bun.IDB, order *entity.ServiceOrder) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Create", trace.WithAttributes(attribute.String("order.reference", order.Reference)))
	defer span.End()

	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(order).Exec(ctx)
		return err
	})
	return r.writeErr(span, "insert", err)
}

// Update rewrites the mutable columns of order. id and created_at are never written.
func (r *Repository) Update(ctx context.Context, db bun.IDB, order *entity.ServiceOrder) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Update", trace.WithAttributes(
		attribute.Int64("order.id", order.ID),
		attribute.String("order.reference", order.Reference),
	))
	defer span.End()

	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewUpdate().
			Model(order).
			Column("reference", "company", "description", "status").
			WherePK().
			Exec(ctx)
		return err
	})
	return r.writeErr(span, "update", err)
}

// Delete removes the order if present. Deleting a missing id is not an error.
func (r *Repository) Delete(ctx context.Context, db bun.IDB, id int64) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Delete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*entity.ServiceOrder)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		return err
	})
	return r.writeErr(span, "delete", err)
}

func (r *Repository) writeErr(span trace.Span, op string, err error) error {
	if err == nil {
		return nil
	}
	if database.IsUniqueViolation(err) {
		span.SetStatus(codes.Error, "duplicate reference")
		return ErrDuplicateReference
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, op+" failed")
	return fmt.Errorf("%s order: %w", op, err)
}
