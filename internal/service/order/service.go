package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/serviceorders/internal/cache"
	"github.com/Additional-Code/serviceorders/internal/config"
	"github.com/Additional-Code/serviceorders/internal/database"
	"github.com/Additional-Code/serviceorders/internal/dto"
	"github.com/Additional-Code/serviceorders/internal/entity"
	"github.com/Additional-Code/serviceorders/internal/messaging"
	repo "github.com/Additional-Code/serviceorders/internal/repository/order"
	"github.com/Additional-Code/serviceorders/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/serviceorders/service/order")

// Service encapsulates business logic around service orders.
type Service struct {
	repo      *repo.Repository
	validator *Validator
	cache     cache.Store
	cacheTTL  time.Duration
	logger    *zap.Logger
	publisher messaging.Client
	messaging messagingConfig
	metrics   *metrics
	now       func() time.Time

	// fillMu orders cache fills against evictions; writes counts evictions.
	fillMu sync.Mutex
	writes uint64
}

// messagingConfig contains messaging specific knobs we care about.
type messagingConfig struct {
	enabled bool
	topic   string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Validator  *Validator
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
	Publisher  messaging.Client
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	v := p.Validator
	if v == nil {
		v = NewValidator()
	}
	return &Service{
		repo:      p.Repository,
		validator: v,
		cache:     p.Cache,
		cacheTTL:  p.Config.Cache.DefaultTTL,
		logger:    logger.Named("orders"),
		publisher: p.Publisher,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.Topic,
		},
		metrics: newMetrics(logger),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Validate reports every failing field rule for in.
func (s *Service) Validate(in dto.OrderInput) []string {
	return s.validator.Validate(in)
}

// List returns orders newest first, filtered by query when it is not blank.
func (s *Service) List(ctx context.Context, h database.Handle, query string) ([]entity.ServiceOrder, error) {
	query = strings.TrimSpace(query)
	ctx, span := serviceTracer.Start(ctx, "OrderService.List", trace.WithAttributes(attribute.String("order.query", query)))
	defer span.End()

	db, err := h.Reader(ctx)
	if err != nil {
		return nil, s.internal(ctx, span, opList, "failed to acquire database connection", err)
	}

	orders, err := s.repo.List(ctx, db, query)
	if err != nil {
		return nil, s.internal(ctx, span, opList, "failed to list orders", err)
	}
	s.metrics.record(ctx, opList, outcomeOK)
	return orders, nil
}

// Get retrieves an order by id, consulting cache when available.
func (s *Service) Get(ctx context.Context, h database.Handle, id int64) (*entity.ServiceOrder, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if order, err := s.getFromCache(ctx, id); err == nil {
		return order, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("orders cache read failed", zap.Int64("id", id), zap.Error(err))
	}

	token := s.fillToken()

	db, err := h.Reader(ctx)
	if err != nil {
		return nil, s.internal(ctx, span, opGet, "failed to acquire database connection", err)
	}

	order, err := s.repo.GetByID(ctx, db, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.metrics.record(ctx, opGet, outcomeNotFound)
			return nil, errorbank.NotFound(MsgNotFound, errorbank.WithDetail("id", id))
		}
		return nil, s.internal(ctx, span, opGet, "failed to load order", err)
	}

	if err := s.fillCache(ctx, token, order); err != nil {
		s.logger.Warn("orders cache write failed", zap.Int64("id", id), zap.Error(err))
	}

	s.metrics.record(ctx, opGet, outcomeOK)
	return order, nil
}

// Create validates in, stores the trimmed order stamped with the current time
// and returns it with its generated id.
func (s *Service) Create(ctx context.Context, h database.Handle, in dto.OrderInput) (*entity.ServiceOrder, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Create")
	defer span.End()

	if msgs := s.validator.Validate(in); len(msgs) > 0 {
		s.metrics.record(ctx, opCreate, outcomeInvalid)
		return nil, errorbank.Validation(msgs)
	}

	order := in.ToEntity()
	order.CreatedAt = s.now().Truncate(time.Second)
	span.SetAttributes(attribute.String("order.reference", order.Reference))

	db, err := h.Writer(ctx)
	if err != nil {
		return nil, s.internal(ctx, span, opCreate, "failed to acquire database connection", err)
	}

	if err := s.repo.Create(ctx, db, order); err != nil {
		if errors.Is(err, repo.ErrDuplicateReference) {
			s.metrics.record(ctx, opCreate, outcomeConflict)
			return nil, errorbank.Conflict(MsgReferenceTaken, errorbank.WithDetail("reference", order.Reference))
		}
		return nil, s.internal(ctx, span, opCreate, "failed to create order", err)
	}

	s.logger.Info("order created", zap.Int64("id", order.ID), zap.String("reference", order.Reference))
	s.metrics.record(ctx, opCreate, outcomeOK)
	s.publish(ctx, EventOrderCreated, order)
	return order, nil
}

// Update rewrites reference, company, description and status of an existing
// order. The id and creation timestamp are preserved.
func (s *Service) Update(ctx context.Context, h database.Handle, id int64, in dto.OrderInput) (*entity.ServiceOrder, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Update", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	db, err := h.Writer(ctx)
	if err != nil {
		return nil, s.internal(ctx, span, opUpdate, "failed to acquire database connection", err)
	}

	existing, err := s.repo.GetByID(ctx, db, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.metrics.record(ctx, opUpdate, outcomeNotFound)
			return nil, errorbank.NotFound(MsgNotFound, errorbank.WithDetail("id", id))
		}
		return nil, s.internal(ctx, span, opUpdate, "failed to load order", err)
	}

	if msgs := s.validator.Validate(in); len(msgs) > 0 {
		s.metrics.record(ctx, opUpdate, outcomeInvalid)
		return nil, errorbank.Validation(msgs)
	}

	order := in.ToEntity()
	order.ID = existing.ID
	order.CreatedAt = existing.CreatedAt

	if err := s.repo.Update(ctx, db, order); err != nil {
		if errors.Is(err, repo.ErrDuplicateReference) {
			s.metrics.record(ctx, opUpdate, outcomeConflict)
			return nil, errorbank.Conflict(MsgReferenceTaken, errorbank.WithDetail("reference", order.Reference))
		}
		return nil, s.internal(ctx, span, opUpdate, "failed to update order", err)
	}

	s.evict(ctx, id)
	s.logger.Info("order updated", zap.Int64("id", id), zap.String("status", string(order.Status)))
	s.metrics.record(ctx, opUpdate, outcomeOK)
	s.publish(ctx, EventOrderUpdated, order)
	return order, nil
}

// Delete removes the order with id. Missing orders are treated as already deleted.
func (s *Service) Delete(ctx context.Context, h database.Handle, id int64) error {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Delete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	db, err := h.Writer(ctx)
	if err != nil {
		return s.internal(ctx, span, opDelete, "failed to acquire database connection", err)
	}

	if err := s.repo.Delete(ctx, db, id); err != nil {
		return s.internal(ctx, span, opDelete, "failed to delete order", err)
	}

	s.evict(ctx, id)
	s.logger.Info("order deleted", zap.Int64("id", id))
	s.metrics.record(ctx, opDelete, outcomeOK)
	s.publish(ctx, EventOrderDeleted, &entity.ServiceOrder{ID: id})
	return nil
}

func (s *Service) internal(ctx context.Context, span trace.Span, op, msg string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	s.metrics.record(ctx, op, outcomeError)
	return errorbank.Internal(msg, errorbank.WithCause(err))
}

func (s *Service) publish(ctx context.Context, eventType string, order *entity.ServiceOrder) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	event := Event{
		Type:       eventType,
		ID:         order.ID,
		Reference:  order.Reference,
		Company:    order.Company,
		Status:     string(order.Status),
		OccurredAt: s.now(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal order event", zap.String("type", eventType), zap.Error(err))
		return
	}
	headers := map[string]string{HeaderEventType: eventType}
	if err := s.publisher.Publish(ctx, []byte(fmt.Sprintf("order-%d", order.ID)), payload, headers); err != nil {
		s.logger.Error("publish order event", zap.String("type", eventType), zap.Int64("id", order.ID), zap.Error(err))
	}
}

func (s *Service) cacheKey(id int64) string {
	return fmt.Sprintf("orders:%d", id)
}

func (s *Service) getFromCache(ctx context.Context, id int64) (*entity.ServiceOrder, error) {
	return cache.GetJSON[entity.ServiceOrder](ctx, s.cache, s.cacheKey(id))
}

func (s *Service) fillToken() uint64 {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	return s.writes
}

// fillCache stores order unless a write was evicted after token was taken,
// in which case the loaded row may predate that write.
func (s *Service) fillCache(ctx context.Context, token uint64, order *entity.ServiceOrder) error {
	if order == nil || s.cache == nil {
		return nil
	}
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	if s.writes != token {
		return nil
	}
	return cache.SetJSON(ctx, s.cache, s.cacheKey(order.ID), order, s.cacheTTL)
}

func (s *Service) evict(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	s.writes++
	if err := s.cache.Delete(ctx, s.cacheKey(id)); err != nil {
		s.logger.Warn("orders cache eviction failed", zap.Int64("id", id), zap.Error(err))
	}
}
