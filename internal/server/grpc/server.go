package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/Additional-Code/serviceorders/internal/config"
	"github.com/Additional-Code/serviceorders/internal/database"
	"github.com/Additional-Code/serviceorders/pkg/errorbank"
)

// Module exposes the gRPC server and lifecycle hooks to Fx.
var Module = fx.Module("grpc_server",
	fx.Provide(NewServer),
	fx.Invoke(Run),
)

// Result carries the server and its health service.
type Result struct {
	fx.Out

	Server *grpc.Server
	Health *health.Server
}

// NewServer builds a gRPC server exposing the standard health service and
// reflection. Handler errors are mapped to status codes through errorbank.
func NewServer(logger *zap.Logger) Result {
	logger = logger.Named("grpc")

	unary := func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		duration := time.Since(start)
		if err != nil {
			logger.Warn("grpc unary call finished", zap.String("method", info.FullMethod), zap.Duration("duration", duration), zap.Error(err))
			return resp, toStatus(err)
		}
		logger.Debug("grpc unary call finished", zap.String("method", info.FullMethod), zap.Duration("duration", duration))
		return resp, nil
	}

	stream := func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		duration := time.Since(start)
		if err != nil {
			logger.Warn("grpc stream call finished", zap.String("method", info.FullMethod), zap.Duration("duration", duration), zap.Error(err))
			return toStatus(err)
		}
		logger.Debug("grpc stream call finished", zap.String("method", info.FullMethod), zap.Duration("duration", duration))
		return nil
	}

	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(unary),
		grpc.ChainStreamInterceptor(stream),
	)

	healthSrv := health.NewServer()
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(server, healthSrv)
	reflection.Register(server)

	return Result{Server: server, Health: healthSrv}
}

// Run binds the gRPC server to the configured host/port when enabled. The
// health service reports SERVING once the database answers a ping.
func Run(lc fx.Lifecycle, cfg config.Config, server *grpc.Server, healthSrv *health.Server, conns *database.Connections, logger *zap.Logger) {
	if !cfg.GRPC.Enabled {
		logger.Debug("gRPC server disabled")
		return
	}

	addr := fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port)
	var listener net.Listener

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen grpc: %w", err)
			}
			listener = ln

			MarkServing(ctx, healthSrv, conns, logger)

			logger.Info("starting gRPC server", zap.String("addr", addr))
			go func() {
				if err := server.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
					logger.Fatal("grpc server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping gRPC server")
			healthSrv.Shutdown()

			stopped := make(chan struct{})
			go func() {
				server.GracefulStop()
				close(stopped)
			}()

			select {
			case <-ctx.Done():
				server.Stop()
				return ctx.Err()
			case <-stopped:
				if listener != nil {
					_ = listener.Close()
				}
				return nil
			}
		},
	})
}

// MarkServing flips the overall health status according to a database ping.
func MarkServing(ctx context.Context, healthSrv *health.Server, pinger interface {
	Ping(context.Context) error
}, logger *zap.Logger) {
	if err := pinger.Ping(ctx); err != nil {
		logger.Warn("database ping failed; health NOT_SERVING", zap.Error(err))
		healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		return
	}
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
}

func toStatus(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	appErr := errorbank.From(err)
	return status.Error(appErr.GRPCCode(), appErr.Message())
}
