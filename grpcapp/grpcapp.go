package grpcapp

import (
	"context"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

const checkTimeout = 3 * time.Second

// Check reports whether one dependency is reachable.
type Check func(ctx context.Context) error

// Component is a health service name, e.g. "fan-stay.booking", gated by the
// checks of the dependencies it needs. Checks are keyed by dependency name.
type Component struct {
	Service string
	Checks  map[string]Check
}

// GrpcApp serves the readiness endpoint: one health service per component
// plus the overall "" service, which is SERVING only when every component is.
type GrpcApp struct {
	log        *zap.Logger
	gRPCServer *grpc.Server
	health     *health.Server
	addr       string
	components []Component

	mu       sync.Mutex
	statuses map[string]healthpb.HealthCheckResponse_ServingStatus
}

func New(log *zap.Logger, host string, port int, components ...Component) *GrpcApp {
	if log == nil {
		log = zap.NewNop()
	}

	gRPCServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			recoveryInterceptor(log),
			loggingInterceptor(log),
		),
	)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(gRPCServer, healthServer)
	reflection.Register(gRPCServer)

	// Nothing is ready until the first round of checks ran.
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	for _, c := range components {
		healthServer.SetServingStatus(c.Service, healthpb.HealthCheckResponse_NOT_SERVING)
	}

	return &GrpcApp{
		log:        log,
		gRPCServer: gRPCServer,
		health:     healthServer,
		addr:       fmt.Sprintf("%s:%d", host, port),
		components: components,
		statuses:   make(map[string]healthpb.HealthCheckResponse_ServingStatus),
	}
}

func (a *GrpcApp) Run() error {
	const op = "grpcapp.Run"

	l, err := net.Listen("tcp", a.addr)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return a.Serve(l)
}

// Serve runs the server on an existing listener.
func (a *GrpcApp) Serve(l net.Listener) error {
	const op = "grpcapp.Serve"

	a.log.Info("gRPC health server started", zap.String("addr", l.Addr().String()))

	if err := a.gRPCServer.Serve(l); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// WatchReadiness runs the component checks right away and then every
// interval until ctx is done.
func (a *GrpcApp) WatchReadiness(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Second
	}

	a.refresh(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.refresh(ctx)
		}
	}
}

// refresh runs every check once and publishes the resulting statuses.
func (a *GrpcApp) refresh(ctx context.Context) {
	const op = "grpcapp.refresh"
	logger := a.log.With(zap.String("op", op))

	overall := healthpb.HealthCheckResponse_SERVING
	for _, c := range a.components {
		st := healthpb.HealthCheckResponse_SERVING
		for _, name := range sortedNames(c.Checks) {
			checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
			err := c.Checks[name](checkCtx)
			cancel()
			if err != nil {
				st = healthpb.HealthCheckResponse_NOT_SERVING
				logger.Warn("dependency not ready",
					zap.String("service", c.Service),
					zap.String("dependency", name),
					zap.Error(err),
				)
			}
		}
		if st != healthpb.HealthCheckResponse_SERVING {
			overall = healthpb.HealthCheckResponse_NOT_SERVING
		}
		a.publish(logger, c.Service, st)
	}
	a.publish(logger, "", overall)
}

func (a *GrpcApp) publish(logger *zap.Logger, service string, st healthpb.HealthCheckResponse_ServingStatus) {
	a.mu.Lock()
	prev, seen := a.statuses[service]
	a.statuses[service] = st
	a.mu.Unlock()

	a.health.SetServingStatus(service, st)
	if !seen || prev != st {
		logger.Info("health status changed", zap.String("service", service), zap.String("status", st.String()))
	}
}

// Stop reports NOT_SERVING for every service and drains in-flight calls.
func (a *GrpcApp) Stop() {
	a.log.Info("stopping gRPC health server", zap.String("addr", a.addr))
	a.health.Shutdown()
	a.gRPCServer.GracefulStop()
}

func sortedNames(checks map[string]Check) []string {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func loggingInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()

		resp, err := handler(ctx, req)

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("duration", time.Since(start)),
		}
		if err != nil {
			log.Warn("gRPC request failed", append(fields, zap.Error(err))...)
			return resp, err
		}

		log.Debug("gRPC request", fields...)
		return resp, nil
	}
}

func recoveryInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered", zap.Any("panic", r), zap.String("method", info.FullMethod))
				err = status.Error(codes.Internal, "internal error")
			}
		}()

		return handler(ctx, req)
	}
}
