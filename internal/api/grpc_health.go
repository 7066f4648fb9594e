package api

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"storefront-service/internal/observability"
	"storefront-service/internal/state"
)

// HealthServiceName is the service name reported by the gRPC health service besides "".
const HealthServiceName = "storefront-service"

// HealthReporter mirrors the backend connection flag into the gRPC health service:
// SERVING while connected, NOT_SERVING otherwise.
type HealthReporter struct {
	server *health.Server
}

// NewHealthReporter creates a reporter that starts out NOT_SERVING.
func NewHealthReporter() *HealthReporter {
	hr := &HealthReporter{server: health.NewServer()}
	hr.Update(false)
	return hr
}

// Update sets the serving status from the connection flag.
func (hr *HealthReporter) Update(connected bool) {
	st := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if connected {
		st = grpc_health_v1.HealthCheckResponse_SERVING
	}
	hr.server.SetServingStatus("", st)
	hr.server.SetServingStatus(HealthServiceName, st)
}

// Observe is a state refresh listener.
func (hr *HealthReporter) Observe(snap state.Snapshot) {
	hr.Update(snap.Connected)
}

// Shutdown marks every service NOT_SERVING so clients drain before the server stops.
func (hr *HealthReporter) Shutdown() {
	hr.server.Shutdown()
}

// NewGRPCServer builds the gRPC server carrying the health and reflection services.
func NewGRPCServer(logger *zap.Logger, hr *HealthReporter) *grpc.Server {
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(unaryLoggingInterceptor(observability.OrNop(logger))))
	grpc_health_v1.RegisterHealthServer(s, hr.server)
	reflection.Register(s)
	return s
}

func unaryLoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("grpc call",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("latency", time.Since(start)),
		)
		return resp, err
	}
}
