package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/viralforge/attribution-engine/internal/application"
)

// AttributionInternalService is the internal introspection surface other
// services call over gRPC. Requests and responses use structpb so the
// contract stays schemaless while the proto contract is being settled.
type AttributionInternalService interface {
	GetModelState(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetClickStats(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

type AttributionInternalServer struct {
	service *application.Service
}

func NewAttributionInternalServer(service *application.Service) *AttributionInternalServer {
	return &AttributionInternalServer{service: service}
}

func Register(server grpc.ServiceRegistrar, svc AttributionInternalService) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: "viralforge.attribution.v1.AttributionInternalService",
		HandlerType: (*AttributionInternalService)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "GetModelState",
				Handler:    getModelStateHandler(svc),
			},
			{
				MethodName: "GetClickStats",
				Handler:    getClickStatsHandler(svc),
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "mesh/contracts/proto/attribution/v1/attribution_internal.proto",
	}, svc)
}

func (s *AttributionInternalServer) GetModelState(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	state := s.service.GetModelState(ctx)
	lambda := make(map[string]any, len(state.Weights.Lambda))
	for platform, rate := range state.Weights.Lambda {
		lambda[platform] = rate
	}
	resp, err := structpb.NewStruct(map[string]any{
		"version":          state.Weights.Version,
		"time_weight":      state.Weights.TimeWeight,
		"geo_weight":       state.Weights.GeoWeight,
		"sentiment_weight": state.Weights.SentimentWeight,
		"lambda":           lambda,
		"accuracy":         state.Weights.Accuracy,
		"training_count":   state.Weights.TrainingCount,
		"sample_count":     state.SampleCount,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

func (s *AttributionInternalServer) GetClickStats(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	stats := s.service.GetClickStats(ctx)
	fields := map[string]any{
		"tracked_clicks":    stats.TrackedClicks,
		"attributed_clicks": stats.AttributedClicks,
		"users_indexed":     stats.UsersIndexed,
		"sweep_count":       stats.SweepCount,
		"evicted_clicks":    stats.EvictedClicks,
	}
	if !stats.OldestClickAt.IsZero() {
		fields["oldest_click_at"] = stats.OldestClickAt.Unix()
	}
	resp, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

func getModelStateHandler(svc AttributionInternalService) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := &emptypb.Empty{}
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return svc.GetModelState(ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/viralforge.attribution.v1.AttributionInternalService/GetModelState",
		}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*emptypb.Empty)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, "invalid request type")
			}
			return svc.GetModelState(ctx, typed)
		}
		return interceptor(ctx, req, info, handler)
	}
}

func getClickStatsHandler(svc AttributionInternalService) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := &emptypb.Empty{}
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return svc.GetClickStats(ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/viralforge.attribution.v1.AttributionInternalService/GetClickStats",
		}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*emptypb.Empty)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, "invalid request type")
			}
			return svc.GetClickStats(ctx, typed)
		}
		return interceptor(ctx, req, info, handler)
	}
}
