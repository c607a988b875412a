package grpcq

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the full gRPC service name queries are routed under.
const ServiceName = "curved.Query"

// QueryServer is the server-side API of the query service. The
// descriptor and handler shims below stand in for generated code.
type QueryServer interface {
	GetServerInfo(ctx context.Context, req *GetServerInfoRequest) (*GetServerInfoResponse, error)
	GetAsset(ctx context.Context, req *GetAssetRequest) (*GetAssetResponse, error)
	ListAssets(ctx context.Context, req *ListAssetsRequest) (*ListAssetsResponse, error)
	GetQuote(ctx context.Context, req *GetQuoteRequest) (*GetQuoteResponse, error)
	GetTrades(ctx context.Context, req *GetTradesRequest) (*GetTradesResponse, error)
	GetStats(ctx context.Context, req *GetStatsRequest) (*GetStatsResponse, error)
	GetFeeLedger(ctx context.Context, req *GetFeeLedgerRequest) (*GetFeeLedgerResponse, error)
}

// RegisterQueryServer registers srv on a grpc.Server.
func RegisterQueryServer(s *grpc.Server, srv QueryServer) {
	s.RegisterService(&queryServiceDesc, srv)
}

var queryServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*QueryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetServerInfo", Handler: getServerInfoHandler},
		{MethodName: "GetAsset", Handler: getAssetHandler},
		{MethodName: "ListAssets", Handler: listAssetsHandler},
		{MethodName: "GetQuote", Handler: getQuoteHandler},
		{MethodName: "GetTrades", Handler: getTradesHandler},
		{MethodName: "GetStats", Handler: getStatsHandler},
		{MethodName: "GetFeeLedger", Handler: getFeeLedgerHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func getServerInfoHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetServerInfoRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QueryServer).GetServerInfo(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/GetServerInfo"}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(QueryServer).GetServerInfo(ctx, req.(*GetServerInfoRequest))
	})
}

func getAssetHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetAssetRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QueryServer).GetAsset(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/GetAsset"}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(QueryServer).GetAsset(ctx, req.(*GetAssetRequest))
	})
}

func listAssetsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ListAssetsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QueryServer).ListAssets(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/ListAssets"}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(QueryServer).ListAssets(ctx, req.(*ListAssetsRequest))
	})
}

func getQuoteHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetQuoteRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QueryServer).GetQuote(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/GetQuote"}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(QueryServer).GetQuote(ctx, req.(*GetQuoteRequest))
	})
}

func getTradesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetTradesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QueryServer).GetTrades(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/GetTrades"}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(QueryServer).GetTrades(ctx, req.(*GetTradesRequest))
	})
}

func getStatsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetStatsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QueryServer).GetStats(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/GetStats"}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(QueryServer).GetStats(ctx, req.(*GetStatsRequest))
	})
}

func getFeeLedgerHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetFeeLedgerRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QueryServer).GetFeeLedger(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/GetFeeLedger"}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(QueryServer).GetFeeLedger(ctx, req.(*GetFeeLedgerRequest))
	})
}
