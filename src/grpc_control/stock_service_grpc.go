package grpc_control

import (
	context "context"

	"stock-data-service/src/models"

	grpc "google.golang.org/grpc"
	codes "google.golang.org/grpc/codes"
	status "google.golang.org/grpc/status"
	emptypb "google.golang.org/protobuf/types/known/emptypb"
)

// Service descriptors of stockdetails.StockService and stockdetails.AuthService.
// Messages are plain structs carried by the json codec.

const (
	StockService_GetStockListings_FullMethodName           = "/stockdetails.StockService/GetStockListings"
	StockService_GetStockPrice_FullMethodName              = "/stockdetails.StockService/GetStockPrice"
	StockService_GetStockPriceStream_FullMethodName        = "/stockdetails.StockService/GetStockPriceStream"
	StockService_GetStocksPrices_FullMethodName            = "/stockdetails.StockService/GetStocksPrices"
	StockService_GetCompanyStockPriceStream_FullMethodName = "/stockdetails.StockService/GetCompanyStockPriceStream"

	AuthService_Authenticate_FullMethodName = "/stockdetails.AuthService/Authenticate"
)

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

// -----------------------------------------------------------------------------
// StockService client
// -----------------------------------------------------------------------------

type StockServiceClient interface {
	GetStockListings(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*models.StockListing, error)
	GetStockPrice(ctx context.Context, in *models.Stock, opts ...grpc.CallOption) (*models.StockPrice, error)
	GetStockPriceStream(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (grpc.ServerStreamingClient[models.StockPrice], error)
	GetStocksPrices(ctx context.Context, opts ...grpc.CallOption) (grpc.ClientStreamingClient[models.Stock, models.StockPriceList], error)
	GetCompanyStockPriceStream(ctx context.Context, opts ...grpc.CallOption) (grpc.BidiStreamingClient[models.Stock, models.StockPrice], error)
}

type stockServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewStockServiceClient(cc grpc.ClientConnInterface) StockServiceClient {
	return &stockServiceClient{cc}
}

func (c *stockServiceClient) GetStockListings(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*models.StockListing, error) {
	out := new(models.StockListing)
	err := c.cc.Invoke(ctx, StockService_GetStockListings_FullMethodName, in, out, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *stockServiceClient) GetStockPrice(ctx context.Context, in *models.Stock, opts ...grpc.CallOption) (*models.StockPrice, error) {
	out := new(models.StockPrice)
	err := c.cc.Invoke(ctx, StockService_GetStockPrice_FullMethodName, in, out, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *stockServiceClient) GetStockPriceStream(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (grpc.ServerStreamingClient[models.StockPrice], error) {
	stream, err := c.cc.NewStream(ctx, &StockService_ServiceDesc.Streams[0], StockService_GetStockPriceStream_FullMethodName, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[emptypb.Empty, models.StockPrice]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *stockServiceClient) GetStocksPrices(ctx context.Context, opts ...grpc.CallOption) (grpc.ClientStreamingClient[models.Stock, models.StockPriceList], error) {
	stream, err := c.cc.NewStream(ctx, &StockService_ServiceDesc.Streams[1], StockService_GetStocksPrices_FullMethodName, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	return &grpc.GenericClientStream[models.Stock, models.StockPriceList]{ClientStream: stream}, nil
}

func (c *stockServiceClient) GetCompanyStockPriceStream(ctx context.Context, opts ...grpc.CallOption) (grpc.BidiStreamingClient[models.Stock, models.StockPrice], error) {
	stream, err := c.cc.NewStream(ctx, &StockService_ServiceDesc.Streams[2], StockService_GetCompanyStockPriceStream_FullMethodName, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	return &grpc.GenericClientStream[models.Stock, models.StockPrice]{ClientStream: stream}, nil
}

// -----------------------------------------------------------------------------
// StockService server
// -----------------------------------------------------------------------------

type StockServiceServer interface {
	GetStockListings(context.Context, *emptypb.Empty) (*models.StockListing, error)
	GetStockPrice(context.Context, *models.Stock) (*models.StockPrice, error)
	GetStockPriceStream(*emptypb.Empty, grpc.ServerStreamingServer[models.StockPrice]) error
	GetStocksPrices(grpc.ClientStreamingServer[models.Stock, models.StockPriceList]) error
	GetCompanyStockPriceStream(grpc.BidiStreamingServer[models.Stock, models.StockPrice]) error
	mustEmbedUnimplementedStockServiceServer()
}

// UnimplementedStockServiceServer must be embedded by every implementation.
type UnimplementedStockServiceServer struct{}

func (UnimplementedStockServiceServer) GetStockListings(context.Context, *emptypb.Empty) (*models.StockListing, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetStockListings not implemented")
}
func (UnimplementedStockServiceServer) GetStockPrice(context.Context, *models.Stock) (*models.StockPrice, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetStockPrice not implemented")
}
func (UnimplementedStockServiceServer) GetStockPriceStream(*emptypb.Empty, grpc.ServerStreamingServer[models.StockPrice]) error {
	return status.Errorf(codes.Unimplemented, "method GetStockPriceStream not implemented")
}
func (UnimplementedStockServiceServer) GetStocksPrices(grpc.ClientStreamingServer[models.Stock, models.StockPriceList]) error {
	return status.Errorf(codes.Unimplemented, "method GetStocksPrices not implemented")
}
func (UnimplementedStockServiceServer) GetCompanyStockPriceStream(grpc.BidiStreamingServer[models.Stock, models.StockPrice]) error {
	return status.Errorf(codes.Unimplemented, "method GetCompanyStockPriceStream not implemented")
}
func (UnimplementedStockServiceServer) mustEmbedUnimplementedStockServiceServer() {}

func RegisterStockServiceServer(s grpc.ServiceRegistrar, srv StockServiceServer) {
	s.RegisterService(&StockService_ServiceDesc, srv)
}

func _StockService_GetStockListings_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StockServiceServer).GetStockListings(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: StockService_GetStockListings_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StockServiceServer).GetStockListings(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _StockService_GetStockPrice_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(models.Stock)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StockServiceServer).GetStockPrice(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: StockService_GetStockPrice_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StockServiceServer).GetStockPrice(ctx, req.(*models.Stock))
	}
	return interceptor(ctx, in, info, handler)
}

func _StockService_GetStockPriceStream_Handler(srv any, stream grpc.ServerStream) error {
	m := new(emptypb.Empty)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(StockServiceServer).GetStockPriceStream(m, &grpc.GenericServerStream[emptypb.Empty, models.StockPrice]{ServerStream: stream})
}

func _StockService_GetStocksPrices_Handler(srv any, stream grpc.ServerStream) error {
	return srv.(StockServiceServer).GetStocksPrices(&grpc.GenericServerStream[models.Stock, models.StockPriceList]{ServerStream: stream})
}

func _StockService_GetCompanyStockPriceStream_Handler(srv any, stream grpc.ServerStream) error {
	return srv.(StockServiceServer).GetCompanyStockPriceStream(&grpc.GenericServerStream[models.Stock, models.StockPrice]{ServerStream: stream})
}

var StockService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "stockdetails.StockService",
	HandlerType: (*StockServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetStockListings",
			Handler:    _StockService_GetStockListings_Handler,
		},
		{
			MethodName: "GetStockPrice",
			Handler:    _StockService_GetStockPrice_Handler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "GetStockPriceStream",
			Handler:       _StockService_GetStockPriceStream_Handler,
			ServerStreams: true,
		},
		{
			StreamName:    "GetStocksPrices",
			Handler:       _StockService_GetStocksPrices_Handler,
			ClientStreams: true,
		},
		{
			StreamName:    "GetCompanyStockPriceStream",
			Handler:       _StockService_GetCompanyStockPriceStream_Handler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "stockdetails.proto",
}

// -----------------------------------------------------------------------------
// AuthService
// -----------------------------------------------------------------------------

type AuthServiceClient interface {
	Authenticate(ctx context.Context, in *models.AuthRequest, opts ...grpc.CallOption) (*models.AuthResponse, error)
}

type authServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthServiceClient(cc grpc.ClientConnInterface) AuthServiceClient {
	return &authServiceClient{cc}
}

func (c *authServiceClient) Authenticate(ctx context.Context, in *models.AuthRequest, opts ...grpc.CallOption) (*models.AuthResponse, error) {
	out := new(models.AuthResponse)
	err := c.cc.Invoke(ctx, AuthService_Authenticate_FullMethodName, in, out, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

type AuthServiceServer interface {
	Authenticate(context.Context, *models.AuthRequest) (*models.AuthResponse, error)
	mustEmbedUnimplementedAuthServiceServer()
}

// UnimplementedAuthServiceServer must be embedded by every implementation.
type UnimplementedAuthServiceServer struct{}

func (UnimplementedAuthServiceServer) Authenticate(context.Context, *models.AuthRequest) (*models.AuthResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Authenticate not implemented")
}
func (UnimplementedAuthServiceServer) mustEmbedUnimplementedAuthServiceServer() {}

func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthService_ServiceDesc, srv)
}

func _AuthService_Authenticate_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(models.AuthRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthServiceServer).Authenticate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: AuthService_Authenticate_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AuthServiceServer).Authenticate(ctx, req.(*models.AuthRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var AuthService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "stockdetails.AuthService",
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Authenticate",
			Handler:    _AuthService_Authenticate_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "stockdetails.proto",
}
