package types

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"
)

// JSONCodecName is the content subtype the internal service speaks
// ("application/grpc+json"). Messages are the plain structs of this package.
const JSONCodecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return JSONCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

const (
	PaymentsService_Health_FullMethodName           = "/bookpayments.PaymentsService/Health"
	PaymentsService_HasPurchased_FullMethodName     = "/bookpayments.PaymentsService/HasPurchased"
	PaymentsService_GetPaymentStatus_FullMethodName = "/bookpayments.PaymentsService/GetPaymentStatus"
	PaymentsService_RefundPayment_FullMethodName    = "/bookpayments.PaymentsService/RefundPayment"
)

// PaymentsServiceClient is used by the catalogue to gate content and by
// back-office tooling.
type PaymentsServiceClient interface {
	Health(ctx context.Context, in *HealthRequest, opts ...grpc.CallOption) (*HealthResponse, error)
	HasPurchased(ctx context.Context, in *HasPurchasedRequest, opts ...grpc.CallOption) (*HasPurchasedResponse, error)
	GetPaymentStatus(ctx context.Context, in *PaymentIDRequest, opts ...grpc.CallOption) (*PaymentStatusResponse, error)
	RefundPayment(ctx context.Context, in *RefundPaymentRequest, opts ...grpc.CallOption) (*PaymentEnvelopeResponse, error)
}

type paymentsServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewPaymentsServiceClient(cc grpc.ClientConnInterface) PaymentsServiceClient {
	return &paymentsServiceClient{cc: cc}
}

func (c *paymentsServiceClient) invoke(ctx context.Context, method string, in, out interface{}, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(JSONCodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *paymentsServiceClient) Health(ctx context.Context, in *HealthRequest, opts ...grpc.CallOption) (*HealthResponse, error) {
	out := new(HealthResponse)
	if err := c.invoke(ctx, PaymentsService_Health_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *paymentsServiceClient) HasPurchased(ctx context.Context, in *HasPurchasedRequest, opts ...grpc.CallOption) (*HasPurchasedResponse, error) {
	out := new(HasPurchasedResponse)
	if err := c.invoke(ctx, PaymentsService_HasPurchased_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *paymentsServiceClient) GetPaymentStatus(ctx context.Context, in *PaymentIDRequest, opts ...grpc.CallOption) (*PaymentStatusResponse, error) {
	out := new(PaymentStatusResponse)
	if err := c.invoke(ctx, PaymentsService_GetPaymentStatus_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *paymentsServiceClient) RefundPayment(ctx context.Context, in *RefundPaymentRequest, opts ...grpc.CallOption) (*PaymentEnvelopeResponse, error) {
	out := new(PaymentEnvelopeResponse)
	if err := c.invoke(ctx, PaymentsService_RefundPayment_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

type PaymentsServiceServer interface {
	Health(context.Context, *HealthRequest) (*HealthResponse, error)
	HasPurchased(context.Context, *HasPurchasedRequest) (*HasPurchasedResponse, error)
	GetPaymentStatus(context.Context, *PaymentIDRequest) (*PaymentStatusResponse, error)
	RefundPayment(context.Context, *RefundPaymentRequest) (*PaymentEnvelopeResponse, error)
}

// UnimplementedPaymentsServiceServer can be embedded to stay forward compatible.
type UnimplementedPaymentsServiceServer struct{}

func (UnimplementedPaymentsServiceServer) Health(context.Context, *HealthRequest) (*HealthResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Health not implemented")
}

func (UnimplementedPaymentsServiceServer) HasPurchased(context.Context, *HasPurchasedRequest) (*HasPurchasedResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method HasPurchased not implemented")
}

func (UnimplementedPaymentsServiceServer) GetPaymentStatus(context.Context, *PaymentIDRequest) (*PaymentStatusResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetPaymentStatus not implemented")
}

func (UnimplementedPaymentsServiceServer) RefundPayment(context.Context, *RefundPaymentRequest) (*PaymentEnvelopeResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RefundPayment not implemented")
}

func RegisterPaymentsServiceServer(s grpc.ServiceRegistrar, srv PaymentsServiceServer) {
	s.RegisterService(&PaymentsService_ServiceDesc, srv)
}

func _PaymentsService_Health_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(HealthRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PaymentsServiceServer).Health(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: PaymentsService_Health_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PaymentsServiceServer).Health(ctx, req.(*HealthRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _PaymentsService_HasPurchased_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(HasPurchasedRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PaymentsServiceServer).HasPurchased(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: PaymentsService_HasPurchased_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PaymentsServiceServer).HasPurchased(ctx, req.(*HasPurchasedRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _PaymentsService_GetPaymentStatus_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(PaymentIDRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PaymentsServiceServer).GetPaymentStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: PaymentsService_GetPaymentStatus_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PaymentsServiceServer).GetPaymentStatus(ctx, req.(*PaymentIDRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _PaymentsService_RefundPayment_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RefundPaymentRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PaymentsServiceServer).RefundPayment(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: PaymentsService_RefundPayment_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PaymentsServiceServer).RefundPayment(ctx, req.(*RefundPaymentRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var PaymentsService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "bookpayments.PaymentsService",
	HandlerType: (*PaymentsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Health", Handler: _PaymentsService_Health_Handler},
		{MethodName: "HasPurchased", Handler: _PaymentsService_HasPurchased_Handler},
		{MethodName: "GetPaymentStatus", Handler: _PaymentsService_GetPaymentStatus_Handler},
		{MethodName: "RefundPayment", Handler: _PaymentsService_RefundPayment_Handler},
	},
	Streams: []grpc.StreamDesc{},
}
