package handler

import (
	"context"

	"google.golang.org/grpc"
)

const inventoryServiceName = "pos.inventory.v1.InventoryService"

type SettleLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type SettleRequest struct {
	StoreID   string       `json:"store_id"`
	RequestID string       `json:"request_id,omitempty"`
	Lines     []SettleLine `json:"lines"`
}

// SettleResponse carries every line outcome. A store fault part way through is
// reported in Error alongside the lines that did settle.
type SettleResponse struct {
	SettlementID string           `json:"settlement_id"`
	StoreID      string           `json:"store_id"`
	Status       string           `json:"status"`
	Lines        []LineResultHTTP `json:"lines"`
	Error        string           `json:"error,omitempty"`
}

type RestockRequest struct {
	StoreID   string `json:"store_id"`
	ProductID string `json:"product_id"`
	Amount    int    `json:"amount"`
}

type AvailabilityRequest struct {
	StoreID   string `json:"store_id"`
	ProductID string `json:"product_id"`
}

type InventoryServer interface {
	Settle(context.Context, *SettleRequest) (*SettleResponse, error)
	Restock(context.Context, *RestockRequest) (*AvailabilityHTTPResponse, error)
	GetAvailability(context.Context, *AvailabilityRequest) (*AvailabilityHTTPResponse, error)
}

func RegisterInventoryServer(s grpc.ServiceRegistrar, srv InventoryServer) {
	s.RegisterService(&InventoryServiceDesc, srv)
}

var InventoryServiceDesc = grpc.ServiceDesc{
	ServiceName: inventoryServiceName,
	HandlerType: (*InventoryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Settle", Handler: settleHandler},
		{MethodName: "Restock", Handler: restockHandler},
		{MethodName: "GetAvailability", Handler: getAvailabilityHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func settleHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SettleRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InventoryServer).Settle(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + inventoryServiceName + "/Settle"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(InventoryServer).Settle(ctx, req.(*SettleRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func restockHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RestockRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InventoryServer).Restock(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + inventoryServiceName + "/Restock"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(InventoryServer).Restock(ctx, req.(*RestockRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getAvailabilityHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(AvailabilityRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InventoryServer).GetAvailability(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + inventoryServiceName + "/GetAvailability"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(InventoryServer).GetAvailability(ctx, req.(*AvailabilityRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// InventoryClient calls the inventory service over the JSON codec.
type InventoryClient struct {
	cc grpc.ClientConnInterface
}

func NewInventoryClient(cc grpc.ClientConnInterface) *InventoryClient {
	return &InventoryClient{cc: cc}
}

func (c *InventoryClient) Settle(ctx context.Context, in *SettleRequest, opts ...grpc.CallOption) (*SettleResponse, error) {
	out := new(SettleResponse)
	if err := c.invoke(ctx, "Settle", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *InventoryClient) Restock(ctx context.Context, in *RestockRequest, opts ...grpc.CallOption) (*AvailabilityHTTPResponse, error) {
	out := new(AvailabilityHTTPResponse)
	if err := c.invoke(ctx, "Restock", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *InventoryClient) GetAvailability(ctx context.Context, in *AvailabilityRequest, opts ...grpc.CallOption) (*AvailabilityHTTPResponse, error) {
	out := new(AvailabilityHTTPResponse)
	if err := c.invoke(ctx, "GetAvailability", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *InventoryClient) invoke(ctx context.Context, method string, in, out interface{}, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(JSONCodecName)}, opts...)
	return c.cc.Invoke(ctx, "/"+inventoryServiceName+"/"+method, in, out, opts...)
}
