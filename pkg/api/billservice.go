package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// BillServiceName is the fully-qualified name of the BillService service.
const BillServiceName = "receiptsplit.v1.BillService"

// Procedure paths for each BillService RPC.
const (
	BillServiceAllocateProcedure       = "/receiptsplit.v1.BillService/Allocate"
	BillServiceSplitItemProcedure      = "/receiptsplit.v1.BillService/SplitItem"
	BillServiceDuplicateItemProcedure  = "/receiptsplit.v1.BillService/DuplicateItem"
	BillServiceExtractReceiptProcedure = "/receiptsplit.v1.BillService/ExtractReceipt"
	BillServiceCreateBillProcedure     = "/receiptsplit.v1.BillService/CreateBill"
	BillServiceGetBillProcedure        = "/receiptsplit.v1.BillService/GetBill"
	BillServiceGetSharedBillProcedure  = "/receiptsplit.v1.BillService/GetSharedBill"
	BillServiceUpdateBillProcedure     = "/receiptsplit.v1.BillService/UpdateBill"
	BillServiceDeleteBillProcedure     = "/receiptsplit.v1.BillService/DeleteBill"
	BillServiceListBillsProcedure      = "/receiptsplit.v1.BillService/ListBills"
)

// BillServiceHandler is implemented by the server.
type BillServiceHandler interface {
	Allocate(context.Context, *connect.Request[AllocateRequest]) (*connect.Response[AllocateResponse], error)
	SplitItem(context.Context, *connect.Request[SplitItemRequest]) (*connect.Response[SplitItemResponse], error)
	DuplicateItem(context.Context, *connect.Request[DuplicateItemRequest]) (*connect.Response[DuplicateItemResponse], error)
	ExtractReceipt(context.Context, *connect.Request[ExtractReceiptRequest]) (*connect.Response[ExtractReceiptResponse], error)
	CreateBill(context.Context, *connect.Request[CreateBillRequest]) (*connect.Response[CreateBillResponse], error)
	GetBill(context.Context, *connect.Request[GetBillRequest]) (*connect.Response[GetBillResponse], error)
	GetSharedBill(context.Context, *connect.Request[GetSharedBillRequest]) (*connect.Response[GetSharedBillResponse], error)
	UpdateBill(context.Context, *connect.Request[UpdateBillRequest]) (*connect.Response[UpdateBillResponse], error)
	DeleteBill(context.Context, *connect.Request[DeleteBillRequest]) (*connect.Response[DeleteBillResponse], error)
	ListBills(context.Context, *connect.Request[ListBillsRequest]) (*connect.Response[ListBillsResponse], error)
}

// NewBillServiceHandler builds an HTTP handler for the service. It returns
// the path to mount it on and the handler itself.
func NewBillServiceHandler(svc BillServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)
	idempotent := append(opts[:len(opts):len(opts)], connect.WithIdempotency(connect.IdempotencyNoSideEffects))

	handlers := map[string]http.Handler{
		BillServiceAllocateProcedure:       connect.NewUnaryHandler(BillServiceAllocateProcedure, svc.Allocate, idempotent...),
		BillServiceSplitItemProcedure:      connect.NewUnaryHandler(BillServiceSplitItemProcedure, svc.SplitItem, idempotent...),
		BillServiceDuplicateItemProcedure:  connect.NewUnaryHandler(BillServiceDuplicateItemProcedure, svc.DuplicateItem, idempotent...),
		BillServiceExtractReceiptProcedure: connect.NewUnaryHandler(BillServiceExtractReceiptProcedure, svc.ExtractReceipt, opts...),
		BillServiceCreateBillProcedure:     connect.NewUnaryHandler(BillServiceCreateBillProcedure, svc.CreateBill, opts...),
		BillServiceGetBillProcedure:        connect.NewUnaryHandler(BillServiceGetBillProcedure, svc.GetBill, idempotent...),
		BillServiceGetSharedBillProcedure:  connect.NewUnaryHandler(BillServiceGetSharedBillProcedure, svc.GetSharedBill, idempotent...),
		BillServiceUpdateBillProcedure:     connect.NewUnaryHandler(BillServiceUpdateBillProcedure, svc.UpdateBill, opts...),
		BillServiceDeleteBillProcedure:     connect.NewUnaryHandler(BillServiceDeleteBillProcedure, svc.DeleteBill, opts...),
		BillServiceListBillsProcedure:      connect.NewUnaryHandler(BillServiceListBillsProcedure, svc.ListBills, idempotent...),
	}

	return "/" + BillServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := handlers[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

// BillServiceClient is a client for the service.
type BillServiceClient struct {
	allocate       *connect.Client[AllocateRequest, AllocateResponse]
	splitItem      *connect.Client[SplitItemRequest, SplitItemResponse]
	duplicateItem  *connect.Client[DuplicateItemRequest, DuplicateItemResponse]
	extractReceipt *connect.Client[ExtractReceiptRequest, ExtractReceiptResponse]
	createBill     *connect.Client[CreateBillRequest, CreateBillResponse]
	getBill        *connect.Client[GetBillRequest, GetBillResponse]
	getSharedBill  *connect.Client[GetSharedBillRequest, GetSharedBillResponse]
	updateBill     *connect.Client[UpdateBillRequest, UpdateBillResponse]
	deleteBill     *connect.Client[DeleteBillRequest, DeleteBillResponse]
	listBills      *connect.Client[ListBillsRequest, ListBillsResponse]
}

// NewBillServiceClient constructs a client for the service at baseURL
// (for example, http://localhost:8080).
func NewBillServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *BillServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return &BillServiceClient{
		allocate:       connect.NewClient[AllocateRequest, AllocateResponse](httpClient, baseURL+BillServiceAllocateProcedure, opts...),
		splitItem:      connect.NewClient[SplitItemRequest, SplitItemResponse](httpClient, baseURL+BillServiceSplitItemProcedure, opts...),
		duplicateItem:  connect.NewClient[DuplicateItemRequest, DuplicateItemResponse](httpClient, baseURL+BillServiceDuplicateItemProcedure, opts...),
		extractReceipt: connect.NewClient[ExtractReceiptRequest, ExtractReceiptResponse](httpClient, baseURL+BillServiceExtractReceiptProcedure, opts...),
		createBill:     connect.NewClient[CreateBillRequest, CreateBillResponse](httpClient, baseURL+BillServiceCreateBillProcedure, opts...),
		getBill:        connect.NewClient[GetBillRequest, GetBillResponse](httpClient, baseURL+BillServiceGetBillProcedure, opts...),
		getSharedBill:  connect.NewClient[GetSharedBillRequest, GetSharedBillResponse](httpClient, baseURL+BillServiceGetSharedBillProcedure, opts...),
		updateBill:     connect.NewClient[UpdateBillRequest, UpdateBillResponse](httpClient, baseURL+BillServiceUpdateBillProcedure, opts...),
		deleteBill:     connect.NewClient[DeleteBillRequest, DeleteBillResponse](httpClient, baseURL+BillServiceDeleteBillProcedure, opts...),
		listBills:      connect.NewClient[ListBillsRequest, ListBillsResponse](httpClient, baseURL+BillServiceListBillsProcedure, opts...),
	}
}

func (c *BillServiceClient) Allocate(ctx context.Context, req *connect.Request[AllocateRequest]) (*connect.Response[AllocateResponse], error) {
	return c.allocate.CallUnary(ctx, req)
}

func (c *BillServiceClient) SplitItem(ctx context.Context, req *connect.Request[SplitItemRequest]) (*connect.Response[SplitItemResponse], error) {
	return c.splitItem.CallUnary(ctx, req)
}

func (c *BillServiceClient) DuplicateItem(ctx context.Context, req *connect.Request[DuplicateItemRequest]) (*connect.Response[DuplicateItemResponse], error) {
	return c.duplicateItem.CallUnary(ctx, req)
}

func (c *BillServiceClient) ExtractReceipt(ctx context.Context, req *connect.Request[ExtractReceiptRequest]) (*connect.Response[ExtractReceiptResponse], error) {
	return c.extractReceipt.CallUnary(ctx, req)
}

func (c *BillServiceClient) CreateBill(ctx context.Context, req *connect.Request[CreateBillRequest]) (*connect.Response[CreateBillResponse], error) {
	return c.createBill.CallUnary(ctx, req)
}

func (c *BillServiceClient) GetBill(ctx context.Context, req *connect.Request[GetBillRequest]) (*connect.Response[GetBillResponse], error) {
	return c.getBill.CallUnary(ctx, req)
}

func (c *BillServiceClient) GetSharedBill(ctx context.Context, req *connect.Request[GetSharedBillRequest]) (*connect.Response[GetSharedBillResponse], error) {
	return c.getSharedBill.CallUnary(ctx, req)
}

func (c *BillServiceClient) UpdateBill(ctx context.Context, req *connect.Request[UpdateBillRequest]) (*connect.Response[UpdateBillResponse], error) {
	return c.updateBill.CallUnary(ctx, req)
}

func (c *BillServiceClient) DeleteBill(ctx context.Context, req *connect.Request[DeleteBillRequest]) (*connect.Response[DeleteBillResponse], error) {
	return c.deleteBill.CallUnary(ctx, req)
}

func (c *BillServiceClient) ListBills(ctx context.Context, req *connect.Request[ListBillsRequest]) (*connect.Response[ListBillsResponse], error) {
	return c.listBills.CallUnary(ctx, req)
}

// UnimplementedBillServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedBillServiceHandler struct{}

func unimplemented(procedure string) error {
	return connect.NewError(connect.CodeUnimplemented, errors.New(procedure+" is not implemented"))
}

func (UnimplementedBillServiceHandler) Allocate(context.Context, *connect.Request[AllocateRequest]) (*connect.Response[AllocateResponse], error) {
	return nil, unimplemented(BillServiceAllocateProcedure)
}

func (UnimplementedBillServiceHandler) SplitItem(context.Context, *connect.Request[SplitItemRequest]) (*connect.Response[SplitItemResponse], error) {
	return nil, unimplemented(BillServiceSplitItemProcedure)
}

func (UnimplementedBillServiceHandler) DuplicateItem(context.Context, *connect.Request[DuplicateItemRequest]) (*connect.Response[DuplicateItemResponse], error) {
	return nil, unimplemented(BillServiceDuplicateItemProcedure)
}

func (UnimplementedBillServiceHandler) ExtractReceipt(context.Context, *connect.Request[ExtractReceiptRequest]) (*connect.Response[ExtractReceiptResponse], error) {
	return nil, unimplemented(BillServiceExtractReceiptProcedure)
}

func (UnimplementedBillServiceHandler) CreateBill(context.Context, *connect.Request[CreateBillRequest]) (*connect.Response[CreateBillResponse], error) {
	return nil, unimplemented(BillServiceCreateBillProcedure)
}

func (UnimplementedBillServiceHandler) GetBill(context.Context, *connect.Request[GetBillRequest]) (*connect.Response[GetBillResponse], error) {
	return nil, unimplemented(BillServiceGetBillProcedure)
}

func (UnimplementedBillServiceHandler) GetSharedBill(context.Context, *connect.Request[GetSharedBillRequest]) (*connect.Response[GetSharedBillResponse], error) {
	return nil, unimplemented(BillServiceGetSharedBillProcedure)
}

func (UnimplementedBillServiceHandler) UpdateBill(context.Context, *connect.Request[UpdateBillRequest]) (*connect.Response[UpdateBillResponse], error) {
	return nil, unimplemented(BillServiceUpdateBillProcedure)
}

func (UnimplementedBillServiceHandler) DeleteBill(context.Context, *connect.Request[DeleteBillRequest]) (*connect.Response[DeleteBillResponse], error) {
	return nil, unimplemented(BillServiceDeleteBillProcedure)
}

func (UnimplementedBillServiceHandler) ListBills(context.Context, *connect.Request[ListBillsRequest]) (*connect.Response[ListBillsResponse], error) {
	return nil, unimplemented(BillServiceListBillsProcedure)
}
