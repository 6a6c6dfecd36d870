package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/receiptsplit/internal/calculator"
	"github.com/mmynk/receiptsplit/internal/draft"
	"github.com/mmynk/receiptsplit/internal/extract"
	"github.com/mmynk/receiptsplit/internal/metrics"
	"github.com/mmynk/receiptsplit/internal/models"
	"github.com/mmynk/receiptsplit/internal/money"
	"github.com/mmynk/receiptsplit/internal/share"
	"github.com/mmynk/receiptsplit/internal/storage"
	"github.com/mmynk/receiptsplit/pkg/api"
)

// maxImageBytes bounds ExtractReceipt uploads.
const maxImageBytes = 10 << 20

// BillService implements the Connect BillService.
type BillService struct {
	api.UnimplementedBillServiceHandler
	store     storage.Store
	shares    *share.Manager
	extractor extract.Extractor
	metrics   *metrics.Metrics
	policy    calculator.Policy
}

// Option configures a BillService.
type Option func(*BillService)

// WithExtractor enables ExtractReceipt.
func WithExtractor(e extract.Extractor) Option {
	return func(s *BillService) { s.extractor = e }
}

// WithMetrics records allocations to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *BillService) { s.metrics = m }
}

// WithPolicy overrides calculator.DefaultPolicy.
func WithPolicy(p calculator.Policy) Option {
	return func(s *BillService) { s.policy = p }
}

// NewBillService creates a new BillService with the given storage backend
// and share link manager.
func NewBillService(store storage.Store, shares *share.Manager, opts ...Option) *BillService {
	s := &BillService{
		store:  store,
		shares: shares,
		policy: calculator.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// toConnectError logs err and maps it to a Connect status code.
func toConnectError(op string, err error) error {
	var code connect.Code
	switch {
	case errors.Is(err, calculator.ErrInvalidInput),
		errors.Is(err, calculator.ErrLengthMismatch),
		errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, extract.ErrUnsupportedImage):
		code = connect.CodeInvalidArgument
	case errors.Is(err, storage.ErrNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, share.ErrInvalidLink):
		code = connect.CodePermissionDenied
	case errors.Is(err, extract.ErrNoResult):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	default:
		slog.Error(op+" failed", "error", err)
		return connect.NewError(connect.CodeInternal, err)
	}
	slog.Warn(op+" rejected", "code", code, "error", err)
	return connect.NewError(code, err)
}

// prepare validates a form and computes its allocation. The returned form
// is normalized (duplicate assignees collapsed).
func (s *BillService) prepare(form models.FormData) (models.FormData, *models.BillAllocation, error) {
	d, err := draft.FromForm(form)
	if err != nil {
		return form, nil, err
	}
	alloc, err := d.Allocate(s.policy)
	if err != nil {
		return form, nil, err
	}
	s.metrics.ObserveAllocation(alloc)
	return d.Form(), alloc, nil
}

// Allocate computes every participant's share of a bill without saving it.
func (s *BillService) Allocate(ctx context.Context, req *connect.Request[api.AllocateRequest]) (*connect.Response[api.AllocateResponse], error) {
	msg := req.Msg
	slog.Debug("Allocating bill",
		"items", len(msg.Items),
		"participants", len(msg.Participants),
		"tax", msg.Tax,
		"tip", msg.Tip,
		"discount", msg.Discount,
	)

	_, alloc, err := s.prepare(msg.FormData)
	if err != nil {
		return nil, toConnectError("Allocate", err)
	}

	resp := &api.AllocateResponse{Allocation: alloc}
	if msg.PayerID != "" {
		resp.Transfers, err = calculator.Settle(alloc, msg.PayerID)
		if err != nil {
			return nil, toConnectError("Allocate", err)
		}
	}

	return connect.NewResponse(resp), nil
}

// SplitItem replaces one item with count pieces whose prices sum to the
// original, remainder cents going to the first pieces. The pieces start
// unassigned.
func (s *BillService) SplitItem(ctx context.Context, req *connect.Request[api.SplitItemRequest]) (*connect.Response[api.SplitItemResponse], error) {
	items, assignments, err := calculator.SplitItem(req.Msg.Items, req.Msg.Assignments, req.Msg.Index, req.Msg.Count)
	if err != nil {
		return nil, toConnectError("SplitItem", err)
	}
	return connect.NewResponse(&api.SplitItemResponse{Items: items, Assignments: assignments}), nil
}

// DuplicateItem inserts copies of one item right after it.
func (s *BillService) DuplicateItem(ctx context.Context, req *connect.Request[api.DuplicateItemRequest]) (*connect.Response[api.DuplicateItemResponse], error) {
	items, assignments, err := calculator.DuplicateItem(req.Msg.Items, req.Msg.Assignments, req.Msg.Index, req.Msg.Count)
	if err != nil {
		return nil, toConnectError("DuplicateItem", err)
	}
	return connect.NewResponse(&api.DuplicateItemResponse{Items: items, Assignments: assignments}), nil
}

// ExtractReceipt reads a receipt photo into a pre-filled form.
func (s *BillService) ExtractReceipt(ctx context.Context, req *connect.Request[api.ExtractReceiptRequest]) (*connect.Response[api.ExtractReceiptResponse], error) {
	if s.extractor == nil {
		return nil, connect.NewError(connect.CodeUnimplemented, errors.New("receipt extraction is not configured"))
	}
	if len(req.Msg.Image) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("image is required"))
	}
	if len(req.Msg.Image) > maxImageBytes {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("image exceeds %d bytes", maxImageBytes))
	}

	receipt, err := s.extractor.Extract(ctx, req.Msg.Image, req.Msg.MimeType)
	if err != nil {
		return nil, toConnectError("ExtractReceipt", err)
	}
	slog.Info("Receipt extracted", "business", receipt.BusinessName, "items", len(receipt.Items))

	return connect.NewResponse(&api.ExtractReceiptResponse{Receipt: receipt}), nil
}

// CreateBill validates, allocates and persists a new bill.
func (s *BillService) CreateBill(ctx context.Context, req *connect.Request[api.CreateBillRequest]) (*connect.Response[api.CreateBillResponse], error) {
	form, alloc, err := s.prepare(req.Msg.FormData)
	if err != nil {
		return nil, toConnectError("CreateBill", err)
	}

	bill := &models.Bill{
		Title:      strings.TrimSpace(req.Msg.Title),
		FormData:   form,
		Allocation: alloc,
	}

	// Save to storage (generates ID, slug and timestamps)
	if err := s.store.CreateBill(ctx, bill); err != nil {
		return nil, toConnectError("CreateBill", err)
	}

	token, err := s.shares.Generate(bill.ID, bill.Slug)
	if err != nil {
		return nil, toConnectError("CreateBill", err)
	}

	slog.Info("Bill created", "bill_id", bill.ID, "slug", bill.Slug, "title", bill.Title)

	return connect.NewResponse(&api.CreateBillResponse{Bill: bill, ShareToken: token}), nil
}

// GetBill retrieves a bill by ID along with a fresh share token.
func (s *BillService) GetBill(ctx context.Context, req *connect.Request[api.GetBillRequest]) (*connect.Response[api.GetBillResponse], error) {
	if req.Msg.ID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("id is required"))
	}

	bill, err := s.store.GetBill(ctx, req.Msg.ID)
	if err != nil {
		return nil, toConnectError("GetBill", err)
	}

	token, err := s.shares.Generate(bill.ID, bill.Slug)
	if err != nil {
		return nil, toConnectError("GetBill", err)
	}

	return connect.NewResponse(&api.GetBillResponse{Bill: bill, ShareToken: token}), nil
}

// GetSharedBill resolves a share token to its bill.
func (s *BillService) GetSharedBill(ctx context.Context, req *connect.Request[api.GetSharedBillRequest]) (*connect.Response[api.GetSharedBillResponse], error) {
	claims, err := s.shares.Validate(req.Msg.Token)
	if err != nil {
		return nil, toConnectError("GetSharedBill", err)
	}

	bill, err := s.store.GetBillBySlug(ctx, claims.Slug)
	if err != nil {
		return nil, toConnectError("GetSharedBill", err)
	}
	// A slug is never reassigned, but a token must not open a different bill.
	if bill.ID != claims.BillID {
		return nil, toConnectError("GetSharedBill", share.ErrInvalidLink)
	}

	return connect.NewResponse(&api.GetSharedBillResponse{Bill: bill}), nil
}

// UpdateBill replaces a bill's form data and recomputes its allocation.
func (s *BillService) UpdateBill(ctx context.Context, req *connect.Request[api.UpdateBillRequest]) (*connect.Response[api.UpdateBillResponse], error) {
	if req.Msg.ID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("id is required"))
	}

	form, alloc, err := s.prepare(req.Msg.FormData)
	if err != nil {
		return nil, toConnectError("UpdateBill", err)
	}

	bill := &models.Bill{
		ID:         req.Msg.ID,
		Title:      strings.TrimSpace(req.Msg.Title),
		FormData:   form,
		Allocation: alloc,
	}
	if err := s.store.UpdateBill(ctx, bill); err != nil {
		return nil, toConnectError("UpdateBill", err)
	}

	updated, err := s.store.GetBill(ctx, bill.ID)
	if err != nil {
		return nil, toConnectError("UpdateBill", err)
	}

	slog.Info("Bill updated", "bill_id", updated.ID)

	return connect.NewResponse(&api.UpdateBillResponse{Bill: updated}), nil
}

// DeleteBill removes a bill.
func (s *BillService) DeleteBill(ctx context.Context, req *connect.Request[api.DeleteBillRequest]) (*connect.Response[api.DeleteBillResponse], error) {
	if req.Msg.ID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("id is required"))
	}
	if err := s.store.DeleteBill(ctx, req.Msg.ID); err != nil {
		return nil, toConnectError("DeleteBill", err)
	}

	slog.Info("Bill deleted", "bill_id", req.Msg.ID)

	return connect.NewResponse(&api.DeleteBillResponse{}), nil
}

// ListBills returns recent bills, newest first.
func (s *BillService) ListBills(ctx context.Context, req *connect.Request[api.ListBillsRequest]) (*connect.Response[api.ListBillsResponse], error) {
	if req.Msg.Limit < 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("limit cannot be negative"))
	}

	bills, err := s.store.ListBills(ctx, req.Msg.Limit)
	if err != nil {
		return nil, toConnectError("ListBills", err)
	}

	return connect.NewResponse(&api.ListBillsResponse{Bills: bills}), nil
}
