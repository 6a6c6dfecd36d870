package service

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/receiptsplit/internal/calculator"
	"github.com/mmynk/receiptsplit/internal/extract"
	"github.com/mmynk/receiptsplit/internal/metrics"
	"github.com/mmynk/receiptsplit/internal/models"
	"github.com/mmynk/receiptsplit/internal/share"
	"github.com/mmynk/receiptsplit/internal/storage/sqlite"
	"github.com/mmynk/receiptsplit/pkg/api"
)

// fakeExtractor returns a canned receipt.
type fakeExtractor struct {
	receipt *extract.Receipt
	err     error
}

func (f *fakeExtractor) Extract(ctx context.Context, image []byte, mimeType string) (*extract.Receipt, error) {
	return f.receipt, f.err
}

// setupTestServer creates a test server backed by a temporary SQLite database.
func setupTestServer(t *testing.T, opts ...Option) *api.BillServiceClient {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	shares := share.NewManager("test-secret", time.Hour)
	svc := NewBillService(store, shares, opts...)
	path, handler := api.NewBillServiceHandler(svc)

	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)

	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return api.NewBillServiceClient(http.DefaultClient, server.URL)
}

func burgerForm() models.FormData {
	return models.FormData{
		BusinessName: "Corner Diner",
		Items: []models.Item{
			{Name: "Burger", Price: 1200},
			{Name: "Fries", Price: 500},
		},
		Assignments: [][]string{{"a", "b"}, {"a"}},
		Participants: []models.Participant{
			{ID: "a", Name: "Alice"},
			{ID: "b", Name: "Bob"},
		},
		Tax: 100,
		Tip: 200,
	}
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Errorf("expected code %v, got %v (%v)", want, got, err)
	}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAllocate_BurgerAndFries(t *testing.T) {
	client := setupTestServer(t)

	resp, err := client.Allocate(context.Background(), connect.NewRequest(&api.AllocateRequest{
		FormData: burgerForm(),
	}))
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	alloc := resp.Msg.Allocation
	if len(alloc.People) != 2 {
		t.Fatalf("expected 2 people, got %d", len(alloc.People))
	}
	alice, bob := alloc.People[0], alloc.People[1]
	if alice.ID != "a" || bob.ID != "b" {
		t.Errorf("participant order not preserved: %s, %s", alice.ID, bob.ID)
	}
	if !near(alice.Subtotal, 11) || !near(bob.Subtotal, 6) {
		t.Errorf("subtotals = %f, %f; want 11, 6", alice.Subtotal, bob.Subtotal)
	}
	if !near(alice.Tax, 11.0/17) || !near(bob.Tax, 6.0/17) {
		t.Errorf("tax = %f, %f", alice.Tax, bob.Tax)
	}
	if !near(alice.Total+bob.Total, 20) {
		t.Errorf("totals sum to %f, want 20", alice.Total+bob.Total)
	}
	if alloc.OverallTotal != 2000 {
		t.Errorf("overall total = %s, want 20.00", alloc.OverallTotal)
	}
	if len(resp.Msg.Transfers) != 0 {
		t.Errorf("no payer given, expected no transfers")
	}
}

func TestAllocate_WithPayer(t *testing.T) {
	client := setupTestServer(t)

	resp, err := client.Allocate(context.Background(), connect.NewRequest(&api.AllocateRequest{
		FormData: burgerForm(),
		PayerID:  "a",
	}))
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	if len(resp.Msg.Transfers) != 1 {
		t.Fatalf("expected 1 transfer, got %+v", resp.Msg.Transfers)
	}
	tr := resp.Msg.Transfers[0]
	// Bob: 6.00 + 0.3529 tax + 0.7059 tip = 7.0588
	if tr.From != "b" || tr.To != "a" || tr.Amount != 706 {
		t.Errorf("unexpected transfer %+v", tr)
	}
}

func TestAllocate_InvalidInput(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*models.FormData)
	}{
		{"length mismatch", func(f *models.FormData) { f.Assignments = f.Assignments[:1] }},
		{"unknown participant", func(f *models.FormData) { f.Assignments[1] = []string{"ghost"} }},
		{"duplicate participant", func(f *models.FormData) { f.Participants[1].ID = "a" }},
		{"negative price", func(f *models.FormData) { f.Items[0].Price = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := burgerForm()
			tt.mutate(&form)
			_, err := client.Allocate(ctx, connect.NewRequest(&api.AllocateRequest{FormData: form}))
			assertCode(t, err, connect.CodeInvalidArgument)
		})
	}

	t.Run("unknown payer", func(t *testing.T) {
		_, err := client.Allocate(ctx, connect.NewRequest(&api.AllocateRequest{FormData: burgerForm(), PayerID: "z"}))
		assertCode(t, err, connect.CodeInvalidArgument)
	})
}

func TestAllocate_NegativeAdjustmentsFollowPolicy(t *testing.T) {
	form := burgerForm()
	form.Tip = -500

	clamping := setupTestServer(t)
	resp, err := clamping.Allocate(context.Background(), connect.NewRequest(&api.AllocateRequest{FormData: form}))
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if resp.Msg.Allocation.TotalTip != 0 {
		t.Errorf("negative tip should be clamped, got %s", resp.Msg.Allocation.TotalTip)
	}

	strict := setupTestServer(t, WithPolicy(calculator.Policy{ClampNegativeToZero: false}))
	_, err = strict.Allocate(context.Background(), connect.NewRequest(&api.AllocateRequest{FormData: form}))
	assertCode(t, err, connect.CodeInvalidArgument)
}

func TestSplitItem(t *testing.T) {
	client := setupTestServer(t)

	resp, err := client.SplitItem(context.Background(), connect.NewRequest(&api.SplitItemRequest{
		Items:       []models.Item{{Name: "Pizza", Price: 1000}},
		Assignments: [][]string{{"a"}},
		Index:       0,
		Count:       3,
	}))
	if err != nil {
		t.Fatalf("SplitItem failed: %v", err)
	}

	want := []models.Item{
		{Name: "Pizza", Price: 334},
		{Name: "Pizza", Price: 333},
		{Name: "Pizza", Price: 333},
	}
	if len(resp.Msg.Items) != len(want) || len(resp.Msg.Assignments) != len(want) {
		t.Fatalf("got %d items / %d assignments, want %d", len(resp.Msg.Items), len(resp.Msg.Assignments), len(want))
	}
	for i := range want {
		if resp.Msg.Items[i] != want[i] {
			t.Errorf("item %d = %+v, want %+v", i, resp.Msg.Items[i], want[i])
		}
		if len(resp.Msg.Assignments[i]) != 0 {
			t.Errorf("split piece %d should start unassigned, got %v", i, resp.Msg.Assignments[i])
		}
	}

	_, err = client.SplitItem(context.Background(), connect.NewRequest(&api.SplitItemRequest{
		Items:       []models.Item{{Name: "Pizza", Price: 1000}},
		Assignments: [][]string{{}},
		Count:       1,
	}))
	assertCode(t, err, connect.CodeInvalidArgument)
}

func TestDuplicateItem(t *testing.T) {
	client := setupTestServer(t)

	resp, err := client.DuplicateItem(context.Background(), connect.NewRequest(&api.DuplicateItemRequest{
		Items:       []models.Item{{Name: "Soda", Price: 250}, {Name: "Chips", Price: 199}},
		Assignments: [][]string{{"a"}, {"b"}},
		Index:       0,
		Count:       2,
	}))
	if err != nil {
		t.Fatalf("DuplicateItem failed: %v", err)
	}

	names := []string{"Soda", "Soda", "Soda", "Chips"}
	if len(resp.Msg.Items) != len(names) {
		t.Fatalf("got %d items, want %d", len(resp.Msg.Items), len(names))
	}
	for i, name := range names {
		if resp.Msg.Items[i].Name != name {
			t.Errorf("item %d = %q, want %q", i, resp.Msg.Items[i].Name, name)
		}
	}
	if resp.Msg.Items[1].Price != 250 || resp.Msg.Items[2].Price != 250 {
		t.Errorf("copies must keep the original price")
	}
}

func TestExtractReceipt(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		client := setupTestServer(t)
		_, err := client.ExtractReceipt(context.Background(), connect.NewRequest(&api.ExtractReceiptRequest{
			Image: []byte{1}, MimeType: "image/png",
		}))
		assertCode(t, err, connect.CodeUnimplemented)
	})

	t.Run("returns receipt", func(t *testing.T) {
		fake := &fakeExtractor{receipt: &extract.Receipt{
			BusinessName: "Taqueria",
			Items:        []models.Item{{Name: "Taco", Price: 350}},
			Tax:          30,
		}}
		client := setupTestServer(t, WithExtractor(fake))
		resp, err := client.ExtractReceipt(context.Background(), connect.NewRequest(&api.ExtractReceiptRequest{
			Image: []byte{0x89, 'P', 'N', 'G'}, MimeType: "image/png",
		}))
		if err != nil {
			t.Fatalf("ExtractReceipt failed: %v", err)
		}
		if resp.Msg.Receipt.BusinessName != "Taqueria" || len(resp.Msg.Receipt.Items) != 1 {
			t.Errorf("unexpected receipt %+v", resp.Msg.Receipt)
		}
	})

	t.Run("oversized image", func(t *testing.T) {
		fake := &fakeExtractor{receipt: &extract.Receipt{BusinessName: "never reached"}}
		client := setupTestServer(t, WithExtractor(fake))
		_, err := client.ExtractReceipt(context.Background(), connect.NewRequest(&api.ExtractReceiptRequest{
			Image: make([]byte, maxImageBytes+1), MimeType: "image/jpeg",
		}))
		assertCode(t, err, connect.CodeInvalidArgument)
	})

	t.Run("empty image", func(t *testing.T) {
		client := setupTestServer(t, WithExtractor(&fakeExtractor{}))
		_, err := client.ExtractReceipt(context.Background(), connect.NewRequest(&api.ExtractReceiptRequest{MimeType: "image/png"}))
		assertCode(t, err, connect.CodeInvalidArgument)
	})

	t.Run("extractor error", func(t *testing.T) {
		client := setupTestServer(t, WithExtractor(&fakeExtractor{err: extract.ErrNoResult}))
		_, err := client.ExtractReceipt(context.Background(), connect.NewRequest(&api.ExtractReceiptRequest{
			Image: []byte{1}, MimeType: "image/png",
		}))
		assertCode(t, err, connect.CodeFailedPrecondition)
	})
}

func TestBillLifecycle(t *testing.T) {
	m := metrics.New()
	client := setupTestServer(t, WithMetrics(m))
	ctx := context.Background()

	created, err := client.CreateBill(ctx, connect.NewRequest(&api.CreateBillRequest{FormData: burgerForm()}))
	if err != nil {
		t.Fatalf("CreateBill failed: %v", err)
	}
	bill := created.Msg.Bill
	if bill.ID == "" || bill.Slug == "" {
		t.Fatalf("expected ID and slug, got %+v", bill)
	}
	if bill.Title != "Corner Diner" {
		t.Errorf("title = %q, want business name", bill.Title)
	}
	if bill.Allocation == nil || bill.Allocation.OverallTotal != 2000 {
		t.Errorf("allocation not computed on create: %+v", bill.Allocation)
	}
	if created.Msg.ShareToken == "" {
		t.Error("expected share token")
	}

	t.Run("GetBill", func(t *testing.T) {
		got, err := client.GetBill(ctx, connect.NewRequest(&api.GetBillRequest{ID: bill.ID}))
		if err != nil {
			t.Fatalf("GetBill failed: %v", err)
		}
		if got.Msg.Bill.Slug != bill.Slug || len(got.Msg.Bill.FormData.Items) != 2 {
			t.Errorf("unexpected bill %+v", got.Msg.Bill)
		}
	})

	t.Run("GetSharedBill", func(t *testing.T) {
		got, err := client.GetSharedBill(ctx, connect.NewRequest(&api.GetSharedBillRequest{Token: created.Msg.ShareToken}))
		if err != nil {
			t.Fatalf("GetSharedBill failed: %v", err)
		}
		if got.Msg.Bill.ID != bill.ID {
			t.Errorf("shared bill ID = %s, want %s", got.Msg.Bill.ID, bill.ID)
		}

		_, err = client.GetSharedBill(ctx, connect.NewRequest(&api.GetSharedBillRequest{Token: "bogus"}))
		assertCode(t, err, connect.CodePermissionDenied)
	})

	t.Run("UpdateBill", func(t *testing.T) {
		form := burgerForm()
		form.Discount = 300
		got, err := client.UpdateBill(ctx, connect.NewRequest(&api.UpdateBillRequest{ID: bill.ID, Title: "Lunch", FormData: form}))
		if err != nil {
			t.Fatalf("UpdateBill failed: %v", err)
		}
		if got.Msg.Bill.Title != "Lunch" {
			t.Errorf("title = %q, want Lunch", got.Msg.Bill.Title)
		}
		if got.Msg.Bill.Allocation.OverallTotal != 1700 {
			t.Errorf("overall total = %s, want 17.00", got.Msg.Bill.Allocation.OverallTotal)
		}

		_, err = client.UpdateBill(ctx, connect.NewRequest(&api.UpdateBillRequest{ID: "missing", FormData: form}))
		assertCode(t, err, connect.CodeNotFound)
	})

	t.Run("ListBills", func(t *testing.T) {
		got, err := client.ListBills(ctx, connect.NewRequest(&api.ListBillsRequest{}))
		if err != nil {
			t.Fatalf("ListBills failed: %v", err)
		}
		if len(got.Msg.Bills) != 1 || got.Msg.Bills[0].ID != bill.ID {
			t.Errorf("unexpected list %+v", got.Msg.Bills)
		}
	})

	t.Run("DeleteBill", func(t *testing.T) {
		if _, err := client.DeleteBill(ctx, connect.NewRequest(&api.DeleteBillRequest{ID: bill.ID})); err != nil {
			t.Fatalf("DeleteBill failed: %v", err)
		}
		_, err := client.GetBill(ctx, connect.NewRequest(&api.GetBillRequest{ID: bill.ID}))
		assertCode(t, err, connect.CodeNotFound)

		_, err = client.GetSharedBill(ctx, connect.NewRequest(&api.GetSharedBillRequest{Token: created.Msg.ShareToken}))
		assertCode(t, err, connect.CodeNotFound)
	})
}

func TestCreateBill_RejectsInvalidForm(t *testing.T) {
	client := setupTestServer(t)
	form := burgerForm()
	form.Assignments = append(form.Assignments, []string{"a"})

	_, err := client.CreateBill(context.Background(), connect.NewRequest(&api.CreateBillRequest{FormData: form}))
	assertCode(t, err, connect.CodeInvalidArgument)

	list, err := client.ListBills(context.Background(), connect.NewRequest(&api.ListBillsRequest{}))
	if err != nil {
		t.Fatalf("ListBills failed: %v", err)
	}
	if len(list.Msg.Bills) != 0 {
		t.Errorf("rejected bill must not be stored")
	}
}

func TestRequiredIDs(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()

	_, err := client.GetBill(ctx, connect.NewRequest(&api.GetBillRequest{}))
	assertCode(t, err, connect.CodeInvalidArgument)
	_, err = client.UpdateBill(ctx, connect.NewRequest(&api.UpdateBillRequest{}))
	assertCode(t, err, connect.CodeInvalidArgument)
	_, err = client.DeleteBill(ctx, connect.NewRequest(&api.DeleteBillRequest{}))
	assertCode(t, err, connect.CodeInvalidArgument)
	_, err = client.ListBills(ctx, connect.NewRequest(&api.ListBillsRequest{Limit: -1}))
	assertCode(t, err, connect.CodeInvalidArgument)
}

func TestToConnectError(t *testing.T) {
	tests := []struct {
		err  error
		want connect.Code
	}{
		{share.ErrInvalidLink, connect.CodePermissionDenied},
		{extract.ErrUnsupportedImage, connect.CodeInvalidArgument},
		{context.DeadlineExceeded, connect.CodeDeadlineExceeded},
		{errors.New("disk on fire"), connect.CodeInternal},
	}
	for _, tt := range tests {
		if got := connect.CodeOf(toConnectError("Test", tt.err)); got != tt.want {
			t.Errorf("toConnectError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
