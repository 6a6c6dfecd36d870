// Package api defines the receiptsplit.v1.BillService wire contract:
// request and response messages, procedure names, and Connect handler and
// client constructors.
package api

import (
	"github.com/mmynk/receiptsplit/internal/calculator"
	"github.com/mmynk/receiptsplit/internal/extract"
	"github.com/mmynk/receiptsplit/internal/models"
)

// AllocateRequest carries a form to compute shares for. When PayerID is
// set the response also lists who owes the payer what.
type AllocateRequest struct {
	models.FormData
	PayerID string `json:"payer_id,omitempty"`
}

type AllocateResponse struct {
	Allocation *models.BillAllocation `json:"allocation"`
	Transfers  []calculator.Transfer  `json:"transfers,omitempty"`
}

// SplitItemRequest splits Items[Index] into Count equal parts.
type SplitItemRequest struct {
	Items       []models.Item `json:"items"`
	Assignments [][]string    `json:"assignments"`
	Index       int           `json:"index"`
	Count       int           `json:"count"`
}

type SplitItemResponse struct {
	Items       []models.Item `json:"items"`
	Assignments [][]string    `json:"assignments"`
}

// DuplicateItemRequest inserts Count copies of Items[Index] after it.
type DuplicateItemRequest struct {
	Items       []models.Item `json:"items"`
	Assignments [][]string    `json:"assignments"`
	Index       int           `json:"index"`
	Count       int           `json:"count"`
}

type DuplicateItemResponse struct {
	Items       []models.Item `json:"items"`
	Assignments [][]string    `json:"assignments"`
}

// ExtractReceiptRequest carries a receipt photo. Image is base64 in JSON.
type ExtractReceiptRequest struct {
	Image    []byte `json:"image"`
	MimeType string `json:"mime_type"`
}

type ExtractReceiptResponse struct {
	Receipt *extract.Receipt `json:"receipt"`
}

type CreateBillRequest struct {
	Title    string          `json:"title,omitempty"`
	FormData models.FormData `json:"form_data"`
}

type CreateBillResponse struct {
	Bill       *models.Bill `json:"bill"`
	ShareToken string       `json:"share_token"`
}

type GetBillRequest struct {
	ID string `json:"id"`
}

type GetBillResponse struct {
	Bill       *models.Bill `json:"bill"`
	ShareToken string       `json:"share_token"`
}

// GetSharedBillRequest resolves a share token issued by CreateBill or GetBill.
type GetSharedBillRequest struct {
	Token string `json:"token"`
}

type GetSharedBillResponse struct {
	Bill *models.Bill `json:"bill"`
}

type UpdateBillRequest struct {
	ID       string          `json:"id"`
	Title    string          `json:"title,omitempty"`
	FormData models.FormData `json:"form_data"`
}

type UpdateBillResponse struct {
	Bill *models.Bill `json:"bill"`
}

type DeleteBillRequest struct {
	ID string `json:"id"`
}

type DeleteBillResponse struct{}

type ListBillsRequest struct {
	Limit int `json:"limit,omitempty"`
}

type ListBillsResponse struct {
	Bills []models.BillSummary `json:"bills"`
}

// LogAttrs summarize a request for RPC logs without its contents.

func (r *AllocateRequest) LogAttrs() []any {
	return []any{"items", len(r.Items), "participants", len(r.Participants), "payer", r.PayerID != ""}
}

func (r *SplitItemRequest) LogAttrs() []any {
	return []any{"items", len(r.Items), "index", r.Index, "count", r.Count}
}

func (r *DuplicateItemRequest) LogAttrs() []any {
	return []any{"items", len(r.Items), "index", r.Index, "count", r.Count}
}

func (r *ExtractReceiptRequest) LogAttrs() []any {
	return []any{"image_bytes", len(r.Image), "mime_type", r.MimeType}
}

func (r *CreateBillRequest) LogAttrs() []any {
	return []any{"items", len(r.FormData.Items), "participants", len(r.FormData.Participants)}
}

func (r *UpdateBillRequest) LogAttrs() []any {
	return []any{"bill_id", r.ID, "items", len(r.FormData.Items), "participants", len(r.FormData.Participants)}
}

func (r *GetBillRequest) LogAttrs() []any { return []any{"bill_id", r.ID} }

func (r *DeleteBillRequest) LogAttrs() []any { return []any{"bill_id", r.ID} }
