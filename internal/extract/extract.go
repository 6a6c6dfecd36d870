// Package extract turns a photo of a receipt into a best-guess item list.
//
// Extraction quality is not guaranteed. The result only pre-fills the
// editing form, and users are expected to correct it.
package extract

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mmynk/receiptsplit/internal/models"
	"github.com/mmynk/receiptsplit/internal/money"
)

var (
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrNoResult         = errors.New("no receipt data extracted")
)

// Receipt is what could be read from a receipt image.
type Receipt struct {
	BusinessName string        `json:"business_name"`
	Date         string        `json:"date"`
	Items        []models.Item `json:"items"`
	Tax          money.Cents   `json:"tax"`
	Tip          money.Cents   `json:"tip"`
	Discount     money.Cents   `json:"discount"`
}

// Extractor reads receipts.
type Extractor interface {
	Extract(ctx context.Context, image []byte, mimeType string) (*Receipt, error)
}

// OpenAIExtractor extracts receipts with a vision-capable chat model.
type OpenAIExtractor struct {
	client *openai.Client
	model  string
}

// NewOpenAIExtractor creates an extractor. baseURL may be empty to use the
// default OpenAI endpoint.
func NewOpenAIExtractor(apiKey, model, baseURL string) *OpenAIExtractor {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIExtractor{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

const systemPrompt = `You read restaurant receipts. Reply with JSON only, shaped as:
{"business_name": string, "date": "YYYY-MM-DD" or "",
 "items": [{"name": string, "price": number}],
 "tax": number, "tip": number, "discount": number}
Prices are line totals in the receipt currency with at most 2 decimals.
Use 0 for amounts that are not printed. Do not include tax, tip or discounts as items.`

// rawReceipt mirrors the model's reply. Amounts arrive as plain numbers and
// are converted separately so one bad price does not discard the whole reply.
type rawReceipt struct {
	BusinessName string  `json:"business_name"`
	Date         string  `json:"date"`
	Items        []struct {
		Name  string  `json:"name"`
		Price float64 `json:"price"`
	} `json:"items"`
	Tax      float64 `json:"tax"`
	Tip      float64 `json:"tip"`
	Discount float64 `json:"discount"`
}

// Extract sends the image to the model and parses its reply.
func (e *OpenAIExtractor) Extract(ctx context.Context, image []byte, mimeType string) (*Receipt, error) {
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedImage, mimeType)
	}
	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)

	slog.Info("Extracting receipt", "model", e.model, "bytes", len(image))

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: "Extract this receipt."},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
						URL:    dataURL,
						Detail: openai.ImageURLDetailHigh,
					}},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("receipt extraction failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoResult
	}

	return parseReply(resp.Choices[0].Message.Content)
}

func parseReply(content string) (*Receipt, error) {
	var raw rawReceipt
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse extraction result: %w", err)
	}

	receipt := &Receipt{
		BusinessName: strings.TrimSpace(raw.BusinessName),
		Date:         strings.TrimSpace(raw.Date),
		Items:        make([]models.Item, 0, len(raw.Items)),
		Tax:          toCents(raw.Tax),
		Tip:          toCents(raw.Tip),
		Discount:     toCents(raw.Discount),
	}
	for _, it := range raw.Items {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			continue
		}
		price := toCents(it.Price)
		if price < 0 {
			slog.Warn("Dropping negative extracted price", "item", name, "price", it.Price)
			continue
		}
		receipt.Items = append(receipt.Items, models.Item{Name: name, Price: price})
	}

	if len(receipt.Items) == 0 && receipt.BusinessName == "" {
		return nil, ErrNoResult
	}
	return receipt, nil
}

// toCents reads model output leniently: prices with stray extra decimals
// are rounded rather than rejected.
func toCents(dollars float64) money.Cents {
	if c, err := money.FromDollars(dollars); err == nil {
		return c
	}
	return money.Round(dollars)
}
