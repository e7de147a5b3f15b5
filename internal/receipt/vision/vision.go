// Package vision sends receipt images to a multimodal model and returns the
// model's raw answer for receipt.Normalize.
package vision

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/bonsai/internal/factor"
	"github.com/MrJamesThe3rd/bonsai/internal/receipt"
)

var ErrDisabled = errors.New("receipt analysis is not configured")

type Analyzer interface {
	Analyze(ctx context.Context, image []byte, mimeType string) (string, error)
}

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	temperature = 0.1
	maxTokens   = 1000
)

type Config struct {
	Provider  string
	OpenAIKey string
	GeminiKey string
	Model     string
	BaseURL   string
	Timeout   time.Duration
}

// New builds the analyzer for cfg.Provider. A provider without a key
// yields Disabled rather than an error, so the rest of the API still runs.
func New(ctx context.Context, cfg Config) (Analyzer, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.OpenAIKey == "" {
			return Disabled{}, nil
		}

		return NewOpenAI(cfg), nil
	case ProviderGemini:
		if cfg.GeminiKey == "" {
			return Disabled{}, nil
		}

		return NewGemini(ctx, cfg)
	case "", "none":
		return Disabled{}, nil
	}

	return nil, fmt.Errorf("unknown vision provider %q", cfg.Provider)
}

// Disabled fails every call with ErrDisabled.
type Disabled struct{}

func (Disabled) Analyze(context.Context, []byte, string) (string, error) {
	return "", ErrDisabled
}

const userInstruction = "Extract all receipt information and calculate total CO2 emissions."

// SystemPrompt describes the receipt JSON contract and embeds the factor
// table so the model's emissions match the local estimate.
func SystemPrompt() string {
	var b strings.Builder

	b.WriteString("You are an expert at analyzing receipts and calculating carbon emissions. Your task:\n")
	b.WriteString("1. Extract all receipt information including merchant name, items, prices, and quantities\n")
	b.WriteString("2. Categorize the transaction as one of: ")

	cats := make([]string, 0, len(receipt.Categories))
	for _, c := range receipt.Categories {
		cats = append(cats, "'"+string(c)+"'")
	}

	b.WriteString(strings.Join(cats, ", "))
	b.WriteString("\n")
	b.WriteString("3. Calculate CO2 emissions using these values (kg CO2e per kg food produced):\n")

	for _, r := range factor.Table() {
		b.WriteString("- " + r.Name + ": " + strconv.FormatFloat(r.Factor, 'f', -1, 64) + "\n")
	}

	b.WriteString("- Other items: " + strconv.FormatFloat(factor.Other, 'f', -1, 64) + "\n")
	b.WriteString("4. If an item is a meat that is not listed, treat it as beef (beef herd)\n")
	b.WriteString("5. Do not skip any items, even if they seem insignificant\n")
	b.WriteString("\nReturn only a JSON object with exactly this structure:\n")
	b.WriteString(`{
  "merchant": "store name",
  "category": "grocery/dining/retail/other",
  "amount": total_receipt_amount,
  "items": [{"name": "item name", "price": unit_price, "quantity": item_quantity}],
  "co2Emissions": total_emissions_in_kg
}`)

	return b.String()
}
