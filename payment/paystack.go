package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const DefaultPaystackBaseURL = "https://api.paystack.co"

// PaystackGateway calls GET /transaction/verify/{reference}.
type PaystackGateway struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

func NewPaystackGateway(baseURL, secretKey string, client *http.Client) *PaystackGateway {
	if baseURL == "" {
		baseURL = DefaultPaystackBaseURL
	}
	if client == nil {
		client = &http.Client{}
	}
	return &PaystackGateway{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		client:    client,
	}
}

func (g *PaystackGateway) Name() string { return "paystack" }

type paystackVerifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status    string `json:"status"`
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
		Currency  string `json:"currency"`
	} `json:"data"`
}

func (g *PaystackGateway) VerifyTransaction(ctx context.Context, reference string) (GatewayResult, error) {
	endpoint := g.baseURL + "/transaction/verify/" + url.PathEscape(reference)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return GatewayResult{}, fmt.Errorf("build paystack request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return GatewayResult{}, fmt.Errorf("paystack verify: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return GatewayResult{}, fmt.Errorf("read paystack response: %w", err)
	}

	var result GatewayResult
	if json.Valid(body) {
		result.Raw = body
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result, fmt.Errorf("paystack verify: unexpected status %d", resp.StatusCode)
	}

	var parsed paystackVerifyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return result, fmt.Errorf("decode paystack response: %w", err)
	}
	result.Status = parsed.Data.Status
	result.Amount = parsed.Data.Amount
	result.Currency = parsed.Data.Currency
	return result, nil
}
