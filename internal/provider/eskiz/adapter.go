package eskiz

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/popeskul/smshub/internal/models"
	"github.com/popeskul/smshub/internal/provider"
)

const maxBodySize = 1 << 20

// Adapter sends messages through the Eskiz REST API.
type Adapter struct {
	baseURL string
	token   string
	client  *http.Client
}

func (a *Adapter) Name() string {
	return Name
}

func (a *Adapter) Capabilities() models.Capabilities {
	return capabilities
}

func (a *Adapter) Send(ctx context.Context, to, from, text string, opts provider.SendOptions) provider.SendResult {
	form := url.Values{}
	form.Set("mobile_phone", strings.TrimPrefix(to, "+"))
	form.Set("message", text)
	form.Set("from", from)
	if opts.CallbackURL != "" {
		form.Set("callback_url", opts.CallbackURL)
	}

	status, body, err := a.do(ctx, http.MethodPost, "/message/sms/send", form)
	if err != nil {
		return provider.SendResult{Status: provider.StatusFailed, Error: err.Error(), Transient: true}
	}

	if status < 200 || status >= 300 {
		return provider.SendResult{
			Status:    provider.StatusFailed,
			Error:     errorMessage(status, body),
			Transient: status >= http.StatusInternalServerError,
			Raw:       body,
		}
	}

	res := gjson.ParseBytes(body)
	externalID := firstString(res, "id", "message_id", "data.id")

	return provider.SendResult{
		Status:     provider.StatusSent,
		ExternalID: externalID,
		Cost:       price(res, "price"),
		Currency:   Currency,
		Raw:        body,
	}
}

func (a *Adapter) CheckStatus(ctx context.Context, externalID string) provider.StatusResult {
	status, body, err := a.do(ctx, http.MethodGet, "/message/sms/status/"+url.PathEscape(externalID), nil)
	if err != nil {
		return provider.StatusResult{Status: provider.StatusUnknown, Error: err.Error()}
	}

	if status < 200 || status >= 300 {
		return provider.StatusResult{
			Status: provider.StatusUnknown,
			Error:  errorMessage(status, body),
			Raw:    body,
		}
	}

	res := gjson.ParseBytes(body)
	vendorStatus := firstString(res, "status", "data.status")

	cost := price(res, "data.price")
	if total := price(res, "data.total_price"); total.Valid {
		cost = total
	}

	result := provider.StatusResult{
		Status: mapStatus(vendorStatus),
		Cost:   cost,
		Raw:    body,
	}
	if cost.Valid {
		result.Currency = Currency
	}

	return result
}

func (a *Adapter) do(ctx context.Context, method, path string, form url.Values) (int, []byte, error) {
	return doRequest(ctx, a.client, method, a.baseURL+path, a.token, form)
}

func doRequest(ctx context.Context, client *http.Client, method, endpoint, token string, form url.Values) (int, []byte, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp.StatusCode, data, nil
}

func errorMessage(status int, body []byte) string {
	if msg := gjson.GetBytes(body, "message"); msg.Exists() && msg.String() != "" {
		return msg.String()
	}
	return fmt.Sprintf("unexpected status code: %d", status)
}

func firstString(res gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := res.Get(p); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

func price(res gjson.Result, path string) decimal.NullDecimal {
	v := res.Get(path)
	if !v.Exists() || v.Type == gjson.Null {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(strings.TrimSpace(v.String()))
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
