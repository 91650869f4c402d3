// Package playmobile implements the PlayMobile (smsxabar.uz) broker API.
package playmobile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/popeskul/smshub/internal/models"
	"github.com/popeskul/smshub/internal/provider"
)

const (
	Name           = "playmobile"
	DefaultBaseURL = "https://send.smsxabar.uz/broker-api/send"
	Currency       = "UZS"

	groupPending = "PENDING"
	maxBodySize  = 1 << 20
)

var capabilities = models.Capabilities{
	Unicode:       true,
	Concatenation: true,
}

var statusMap = map[string]provider.Status{
	"DELIVERED":     provider.StatusDelivered,
	"DELIVRD":       provider.StatusDelivered,
	"PENDING":       provider.StatusSent,
	"ACCEPTED":      provider.StatusSent,
	"ENROUTE":       provider.StatusSent,
	"REJECTED":      provider.StatusFailed,
	"UNDELIVERABLE": provider.StatusFailed,
	"EXPIRED":       provider.StatusFailed,
	"FAILED":        provider.StatusFailed,
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Name() string {
	return Name
}

func (f *Factory) Capabilities() models.Capabilities {
	return capabilities
}

// ValidateConfig requires basic-auth credentials.
func (f *Factory) ValidateConfig(cfg provider.Config) bool {
	return cfg.Username != "" && cfg.Password != ""
}

func (f *Factory) New(cfg provider.Config) provider.Adapter {
	endpoint := cfg.BaseURL
	if endpoint == "" {
		endpoint = DefaultBaseURL
	}
	return &Adapter{
		endpoint: endpoint,
		username: cfg.Username,
		password: cfg.Password,
		client:   cfg.Client(),
	}
}

func (f *Factory) MapStatus(vendorStatus string) provider.Status {
	if s, ok := statusMap[strings.ToUpper(strings.TrimSpace(vendorStatus))]; ok {
		return s
	}
	return provider.StatusUnknown
}

func (f *Factory) RequiresToken() bool {
	return false
}

type Adapter struct {
	endpoint string
	username string
	password string
	client   *http.Client
}

type sendRequest struct {
	Messages []message `json:"messages"`
}

type message struct {
	Recipient string `json:"recipient"`
	MessageID string `json:"message-id"`
	SMS       sms    `json:"sms"`
}

type sms struct {
	Originator string  `json:"originator"`
	Content    content `json:"content"`
}

type content struct {
	Text string `json:"text"`
}

func (a *Adapter) Name() string {
	return Name
}

func (a *Adapter) Capabilities() models.Capabilities {
	return capabilities
}

func (a *Adapter) Send(ctx context.Context, to, from, text string, opts provider.SendOptions) provider.SendResult {
	messageID := opts.MessageID
	if messageID == "" {
		messageID = uuid.NewString()
	}

	payload, err := json.Marshal(sendRequest{
		Messages: []message{{
			Recipient: strings.TrimPrefix(to, "+"),
			MessageID: messageID,
			SMS: sms{
				Originator: from,
				Content:    content{Text: text},
			},
		}},
	})
	if err != nil {
		return provider.SendResult{Status: provider.StatusFailed, Error: fmt.Sprintf("failed to marshal request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(payload))
	if err != nil {
		return provider.SendResult{Status: provider.StatusFailed, Error: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(a.username, a.password)

	resp, err := a.client.Do(req)
	if err != nil {
		return provider.SendResult{Status: provider.StatusFailed, Error: fmt.Sprintf("failed to send request: %v", err), Transient: true}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return provider.SendResult{Status: provider.StatusFailed, Error: fmt.Sprintf("failed to read response: %v", err), Transient: true}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return provider.SendResult{
			Status:    provider.StatusFailed,
			Error:     fmt.Sprintf("HTTP request failed: status %d", resp.StatusCode),
			Transient: resp.StatusCode >= http.StatusInternalServerError,
			Raw:       body,
		}
	}

	first := gjson.GetBytes(body, "messages.0")
	if first.Get("status.group-name").String() != groupPending {
		errMsg := first.Get("status.description").String()
		if errMsg == "" {
			errMsg = "Unknown error"
		}
		return provider.SendResult{Status: provider.StatusFailed, Error: errMsg, Raw: body}
	}

	externalID := first.Get("message-id").String()
	if externalID == "" {
		externalID = messageID
	}

	return provider.SendResult{
		Status:     provider.StatusSent,
		ExternalID: externalID,
		Currency:   Currency,
		Raw:        body,
	}
}

// CheckStatus always reports unknown: the broker API has no status endpoint.
func (a *Adapter) CheckStatus(_ context.Context, _ string) provider.StatusResult {
	return provider.StatusResult{
		Status: provider.StatusUnknown,
		Error:  "status check not supported",
	}
}
