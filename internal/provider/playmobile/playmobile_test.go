package playmobile_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/popeskul/smshub/internal/provider"
	"github.com/popeskul/smshub/internal/provider/playmobile"
)

func TestFactory_MapStatus(t *testing.T) {
	f := playmobile.NewFactory()

	tests := map[string]provider.Status{
		"DELIVERED":     provider.StatusDelivered,
		"DELIVRD":       provider.StatusDelivered,
		"PENDING":       provider.StatusSent,
		"ACCEPTED":      provider.StatusSent,
		"enroute":       provider.StatusSent,
		"REJECTED":      provider.StatusFailed,
		"UNDELIVERABLE": provider.StatusFailed,
		"EXPIRED":       provider.StatusFailed,
		"FAILED":        provider.StatusFailed,
		"UNKNOWN":       provider.StatusUnknown,
	}

	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, f.MapStatus(in))
		})
	}
}

func TestFactory_ValidateConfig(t *testing.T) {
	f := playmobile.NewFactory()

	assert.True(t, f.ValidateConfig(provider.Config{Username: "u", Password: "p"}))
	assert.False(t, f.ValidateConfig(provider.Config{Username: "u"}))
	assert.False(t, f.ValidateConfig(provider.Config{Token: "t"}))
	assert.False(t, f.RequiresToken())
	assert.False(t, f.Capabilities().DeliveryReports)
}

func TestAdapter_Send(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantStatus    provider.Status
		wantID        string
		wantError     string
		wantTransient bool
	}{
		{
			name:       "Pending group means accepted",
			status:     http.StatusOK,
			body:       `{"messages":[{"message-id":"msg-42","status":{"group-name":"PENDING"}}]}`,
			wantStatus: provider.StatusSent,
			wantID:     "msg-42",
		},
		{
			name:       "Falls back to request message id",
			status:     http.StatusOK,
			body:       `{"messages":[{"status":{"group-name":"PENDING"}}]}`,
			wantStatus: provider.StatusSent,
			wantID:     "42",
		},
		{
			name:       "Rejected with description",
			status:     http.StatusOK,
			body:       `{"messages":[{"status":{"group-name":"REJECTED","description":"Invalid originator"}}]}`,
			wantStatus: provider.StatusFailed,
			wantError:  "Invalid originator",
		},
		{
			name:       "Empty response",
			status:     http.StatusOK,
			body:       `{}`,
			wantStatus: provider.StatusFailed,
			wantError:  "Unknown error",
		},
		{
			name:          "Server error",
			status:        http.StatusBadGateway,
			wantStatus:    provider.StatusFailed,
			wantError:     "HTTP request failed: status 502",
			wantTransient: true,
		},
		{
			name:       "Unauthorized",
			status:     http.StatusUnauthorized,
			wantStatus: provider.StatusFailed,
			wantError:  "HTTP request failed: status 401",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				user, pass, ok := r.BasicAuth()
				assert.True(t, ok)
				assert.Equal(t, "user", user)
				assert.Equal(t, "pass", pass)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				raw, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				body := gjson.ParseBytes(raw)
				assert.Equal(t, "998901234567", body.Get("messages.0.recipient").String())
				assert.Equal(t, "42", body.Get("messages.0.message-id").String())
				assert.Equal(t, "3700", body.Get("messages.0.sms.originator").String())
				assert.Equal(t, "Hello", body.Get("messages.0.sms.content.text").String())

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			adapter := playmobile.NewFactory().New(provider.Config{
				BaseURL:  server.URL,
				Username: "user",
				Password: "pass",
			})

			res := adapter.Send(context.Background(), "+998901234567", "3700", "Hello", provider.SendOptions{MessageID: "42"})

			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, tt.wantID, res.ExternalID)
			assert.Equal(t, tt.wantError, res.Error)
			assert.Equal(t, tt.wantTransient, res.Transient)
		})
	}
}

func TestAdapter_CheckStatus(t *testing.T) {
	adapter := playmobile.NewFactory().New(provider.Config{Username: "u", Password: "p"})

	res := adapter.CheckStatus(context.Background(), "any")
	require.Equal(t, provider.StatusUnknown, res.Status)
	assert.NotEmpty(t, res.Error)
}
