package eskiz

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/popeskul/smshub/internal/provider"
)

// Authenticator obtains bearer tokens from POST /auth/login.
type Authenticator struct {
	baseURL  string
	email    string
	password string
	lifetime time.Duration
	client   *http.Client
}

func (a *Authenticator) Authenticate(ctx context.Context) (*provider.Credential, error) {
	if a.email == "" || a.password == "" {
		return nil, &provider.AuthError{
			Provider: Name,
			Category: provider.ConfigError,
			Err:      provider.ErrMissingCredentials,
		}
	}

	form := url.Values{}
	form.Set("email", a.email)
	form.Set("password", a.password)

	status, body, err := doRequest(ctx, a.client, http.MethodPost, a.baseURL+"/auth/login", "", form)
	if err != nil {
		return nil, &provider.AuthError{
			Provider: Name,
			Category: provider.TransportError,
			Err:      err,
		}
	}

	if status < 200 || status >= 300 {
		return nil, &provider.AuthError{
			Provider:   Name,
			Category:   provider.ClassifyAuthResponse(status, string(body)),
			StatusCode: status,
			Message:    errorMessage(status, body),
		}
	}

	token := gjson.GetBytes(body, "data.token").String()
	if token == "" {
		return nil, &provider.AuthError{
			Provider:   Name,
			Category:   provider.AuthFailure,
			StatusCode: status,
			Err:        errors.New("no token in login response"),
		}
	}

	metadata, err := sjson.SetBytes([]byte(`{}`), "email", a.email)
	if err != nil {
		metadata = nil
	}

	return &provider.Credential{
		Token:    token,
		Lifetime: a.lifetime,
		Metadata: metadata,
	}, nil
}
