package eskiz

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/popeskul/smshub/internal/provider"
)

// TemplateClient manages templates through /template.
type TemplateClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func (c *TemplateClient) List(ctx context.Context) ([]provider.RemoteTemplate, error) {
	status, body, err := doRequest(ctx, c.client, http.MethodGet, c.baseURL+"/template", c.token, nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("failed to list templates: %s", errorMessage(status, body))
	}

	res := gjson.ParseBytes(body)
	if !res.IsArray() {
		for _, key := range []string{"result", "data"} {
			if v := res.Get(key); v.IsArray() {
				res = v
				break
			}
		}
	}

	var templates []provider.RemoteTemplate
	res.ForEach(func(_, item gjson.Result) bool {
		name := item.Get("name").String()
		if name == "" {
			name = "Unknown Template"
		}
		status := item.Get("status").String()
		if status == "" {
			status = "pending"
		}
		templates = append(templates, provider.RemoteTemplate{
			ID:     item.Get("id").String(),
			Name:   name,
			Text:   item.Get("text").String(),
			Status: status,
		})
		return true
	})

	return templates, nil
}

// Submit posts a template for moderation and returns the vendor template id.
func (c *TemplateClient) Submit(ctx context.Context, name, text string) (string, error) {
	form := url.Values{}
	form.Set("name", name)
	form.Set("text", text)

	status, body, err := doRequest(ctx, c.client, http.MethodPost, c.baseURL+"/template", c.token, form)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", errors.New(errorMessage(status, body))
	}

	return firstString(gjson.ParseBytes(body), "id", "data.id", "result.id"), nil
}
