package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/Ocada-ai-biz/agentx/internal/config"
	"github.com/pkg/errors"
)

// Bird fetches wallet analytics for an address
type Bird struct {
	c *client
}

func NewBird(cfg config.Endpoint, hc *http.Client) *Bird {
	c := newClient(cfg, hc)
	if cfg.APIKey != "" {
		c.headers["X-API-KEY"] = cfg.APIKey
	}
	return &Bird{c: c}
}

// Wallet returns the analytics document for an address, pretty-printed
func (b *Bird) Wallet(ctx context.Context, address string) (string, error) {
	data, err := b.c.get(ctx, "/analytics/address/"+url.PathEscape(address), nil)
	if err != nil {
		return "", errors.Wrapf(err, "bird analytics for %s", address)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return "", errors.Wrap(err, "bird returned invalid json")
	}
	return buf.String(), nil
}
