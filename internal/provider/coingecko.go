package provider

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Ocada-ai-biz/agentx/internal/config"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

var ErrNotFound = errors.New("not found")

// Quote is a USD price with its 24h change in percent
type Quote struct {
	ID        string  `json:"id"`
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Change24h float64 `json:"change24h"`
}

type CoinGecko struct {
	c *client
}

func NewCoinGecko(cfg config.Endpoint, hc *http.Client) *CoinGecko {
	c := newClient(cfg, hc)
	if cfg.APIKey != "" {
		c.headers["x-cg-demo-api-key"] = cfg.APIKey
	}
	return &CoinGecko{c: c}
}

// Price looks up a coin by CoinGecko id, falling back to a search by name or
// symbol when the id is unknown
func (g *CoinGecko) Price(ctx context.Context, query string) (Quote, error) {
	id := coinID(query)
	q, err := g.priceByID(ctx, id)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return q, err
	}

	resolved, err := g.search(ctx, query)
	if err != nil {
		return Quote{}, err
	}
	if resolved.ID == id {
		return Quote{}, errors.Wrapf(ErrNotFound, "no price for %q", query)
	}
	q, err = g.priceByID(ctx, resolved.ID)
	if err != nil {
		return Quote{}, err
	}
	q.Symbol = resolved.Symbol
	q.Name = resolved.Name
	return q, nil
}

func (g *CoinGecko) priceByID(ctx context.Context, id string) (Quote, error) {
	data, err := g.c.get(ctx, "/simple/price", url.Values{
		"ids":                 {id},
		"vs_currencies":       {"usd"},
		"include_24hr_change": {"true"},
	})
	if err != nil {
		return Quote{}, errors.Wrap(err, "coingecko price")
	}

	key := gjson.Escape(id)
	price := gjson.GetBytes(data, key+".usd")
	if !price.Exists() {
		return Quote{}, errors.Wrapf(ErrNotFound, "no price for %q", id)
	}
	return Quote{
		ID:        id,
		Name:      id,
		Price:     price.Float(),
		Change24h: gjson.GetBytes(data, key+".usd_24h_change").Float(),
	}, nil
}

func (g *CoinGecko) search(ctx context.Context, query string) (Quote, error) {
	data, err := g.c.get(ctx, "/search", url.Values{"query": {query}})
	if err != nil {
		return Quote{}, errors.Wrap(err, "coingecko search")
	}
	first := gjson.GetBytes(data, "coins.0")
	if !first.Exists() {
		return Quote{}, errors.Wrapf(ErrNotFound, "no coin matches %q", query)
	}
	return Quote{
		ID:     first.Get("id").String(),
		Symbol: strings.ToUpper(first.Get("symbol").String()),
		Name:   first.Get("name").String(),
	}, nil
}

// Trending returns the currently trending coins
func (g *CoinGecko) Trending(ctx context.Context) ([]Quote, error) {
	data, err := g.c.get(ctx, "/search/trending", nil)
	if err != nil {
		return nil, errors.Wrap(err, "coingecko trending")
	}

	var out []Quote
	gjson.GetBytes(data, "coins.#.item").ForEach(func(_, item gjson.Result) bool {
		out = append(out, Quote{
			ID:        item.Get("id").String(),
			Symbol:    strings.ToUpper(item.Get("symbol").String()),
			Name:      item.Get("name").String(),
			Price:     parsePrice(item.Get("data.price")),
			Change24h: item.Get("data.price_change_percentage_24h.usd").Float(),
		})
		return true
	})
	if len(out) == 0 {
		return nil, errors.Wrap(ErrNotFound, "no trending coins")
	}
	return out, nil
}

// parsePrice accepts numbers and strings such as "$1,234.5"
func parsePrice(r gjson.Result) float64 {
	if r.Type == gjson.Number {
		return r.Float()
	}
	s := strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(r.String()))
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

// coinID normalises a coin name into the id form CoinGecko uses
func coinID(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}
