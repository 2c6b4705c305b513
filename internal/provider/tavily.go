package provider

import (
	"context"
	"net/http"
	"time"

	"github.com/Ocada-ai-biz/agentx/internal/config"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

type SearchResult struct {
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	Content       string    `json:"content"`
	Score         float64   `json:"score"`
	PublishedDate time.Time `json:"published_date,omitempty"`
}

// Tavily is a web search client
type Tavily struct {
	c      *client
	apiKey string
}

func NewTavily(cfg config.Endpoint, hc *http.Client) *Tavily {
	return &Tavily{c: newClient(cfg, hc), apiKey: cfg.APIKey}
}

func (t *Tavily) Search(ctx context.Context, query string) ([]SearchResult, error) {
	if t.apiKey == "" {
		return nil, errors.New("tavily api key is not configured")
	}
	data, err := t.c.post(ctx, "/search", map[string]any{
		"api_key":      t.apiKey,
		"query":        query,
		"search_depth": "basic",
		"topic":        "news",
		"max_results":  5,
	})
	if err != nil {
		return nil, errors.Wrap(err, "tavily search")
	}

	var out []SearchResult
	gjson.GetBytes(data, "results").ForEach(func(_, r gjson.Result) bool {
		res := SearchResult{
			Title:   r.Get("title").String(),
			URL:     r.Get("url").String(),
			Content: r.Get("content").String(),
			// score arrives as a number or a numeric string
			Score: r.Get("score").Float(),
		}
		if d := r.Get("published_date").String(); d != "" {
			res.PublishedDate = parseDate(d)
		}
		out = append(out, res)
		return true
	})
	return out, nil
}

func parseDate(s string) time.Time {
	for _, layout := range []string{time.RFC3339, time.RFC1123, time.RFC1123Z, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
