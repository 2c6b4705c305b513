package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Ocada-ai-biz/agentx/internal/registry"
	"github.com/Ocada-ai-biz/agentx/internal/ui/view"
)

const maxEvents = 5

type GetEventsArgs struct {
	Query string `json:"query" jsonschema:"required,description=What to search the internet for." validate:"required"`
}

func (h *handlers) getEvents(ctx context.Context, turn *registry.Turn, args GetEventsArgs) error {
	if h.deps.Search == nil {
		return fmt.Errorf("web search %w", errUnavailable)
	}
	_ = turn.Sink.Update(view.EventsSkeleton{})

	results, err := h.deps.Search.Search(ctx, args.Query)
	if err != nil {
		return fmt.Errorf("search unavailable: %w", err)
	}
	if len(results) > maxEvents {
		results = results[:maxEvents]
	}

	items := make([]view.EventItem, 0, len(results))
	for _, r := range results {
		items = append(items, view.EventItem{
			Date:        r.PublishedDate,
			Headline:    r.Title,
			Description: r.Content,
			URL:         r.URL,
		})
	}
	if err := turn.Sink.Seal(view.EventList{Events: items}); err != nil {
		return err
	}
	h.record(turn, GetEvents, items)

	raw, err := json.Marshal(args.Query)
	if err != nil {
		return err
	}
	appendResult(turn, GetEvents, string(raw))
	return nil
}
