// Package tools holds the handlers the assistant can call: price cards, the
// purchase card, trending lists, event search and Solana wallet lookups.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/Ocada-ai-biz/agentx/internal/domain"
	"github.com/Ocada-ai-biz/agentx/internal/provider"
	"github.com/Ocada-ai-biz/agentx/internal/registry"
)

const (
	ShowStockPrice      = "show_stock_price"
	ShowStockPurchaseUI = "show_stock_purchase_ui"
	ListStocks          = "list_stocks"
	GetEvents           = "get_events"
	FetchSolanaDetail   = "fetch_solana_detail"
	FetchWalletDetails  = "fetch_wallet_details"
)

type PriceSource interface {
	Price(ctx context.Context, query string) (provider.Quote, error)
	Trending(ctx context.Context) ([]provider.Quote, error)
}

type Searcher interface {
	Search(ctx context.Context, query string) ([]provider.SearchResult, error)
}

type WalletSource interface {
	Wallet(ctx context.Context, address string) (string, error)
}

type AddressBook interface {
	Nearest(ctx context.Context, query string) (provider.SolanaMatch, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// HistoryRecorder stores a question/answer pair without blocking the turn
type HistoryRecorder interface {
	Record(conversationID, question, answer, kind string)
}

// Deps are the collaborators the handlers need. Any of them may be nil, in
// which case the tools depending on it report themselves unavailable.
type Deps struct {
	Prices     PriceSource
	Search     Searcher
	Wallets    WalletSource
	Addresses  AddressBook
	Summarizer Summarizer
	History    HistoryRecorder
}

var errUnavailable = errors.New("not configured")

// Register adds every tool to r. The registry is left open so callers can
// add their own before freezing it.
func Register(r *registry.Registry, deps Deps) error {
	h := &handlers{deps: deps}
	if err := registry.Register(r, ShowStockPrice,
		"Get the current price of a given stock or currency. Use this to show the price to the user.",
		h.showStockPrice); err != nil {
		return err
	}
	if err := registry.Register(r, ShowStockPurchaseUI,
		"Show price and the UI to purchase a stock or currency. Use this if the user wants to purchase a stock or currency.",
		h.showPurchase); err != nil {
		return err
	}
	if err := registry.Register(r, ListStocks,
		"Lists the top trending crypto tokens.",
		h.listStocks); err != nil {
		return err
	}
	if err := registry.Register(r, GetEvents,
		"Searches the internet to get the latest events.",
		h.getEvents); err != nil {
		return err
	}
	if err := registry.Register(r, FetchSolanaDetail,
		"Fetches information about a specific Solana wallet address.",
		h.fetchSolanaDetail); err != nil {
		return err
	}
	return registry.Register(r, FetchWalletDetails,
		"Fetches the details about a specific Solana wallet address.",
		h.fetchWalletDetails)
}

type handlers struct {
	deps Deps
}

func (h *handlers) record(turn *registry.Turn, kind string, answer any) {
	if h.deps.History == nil {
		return
	}
	var text string
	switch v := answer.(type) {
	case string:
		text = v
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			turn.Logger.Warn("failed to encode history answer", "tool", kind, "error", err)
			return
		}
		text = string(raw)
	}
	h.deps.History.Record(turn.ConversationID, turn.Query, text, kind)
}

func appendResult(turn *registry.Turn, name, content string) {
	turn.Ledger.Append(domain.Turn{
		Role:    domain.RoleFunction,
		Name:    name,
		Content: content,
	})
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
