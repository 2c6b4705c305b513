package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Ocada-ai-biz/agentx/internal/provider"
	"github.com/Ocada-ai-biz/agentx/internal/registry"
	"github.com/Ocada-ai-biz/agentx/internal/ui/view"
)

const (
	defaultShares = 100
	maxShares     = 1000
)

type StockArgs struct {
	Symbol string  `json:"symbol" jsonschema:"required,description=The name or symbol of the stock or currency. e.g. DOGE/BTC/USD." validate:"required"`
	Name   string  `json:"name,omitempty" jsonschema:"description=The name of the stock."`
	Price  float64 `json:"price" jsonschema:"required,description=The price of the stock."`
	Delta  float64 `json:"delta,omitempty" jsonschema:"description=The change in price of the stock."`
}

type PurchaseArgs struct {
	Symbol         string  `json:"symbol" jsonschema:"required,description=The name or symbol of the stock or currency. e.g. DOGE/BTC/USD." validate:"required"`
	Name           string  `json:"name" jsonschema:"required,description=The name of the stock or currency."`
	Price          float64 `json:"price" jsonschema:"required,description=The price of the stock."`
	NumberOfShares *int    `json:"numberOfShares,omitempty" jsonschema:"description=The number of shares to purchase. Omit it if the user did not specify one."`
}

type ListStocksArgs struct {
	Stocks []StockArgs `json:"stocks" jsonschema:"required" validate:"dive"`
}

func (h *handlers) showStockPrice(ctx context.Context, turn *registry.Turn, args StockArgs) error {
	if h.deps.Prices == nil {
		return fmt.Errorf("price source %w", errUnavailable)
	}
	_ = turn.Sink.Update(view.StockSkeleton{})

	q, err := h.deps.Prices.Price(ctx, lookupKey(args.Symbol, args.Name))
	if err != nil {
		return fmt.Errorf("price unavailable for %s: %w", args.Symbol, err)
	}

	card := view.StockPrice{
		Symbol: strings.ToUpper(args.Symbol),
		Name:   firstNonEmpty(q.Name, args.Name),
		Price:  q.Price,
		Delta:  q.Change24h,
	}
	if err := turn.Sink.Seal(card); err != nil {
		return err
	}
	h.record(turn, ShowStockPrice, card)
	appendResult(turn, ShowStockPrice, fmt.Sprintf("[Price of %s = %s]", card.Symbol, formatNumber(card.Price)))
	return nil
}

func (h *handlers) showPurchase(ctx context.Context, turn *registry.Turn, args PurchaseArgs) error {
	amount := defaultShares
	if args.NumberOfShares != nil {
		amount = *args.NumberOfShares
	}
	if amount <= 0 || amount > maxShares {
		if err := turn.Sink.Seal(view.BotMessage{Text: "Invalid amount"}); err != nil {
			return err
		}
		appendResult(turn, ShowStockPurchaseUI, "[Invalid amount]")
		return nil
	}

	price := args.Price
	name := args.Name
	if h.deps.Prices != nil {
		_ = turn.Sink.Update(view.StockSkeleton{})
		q, err := h.deps.Prices.Price(ctx, lookupKey(args.Symbol, args.Name))
		if err != nil {
			turn.Logger.Warn("live price unavailable, using quoted price", "symbol", args.Symbol, "error", err)
		} else {
			price = q.Price
			name = firstNonEmpty(q.Name, name)
		}
	}

	card := view.Purchase{
		Symbol: strings.ToUpper(args.Symbol),
		Name:   name,
		Price:  price,
		Amount: amount,
	}
	if err := turn.Sink.Seal(card); err != nil {
		return err
	}
	h.record(turn, ShowStockPurchaseUI, card)
	appendResult(turn, ShowStockPurchaseUI, fmt.Sprintf(
		"[UI for purchasing %d shares of %s. Current price = %s, total cost = %s]",
		amount, card.Symbol, formatNumber(price), formatNumber(card.Total())))
	return nil
}

func (h *handlers) listStocks(ctx context.Context, turn *registry.Turn, args ListStocksArgs) error {
	_ = turn.Sink.Update(view.StocksSkeleton{Rows: len(args.Stocks)})

	var stocks []view.StockPrice
	if h.deps.Prices != nil {
		trending, err := h.deps.Prices.Trending(ctx)
		if err != nil {
			turn.Logger.Warn("trending list unavailable", "error", err)
		}
		stocks = quotesToView(trending)
	}
	if len(stocks) == 0 {
		for _, s := range args.Stocks {
			stocks = append(stocks, view.StockPrice{
				Symbol: strings.ToUpper(s.Symbol),
				Name:   s.Name,
				Price:  s.Price,
				Delta:  s.Delta,
			})
		}
	}
	if len(stocks) == 0 {
		return fmt.Errorf("trending list %w", errUnavailable)
	}

	if err := turn.Sink.Seal(view.StockList{Stocks: stocks}); err != nil {
		return err
	}
	h.record(turn, ListStocks, stocks)

	raw, err := json.Marshal(stocks)
	if err != nil {
		return err
	}
	appendResult(turn, ListStocks, string(raw))
	return nil
}

func quotesToView(quotes []provider.Quote) []view.StockPrice {
	out := make([]view.StockPrice, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, view.StockPrice{
			Symbol: strings.ToUpper(q.Symbol),
			Name:   q.Name,
			Price:  q.Price,
			Delta:  q.Change24h,
		})
	}
	return out
}

// lookupKey prefers the coin name, which CoinGecko resolves more reliably
// than ticker symbols.
func lookupKey(symbol, name string) string {
	if name != "" {
		return name
	}
	return symbol
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
