package view

import (
	"fmt"
	"strings"
	"time"
)

func formatDelta(delta float64) string {
	if delta >= 0 {
		return th.UpStyle.Render(fmt.Sprintf("▲ %.2f%%", delta))
	}
	return th.DownStyle.Render(fmt.Sprintf("▼ %.2f%%", -delta))
}

func formatPrice(price float64) string {
	return fmt.Sprintf("$%.2f", price)
}

// StockSkeleton is shown while a single price is being fetched
type StockSkeleton struct{}

func (StockSkeleton) Render() string {
	return th.CardStyle.Render(th.MutedStyle.Render("░░░░  ░░░░░░░░  ░░░░"))
}

type StockPrice struct {
	Symbol string
	Name   string
	Price  float64
	Delta  float64
}

func (v StockPrice) Render() string {
	header := th.HeaderStyle.Render(v.Symbol)
	if v.Name != "" {
		header += th.MutedStyle.Render(" " + v.Name)
	}
	body := fmt.Sprintf("%s\n%s  %s", header, formatPrice(v.Price), formatDelta(v.Delta))
	return th.CardStyle.Render(body)
}

// Purchase is the confirmation card for a pending buy
type Purchase struct {
	Symbol string
	Name   string
	Price  float64
	Amount int
}

func (v Purchase) Total() float64 {
	return v.Price * float64(v.Amount)
}

func (v Purchase) Render() string {
	lines := []string{
		th.HeaderStyle.Render("Buy " + v.Symbol),
		fmt.Sprintf("%d × %s = %s", v.Amount, formatPrice(v.Price), formatPrice(v.Total())),
		th.MutedStyle.Render(fmt.Sprintf("run `/buy %s %d` to confirm", v.Symbol, v.Amount)),
	}
	return th.CardStyle.Render(strings.Join(lines, "\n"))
}

// StocksSkeleton is shown while a list of prices is being fetched
type StocksSkeleton struct {
	Rows int
}

func (v StocksSkeleton) Render() string {
	rows := v.Rows
	if rows <= 0 {
		rows = 3
	}
	lines := make([]string, rows)
	for i := range lines {
		lines[i] = th.MutedStyle.Render("░░░░  ░░░░░░░░  ░░░░")
	}
	return th.CardStyle.Render(strings.Join(lines, "\n"))
}

type StockList struct {
	Stocks []StockPrice
}

func (v StockList) Render() string {
	if len(v.Stocks) == 0 {
		return th.CardStyle.Render(th.MutedStyle.Render("no stocks"))
	}
	lines := make([]string, 0, len(v.Stocks))
	for _, s := range v.Stocks {
		lines = append(lines, fmt.Sprintf("%-6s %-20s %12s  %s", s.Symbol, s.Name, formatPrice(s.Price), formatDelta(s.Delta)))
	}
	return th.CardStyle.Render(strings.Join(lines, "\n"))
}

// EventsSkeleton is shown while a search runs
type EventsSkeleton struct{}

func (EventsSkeleton) Render() string {
	return th.CardStyle.Render(th.MutedStyle.Render("░░░░░░░░░░░░░░░░░░░░\n░░░░░░░░░░░░"))
}

type EventItem struct {
	Date        time.Time
	Headline    string
	Description string
	URL         string
}

type EventList struct {
	Events []EventItem
}

func (v EventList) Render() string {
	if len(v.Events) == 0 {
		return th.CardStyle.Render(th.MutedStyle.Render("no events found"))
	}
	var b strings.Builder
	for i, e := range v.Events {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if !e.Date.IsZero() {
			b.WriteString(th.MutedStyle.Render(e.Date.Format("Jan 2, 2006")))
			b.WriteString("\n")
		}
		b.WriteString(th.HeaderStyle.Render(e.Headline))
		if e.Description != "" {
			b.WriteString("\n")
			b.WriteString(e.Description)
		}
		if e.URL != "" {
			b.WriteString("\n")
			b.WriteString(th.MutedStyle.Render(e.URL))
		}
	}
	return th.CardStyle.Render(b.String())
}
