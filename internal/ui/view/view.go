// Package view contains the renderable pieces that fill UI regions
package view

import (
	"fmt"
	"strings"

	"github.com/Ocada-ai-biz/agentx/internal/ui/theme"
	"github.com/charmbracelet/lipgloss"
)

var th = theme.Default

// BotMessage is plain assistant text, possibly still streaming
type BotMessage struct {
	Text string
}

func (v BotMessage) Render() string {
	return th.BotStyle.Render(v.Text)
}

// BotCard frames arbitrary content as an assistant card
type BotCard struct {
	Title string
	Body  string
}

func (v BotCard) Render() string {
	var b strings.Builder
	if v.Title != "" {
		b.WriteString(th.HeaderStyle.Render(v.Title))
		b.WriteString("\n")
	}
	b.WriteString(v.Body)
	return th.CardStyle.Render(b.String())
}

// Spinner is the placeholder shown while a tool call is resolving
type Spinner struct {
	Label string
}

func (v Spinner) Render() string {
	label := v.Label
	if label == "" {
		label = "working"
	}
	return th.MutedStyle.Render("⠋ " + label + "...")
}

type SystemMessage struct {
	Text string
}

func (v SystemMessage) Render() string {
	return th.SystemStyle.Render(v.Text)
}

type ErrorMessage struct {
	Text string
}

func (v ErrorMessage) Render() string {
	return th.ErrorStyle.Render("✗ " + v.Text)
}

// Cancelled marks a region whose turn was aborted
type Cancelled struct {
	Reason string
}

func (v Cancelled) Render() string {
	if v.Reason == "" {
		return th.MutedStyle.Render("[cancelled]")
	}
	return th.MutedStyle.Render(fmt.Sprintf("[cancelled: %s]", v.Reason))
}

// Group stacks several views vertically in one region
type Group []interface{ Render() string }

func (g Group) Render() string {
	parts := make([]string, 0, len(g))
	for _, v := range g {
		parts = append(parts, v.Render())
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
