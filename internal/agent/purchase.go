package agent

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Ocada-ai-biz/agentx/internal/domain"
	"github.com/Ocada-ai-biz/agentx/internal/events"
	"github.com/Ocada-ai-biz/agentx/internal/ui"
	"github.com/Ocada-ai-biz/agentx/internal/ui/view"
	"github.com/google/uuid"
)

const maxPurchase = 1000

// purchaseEvents is enough buffer for every event a confirmation emits, so
// the background task never blocks on a reader that went away.
const purchaseEvents = 8

type PurchaseOptions struct {
	ConversationID uuid.UUID
	Symbol         string
	Price          float64
	Amount         int
}

func (o PurchaseOptions) validate() error {
	if strings.TrimSpace(o.Symbol) == "" {
		return errors.New("symbol is required")
	}
	if o.Price <= 0 {
		return errors.New("price must be positive")
	}
	if o.Amount <= 0 || o.Amount > maxPurchase {
		return fmt.Errorf("amount must be between 1 and %d", maxPurchase)
	}
	return nil
}

// ConfirmPurchase runs a mock purchase in the background. The returned stream
// reports its progress; the purchase completes whether or not anyone reads it.
func (a *Agent) ConfirmPurchase(ctx context.Context, opts PurchaseOptions) (AgentStream, error) {
	if err := opts.validate(); err != nil {
		return AgentStream{}, err
	}
	s, err := a.session(ctx, opts.ConversationID)
	if err != nil {
		return AgentStream{}, err
	}
	opts.Symbol = strings.ToUpper(opts.Symbol)

	eventsChan := make(chan events.Event, purchaseEvents)
	done := make(chan struct{})
	publish := func(ev events.Event) {
		select {
		case eventsChan <- ev:
		default:
			a.logger.Warn("dropping purchase event", "type", ev.Type())
		}
	}

	started := a.tasks.Go("confirm purchase", func(ctx context.Context) error {
		defer close(done)
		defer close(eventsChan)
		return a.purchase(ctx, s, opts, publish)
	})
	if !started {
		close(eventsChan)
		close(done)
		return AgentStream{}, errors.New("agent is shutting down")
	}
	return AgentStream{Events: eventsChan, Done: done}, nil
}

func (a *Agent) purchase(ctx context.Context, s *session, opts PurchaseOptions, publish func(events.Event)) error {
	total := opts.Price * float64(opts.Amount)
	factory := ui.NewFactory(publish)
	label := fmt.Sprintf("Purchasing %d %s...", opts.Amount, opts.Symbol)
	progress := factory.New(view.Spinner{Label: label})
	notice := factory.New(nil)

	if err := sleep(ctx, a.purchaseStep); err != nil {
		return a.abortPurchase(progress, notice, err)
	}
	_ = progress.Update(view.Spinner{Label: label + " working on it..."})

	if err := sleep(ctx, a.purchaseStep); err != nil {
		return a.abortPurchase(progress, notice, err)
	}

	s.busy.Lock()
	defer s.busy.Unlock()

	_ = progress.Seal(view.BotMessage{Text: fmt.Sprintf(
		"You have successfully purchased %d %s. Total cost: $%.2f", opts.Amount, opts.Symbol, total)})
	_ = notice.Seal(view.SystemMessage{Text: fmt.Sprintf(
		"You have purchased %d shares of %s at $%s. Total cost = $%.2f", opts.Amount, opts.Symbol, formatNumber(opts.Price), total)})

	s.ledger.Append(domain.Turn{
		Role: domain.RoleSystem,
		Content: fmt.Sprintf("[User has purchased %d tokens of %s at %s. Total cost = %s]",
			opts.Amount, opts.Symbol, formatNumber(opts.Price), formatNumber(total)),
	})
	version := s.ledger.Commit()
	a.history.Record(s.id.String(), fmt.Sprintf("/buy %s %d", opts.Symbol, opts.Amount), formatNumber(total), "purchase")
	publish(events.TurnDoneEvent{State: "done", Version: version})
	return nil
}

func (a *Agent) abortPurchase(progress, notice ui.Sink, err error) error {
	_ = progress.Seal(view.Cancelled{Reason: "purchase cancelled"})
	_ = notice.Seal(nil)
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
