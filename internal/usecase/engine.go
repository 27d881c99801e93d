package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"commerce-agent/internal/domain"
)

const maxSaveAttempts = 3

// SessionStore loads and saves durable conversation sessions. Save must fail
// with domain.ErrVersionConflict when the stored version no longer matches
// the version the session was loaded with.
type SessionStore interface {
	Load(ctx context.Context, customerID string) (*domain.ConversationSession, error)
	Save(ctx context.Context, session *domain.ConversationSession) error
}

// DeliveryDeduper records delivery ids. Mark returns false when the id was
// already seen within the redelivery window.
type DeliveryDeduper interface {
	Mark(ctx context.Context, deliveryID string) (bool, error)
}

// CatalogGateway is the read-only view of vendors and menu items.
type CatalogGateway interface {
	ListActiveVendors(ctx context.Context) ([]domain.Vendor, error)
	ListMenuItems(ctx context.Context, vendorID string) ([]domain.MenuItem, error)
}

// Engine is the conversation engine: it reconstructs per-customer state from
// the store on every event, runs one state-machine turn, and persists the
// result under optimistic concurrency.
type Engine struct {
	store      SessionStore
	dedup      DeliveryDeduper
	catalog    CatalogGateway
	checkout   *CheckoutOrchestrator
	dispatcher *Dispatcher
	logger     *slog.Logger
	now        func() time.Time
}

func NewEngine(store SessionStore, dedup DeliveryDeduper, catalog CatalogGateway, checkout *CheckoutOrchestrator, dispatcher *Dispatcher, logger *slog.Logger) (*Engine, error) {
	if store == nil {
		return nil, errors.New("usecase: session store must not be nil")
	}
	if dedup == nil {
		return nil, errors.New("usecase: delivery deduper must not be nil")
	}
	if catalog == nil {
		return nil, errors.New("usecase: catalog gateway must not be nil")
	}
	if checkout == nil {
		return nil, errors.New("usecase: checkout orchestrator must not be nil")
	}
	if dispatcher == nil {
		return nil, errors.New("usecase: dispatcher must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:      store,
		dedup:      dedup,
		catalog:    catalog,
		checkout:   checkout,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// HandleOutput is what one processed event produced.
type HandleOutput struct {
	Replies   []domain.OutboundMessage
	Duplicate bool
}

// HandleEvent processes one inbound webhook event to completion: dedup by
// delivery id, load session, route global commands, run the state machine,
// save under the loaded version, dispatch the outbound messages. A version
// conflict reloads and retries the whole turn against the fresh state, capped
// at maxSaveAttempts; a checkout executed along the way is never re-executed,
// only its commit is re-applied.
func (e *Engine) HandleEvent(ctx context.Context, ev domain.InboundEvent) (HandleOutput, error) {
	if strings.TrimSpace(ev.CustomerID) == "" {
		return HandleOutput{}, newError(ErrorInvalidInput, "missing_customer_id", nil)
	}
	if strings.TrimSpace(ev.DeliveryID) == "" {
		return HandleOutput{}, newError(ErrorInvalidInput, "missing_delivery_id", nil)
	}

	fresh, err := e.dedup.Mark(ctx, ev.DeliveryID)
	if err != nil {
		return HandleOutput{}, newError(ErrorInternal, "dedup_store_error", err)
	}
	if !fresh {
		e.logger.Info("duplicate delivery dropped", "customer_id", ev.CustomerID, "delivery_id", ev.DeliveryID)
		return HandleOutput{Duplicate: true}, nil
	}

	intent := ParseIntent(ev)

	var (
		work    *domain.ConversationSession
		replies []domain.OutboundMessage
		outcome *CheckoutOutcome
		saved   bool
	)
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		loaded, err := e.store.Load(ctx, ev.CustomerID)
		switch {
		case errors.Is(err, domain.ErrSessionNotFound):
			loaded = domain.NewSession(ev.CustomerID, e.now())
		case err != nil:
			return HandleOutput{}, newError(ErrorInternal, "session_load_error", err)
		}
		if attempt == 0 {
			e.dispatcher.AuditInbound(ctx, ev, loaded.VendorID)
		}

		work = loaded.Clone()
		work.LastActivityAt = e.now().UTC()

		if outcome != nil {
			// A previous attempt already created the order; commit it onto
			// the fresh session instead of running the turn again.
			replies = ApplyCheckout(work, outcome)
		} else {
			snapshot, err := e.fetchSnapshot(ctx, work, intent)
			if err != nil {
				e.dispatcher.Dispatch(ctx, ev.CustomerID, work.VendorID, []domain.OutboundMessage{
					domain.Text("We're having trouble reaching the kitchen right now. Please try again in a moment."),
				})
				return HandleOutput{}, newError(ErrorUpstream, "catalog_error", err)
			}

			msgs, handled := RouteCommand(work, intent, snapshot)
			if !handled {
				res := Transition(work, intent, snapshot)
				msgs = append(msgs, res.Messages...)
				if res.Checkout != nil {
					outcome = e.checkout.Execute(ctx, work, res.Checkout.Method)
					msgs = append(msgs, ApplyCheckout(work, outcome)...)
				}
			}
			replies = msgs
		}

		err = e.store.Save(ctx, work)
		if err == nil {
			saved = true
			break
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return HandleOutput{}, newError(ErrorInternal, "session_save_error", err)
		}
		e.logger.Warn("session version conflict, retrying", "customer_id", ev.CustomerID, "attempt", attempt+1)
	}
	if !saved {
		e.dispatcher.Dispatch(ctx, ev.CustomerID, "", []domain.OutboundMessage{
			domain.Text("Your messages arrived a little too fast. Please resend the last one."),
		})
		return HandleOutput{}, newError(ErrorConcurrencyConflict, "save_retries_exhausted", nil)
	}

	e.dispatcher.Dispatch(ctx, ev.CustomerID, work.VendorID, replies)
	return HandleOutput{Replies: replies}, nil
}

// fetchSnapshot pulls the catalog data this turn can reference: the active
// vendor list, plus menu items for the session's vendor or, during vendor
// selection, for the vendor the intent is about to pick.
func (e *Engine) fetchSnapshot(ctx context.Context, session *domain.ConversationSession, intent Intent) (domain.CatalogSnapshot, error) {
	vendors, err := e.catalog.ListActiveVendors(ctx)
	if err != nil {
		return domain.CatalogSnapshot{}, fmt.Errorf("usecase: list vendors: %w", err)
	}
	snap := domain.CatalogSnapshot{Vendors: vendors}

	vendorID := session.VendorID
	if vendorID == "" && session.Step == domain.StepVendorSelection {
		if id, ok := strings.CutPrefix(intent.SelectionID, "vendor_"); ok {
			vendorID = id
		} else if v, ok := fuzzyVendor(vendors, intent.Text); ok {
			vendorID = v.ID
		}
	}
	if vendorID != "" {
		items, err := e.catalog.ListMenuItems(ctx, vendorID)
		if err != nil {
			return domain.CatalogSnapshot{}, fmt.Errorf("usecase: list menu items for %s: %w", vendorID, err)
		}
		snap.Items = items
	}
	return snap, nil
}
