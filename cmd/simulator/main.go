// Command simulator runs the conversation engine locally: same engine, same
// state machine as the Lambda build, with the store, catalog, order service
// and transport swapped for in-process implementations. Type messages on
// stdin; replies print to stdout.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"commerce-agent/internal/domain"
	"commerce-agent/internal/repository"
	"commerce-agent/internal/usecase"
)

func main() {
	_ = godotenv.Load()

	level := slog.LevelWarn
	if os.Getenv("SIM_VERBOSE") != "" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	customerID := os.Getenv("SIM_CUSTOMER_ID")
	if customerID == "" {
		customerID = "+15550001111"
	}

	store := repository.NewMemoryStore()
	checkout, err := usecase.NewCheckoutOrchestrator(&localOrders{}, &localPayments{}, logger)
	if err != nil {
		logger.Error("failed to create checkout orchestrator", "err", err)
		os.Exit(1)
	}
	dispatcher, err := usecase.NewDispatcher(&stdoutTransport{}, store, logger)
	if err != nil {
		logger.Error("failed to create dispatcher", "err", err)
		os.Exit(1)
	}
	engine, err := usecase.NewEngine(store, store, &localCatalog{}, checkout, dispatcher, logger)
	if err != nil {
		logger.Error("failed to create engine", "err", err)
		os.Exit(1)
	}

	fmt.Println("Simulator ready. Say hi. Prefix with '#' to send a selection id (e.g. #vendor_1).")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		ev := domain.InboundEvent{
			CustomerID: customerID,
			DeliveryID: uuid.NewString(),
			Timestamp:  time.Now(),
		}
		if id, ok := strings.CutPrefix(line, "#"); ok {
			ev.SelectionID = id
		} else {
			ev.Text = line
		}

		if _, err := engine.HandleEvent(context.Background(), ev); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
	}
}

// stdoutTransport prints replies instead of calling the channel API.
type stdoutTransport struct{}

func (t *stdoutTransport) Send(_ context.Context, _ string, msg domain.OutboundMessage) (string, error) {
	if msg.Kind == domain.MessageChoice {
		fmt.Println("<", msg.Prompt)
		for _, opt := range msg.Options {
			fmt.Printf("   [#%s] %s\n", opt.ID, opt.Label)
		}
	} else {
		fmt.Println("<", msg.Body)
	}
	return uuid.NewString(), nil
}

// localCatalog is a small fixed catalog for offline runs.
type localCatalog struct{}

func (c *localCatalog) ListActiveVendors(_ context.Context) ([]domain.Vendor, error) {
	return []domain.Vendor{
		{ID: "1", Name: "Mama's Kitchen", Description: "Home cooking"},
		{ID: "2", Name: "Green Bowl", Description: "Salads and grain bowls"},
		{ID: "3", Name: "Spice Route", Description: "Curries"},
	}, nil
}

func (c *localCatalog) ListMenuItems(_ context.Context, vendorID string) ([]domain.MenuItem, error) {
	switch vendorID {
	case "1":
		return []domain.MenuItem{
			{ID: "m1", Name: "Jollof Rice", Price: 1200, Category: "mains", Popular: true, Available: true},
			{ID: "m2", Name: "Fried Plantain", Price: 500, Category: "sides", Available: true},
			{ID: "m3", Name: "Pepper Soup", Price: 900, Category: "mains", Available: true},
		}, nil
	case "2":
		return []domain.MenuItem{
			{ID: "g1", Name: "Vegan Buddha Bowl", Description: "vegan, gluten-free", Price: 1400, Category: "bowls", Popular: true, Available: true},
			{ID: "g2", Name: "Caesar Salad", Price: 1100, Category: "salads", Available: true},
		}, nil
	default:
		return []domain.MenuItem{
			{ID: "s1", Name: "Chicken Curry", Price: 1300, Category: "curries", Popular: true, Available: true},
			{ID: "s2", Name: "Veg Korma", Description: "vegetarian", Price: 1100, Category: "curries", Available: true},
		}, nil
	}
}

// localOrders creates orders in memory.
type localOrders struct{ count int }

func (o *localOrders) CreateOrder(_ context.Context, req domain.OrderRequest) (domain.OrderReceipt, error) {
	o.count++
	return domain.OrderReceipt{OrderID: fmt.Sprintf("SIM-%04d", o.count)}, nil
}

// localPayments fakes a payment link.
type localPayments struct{}

func (p *localPayments) Initiate(_ context.Context, method domain.PaymentMethod, amount int64) (domain.PaymentSession, error) {
	return domain.PaymentSession{
		Reference: uuid.NewString()[:8],
		PayURL:    fmt.Sprintf("https://pay.example.test/%s/%d", method, amount),
	}, nil
}
