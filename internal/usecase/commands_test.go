package usecase

import (
	"testing"

	"github.com/stretchr/testify/require"

	"commerce-agent/internal/domain"
)

func TestRouteCommand_IgnoresNonCommands(t *testing.T) {
	s := sessionAt(domain.StepOrdering)
	msgs, handled := RouteCommand(s, textIntent("2"), testSnapshot())
	require.False(t, handled)
	require.Empty(t, msgs)
}

func TestRouteCommand_HelpPreemptsPayment(t *testing.T) {
	s := sessionAt(domain.StepPayment)
	s.Cart = AddItem(nil, item("m1", "Jollof Rice", 1200), 1)

	msgs, handled := RouteCommand(s, textIntent("help"), testSnapshot())

	require.True(t, handled)
	require.Equal(t, domain.StepPayment, s.Step)
	require.Contains(t, msgs[0].Body, "menu")
}

func TestRouteCommand_RestartForcesGreetingAndFallsThrough(t *testing.T) {
	s := sessionAt(domain.StepCustomerInfo)
	msgs, handled := RouteCommand(s, textIntent("start"), testSnapshot())

	require.False(t, handled)
	require.Empty(t, msgs)
	require.Equal(t, domain.StepGreeting, s.Step)
}

func TestRouteCommand_CartShowsSummary(t *testing.T) {
	s := sessionAt(domain.StepOrdering)
	s.Cart = AddItem(nil, item("m1", "Jollof Rice", 1200), 2)

	msgs, handled := RouteCommand(s, textIntent("my order"), testSnapshot())

	require.True(t, handled)
	require.Equal(t, domain.StepCartReview, s.Step)
	require.Contains(t, msgs[0].Body, "24.00")
}

func TestRouteCommand_MenuWithVendor(t *testing.T) {
	s := sessionAt(domain.StepConfirmation)
	s.VendorID = "7"

	msgs, handled := RouteCommand(s, textIntent("menu"), testSnapshot())

	require.True(t, handled)
	require.Equal(t, domain.StepMenuBrowsing, s.Step)
	require.Contains(t, msgs[0].Body, "mains")
}

func TestRouteCommand_MenuWithoutVendorRepromptsSelection(t *testing.T) {
	s := sessionAt(domain.StepGreeting)
	msgs, handled := RouteCommand(s, textIntent("menu"), testSnapshot())

	require.True(t, handled)
	require.Equal(t, domain.StepVendorSelection, s.Step)
	require.Len(t, msgs, 2)
	require.Equal(t, domain.MessageChoice, msgs[1].Kind)
}
