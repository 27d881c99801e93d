package usecase

import "commerce-agent/internal/domain"

// RouteCommand intercepts global commands before step dispatch. It returns
// the direct response and handled=true when the command fully answers the
// event, or handled=false when normal dispatch should continue. Commands win
// over step-specific input in every step, including Payment and CustomerInfo,
// so a confused customer can always escape to a known state.
func RouteCommand(session *domain.ConversationSession, intent Intent, snapshot domain.CatalogSnapshot) ([]domain.OutboundMessage, bool) {
	if intent.Kind != IntentCommand {
		return nil, false
	}

	switch intent.Command {
	case CommandHelp:
		// Help never moves the conversation.
		return []domain.OutboundMessage{domain.Text(helpText)}, true

	case CommandRestart:
		// Force the greeting branch and let the state machine produce it.
		session.Step = domain.StepGreeting
		return nil, false

	case CommandCart:
		session.Step = domain.StepCartReview
		return []domain.OutboundMessage{domain.Text(RenderCart(session))}, true

	case CommandMenu:
		if session.VendorID == "" {
			session.Step = domain.StepVendorSelection
			return []domain.OutboundMessage{
				domain.Text("Pick a vendor first."),
				vendorChoices(snapshot, session.Preferences.PreferredVendorID),
			}, true
		}
		session.Step = domain.StepMenuBrowsing
		return []domain.OutboundMessage{renderCategories(snapshot.AvailableItems())}, true
	}
	return nil, false
}
