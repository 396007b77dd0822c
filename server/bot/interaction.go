// Package bot holds the conversation state machine and the dispatcher that
// routes inbound Telegram interactions to it.
package bot

// InteractionKind distinguishes structured button payloads from free text.
type InteractionKind string

const (
	KindChoice InteractionKind = "choice"
	KindText   InteractionKind = "text"
)

// Interaction is one inbound user action.
type Interaction struct {
	Kind    InteractionKind
	Payload string
}

// Choice builds a button-press interaction.
func Choice(payload string) Interaction {
	return Interaction{Kind: KindChoice, Payload: payload}
}

// Text builds a free-text interaction.
func Text(payload string) Interaction {
	return Interaction{Kind: KindText, Payload: payload}
}
