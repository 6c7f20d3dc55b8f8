// Package entity defines domain types shared across the application.
package entity

// State labels the conversation flow an admin is in; it routes the next inbound event.
type State string

const (
	StateChoosing                State = "CHOOSING"
	StateWaitingCodeNumber       State = "WAITING_CODE_NUMBER"
	StateWaitingBroadcastMessage State = "WAITING_BROADCAST_MESSAGE"
	StateWaitingBroadcastEdit    State = "WAITING_BROADCAST_EDIT"
)

func (s State) String() string {
	return string(s)
}
