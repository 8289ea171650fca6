package dispatch

import (
	"time"

	"github.com/coopco/helmsman/internal/settings"
)

// ActionKind identifies a risky operation gated behind confirmation.
type ActionKind int

const (
	ActionRelaySet ActionKind = iota
	ActionLedFlash
	ActionFirmwareUpdate
)

func (k ActionKind) String() string {
	switch k {
	case ActionRelaySet:
		return "relay_set"
	case ActionLedFlash:
		return "flash_led"
	case ActionFirmwareUpdate:
		return "firmware_update"
	default:
		return "unknown"
	}
}

// Action is a risky operation awaiting explicit confirmation. Ids are
// monotonically increasing for the life of the process.
type Action struct {
	ID          int
	Kind        ActionKind
	Pin         int // relay
	Level       int // relay
	Count       int // led
	Version     string
	DownloadURL string
	ExpiresAt   time.Time
}

// ReminderDraft is a reminder request suspended while its missing piece
// (timezone, or time+message) is collected.
type ReminderDraft struct {
	Time string
	Task settings.ReminderTask
}

// State enumerates the dispatcher's single pending slot. Exactly one of
// these holds at any time; transitions go through Dispatcher.transition.
type State int

const (
	// Idle: nothing pending.
	Idle State = iota
	// AwaitingTimezone: a reminder request is parked until a timezone
	// arrives.
	AwaitingTimezone
	// AwaitingDetails: the user said "this is daily" but gave no
	// time+message yet.
	AwaitingDetails
	// ActionPending: a risky action awaits confirm/cancel.
	ActionPending
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingTimezone:
		return "awaiting_timezone"
	case AwaitingDetails:
		return "awaiting_details"
	case ActionPending:
		return "action_pending"
	default:
		return "unknown"
	}
}

// pending is the dispatcher's transient conversational state. Never
// persisted; a reboot clears it by construction.
type pending struct {
	state     State
	action    Action
	draft     ReminderDraft
	expiresAt time.Time
}

// firmwareOffer records a successful update check awaiting a yes/no.
type firmwareOffer struct {
	version     string
	downloadURL string
	notifiedAt  time.Time
}

const (
	actionTTL        = 2 * time.Minute
	draftTTL         = 5 * time.Minute
	firmwareOfferTTL = 5 * time.Minute
)
