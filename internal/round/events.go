package round

import "time"

// EventType classifies an engine notification
type EventType string

const (
	EventRoundStarted     EventType = "round_started"
	EventShuffled         EventType = "shuffled"
	EventInsuranceOffered EventType = "insurance_offered"
	EventInsurance        EventType = "insurance"
	EventPlayerAction     EventType = "player_action"
	EventBust             EventType = "bust"
	EventBlackjack        EventType = "blackjack"
	EventSplit            EventType = "split"
	EventHoleRevealed     EventType = "hole_revealed"
	EventDealerDraw       EventType = "dealer_draw"
	EventHandSettled      EventType = "hand_settled"
	EventRoundFinished    EventType = "round_finished"
	EventPlayerLost       EventType = "player_lost"
	EventRefilled         EventType = "refilled"
	EventReset            EventType = "reset"
)

func (et EventType) String() string {
	return string(et)
}

// Event is an advisory, human readable notification for the presentation
// layer. Hand is -1 when the event is not about a player hand.
type Event struct {
	Type    EventType
	Message string
	RoundID string
	Hand    int
	Amount  int
	At      time.Time
}
