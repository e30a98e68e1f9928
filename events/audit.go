package events

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// SubscribeAuditLogger attaches a structured log line to every event type
// so the lifecycle of a battle shows up in the application log.
func SubscribeAuditLogger(bus *Bus) {
	logEvent := func(ctx context.Context, event Event) {
		fields := log.Fields{"eventType": event.Type()}

		switch e := event.(type) {
		case BattleCreatedEvent:
			fields["battleID"] = e.BattleID
			fields["feedA"] = e.FeedA
			fields["feedB"] = e.FeedB
		case BattleCancelledEvent:
			fields["battleID"] = e.BattleID
		case DepositPlacedEvent:
			fields["battleID"] = e.BattleID
			fields["participant"] = e.Participant
			fields["team"] = e.Team
			fields["amount"] = e.Amount
		case BattleSettledEvent:
			fields["battleID"] = e.BattleID
			fields["winner"] = e.Winner
			fields["totalYield"] = e.TotalYield
		case RewardClaimedEvent:
			fields["battleID"] = e.BattleID
			fields["participant"] = e.Participant
			fields["payout"] = e.Payout
		case EarlyWithdrawalEvent:
			fields["battleID"] = e.BattleID
			fields["participant"] = e.Participant
			fields["penalty"] = e.Penalty
		case PricePostedEvent:
			fields["feedRef"] = e.FeedRef
			fields["price"] = e.Price
		}

		log.WithFields(fields).Info("Event")
	}

	for _, eventType := range []EventType{
		EventTypeBattleCreated,
		EventTypeBattleCancelled,
		EventTypeDepositPlaced,
		EventTypeBattleSettled,
		EventTypeRewardClaimed,
		EventTypeEarlyWithdrawal,
		EventTypePricePosted,
	} {
		bus.Subscribe(eventType, logEvent)
	}
}
