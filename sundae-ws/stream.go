package sundaews

import (
	"context"

	"github.com/savaki/ddb"
)

// HandleStream broadcasts every inserted or modified item in a DynamoDB stream
// batch. Each record is its own cycle; removals are ignored.
func (b *Broadcaster) HandleStream(ctx context.Context, batch ddb.Event) error {
	var changes []Event
	for _, record := range batch.Records {
		switch record.EventName {
		case "INSERT", "MODIFY":
		default:
			continue
		}
		event, err := EventFromImage(record.EventID, record.Change.NewImage)
		if err != nil {
			b.Logger.Error().Err(err).Str("event_id", record.EventID).Msg("skipping unreadable stream record")
			continue
		}
		changes = append(changes, event)
	}
	return b.BroadcastAll(ctx, changes...)
}
