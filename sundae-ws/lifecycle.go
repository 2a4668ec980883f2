package sundaews

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SundaeSwap-finance/sundae-realtime/sundae-ws/subscriptiondao"
	"github.com/rs/zerolog"
)

// Carrier holds the out-of-band data sent with a connect request.
type Carrier struct {
	Headers map[string]string
	Query   map[string]string
}

// Lifecycle registers and unregisters connections.
type Lifecycle struct {
	Registry Registry
	Config   Config
	Logger   zerolog.Logger
	Now      func() time.Time // defaults to time.Now
}

// Connect records the subscription carried by a new connection. A missing
// item id is a *ClientInputError and nothing is written.
func (l *Lifecycle) Connect(ctx context.Context, connectionID string, carrier Carrier) (subscriptiondao.Subscription, error) {
	itemID, err := l.itemID(carrier)
	if err != nil {
		l.Logger.Warn().Str("connection_id", connectionID).Msg(err.Error())
		return subscriptiondao.Subscription{}, err
	}

	now := time.Now
	if l.Now != nil {
		now = l.Now
	}

	sub := subscriptiondao.Subscription{
		ConnectionID: connectionID,
		TopicKey:     l.Config.TopicKey,
		TopicValue:   itemID,
		TTL:          now().Add(l.Config.TTL()).Unix(),
	}
	if err := l.Registry.Put(ctx, sub); err != nil {
		return subscriptiondao.Subscription{}, err
	}

	l.Logger.Info().
		Str("connection_id", connectionID).
		Str("real_time_item_id", itemID).
		Msg("connection established")
	return sub, nil
}

// Disconnect forgets the subscription of a terminating connection.
func (l *Lifecycle) Disconnect(ctx context.Context, connectionID string) error {
	if err := l.Registry.Delete(ctx, connectionID); err != nil {
		return err
	}
	l.Logger.Info().Str("connection_id", connectionID).Msg("connection closed")
	return nil
}

func (l *Lifecycle) itemID(carrier Carrier) (string, error) {
	key := l.Config.TopicKey

	if l.Config.CarrierMode == CarrierQueryParam {
		if carrier.Query == nil {
			return "", &ClientInputError{Message: "No query string parameters found"}
		}
		if v := carrier.Query[key]; v != "" {
			return v, nil
		}
		return "", &ClientInputError{Message: fmt.Sprintf("No queryStringParam for real time item key %v found", key)}
	}

	if carrier.Headers == nil {
		return "", &ClientInputError{Message: "No headers found"}
	}
	if v := lookupHeader(carrier.Headers, key); v != "" {
		return v, nil
	}
	return "", &ClientInputError{Message: fmt.Sprintf("No header for real time item key %v found", key)}
}

func lookupHeader(headers map[string]string, key string) string {
	if v, ok := headers[key]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
