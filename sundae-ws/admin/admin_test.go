package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sundaerest "github.com/SundaeSwap-finance/sundae-realtime/sundae-rest"
	sundaews "github.com/SundaeSwap-finance/sundae-realtime/sundae-ws"
	"github.com/SundaeSwap-finance/sundae-realtime/sundae-ws/subscriptiondao"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/tj/assert"
)

func newServer(t *testing.T, sender sundaews.Sender) (*httptest.Server, *subscriptiondao.Memory) {
	registry := subscriptiondao.NewMemory()
	ctx := context.Background()
	for _, sub := range []subscriptiondao.Subscription{
		{ConnectionID: "c1", TopicKey: "vehicleId", TopicValue: "V1"},
		{ConnectionID: "c2", TopicKey: "vehicleId", TopicValue: "V1"},
		{ConnectionID: "c3", TopicKey: "vehicleId", TopicValue: "V2"},
	} {
		assert.NoError(t, registry.Put(ctx, sub))
	}

	api := &API{
		Registry: registry,
		Broadcaster: &sundaews.Broadcaster{
			Registry: registry,
			Sender:   sender,
			TopicKey: "vehicleId",
			Logger:   zerolog.Nop(),
		},
	}
	router := sundaerest.Middlewares(zerolog.Nop(), chi.NewRouter())
	api.Mount(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, registry
}

func post(t *testing.T, url, body string) (int, map[string]interface{}) {
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	assert.NoError(t, err)
	defer resp.Body.Close()

	var v map[string]interface{}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return resp.StatusCode, v
}

func TestSubscriptions(t *testing.T) {
	server, _ := newServer(t, sundaews.SenderFunc(func(context.Context, string, []byte) sundaews.Outcome {
		return sundaews.DeliveredOutcome()
	}))

	resp, err := http.Get(server.URL + "/healthz")
	assert.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(server.URL + "/subscriptions")
	assert.NoError(t, err)
	var subs []subscriptiondao.Subscription
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&subs))
	resp.Body.Close()
	assert.Len(t, subs, 3)

	resp, err = http.Get(server.URL + "/subscriptions/c3")
	assert.NoError(t, err)
	var sub subscriptiondao.Subscription
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&sub))
	resp.Body.Close()
	assert.Equal(t, "V2", sub.TopicValue)

	resp, err = http.Get(server.URL + "/subscriptions/missing")
	assert.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPostEvent(t *testing.T) {
	t.Run("sent", func(t *testing.T) {
		server, registry := newServer(t, sundaews.SenderFunc(func(_ context.Context, connID string, _ []byte) sundaews.Outcome {
			if connID == "c2" {
				return sundaews.GoneOutcome()
			}
			return sundaews.DeliveredOutcome()
		}))

		status, report := post(t, server.URL+"/events", `{"vehicleId":"V1","speed":42}`)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "sent", report["result"])
		assert.EqualValues(t, 2, report["matched"])
		assert.EqualValues(t, 1, report["delivered"])
		assert.EqualValues(t, 1, report["gone"])

		sub, err := registry.Get(context.Background(), "c2")
		assert.NoError(t, err)
		assert.Nil(t, sub)
	})

	t.Run("numeric topic value", func(t *testing.T) {
		var got []string
		server, registry := newServer(t, sundaews.SenderFunc(func(_ context.Context, connID string, _ []byte) sundaews.Outcome {
			got = append(got, connID)
			return sundaews.DeliveredOutcome()
		}))
		assert.NoError(t, registry.Put(context.Background(), subscriptiondao.Subscription{ConnectionID: "n1", TopicKey: "vehicleId", TopicValue: "17"}))

		status, _ := post(t, server.URL+"/events", `{"vehicleId":17}`)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, []string{"n1"}, got)
	})

	t.Run("malformed", func(t *testing.T) {
		server, _ := newServer(t, sundaews.SenderFunc(func(context.Context, string, []byte) sundaews.Outcome {
			return sundaews.DeliveredOutcome()
		}))

		status, report := post(t, server.URL+"/events", `{"speed":42}`)
		assert.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Equal(t, "malformed-event", report["result"])
	})

	t.Run("delivery failure", func(t *testing.T) {
		server, _ := newServer(t, sundaews.SenderFunc(func(context.Context, string, []byte) sundaews.Outcome {
			return sundaews.FailedOutcome(errors.New("boom"))
		}))

		status, body := post(t, server.URL+"/events", `{"vehicleId":"V2"}`)
		assert.Equal(t, http.StatusBadGateway, status)
		assert.Contains(t, body["error"], "boom")
		report := body["report"].(map[string]interface{})
		assert.Equal(t, "failed", report["result"])
		assert.EqualValues(t, 0, report["delivered"])
	})

	t.Run("invalid json", func(t *testing.T) {
		server, _ := newServer(t, nil)

		status, _ := post(t, server.URL+"/events", `not json`)
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

type fakePublisher struct {
	ids        []string
	attributes []map[string]interface{}
	err        error
}

func (f *fakePublisher) Send(_ context.Context, id string, attributes map[string]interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.ids = append(f.ids, id)
	f.attributes = append(f.attributes, attributes)
	return nil
}

func TestPublishEvent(t *testing.T) {
	newPublishServer := func(publisher Publisher) *httptest.Server {
		api := &API{Registry: subscriptiondao.NewMemory(), Publisher: publisher}
		router := chi.NewRouter()
		api.Mount(router)
		server := httptest.NewServer(router)
		t.Cleanup(server.Close)
		return server
	}

	t.Run("accepted", func(t *testing.T) {
		publisher := &fakePublisher{}
		server := newPublishServer(publisher)

		status, body := post(t, server.URL+"/events/publish", `{"vehicleId":"V1"}`)
		assert.Equal(t, http.StatusAccepted, status)
		assert.Len(t, publisher.ids, 1)
		assert.Equal(t, publisher.ids[0], body["id"])
		assert.Equal(t, "V1", publisher.attributes[0]["vehicleId"])
	})

	t.Run("malformed", func(t *testing.T) {
		server := newPublishServer(&fakePublisher{err: sundaews.ErrMalformedEvent})

		status, _ := post(t, server.URL+"/events/publish", `{"speed":1}`)
		assert.Equal(t, http.StatusUnprocessableEntity, status)
	})

	t.Run("not mounted without a publisher", func(t *testing.T) {
		server := newPublishServer(nil)

		resp, err := http.Post(server.URL+"/events/publish", "application/json", strings.NewReader(`{}`))
		assert.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
