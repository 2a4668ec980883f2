// Package admin exposes the subscription registry and the broadcast entry
// point over HTTP, for operators and for local development.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	sundaerest "github.com/SundaeSwap-finance/sundae-realtime/sundae-rest"
	sundaews "github.com/SundaeSwap-finance/sundae-realtime/sundae-ws"
	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
)

// Publisher is satisfied by publish.Publisher.
type Publisher interface {
	Send(ctx context.Context, id string, attributes map[string]interface{}) error
}

type API struct {
	Registry    sundaews.Registry
	Broadcaster *sundaews.Broadcaster
	Publisher   Publisher // optional; enables POST /events/publish
}

// Mount adds the admin routes to router.
func (a *API) Mount(router chi.Router) {
	router.Get("/healthz", a.health)
	router.Get("/subscriptions", a.listSubscriptions)
	router.Get("/subscriptions/{connectionID}", a.getSubscription)
	router.Post("/events", a.postEvent)
	if a.Publisher != nil {
		router.Post("/events/publish", a.publishEvent)
	}
}

func decodeAttributes(req *http.Request) (map[string]interface{}, error) {
	var attributes map[string]interface{}
	decoder := json.NewDecoder(req.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&attributes); err != nil {
		return nil, err
	}
	return attributes, nil
}

func (a *API) health(w http.ResponseWriter, req *http.Request) {
	sundaerest.JSON(w, req, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) listSubscriptions(w http.ResponseWriter, req *http.Request) {
	subs, err := a.Registry.ListAll(req.Context())
	if err != nil {
		sundaerest.Error(w, req, http.StatusInternalServerError, err.Error())
		return
	}
	sundaerest.JSON(w, req, http.StatusOK, subs)
}

func (a *API) getSubscription(w http.ResponseWriter, req *http.Request) {
	connID := chi.URLParam(req, "connectionID")
	sub, err := a.Registry.Get(req.Context(), connID)
	if err != nil {
		sundaerest.Error(w, req, http.StatusInternalServerError, err.Error())
		return
	}
	if sub == nil {
		sundaerest.Error(w, req, http.StatusNotFound, "connection "+connID+" not found")
		return
	}
	sundaerest.JSON(w, req, http.StatusOK, sub)
}

// postEvent runs one broadcast cycle for the posted resource attributes.
func (a *API) postEvent(w http.ResponseWriter, req *http.Request) {
	attributes, err := decodeAttributes(req)
	if err != nil {
		sundaerest.Error(w, req, http.StatusBadRequest, "invalid event: "+err.Error())
		return
	}

	event := sundaews.Event{
		Source:     "admin",
		ID:         uuid.Must(uuid.NewV4()).String(),
		Attributes: attributes,
	}
	report, err := a.Broadcaster.Broadcast(req.Context(), event)
	if err != nil {
		var deliveryErr *sundaews.DeliveryError
		if errors.As(err, &deliveryErr) {
			sundaerest.JSON(w, req, http.StatusBadGateway, map[string]interface{}{"error": err.Error(), "report": report})
			return
		}
		sundaerest.Error(w, req, http.StatusInternalServerError, err.Error())
		return
	}
	if report.Result == sundaews.ResultMalformedEvent {
		sundaerest.JSON(w, req, http.StatusUnprocessableEntity, report)
		return
	}
	sundaerest.JSON(w, req, http.StatusOK, report)
}

// publishEvent enqueues the posted attributes on the real time events stream
// instead of broadcasting them in-process.
func (a *API) publishEvent(w http.ResponseWriter, req *http.Request) {
	attributes, err := decodeAttributes(req)
	if err != nil {
		sundaerest.Error(w, req, http.StatusBadRequest, "invalid event: "+err.Error())
		return
	}

	id := uuid.Must(uuid.NewV4()).String()
	if err := a.Publisher.Send(req.Context(), id, attributes); err != nil {
		if errors.Is(err, sundaews.ErrMalformedEvent) {
			sundaerest.Error(w, req, http.StatusUnprocessableEntity, err.Error())
			return
		}
		sundaerest.Error(w, req, http.StatusInternalServerError, err.Error())
		return
	}
	sundaerest.JSON(w, req, http.StatusAccepted, map[string]string{"id": id})
}
