package sundaews

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"
)

// Handler handles API Gateway WebSocket route events.
type Handler struct {
	Lifecycle *Lifecycle
	Logger    zerolog.Logger
}

// HandleEvent routes an API Gateway WebSocket event to the appropriate handler.
func (h *Handler) HandleEvent(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger := h.Logger.With().
		Str("connection_id", req.RequestContext.ConnectionID).
		Str("route", req.RequestContext.RouteKey).
		Logger()
	ctx = logger.WithContext(ctx)

	switch req.RequestContext.RouteKey {
	case "$connect":
		return h.handleConnect(ctx, logger, req)
	case "$disconnect":
		return h.handleDisconnect(ctx, logger, req)
	case "$default":
		return respond(http.StatusOK, ""), nil
	default:
		logger.Warn().Msg("unknown route")
		return respond(http.StatusBadRequest, "unknown route"), nil
	}
}

func (h *Handler) handleConnect(ctx context.Context, logger zerolog.Logger, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	carrier := Carrier{
		Headers: req.Headers,
		Query:   req.QueryStringParameters,
	}
	if _, err := h.Lifecycle.Connect(ctx, req.RequestContext.ConnectionID, carrier); err != nil {
		var inputErr *ClientInputError
		if errors.As(err, &inputErr) {
			return respond(http.StatusBadRequest, inputErr.Message), nil
		}
		logger.Error().Err(err).Msg("failed to store subscription")
		return respond(http.StatusInternalServerError, fmt.Sprintf("Failed to put item: %v", err)), nil
	}
	return respond(http.StatusOK, "Connected."), nil
}

func (h *Handler) handleDisconnect(ctx context.Context, logger zerolog.Logger, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	if err := h.Lifecycle.Disconnect(ctx, req.RequestContext.ConnectionID); err != nil {
		logger.Error().Err(err).Msg("failed to disconnect")
		return respond(http.StatusInternalServerError, fmt.Sprintf("Failed to disconnect: %v", err)), nil
	}
	return respond(http.StatusOK, "Disconnected."), nil
}

func respond(status int, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{StatusCode: status, Body: body}
}
