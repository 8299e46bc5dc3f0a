package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/aws/aws-lambda-go/events"
)

// HandleAPIGateway adapts an API Gateway proxy event: POST runs a sync, GET
// looks up a recorded run. The response bodies match the HTTP endpoints'.
func (h *Handler) HandleAPIGateway(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	switch event.HTTPMethod {
	case http.MethodPost:
		query, err := parseQuery(gatewayValues(event))
		if err != nil {
			return gatewayResponse(http.StatusBadRequest, errorResponse{
				Error:   "invalid_request",
				Message: "invalid query parameters",
				Details: err.Error(),
			})
		}

		status, body := h.runSync(ctx, query)
		return gatewayResponse(status, body)
	case http.MethodGet:
		status, body := h.runStatus(ctx, gatewayValues(event).Get("id"))
		return gatewayResponse(status, body)
	default:
		return gatewayResponse(http.StatusMethodNotAllowed, errorResponse{
			Error:   "method_not_allowed",
			Message: "sync must be invoked with POST",
		})
	}
}

// gatewayValues flattens the event's query parameters into url.Values.
// Multi-value parameters (repeatable status) take precedence over the
// single-value map.
func gatewayValues(event events.APIGatewayProxyRequest) url.Values {
	values := url.Values{}
	for key, value := range event.QueryStringParameters {
		values.Set(key, value)
	}
	for key, list := range event.MultiValueQueryStringParameters {
		values[key] = list
	}
	return values
}

func gatewayResponse(status int, body any) (events.APIGatewayProxyResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(data),
	}, nil
}
