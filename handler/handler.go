package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"source-annotator/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

// SourceAnnotator is the use case behind the endpoint.
type SourceAnnotator interface {
	AnnotateSource(ctx context.Context, in usecase.SourceInput) (usecase.SourceOutput, error)
}

type Handler struct {
	uc     SourceAnnotator
	logger *slog.Logger
}

type annotateRequest struct {
	Source   string `json:"source"`
	FileName string `json:"fileName"`
	Language string `json:"language"`
}

type annotateResponse struct {
	Annotated   string `json:"annotated"`
	Language    string `json:"language"`
	TotalTokens int    `json:"totalTokens"`
	RunID       string `json:"runId"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func NewHandler(uc SourceAnnotator, logger *slog.Logger) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: use case must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{uc: uc, logger: logger}, nil
}

// Handle serves POST /annotate through API Gateway. Failures are reported in
// the response; the returned error is always nil so Lambda does not retry.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := headerValue(req.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	logger := h.logger.With("correlation_id", correlationID)

	var body annotateRequest
	if err := decodeBody(req, &body); err != nil {
		logger.Warn("invalid request body", "err", err)
		return respond(http.StatusBadRequest, correlationID, errorResponse{
			Error:  string(usecase.ErrorInvalidInput),
			Reason: "invalid_body",
		}), nil
	}

	out, err := h.uc.AnnotateSource(ctx, usecase.SourceInput{
		Source:   body.Source,
		FileName: body.FileName,
		Language: body.Language,
	})
	if err != nil {
		status, payload := mapError(err)
		logger.Error("annotation failed", "status", status, "err", err)
		return respond(status, correlationID, payload), nil
	}

	return respond(http.StatusOK, correlationID, annotateResponse{
		Annotated:   out.Annotated,
		Language:    out.Language,
		TotalTokens: out.TotalTokens,
		RunID:       out.RunID,
	}), nil
}

// decodeBody unmarshals the JSON request body, base64-decoding it first when
// API Gateway delivered it as binary.
func decodeBody(req events.APIGatewayProxyRequest, v any) error {
	raw := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return fmt.Errorf("handler: decode base64 body: %w", err)
		}
		raw = decoded
	}
	return json.Unmarshal(raw, v)
}

func mapError(err error) (int, errorResponse) {
	var ue *usecase.Error
	if !errors.As(err, &ue) {
		return http.StatusInternalServerError, errorResponse{Error: "INTERNAL_ERROR"}
	}
	payload := errorResponse{Error: string(ue.Code), Reason: ue.Reason}
	switch ue.Code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest, payload
	case usecase.ErrorRequest:
		return http.StatusBadGateway, payload
	default:
		return http.StatusInternalServerError, payload
	}
}

func respond(status int, correlationID string, payload any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"INTERNAL_ERROR"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: correlationID,
		},
		Body: string(body),
	}
}

// headerValue looks a header up case-insensitively; API Gateway passes
// headers through with whatever casing the client used.
func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
