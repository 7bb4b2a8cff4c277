package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/resume-assistant/internal/client"
	"github.com/jonathan/resume-assistant/internal/ingestion"
	"github.com/jonathan/resume-assistant/internal/orchestrator"
)

// ErrValidation indicates a malformed request to the web UI itself
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *ErrValidation
		pdfErr        *ingestion.PDFError
		clientErr     *client.Error
	)
	switch {
	case errors.Is(err, orchestrator.ErrInFlight):
		return http.StatusConflict
	case errors.As(err, &validationErr), errors.As(err, &pdfErr):
		return http.StatusBadRequest
	case errors.As(err, &clientErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// userMessage is the text shown for err. Backend errors carry their own
// message; anything unexpected is not echoed back.
func userMessage(err error) string {
	var (
		validationErr *ErrValidation
		pdfErr        *ingestion.PDFError
	)
	switch {
	case errors.Is(err, orchestrator.ErrInFlight):
		return "A request is already running. Wait for it to finish."
	case errors.As(err, &validationErr):
		return validationErr.Message
	case errors.As(err, &pdfErr):
		return "PDF extraction failed: " + pdfErr.Message
	}
	if msg := client.Message(err); msg != "" {
		return msg
	}
	if HTTPStatus(err) == http.StatusBadGateway {
		return orchestrator.FallbackErrorMessage
	}
	return "Internal server error"
}
