package failures

import (
	"errors"
	"net/http"
)

var (
	ErrMissingParameter = errors.New("missing required parameters")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrTransport        = errors.New("model transport failure")
	ErrValidation       = errors.New("model response failed validation")
	ErrIllegalMove      = errors.New("illegal move")
	ErrBusy             = errors.New("a request is already being processed")
	ErrReaskRefused     = errors.New("the opponent's move can not be asked again")
	ErrNothingToReask   = errors.New("nothing to ask again")
	ErrNotYourTurn      = errors.New("it is not the human player's turn")
	ErrSessionNotFound  = errors.New("session not found")
)

const (
	missingParametersMessage = "Missing required parameters"
	internalErrorMessage     = "Internal application error"
)

// Status maps an error to the HTTP status of the response envelope.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrMissingParameter), errors.Is(err, ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBusy), errors.Is(err, ErrReaskRefused), errors.Is(err, ErrNothingToReask),
		errors.Is(err, ErrNotYourTurn):
		return http.StatusConflict
	case errors.Is(err, ErrIllegalMove) && !errors.Is(err, ErrValidation):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the user-visible text for err. Transport and validation failures
// are indistinguishable here.
func Message(err error) string {
	switch Status(err) {
	case http.StatusOK:
		return ""
	case http.StatusBadRequest:
		if errors.Is(err, ErrMissingParameter) {
			return missingParametersMessage
		}
		return err.Error()
	case http.StatusInternalServerError:
		return internalErrorMessage
	default:
		return err.Error()
	}
}
