package web

import (
	"github.com/rs/zerolog/log"
	"net/http"
)

type Response struct {
	Status      int
	ContentType string
	Content     []byte
	Headers     Headers
	Cookie      *http.Cookie
}

// Write sends the response. A nil response is an empty 200.
func (response *Response) Write(responseWriter http.ResponseWriter) {
	if response == nil {
		responseWriter.WriteHeader(http.StatusOK)
		return
	}

	if response.Cookie != nil {
		http.SetCookie(responseWriter, response.Cookie)
	}
	if response.ContentType != "" {
		responseWriter.Header().Set("Content-Type", response.ContentType)
	}
	for key, value := range response.Headers {
		responseWriter.Header().Set(key, value)
	}
	responseWriter.WriteHeader(response.Status)

	if _, err := responseWriter.Write(response.Content); err != nil {
		log.Error().Err(err).Msg("http.ResponseWriter.Write() failed")
	}
}
