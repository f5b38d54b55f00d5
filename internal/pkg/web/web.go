package web

import (
	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
	"net/http"
)

const jsonContentType = "application/json"

func JsonResponse(status int, data any, headers Headers, cookie *http.Cookie) *Response {
	content, err := sonic.ConfigStd.Marshal(data)
	if err != nil {
		log.Error().Err(err).Msg("sonic.Marshal() failed")
		return GetEmptyResponse(http.StatusInternalServerError, nil, nil)
	}

	return &Response{
		Status:      status,
		ContentType: jsonContentType,
		Content:     content,
		Headers:     headers,
		Cookie:      cookie,
	}
}

func GetEmptyResponse(status int, headers Headers, cookie *http.Cookie) *Response {
	return GetResponse(status, []byte(""), headers, cookie)
}

func GetResponse(status int, content []byte, headers Headers, cookie *http.Cookie) *Response {
	return &Response{
		Status:  status,
		Content: content,
		Headers: headers,
		Cookie:  cookie,
	}
}

// DecodeJson reads a JSON request body into target.
func DecodeJson(request *http.Request, target any) error {
	return sonic.ConfigStd.NewDecoder(request.Body).Decode(target)
}
