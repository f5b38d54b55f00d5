package cookies

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"net/http"
)

const CookieName = "chat-session-id"

type Config struct {
	SecretKey []byte
	MaxAge    int
	Secure    bool
}

var config = Config{
	SecretKey: []byte(`2pC5z.3;Kk3wsr20,Ool{h;C%:Gq4eN=q\6F"Dfa£GMB[.j0`),
	MaxAge:    3600,
	Secure:    true,
}

// Configure replaces the signing key and cookie attributes. An empty key keeps the built-in one.
func Configure(secretKey string, maxAge int, secure bool) {
	if secretKey != "" {
		config.SecretKey = []byte(secretKey)
	}
	if maxAge > 0 {
		config.MaxAge = maxAge
	}
	config.Secure = secure
}

// GetIdFromCookie returns uuid.Nil when the cookie is missing, tampered with or malformed.
func GetIdFromCookie(request *http.Request) uuid.UUID {
	cookie, err := request.Cookie(CookieName)
	if err != nil {
		log.Debug().Err(err).Msg("session id cookie can't be retrieved")
		return uuid.Nil
	}

	sessionId, err := VerifySignedKeyValue(cookie.Name, cookie.Value, config.SecretKey)
	if err != nil {
		log.Error().Err(err).Msg("session id cookie value can't be verified")
		return uuid.Nil
	}

	id, err := uuid.Parse(sessionId)
	if err != nil {
		log.Error().Err(err).Msg("session id cookie contains invalid id")
		return uuid.Nil
	}
	return id
}

func SetIdToCookie(id uuid.UUID) *http.Cookie {
	value, err := SignKeyValue(CookieName, id.String(), config.SecretKey)
	if err != nil {
		log.Error().Err(err).Msg("cookies.SignKeyValue() failed")
		return nil
	}

	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   config.MaxAge,
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
