package v1

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-todo-lists/internal/services"
)

const (
	oauthStateCookie = "oauth_state"
	oauthStateMaxAge = 10 * 60
)

func (h *handlerImpl) HandleGoogleLogin(c *gin.Context) {
	state, err := generateOAuthState()
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to generate oauth state")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	url, err := h.auth.GoogleAuthURL(state)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to build google auth url")
		abort(c, newServiceError(err))
		return
	}

	c.SetCookie(oauthStateCookie, state, oauthStateMaxAge,
		"/", "", false, true)
	c.Redirect(http.StatusFound, url)
}

func (h *handlerImpl) HandleGoogleCallback(c *gin.Context) {
	state, err := c.Cookie(oauthStateCookie)
	if err != nil || state == "" || state != c.Query("state") {
		h.logger.Warn().
			Err(err).
			Msg("oauth state mismatch")
		abort(c, newBadRequestError(errInvalidOAuthState.Error()))
		return
	}
	clearCookie(c, oauthStateCookie)

	code := c.Query("code")
	if code == "" {
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	fingerprint, ok := h.fingerprint(c)
	if !ok {
		return
	}

	result, err := h.auth.SignInWithGoogle(c, services.GoogleSignInParams{
		Code:        code,
		Fingerprint: fingerprint,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to sign in with google")
		abort(c, newServiceError(err))
		return
	}

	setSessionCookies(c, result)
	c.Redirect(http.StatusFound, "/")
}

func generateOAuthState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
