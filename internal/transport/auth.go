package transport

import (
	"net/http"
	"time"

	"webstore-be/internal/auth"
	"webstore-be/internal/user"
)

const accessTokenMaxAge = 24 * time.Hour

type sessionResponse struct {
	User  *user.UserResponse `json:"user"`
	Token string             `json:"token"`
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.AccessTokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   !h.dev,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var in user.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	sess, err := h.users.Register(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.setSessionCookie(w, sess.Token, accessTokenMaxAge)
	writeData(w, http.StatusCreated, "User registered successfully", sessionResponse{
		User:  user.ToResponse(sess.User),
		Token: sess.Token,
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var in user.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	sess, err := h.users.Login(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.setSessionCookie(w, sess.Token, accessTokenMaxAge)
	writeData(w, http.StatusOK, "Login successful", sessionResponse{
		User:  user.ToResponse(sess.User),
		Token: sess.Token,
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !h.dev,
		SameSite: http.SameSiteLaxMode,
	})
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Me(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", map[string]interface{}{"user": user.ToResponse(u)})
}
