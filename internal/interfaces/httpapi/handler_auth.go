package httpapi

import (
	"net/http"

	"github.com/riskibarqy/futboss/internal/usecase"
)

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Register")
	defer span.End()

	var req registerRequest
	if err := h.decodeAndValidate(r.WithContext(ctx), &req); err != nil {
		h.writeError(ctx, w, err)
		return
	}

	result, err := h.authService.Register(ctx, usecase.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "register failed", "error", err)
		h.writeError(ctx, w, err)
		return
	}

	writeMessage(ctx, w, http.StatusCreated, "user created", authResultToDTO(result))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Login")
	defer span.End()

	var req loginRequest
	if err := h.decodeAndValidate(r.WithContext(ctx), &req); err != nil {
		h.writeError(ctx, w, err)
		return
	}

	result, err := h.authService.Login(ctx, usecase.LoginInput{
		EmailOrUsername: req.EmailOrUsername,
		Password:        req.Password,
	})
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	writeMessage(ctx, w, http.StatusOK, "login successful", authResultToDTO(result))
}

func (h *Handler) LoginAsGuest(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.LoginAsGuest")
	defer span.End()

	result, err := h.authService.LoginAsGuest(ctx)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	writeMessage(ctx, w, http.StatusOK, "guest login successful", authResultToDTO(result))
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Verify")
	defer span.End()

	result, err := h.authService.Verify(ctx, sessionFromContext(ctx))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, verifyDTO{
		User:        profileToDTO(result.User),
		Preferences: preferencesToDTO(result.Preferences),
	})
}

func (h *Handler) AuthStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AuthStatus")
	defer span.End()

	status := h.authService.Status(sessionFromContext(ctx))
	out := authStatusDTO{
		Authenticated: status.Authenticated,
		IsGuest:       status.IsGuest,
	}
	if status.User != nil {
		profile := profileToDTO(*status.User)
		out.User = &profile
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Logout")
	defer span.End()

	if err := h.authService.Logout(ctx, sessionFromContext(ctx)); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeMessage(ctx, w, http.StatusOK, "logout successful", nil)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateProfile")
	defer span.End()

	var req updateProfileRequest
	if err := h.decodeAndValidate(r.WithContext(ctx), &req); err != nil {
		h.writeError(ctx, w, err)
		return
	}

	profile, err := h.authService.UpdateProfile(ctx, sessionFromContext(ctx), usecase.UpdateProfileInput{
		Email:    req.Email,
		Username: req.Username,
	})
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	writeMessage(ctx, w, http.StatusOK, "profile updated", map[string]any{"user": profileToDTO(profile)})
}
