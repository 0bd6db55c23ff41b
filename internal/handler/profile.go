package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/gamestock/internal/apperror"
	"github.com/sakif/gamestock/internal/auth"
	"github.com/sakif/gamestock/internal/service"
)

// ProfileHandler handles account self-service.
type ProfileHandler struct {
	service *service.ProfileService
	logger  *slog.Logger
}

func NewProfileHandler(svc *service.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{service: svc, logger: logger}
}

// updateProfileRequest carries the target account plus the fields to change.
// Pointers distinguish "leave unchanged" (absent) from "set to this value";
// the settings form submits only the inputs the user touched.
type updateProfileRequest struct {
	UserID   int64   `json:"userId" validate:"required,gt=0"`
	Username *string `json:"username"`
	Password *string `json:"password"`
}

// HandleUpdate changes the caller's own username and/or password. The
// service rejects updates aimed at anyone else's account, admin or not.
//
// HTTP: PUT /api/user/update (RequireAuth)
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := validateStruct(&req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Update(r.Context(), ident, req.UserID, req.Username, req.Password); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
