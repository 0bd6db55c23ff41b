package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/gamestock/internal/apperror"
	"github.com/sakif/gamestock/internal/auth"
	"github.com/sakif/gamestock/internal/model"
	"github.com/sakif/gamestock/internal/repository"
	"github.com/sakif/gamestock/internal/service"
)

// validate is shared by all handlers; validator.Validate is safe for
// concurrent use and caches struct metadata.
var validate = validator.New()

// validateStruct runs tag validation and converts the first failure into a
// field-level validation error the client can display next to its input.
func validateStruct(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperror.ValidationFailed(
			strings.ToLower(fe.Field()),
			"failed validation on '"+fe.Tag()+"'",
		)
	}
	return apperror.ValidationFailed("body", "invalid request")
}

// InventoryHandler exposes the game catalogue: public reads, admin writes.
type InventoryHandler struct {
	service *service.InventoryService
	logger  *slog.Logger
}

func NewInventoryHandler(svc *service.InventoryService, logger *slog.Logger) *InventoryHandler {
	return &InventoryHandler{service: svc, logger: logger}
}

// gameRequest is the admin form payload for both create and update. Rating
// and quantity bounds are enforced here at the edge; the service re-checks
// only what it must (name, platform, price rounding).
type gameRequest struct {
	Name     string  `json:"name" validate:"required,max=200"`
	Price    float64 `json:"price" validate:"gte=0"`
	Rating   int     `json:"rating" validate:"gte=0,lte=5"`
	Genre    string  `json:"genre" validate:"required"`
	Quantity int     `json:"quantity" validate:"gte=0"`
	Platform string  `json:"platform" validate:"required"`
	ImageURL string  `json:"imageUrl" validate:"omitempty,max=500"`
}

func (req *gameRequest) data() repository.GameData {
	return repository.GameData{
		Name:     req.Name,
		Price:    req.Price,
		Rating:   req.Rating,
		Genre:    req.Genre,
		Quantity: req.Quantity,
		Platform: req.Platform,
		ImageURL: req.ImageURL,
	}
}

// HandleList returns the catalogue, optionally narrowed by exact platform
// and genre matches from the browse dropdowns.
//
// HTTP: GET /api/inventory?platform=&genre=
func (h *InventoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	games, err := h.service.List(r.Context(),
		r.URL.Query().Get("platform"),
		r.URL.Query().Get("genre"),
	)
	if err != nil {
		writeError(w, err)
		return
	}
	if games == nil {
		games = []model.Game{}
	}
	writeJSON(w, http.StatusOK, games)
}

// HandleCreate adds a game.
//
// HTTP: POST /api/inventory (RequireAuth + RequireAdmin)
func (h *InventoryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	var req gameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := validateStruct(&req); err != nil {
		writeError(w, err)
		return
	}

	id, err := h.service.Add(r.Context(), ident, req.data())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "gameId": id})
}

// HandleUpdate replaces every mutable field of a game.
//
// HTTP: PUT /api/inventory/{id} (RequireAuth + RequireAdmin)
func (h *InventoryHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}
	id, err := gameIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req gameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := validateStruct(&req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Update(r.Context(), ident, id, req.data()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleDelete removes a game.
//
// HTTP: DELETE /api/inventory/{id} (RequireAuth + RequireAdmin)
func (h *InventoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}
	id, err := gameIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), ident, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type adjustQuantityRequest struct {
	Adjustment int `json:"adjustment"`
}

// HandleAdjustQuantity applies a signed delta to a game's stock count and
// returns the resulting quantity, clamped at zero.
//
// HTTP: PUT /api/inventory/{id}/quantity (RequireAuth + RequireAdmin)
func (h *InventoryHandler) HandleAdjustQuantity(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}
	id, err := gameIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req adjustQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Adjustment == 0 {
		writeError(w, apperror.ValidationFailed("adjustment", "adjustment must be a non-zero integer"))
		return
	}

	quantity, err := h.service.AdjustQuantity(r.Context(), ident, id, req.Adjustment)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "newQuantity": quantity})
}

// HandlePlatforms returns the platform names for the form dropdown.
//
// HTTP: GET /api/platforms
func (h *InventoryHandler) HandlePlatforms(w http.ResponseWriter, r *http.Request) {
	platforms, err := h.service.Platforms(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, platforms)
}

// HandleGenres returns the fixed genre list for the form dropdown.
//
// HTTP: GET /api/genres
func (h *InventoryHandler) HandleGenres(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, model.Genres)
}

func gameIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed("id", "game id must be a positive integer")
	}
	return id, nil
}
