package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/sakif/gamestock/internal/apperror"
	"github.com/sakif/gamestock/internal/model"
	"github.com/sakif/gamestock/internal/repository"
)

// MaxGameNameLength bounds the name column; everything longer is rejected
// before it reaches the store.
const MaxGameNameLength = 200

// InventoryService holds the business logic for inventory mutations.
//
// Every mutation requires an admin identity. The price/rating/quantity
// numerics arrive pre-validated per the API contract — the service rounds
// the price to two decimals and otherwise stores what it was given.
type InventoryService struct {
	games     repository.GameRepository
	platforms repository.PlatformRepository
	logger    *slog.Logger
}

// NewInventoryService creates an InventoryService.
func NewInventoryService(
	games repository.GameRepository,
	platforms repository.PlatformRepository,
	logger *slog.Logger,
) *InventoryService {
	return &InventoryService{
		games:     games,
		platforms: platforms,
		logger:    logger,
	}
}

// List returns the inventory with optional platform/genre filters.
// Unauthenticated — browsing the catalogue is public.
func (s *InventoryService) List(ctx context.Context, platform, genre string) ([]model.Game, error) {
	games, err := s.games.ListGames(ctx, repository.GameFilter{
		Platform: strings.TrimSpace(platform),
		Genre:    strings.TrimSpace(genre),
	})
	if err != nil {
		s.logger.Error("failed to list games", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing games: %w", err)
	}
	return games, nil
}

// Platforms returns the platform names, sorted. Public.
func (s *InventoryService) Platforms(ctx context.Context) ([]string, error) {
	names, err := s.platforms.ListPlatformNames(ctx)
	if err != nil {
		s.logger.Error("failed to list platforms", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing platforms: %w", err)
	}
	return names, nil
}

// Add inserts a new game and returns its generated id. Admin only.
// The platform name resolves inside the repository's transaction; an unknown
// name aborts the whole insert.
func (s *InventoryService) Add(ctx context.Context, ident model.Identity, data repository.GameData) (int64, error) {
	if err := requireAdmin(ident); err != nil {
		return 0, err
	}
	if err := normalizeGameData(&data); err != nil {
		return 0, err
	}

	id, err := s.games.CreateGame(ctx, data)
	if err != nil {
		return 0, fmt.Errorf("adding game: %w", err)
	}

	s.logger.Info("game added",
		slog.Int64("gameID", id),
		slog.String("name", data.Name),
		slog.String("admin", ident.Username),
	)

	return id, nil
}

// Update replaces all mutable fields of the identified game. Admin only.
func (s *InventoryService) Update(ctx context.Context, ident model.Identity, id int64, data repository.GameData) error {
	if err := requireAdmin(ident); err != nil {
		return err
	}
	if err := normalizeGameData(&data); err != nil {
		return err
	}

	if err := s.games.UpdateGame(ctx, id, data); err != nil {
		return fmt.Errorf("updating game %d: %w", id, err)
	}

	s.logger.Info("game updated",
		slog.Int64("gameID", id),
		slog.String("admin", ident.Username),
	)

	return nil
}

// Delete removes the identified game. Admin only.
func (s *InventoryService) Delete(ctx context.Context, ident model.Identity, id int64) error {
	if err := requireAdmin(ident); err != nil {
		return err
	}

	if err := s.games.DeleteGame(ctx, id); err != nil {
		return fmt.Errorf("deleting game %d: %w", id, err)
	}

	s.logger.Info("game deleted",
		slog.Int64("gameID", id),
		slog.String("admin", ident.Username),
	)

	return nil
}

// AdjustQuantity applies delta to the game's stock count, clamped at zero,
// and returns the new quantity. Admin only.
func (s *InventoryService) AdjustQuantity(ctx context.Context, ident model.Identity, id int64, delta int) (int, error) {
	if err := requireAdmin(ident); err != nil {
		return 0, err
	}

	newQuantity, err := s.games.AdjustQuantity(ctx, id, delta)
	if err != nil {
		return 0, fmt.Errorf("adjusting quantity for game %d: %w", id, err)
	}

	s.logger.Info("quantity adjusted",
		slog.Int64("gameID", id),
		slog.Int("delta", delta),
		slog.Int("newQuantity", newQuantity),
		slog.String("admin", ident.Username),
	)

	return newQuantity, nil
}

func requireAdmin(ident model.Identity) error {
	if ident.Role != model.RoleAdmin {
		return apperror.Forbidden("admin access required")
	}
	return nil
}

// normalizeGameData trims and bounds the textual fields and rounds the price
// to the store's two-decimal scale. Rating and quantity pass through: their
// bounds are the API caller's contract.
func normalizeGameData(data *repository.GameData) error {
	data.Name = strings.TrimSpace(data.Name)
	if data.Name == "" {
		return apperror.ValidationFailed("name", "game name is required")
	}
	if len(data.Name) > MaxGameNameLength {
		return apperror.ValidationFailed("name",
			fmt.Sprintf("game name must be %d characters or less", MaxGameNameLength))
	}

	data.Platform = strings.TrimSpace(data.Platform)
	if data.Platform == "" {
		return apperror.ValidationFailed("platform", "platform is required")
	}

	data.Price = math.Round(data.Price*100) / 100

	return nil
}
