package app

import (
	"context"
	"fmt"

	"github.com/riskibarqy/futboss/internal/config"
	"github.com/riskibarqy/futboss/internal/domain/club"
	"github.com/riskibarqy/futboss/internal/domain/fantasy"
	"github.com/riskibarqy/futboss/internal/domain/player"
	"github.com/riskibarqy/futboss/internal/domain/user"
	"github.com/riskibarqy/futboss/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/futboss/internal/infrastructure/repository/postgres"
	idgen "github.com/riskibarqy/futboss/internal/platform/id"
	"github.com/riskibarqy/futboss/internal/platform/logging"
)

// storage groups every repository the services need. Both backends fill
// the same fields.
type storage struct {
	users      user.Repository
	teams      fantasy.Repository
	clubs      club.Repository
	clubSync   club.SyncRepository
	players    player.Repository
	playerSync player.SyncRepository
	purger     club.Purger
	close      func() error
}

func openStorage(ctx context.Context, cfg config.Config, logger *logging.Logger) (storage, error) {
	if cfg.UseMemoryStore() {
		return openMemoryStorage(cfg, logger), nil
	}
	return openPostgresStorage(ctx, cfg, logger)
}

func openMemoryStorage(cfg config.Config, logger *logging.Logger) storage {
	var (
		clubs   []club.Club
		records []player.Record
	)
	if cfg.SeedEnabled {
		clubs = memory.SeedClubs()
		records = memory.SeedRecords()
	}

	catalog := memory.NewCatalog(clubs, records, idgen.NewUUIDGenerator())
	teams := memory.NewTeamRepository()
	logger.Warn("DB_URL is empty, using in-memory storage", "seeded", cfg.SeedEnabled, "clubs", len(clubs), "players", len(records))

	return storage{
		users:      memory.NewUserRepository(),
		teams:      teams,
		clubs:      catalog.Clubs(),
		clubSync:   catalog.Clubs(),
		players:    catalog.Players(),
		playerSync: catalog.Players(),
		purger:     memory.NewPurger(catalog, teams),
		close:      func() error { return nil },
	}
}

func openPostgresStorage(ctx context.Context, cfg config.Config, logger *logging.Logger) (storage, error) {
	db, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return storage{}, err
	}

	if cfg.DBAutoMigrate {
		if err := migrateUp(ctx, db, cfg.MigrationsDir, logger); err != nil {
			_ = db.Close()
			return storage{}, err
		}
	}
	if cfg.SeedEnabled {
		if err := postgres.BootstrapSeed(ctx, db); err != nil {
			_ = db.Close()
			return storage{}, fmt.Errorf("bootstrap seed: %w", err)
		}
	}

	ids := idgen.NewUUIDGenerator()
	clubs := postgres.NewClubRepository(db, ids)
	players := postgres.NewPlayerRepository(db, ids)

	return storage{
		users:      postgres.NewUserRepository(db),
		teams:      postgres.NewTeamRepository(db),
		clubs:      clubs,
		clubSync:   clubs,
		players:    players,
		playerSync: players,
		purger:     postgres.NewPurger(db),
		close:      db.Close,
	}, nil
}
