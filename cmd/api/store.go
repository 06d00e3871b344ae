package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// ticketStore is the repository pair of the selected driver.
type ticketStore struct {
	tickets     repository.TicketRepository
	specialists repository.SpecialistRepository
	pinger      repository.Pinger
	close       func(context.Context)
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*ticketStore, error) {
	switch cfg.Store.Driver {
	case config.DriverMongo:
		return openMongo(ctx, cfg, logger)
	case config.DriverPostgres:
		return openPostgres(ctx, cfg, logger)
	case config.DriverMemory:
		logger.Warn("using in-memory ticket store; data is lost on restart")
		mem := repository.NewMemoryStore()
		return &ticketStore{
			tickets:     mem.Tickets(),
			specialists: mem.Specialists(),
			pinger:      mem,
			close:       func(context.Context) {},
		}, nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
}

func openMongo(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*ticketStore, error) {
	mongo, err := persistence.NewMongo(ctx, cfg.Mongo, logger)
	if err != nil {
		return nil, err
	}
	closeMongo := func(ctx context.Context) {
		if err := mongo.Close(ctx); err != nil {
			logger.Warn("mongo disconnect", zap.Error(err))
		}
	}

	tickets, err := repository.NewMongoTicketRepository(ctx, mongo.Database)
	if err != nil {
		closeMongo(ctx)
		return nil, fmt.Errorf("prepare tickets collection: %w", err)
	}
	specialists, err := repository.NewMongoSpecialistRepository(ctx, mongo.Database)
	if err != nil {
		closeMongo(ctx)
		return nil, fmt.Errorf("prepare specialists collection: %w", err)
	}
	return &ticketStore{tickets: tickets, specialists: specialists, pinger: mongo, close: closeMongo}, nil
}

func openPostgres(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*ticketStore, error) {
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			pg.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	pool := pg.PoolHandle()
	return &ticketStore{
		tickets:     repository.NewPgTicketRepository(pool),
		specialists: repository.NewPgSpecialistRepository(pool),
		pinger:      pg,
		close:       func(context.Context) { pg.Close() },
	}, nil
}
