package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/XSAM/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/pawmart/pawmart-api/internal/config"
	"github.com/pawmart/pawmart-api/internal/utils"

	_ "github.com/lib/pq"
)

type Repositories struct {
	DB         *sql.DB
	User       UserRepository
	Product    ProductRepository
	Cart       CartRepository
	Offer      OfferRepository
	OfferUsage OfferUsageRepository
	Order      OrderRepository
	Review     ReviewRepository
}

func New(cfg *config.Config) (*Repositories, error) {
	db, err := otelsql.Open("postgres", cfg.Database.GetDSN(),
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.Database.ConnMaxIdleTime)

	// Test the connection to make sure DB is reachable
	ctx, cancel := utils.WithDBTimeout(context.Background())
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Repositories{
		DB:         db,
		User:       NewUserRepo(db),
		Product:    NewProductRepo(db),
		Cart:       NewCartRepo(db),
		Offer:      NewOfferRepo(db),
		OfferUsage: NewOfferUsageRepo(db),
		Order:      NewOrderRepo(db),
		Review:     NewReviewRepo(db),
	}, nil
}

func (r *Repositories) Close() error {
	return r.DB.Close()
}
