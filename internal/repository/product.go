package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/crashteamdev/ke-data-scrapper/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ProductArchive keeps the latest raw product snapshot per id. Optional; a
// nil archive disables snapshotting.
type ProductArchive interface {
	Save(ctx context.Context, data *domain.ProductData) error
}

type productArchive struct {
	db *pgxpool.Pool
}

func NewProductArchive(db *pgxpool.Pool) ProductArchive {
	return &productArchive{
		db: db,
	}
}

func (r *productArchive) Save(ctx context.Context, data *domain.ProductData) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal product %d: %w", data.ID, err)
	}

	query := `
	INSERT INTO product_snapshots (id, data, scraped_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (id)
	DO UPDATE SET data = $2, scraped_at = $3`
	_, err = r.db.Exec(ctx, query, data.ID, payload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save product snapshot: %w", err)
	}

	return nil
}
