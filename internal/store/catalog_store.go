package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/freshcart/shopmate/internal/domain"
)

// CatalogStore persists the product catalog. The chat core only ever sees
// immutable snapshots loaded from here; edits go through Upsert.
type CatalogStore struct {
	db *DB
}

// NewCatalogStore creates a catalog store using the given database.
func NewCatalogStore(db *DB) *CatalogStore {
	return &CatalogStore{db: db}
}

// Upsert inserts or replaces one catalog item at the given position.
func (s *CatalogStore) Upsert(item domain.CatalogItem, position int) error {
	tags, err := json.Marshal(item.Tags)
	if err != nil {
		return fmt.Errorf("marshaling tags for %s: %w", item.ID, err)
	}

	_, err = s.db.sql.Exec(
		`INSERT INTO catalog_items (id, name, price, unit, stock, origin, description, prep_note, nutrition, tags, position, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name=excluded.name, price=excluded.price, unit=excluded.unit,
			stock=excluded.stock, origin=excluded.origin, description=excluded.description,
			prep_note=excluded.prep_note, nutrition=excluded.nutrition,
			tags=excluded.tags, position=excluded.position, updated_at=excluded.updated_at`,
		item.ID, item.Name, item.Price, item.Unit, item.Stock,
		item.Origin, item.Description, item.PrepNote, item.Nutrition,
		string(tags), position, time.Now().Format(time.DateTime),
	)
	if err != nil {
		return fmt.Errorf("upserting catalog item %s: %w", item.ID, err)
	}
	return nil
}

// Seed stores a full catalog, replacing positions so snapshot order matches
// the given slice. Existing items not in the slice are left alone.
func (s *CatalogStore) Seed(items []domain.CatalogItem) error {
	for i, it := range items {
		if err := s.Upsert(it, i); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot loads the full catalog as an immutable snapshot in stored order.
func (s *CatalogStore) Snapshot() (*domain.Catalog, error) {
	rows, err := s.db.sql.Query(
		`SELECT id, name, price, unit, stock, origin, description, prep_note, nutrition, tags
		 FROM catalog_items ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	defer rows.Close()

	var items []domain.CatalogItem
	for rows.Next() {
		var it domain.CatalogItem
		var tags string
		if err := rows.Scan(&it.ID, &it.Name, &it.Price, &it.Unit, &it.Stock,
			&it.Origin, &it.Description, &it.PrepNote, &it.Nutrition, &tags); err != nil {
			return nil, fmt.Errorf("scanning catalog item: %w", err)
		}
		if tags != "" {
			_ = json.Unmarshal([]byte(tags), &it.Tags)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating catalog: %w", err)
	}
	return domain.NewCatalog(items), nil
}
