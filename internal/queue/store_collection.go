package queue

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AddToCollection records a successfully moved title. Called only by the
// file mover.
func (s *Store) AddToCollection(ctx context.Context, contentType ContentType, title string, year *int, catalogID *int64, finalPath string) (int64, error) {
	now := formatTime(time.Now())
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO collection (content_type, title, year, catalog_id, final_path, added_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(contentType), title, nullableInt(year), nullableInt64(catalogID), finalPath, now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert collection row: %w", err)
	}
	return res.LastInsertId()
}

// GetCollection returns all collection rows, newest first.
func (s *Store) GetCollection(ctx context.Context) ([]*CollectionItem, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, content_type, title, year, catalog_id, final_path, added_at FROM collection ORDER BY added_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list collection: %w", err)
	}
	defer rows.Close()

	var items []*CollectionItem
	for rows.Next() {
		var item CollectionItem
		var contentType, addedAt string
		var year, catalogID sql.NullInt64
		if err := rows.Scan(&item.ID, &contentType, &item.Title, &year, &catalogID, &item.FinalPath, &addedAt); err != nil {
			return nil, fmt.Errorf("scan collection row: %w", err)
		}
		item.ContentType = ContentType(contentType)
		item.Year = intPtr(year)
		item.CatalogID = int64Ptr(catalogID)
		if item.AddedAt, err = parseTime(addedAt); err != nil {
			return nil, fmt.Errorf("parse added_at: %w", err)
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

// RemoveFromCollection deletes a collection row by id.
func (s *Store) RemoveFromCollection(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM collection WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("remove collection row %d: %w", id, err)
	}
	return requireAffected(res, id)
}
