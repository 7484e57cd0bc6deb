package queue

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AddToWanted inserts a user-maintained wanted entry.
func (s *Store) AddToWanted(ctx context.Context, title string, year *int, contentType ContentType, catalogID *int64, posterRef, notes string) (int64, error) {
	now := formatTime(time.Now())
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO wanted (title, year, content_type, catalog_id, poster_ref, notes, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		title, nullableInt(year), string(contentType), nullableInt64(catalogID), posterRef, notes, now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert wanted row: %w", err)
	}
	return res.LastInsertId()
}

// GetWanted returns all wanted rows, newest first.
func (s *Store) GetWanted(ctx context.Context) ([]*WantedItem, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, year, content_type, catalog_id, poster_ref, notes, added_at FROM wanted ORDER BY added_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list wanted: %w", err)
	}
	defer rows.Close()

	var items []*WantedItem
	for rows.Next() {
		var item WantedItem
		var contentType, addedAt string
		var year, catalogID sql.NullInt64
		if err := rows.Scan(&item.ID, &item.Title, &year, &contentType, &catalogID, &item.PosterRef, &item.Notes, &addedAt); err != nil {
			return nil, fmt.Errorf("scan wanted row: %w", err)
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

// RemoveFromWanted deletes a wanted row by id.
func (s *Store) RemoveFromWanted(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM wanted WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("remove wanted row %d: %w", id, err)
	}
	return requireAffected(res, id)
}
