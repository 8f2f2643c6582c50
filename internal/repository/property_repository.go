package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/smoothmove/internal/database"
	"github.com/iliyamo/smoothmove/internal/model"
)

// PropertyRepo encapsulates all queries on properties and their images.
type PropertyRepo struct {
	db *database.DB
}

// NewPropertyRepo constructs a PropertyRepo over the shared pool.
func NewPropertyRepo(db *database.DB) *PropertyRepo {
	return &PropertyRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanProperty reads the propertyColumns of one row into p, followed by any
// extra destinations.
func scanProperty(row rowScanner, p *model.Property, extra ...any) error {
	var avail sql.NullTime
	dest := []any{
		&p.ID, &p.OwnerID, &p.Title, &p.Description,
		&p.ThumbnailPhotoURL, &p.CoverPhotoURL, &p.CostPerMonth,
		&p.Street, &p.City, &p.Province, &p.PostCode, &p.Country,
		&p.Area, &p.Bathrooms, &p.Bedrooms, &avail,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	p.AvailableFrom = nil
	if avail.Valid {
		t := avail.Time
		p.AvailableFrom = &t
	}
	return nil
}

// dateArg binds a calendar date as YYYY-MM-DD, which every supported server
// accepts for a DATE column.
func dateArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.DateOnly)
}

// AddProperty inserts p and any image URLs in p.Images in one transaction
// and returns the stored row with its generated id.  Constraint violations
// (for example an unknown owner) are returned wrapped.
func (r *PropertyRepo) AddProperty(ctx context.Context, p *model.Property) (*model.Property, error) {
	const q = `INSERT INTO properties (
			owner_id, title, description, thumbnail_photo_url, cover_photo_url,
			cost_per_month, street, city, province, post_code, country,
			area, number_of_bathrooms, number_of_bedrooms, available_from
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin add property: %w", err)
	}
	defer tx.Rollback()

	id, err := r.db.Dialect.InsertID(ctx, tx, q,
		p.OwnerID, p.Title, p.Description, p.ThumbnailPhotoURL, p.CoverPhotoURL,
		p.CostPerMonth, p.Street, p.City, p.Province, p.PostCode, p.Country,
		p.Area, p.Bathrooms, p.Bedrooms, dateArg(p.AvailableFrom),
	)
	if err != nil {
		return nil, fmt.Errorf("insert property: %w", err)
	}
	for _, url := range p.Images {
		if _, err := r.insertImage(ctx, tx, id, url); err != nil {
			return nil, err
		}
	}

	out, err := r.getByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit add property: %w", err)
	}
	return out, nil
}

// GetPropertyByID loads a property with its image URLs.  It returns nil and
// no error when the id does not exist.  Images is never nil on success.
func (r *PropertyRepo) GetPropertyByID(ctx context.Context, id uint64) (*model.Property, error) {
	return r.getByID(ctx, r.db, id)
}

func (r *PropertyRepo) getByID(ctx context.Context, q database.Querier, id uint64) (*model.Property, error) {
	query := r.db.Dialect.Rebind(`SELECT ` + selectColumns("p") + `, i.photo_url
		FROM properties p
		LEFT JOIN images i ON i.property_id = p.id
		WHERE p.id = ?
		ORDER BY i.id`)
	rows, err := q.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("get property %d: %w", id, err)
	}
	defer rows.Close()

	var p *model.Property
	for rows.Next() {
		// every joined row repeats the property columns; keep scanning into
		// the same record and collect the image column
		if p == nil {
			p = &model.Property{Images: []string{}}
		}
		var url sql.NullString
		if err := scanProperty(rows, p, &url); err != nil {
			return nil, fmt.Errorf("scan property %d: %w", id, err)
		}
		if url.Valid {
			p.Images = append(p.Images, url.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate property %d: %w", id, err)
	}
	return p, nil
}

// ListProperties returns the properties matching s in insertion order, each
// with its image URLs.  The search is normalized first, so the result never
// exceeds MaxListLimit rows.
func (r *PropertyRepo) ListProperties(ctx context.Context, s PropertySearch) ([]*model.Property, error) {
	query, args := s.Normalized().Build(r.db.Dialect)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	out := make([]*model.Property, 0)
	for rows.Next() {
		p := &model.Property{Images: []string{}}
		if err := scanProperty(rows, p); err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate properties: %w", err)
	}
	rows.Close()

	if err := r.attachImages(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachImages fills Images of every property in ps with one query.
func (r *PropertyRepo) attachImages(ctx context.Context, ps []*model.Property) error {
	if len(ps) == 0 {
		return nil
	}
	byID := make(map[uint64]*model.Property, len(ps))
	marks := make([]string, len(ps))
	args := make([]any, len(ps))
	for i, p := range ps {
		byID[p.ID] = p
		marks[i] = "?"
		args[i] = p.ID
	}
	query := r.db.Dialect.Rebind(`SELECT property_id, photo_url FROM images
		WHERE property_id IN (` + strings.Join(marks, ", ") + `)
		ORDER BY id`)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			pid uint64
			url string
		)
		if err := rows.Scan(&pid, &url); err != nil {
			return fmt.Errorf("scan image: %w", err)
		}
		if p, ok := byID[pid]; ok {
			p.Images = append(p.Images, url)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate images: %w", err)
	}
	return nil
}

// DeletePropertyByID removes a property and all of its images in a single
// transaction and returns the deleted row (including the former image URLs).
// It returns nil and no error when the id does not exist.
func (r *PropertyRepo) DeletePropertyByID(ctx context.Context, id uint64) (*model.Property, error) {
	return r.deleteProperty(ctx, id, nil)
}

// DeletePropertyByIDAndOwner is DeletePropertyByID restricted to the owner.
// ErrForbidden is returned when the property belongs to another user.
func (r *PropertyRepo) DeletePropertyByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Property, error) {
	return r.deleteProperty(ctx, id, &ownerID)
}

func (r *PropertyRepo) deleteProperty(ctx context.Context, id uint64, ownerID *uint64) (*model.Property, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete property: %w", err)
	}
	defer tx.Rollback()

	p, err := r.getByID(ctx, tx, id)
	if err != nil || p == nil {
		return nil, err
	}
	if ownerID != nil && p.OwnerID != *ownerID {
		return nil, ErrForbidden
	}

	// images first: the foreign key has no ON DELETE CASCADE
	if _, err := tx.ExecContext(ctx, r.db.Dialect.Rebind(`DELETE FROM images WHERE property_id = ?`), id); err != nil {
		return nil, fmt.Errorf("delete images of property %d: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, r.db.Dialect.Rebind(`DELETE FROM properties WHERE id = ?`), id)
	if err != nil {
		return nil, fmt.Errorf("delete property %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// removed concurrently between the read and the delete
		return nil, nil
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete property %d: %w", id, err)
	}
	return p, nil
}

// AddImage attaches one image URL to a property and returns the new row.
// An unknown property id surfaces as the driver's foreign key error.
func (r *PropertyRepo) AddImage(ctx context.Context, propertyID uint64, url string) (*model.Image, error) {
	return r.insertImage(ctx, r.db, propertyID, url)
}

func (r *PropertyRepo) insertImage(ctx context.Context, q database.Querier, propertyID uint64, url string) (*model.Image, error) {
	id, err := r.db.Dialect.InsertID(ctx, q,
		`INSERT INTO images (property_id, photo_url) VALUES (?, ?)`, propertyID, url)
	if err != nil {
		return nil, fmt.Errorf("insert image for property %d: %w", propertyID, err)
	}
	return &model.Image{ID: id, PropertyID: propertyID, URL: url}, nil
}

// ListImages returns the images of a property in insertion order.
func (r *PropertyRepo) ListImages(ctx context.Context, propertyID uint64) ([]model.Image, error) {
	rows, err := r.db.QueryContext(ctx,
		r.db.Dialect.Rebind(`SELECT id, property_id, photo_url FROM images WHERE property_id = ? ORDER BY id`),
		propertyID)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	out := make([]model.Image, 0)
	for rows.Next() {
		var img model.Image
		if err := rows.Scan(&img.ID, &img.PropertyID, &img.URL); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		out = append(out, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate images: %w", err)
	}
	return out, nil
}

// IsConstraintViolation reports whether err was caused by a foreign key or
// unique constraint of the underlying database.
func (r *PropertyRepo) IsConstraintViolation(err error) bool {
	return err != nil && (r.db.Dialect.IsForeignKeyViolation(err) || r.db.Dialect.IsUniqueViolation(err))
}
