package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver registration.

	"rental_bot/internal/model"
	"rental_bot/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

const listingColumns = `id, owner_id, owner_email, title, description, city, property_type, furnished_type,
		rating, rent, image_url, video_url, latitude, longitude, created_at`

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if dsn == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=OFF"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("disable foreign keys: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// ListListings returns every listing, newest first.
func (s *SQLite) ListListings(ctx context.Context) ([]model.Listing, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+listingColumns+` FROM listings ORDER BY created_at DESC, rowid DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanListings(rows)
}

// ListListingsByOwner returns the listings of one owner, newest first.
func (s *SQLite) ListListingsByOwner(ctx context.Context, ownerID string) ([]model.Listing, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE owner_id = ? ORDER BY created_at DESC, rowid DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query owner listings: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanListings(rows)
}

// GetListing returns a single listing by its ID.
func (s *SQLite) GetListing(ctx context.Context, id string) (*model.Listing, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = ?`, id)
	l, err := scanListing(row)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// CreateListing inserts a new listing and populates its ID and CreatedAt.
func (s *SQLite) CreateListing(ctx context.Context, l *model.Listing) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	now := time.Now().UTC().Format(timeLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO listings (`+listingColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.OwnerID, l.OwnerEmail, l.Title, l.Description, l.City,
		string(l.PropertyType), string(l.Furnishing), l.Rating, l.Rent,
		l.ImageURL, l.VideoURL, l.Latitude, l.Longitude, now,
	)
	if err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	if err := bumpRevision(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	l.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// UpdateListing persists the editable fields of an existing listing.
// The ID, owner and creation time never change.
func (s *SQLite) UpdateListing(ctx context.Context, l *model.Listing) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE listings SET title = ?, description = ?, city = ?, property_type = ?, furnished_type = ?,
		        rating = ?, rent = ?, image_url = ?, video_url = ?, latitude = ?, longitude = ?
		 WHERE id = ?`,
		l.Title, l.Description, l.City, string(l.PropertyType), string(l.Furnishing),
		l.Rating, l.Rent, l.ImageURL, l.VideoURL, l.Latitude, l.Longitude, l.ID,
	)
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("update listing %s: %w", l.ID, err)
	}
	if err := bumpRevision(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteListing removes a listing and every favorite mark pointing at it.
func (s *SQLite) DeleteListing(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM favorites WHERE property_id = ?`, id); err != nil {
		return fmt.Errorf("delete favorites: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM listings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("delete listing %s: %w", id, err)
	}
	if err := bumpRevision(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

// ListingsRevision returns a counter that increases on every listing mutation.
func (s *SQLite) ListingsRevision(ctx context.Context) (int64, error) {
	var rev int64
	err := s.db.QueryRowContext(ctx,
		`SELECT revision FROM revisions WHERE name = 'listings'`,
	).Scan(&rev)
	if err != nil {
		return 0, fmt.Errorf("query revision: %w", err)
	}
	return rev, nil
}

// ListFavoriteIDs returns the IDs of the listings a tenant has favorited.
func (s *SQLite) ListFavoriteIDs(ctx context.Context, tenantID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT property_id FROM favorites WHERE user_id = ? ORDER BY created_at, rowid`, tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("query favorites: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddFavorite records a favorite mark. Adding an existing mark is a no-op.
func (s *SQLite) AddFavorite(ctx context.Context, tenantID, listingID string) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO favorites (user_id, property_id, created_at) VALUES (?, ?, ?)`,
		tenantID, listingID, now,
	)
	if err != nil {
		return fmt.Errorf("insert favorite: %w", err)
	}
	return nil
}

// RemoveFavorite deletes a favorite mark if it exists.
func (s *SQLite) RemoveFavorite(ctx context.Context, tenantID, listingID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = ? AND property_id = ?`, tenantID, listingID,
	)
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	return nil
}

// CreateNotification inserts a notification and populates its ID and CreatedAt.
func (s *SQLite) CreateNotification(ctx context.Context, n *model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (id, owner_id, message, created_at, is_read) VALUES (?, ?, ?, ?, ?)`,
		n.ID, n.OwnerID, n.Message, now, boolToInt(n.IsRead),
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	n.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// ListNotifications returns an owner's notifications, newest first.
func (s *SQLite) ListNotifications(ctx context.Context, ownerID string) ([]model.Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, message, created_at, is_read, delivered_at
		 FROM notifications WHERE owner_id = ? ORDER BY created_at DESC, rowid DESC`, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanNotifications(rows)
}

// MarkNotificationsRead flags every notification of an owner as read.
func (s *SQLite) MarkNotificationsRead(ctx context.Context, ownerID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE owner_id = ? AND is_read = 0`, ownerID,
	)
	if err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}

// ListUndeliveredNotifications returns notifications not yet pushed to their owner, oldest first.
func (s *SQLite) ListUndeliveredNotifications(ctx context.Context) ([]model.Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, message, created_at, is_read, delivered_at
		 FROM notifications WHERE delivered_at IS NULL ORDER BY created_at, rowid`,
	)
	if err != nil {
		return nil, fmt.Errorf("query undelivered notifications: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanNotifications(rows)
}

// MarkNotificationDelivered records that a notification was pushed to its owner.
func (s *SQLite) MarkNotificationDelivered(ctx context.Context, id string) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET delivered_at = ? WHERE id = ?`, now, id,
	)
	if err != nil {
		return fmt.Errorf("mark notification delivered: %w", err)
	}
	return nil
}

// UpsertUser registers a chat on first contact and refreshes its display name afterwards.
// New users start as tenants.
func (s *SQLite) UpsertUser(ctx context.Context, chatID int64, name string) (*model.User, error) {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, chat_id, name, role, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (chat_id) DO UPDATE SET name = excluded.name`,
		uuid.NewString(), chatID, name, string(model.RoleTenant), now,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return s.GetUserByChatID(ctx, chatID)
}

// GetUser returns a user by ID.
func (s *SQLite) GetUser(ctx context.Context, id string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, chat_id, name, email, role, created_at FROM users WHERE id = ?`, id,
	)
	return scanUser(row)
}

// GetUserByChatID returns the user bound to a Telegram chat.
func (s *SQLite) GetUserByChatID(ctx context.Context, chatID int64) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, chat_id, name, email, role, created_at FROM users WHERE chat_id = ?`, chatID,
	)
	return scanUser(row)
}

// SetUserRole switches the role a user acts in.
func (s *SQLite) SetUserRole(ctx context.Context, id string, role model.Role) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ?`, string(role), id)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("update role %s: %w", id, err)
	}
	return nil
}

// SetUserEmail stores the contact address shown to owners.
func (s *SQLite) SetUserEmail(ctx context.Context, id, email string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET email = ? WHERE id = ?`, email, id)
	if err != nil {
		return fmt.Errorf("update email: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("update email %s: %w", id, err)
	}
	return nil
}

func bumpRevision(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE revisions SET revision = revision + 1 WHERE name = 'listings'`,
	); err != nil {
		return fmt.Errorf("bump revision: %w", err)
	}
	return nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type scannable interface {
	Scan(dest ...any) error
}

func scanListing(row scannable) (model.Listing, error) {
	var l model.Listing
	var propertyType, furnishing, created string
	err := row.Scan(&l.ID, &l.OwnerID, &l.OwnerEmail, &l.Title, &l.Description, &l.City,
		&propertyType, &furnishing, &l.Rating, &l.Rent, &l.ImageURL, &l.VideoURL,
		&l.Latitude, &l.Longitude, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return l, ErrNotFound
	}
	if err != nil {
		return l, fmt.Errorf("scan listing: %w", err)
	}
	l.PropertyType = model.PropertyType(propertyType)
	l.Furnishing = model.Furnishing(furnishing)
	l.CreatedAt, _ = time.Parse(timeLayout, created)
	return l, nil
}

func scanListings(rows *sql.Rows) ([]model.Listing, error) {
	var listings []model.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func scanNotifications(rows *sql.Rows) ([]model.Notification, error) {
	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		var isRead int
		var created string
		var delivered sql.NullString
		if err := rows.Scan(&n.ID, &n.OwnerID, &n.Message, &created, &isRead, &delivered); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.IsRead = isRead == 1
		n.CreatedAt, _ = time.Parse(timeLayout, created)
		if delivered.Valid {
			t, _ := time.Parse(timeLayout, delivered.String)
			n.DeliveredAt = &t
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func scanUser(row scannable) (*model.User, error) {
	var u model.User
	var role, created string
	err := row.Scan(&u.ID, &u.ChatID, &u.Name, &u.Email, &role, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.Role = model.Role(role)
	u.CreatedAt, _ = time.Parse(timeLayout, created)
	return &u, nil
}
