package contactrepo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Overland-East-Bay/contact-manager/internal/domain"
	clockport "github.com/Overland-East-Bay/contact-manager/internal/ports/out/clock"
	"github.com/Overland-East-Bay/contact-manager/internal/ports/out/contactrepo"
)

// Repo is a SQLite implementation of contactrepo.Repository. Timestamps are
// stored as Unix nanoseconds so they order numerically.
type Repo struct {
	db  *sql.DB
	clk clockport.Clock
}

func NewRepo(db *sql.DB, clk clockport.Clock) *Repo {
	return &Repo{db: db, clk: clk}
}

const selectContact = `SELECT id, name, email, phone, group_name, version, created_at, updated_at FROM contacts`

func (r *Repo) List(ctx context.Context, f contactrepo.Filter) ([]contactrepo.Record, error) {
	group := f.Group
	if group == domain.AllGroups {
		group = ""
	}
	// lower() only folds ASCII in SQLite; the client re-filters anyway.
	rows, err := r.db.QueryContext(ctx, selectContact+`
		WHERE (?1 = '' OR instr(lower(name), lower(?1)) > 0
		               OR instr(lower(email), lower(?1)) > 0
		               OR (coalesce(phone, '') <> '' AND instr(lower(phone), lower(?1)) > 0))
		  AND (?2 = '' OR group_name = ?2)
		ORDER BY created_at ASC, id ASC`, f.Search, group)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]contactrepo.Record, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.ContactID) (contactrepo.Record, error) {
	return scanContact(r.db.QueryRowContext(ctx, selectContact+` WHERE id = ?`, string(id)))
}

func (r *Repo) Create(ctx context.Context, in contactrepo.NewContact) (contactrepo.Record, error) {
	now := r.clk.Now().UTC()
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO contacts (id, name, email, phone, group_name, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		id, in.Name, in.Email, nullString(in.Phone), in.Group, now.UnixNano(), now.UnixNano())
	if err != nil {
		return contactrepo.Record{}, err
	}
	return r.GetByID(ctx, domain.ContactID(id))
}

func (r *Repo) Update(ctx context.Context, id domain.ContactID, p contactrepo.Patch) (contactrepo.Record, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return contactrepo.Record{}, err
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := scanContact(tx.QueryRowContext(ctx, selectContact+` WHERE id = ?`, string(id)))
	if err != nil {
		return contactrepo.Record{}, err
	}
	updated, err := contactrepo.ApplyPatch(existing, p)
	if err != nil {
		return contactrepo.Record{}, err
	}
	updated.Version = existing.Version + 1
	updated.UpdatedAt = r.clk.Now().UTC()

	if _, err := tx.ExecContext(ctx, `
		UPDATE contacts
		SET name = ?, email = ?, phone = ?, group_name = ?, version = ?, updated_at = ?
		WHERE id = ?`,
		updated.Name, updated.Email, nullString(updated.Phone), updated.Group,
		updated.Version, updated.UpdatedAt.UnixNano(), string(id)); err != nil {
		return contactrepo.Record{}, err
	}
	if err := tx.Commit(); err != nil {
		return contactrepo.Record{}, err
	}
	return updated, nil
}

func (r *Repo) Delete(ctx context.Context, id domain.ContactID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, string(id))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return contactrepo.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (contactrepo.Record, error) {
	var (
		c                  contactrepo.Record
		id                 string
		phone              sql.NullString
		created, updatedAt int64
	)
	if err := row.Scan(&id, &c.Name, &c.Email, &phone, &c.Group, &c.Version, &created, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return contactrepo.Record{}, contactrepo.ErrNotFound
		}
		return contactrepo.Record{}, err
	}
	c.ID = domain.ContactID(id)
	if phone.Valid {
		v := phone.String
		c.Phone = &v
	}
	c.CreatedAt = time.Unix(0, created).UTC()
	c.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return c, nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}
