package contactrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/Overland-East-Bay/contact-manager/internal/adapters/postgres"
	"github.com/Overland-East-Bay/contact-manager/internal/domain"
	clockport "github.com/Overland-East-Bay/contact-manager/internal/ports/out/clock"
	"github.com/Overland-East-Bay/contact-manager/internal/ports/out/contactrepo"
)

// Repo is a Postgres implementation of contactrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
	clk  clockport.Clock
}

func NewRepo(pool *pgxpool.Pool, clk clockport.Clock) *Repo {
	return &Repo{pool: pool, clk: clk}
}

const selectContact = `
	SELECT external_id, name, email, phone, group_name, version, created_at, updated_at
	FROM contacts
`

func (r *Repo) List(ctx context.Context, f contactrepo.Filter) ([]contactrepo.Record, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	group := f.Group
	if group == domain.AllGroups {
		group = ""
	}

	rows, err := r.pool.Query(ctx, selectContact+`
		WHERE ($1 = '' OR strpos(lower(name), lower($1)) > 0
		                OR strpos(lower(email), lower($1)) > 0
		                OR (coalesce(phone, '') <> '' AND strpos(lower(phone), lower($1)) > 0))
		  AND ($2 = '' OR group_name = $2)
		ORDER BY created_at ASC, external_id ASC
	`, f.Search, group)
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
	if r.pool == nil {
		return contactrepo.Record{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return contactrepo.Record{}, contactrepo.ErrNotFound
	}
	return getContact(ctx, r.pool, uid, false)
}

func (r *Repo) Create(ctx context.Context, in contactrepo.NewContact) (contactrepo.Record, error) {
	if r.pool == nil {
		return contactrepo.Record{}, errors.New("nil postgres pool")
	}
	now := r.clk.Now().UTC()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO contacts (external_id, name, email, phone, group_name, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $6)
		RETURNING external_id, name, email, phone, group_name, version, created_at, updated_at
	`, uuid.New(), in.Name, in.Email, in.Phone, in.Group, now)

	c, err := scanContact(row)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return contactrepo.Record{}, fmt.Errorf("contact id collision: %w", err)
		}
		return contactrepo.Record{}, err
	}
	return c, nil
}

func (r *Repo) Update(ctx context.Context, id domain.ContactID, p contactrepo.Patch) (contactrepo.Record, error) {
	if r.pool == nil {
		return contactrepo.Record{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return contactrepo.Record{}, contactrepo.ErrNotFound
	}

	var out contactrepo.Record
	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		existing, err := getContact(ctx, tx, uid, true)
		if err != nil {
			return err
		}
		updated, err := contactrepo.ApplyPatch(existing, p)
		if err != nil {
			return err
		}

		row := tx.QueryRow(ctx, `
			UPDATE contacts
			SET name = $2,
			    email = $3,
			    phone = $4,
			    group_name = $5,
			    version = version + 1,
			    updated_at = $6
			WHERE external_id = $1
			RETURNING external_id, name, email, phone, group_name, version, created_at, updated_at
		`,
			uid,
			updated.Name,
			updated.Email,
			updated.Phone,
			updated.Group,
			r.clk.Now().UTC(),
		)
		out, err = scanContact(row)
		return err
	})
	if err != nil {
		return contactrepo.Record{}, err
	}
	return out, nil
}

func (r *Repo) Delete(ctx context.Context, id domain.ContactID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return contactrepo.ErrNotFound
	}
	ct, err := r.pool.Exec(ctx, `DELETE FROM contacts WHERE external_id = $1`, uid)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return contactrepo.ErrNotFound
	}
	return nil
}

type queryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getContact(ctx context.Context, q queryer, id uuid.UUID, forUpdate bool) (contactrepo.Record, error) {
	sql := selectContact + ` WHERE external_id = $1`
	if forUpdate {
		sql += ` FOR UPDATE`
	}
	return scanContact(q.QueryRow(ctx, sql, id))
}

func scanContact(row pgx.Row) (contactrepo.Record, error) {
	var (
		id    uuid.UUID
		c     contactrepo.Record
		phone *string
	)
	if err := row.Scan(&id, &c.Name, &c.Email, &phone, &c.Group, &c.Version, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return contactrepo.Record{}, contactrepo.ErrNotFound
		}
		return contactrepo.Record{}, err
	}
	c.ID = domain.ContactID(id.String())
	c.Phone = phone
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}
