package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vibast-solutions/ms-go-book-payments/app/entity"
)

var ErrCredentialNotFound = errors.New("credential set not found")

const credentialColumns = `id, mode, project_id, project_secret, signature_key, api_base_url, is_active, created_at, updated_at`

type CredentialRepository struct {
	db TxDB
}

func NewCredentialRepository(db TxDB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// FindActive returns the active set for mode, or nil when none is active.
func (r *CredentialRepository) FindActive(ctx context.Context, mode entity.Mode) (*entity.CredentialSet, error) {
	query := `SELECT ` + credentialColumns + ` FROM gateway_credentials WHERE mode = ? AND is_active = 1 ORDER BY updated_at DESC LIMIT 1`
	return r.findOne(ctx, query, string(mode))
}

func (r *CredentialRepository) FindByID(ctx context.Context, id uint64) (*entity.CredentialSet, error) {
	query := `SELECT ` + credentialColumns + ` FROM gateway_credentials WHERE id = ?`
	return r.findOne(ctx, query, id)
}

func (r *CredentialRepository) List(ctx context.Context) ([]*entity.CredentialSet, error) {
	query := `SELECT ` + credentialColumns + ` FROM gateway_credentials ORDER BY mode ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*entity.CredentialSet, 0)
	for rows.Next() {
		item := &entity.CredentialSet{}
		if err := scanCredential(rows, item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Save inserts or updates set. Activating a set deactivates every other set
// of the same mode inside the same transaction.
func (r *CredentialRepository) Save(ctx context.Context, set *entity.CredentialSet) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if set.IsActive {
			if _, err := tx.ExecContext(ctx,
				`UPDATE gateway_credentials SET is_active = 0, updated_at = ? WHERE mode = ? AND id <> ? AND is_active = 1`,
				set.UpdatedAt, string(set.Mode), set.ID,
			); err != nil {
				return err
			}
		}

		if set.ID == 0 {
			result, err := tx.ExecContext(ctx, `
				INSERT INTO gateway_credentials (mode, project_id, project_secret, signature_key, api_base_url, is_active, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`,
				string(set.Mode), set.ProjectID, set.ProjectSecret, set.SignatureKey, set.APIBaseURL, set.IsActive, set.CreatedAt, set.UpdatedAt,
			)
			if err != nil {
				return err
			}
			id, err := result.LastInsertId()
			if err != nil {
				return err
			}
			set.ID = uint64(id)
			return nil
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE gateway_credentials SET
				mode = ?, project_id = ?, project_secret = ?, signature_key = ?, api_base_url = ?, is_active = ?, updated_at = ?
			WHERE id = ?
		`,
			string(set.Mode), set.ProjectID, set.ProjectSecret, set.SignatureKey, set.APIBaseURL, set.IsActive, set.UpdatedAt, set.ID,
		)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrCredentialNotFound
		}
		return nil
	})
}

func (r *CredentialRepository) findOne(ctx context.Context, query string, args ...interface{}) (*entity.CredentialSet, error) {
	item := &entity.CredentialSet{}
	if err := scanCredential(r.db.QueryRowContext(ctx, query, args...), item); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return item, nil
}

func scanCredential(scan rowScanner, item *entity.CredentialSet) error {
	var mode string
	if err := scan.Scan(
		&item.ID,
		&mode,
		&item.ProjectID,
		&item.ProjectSecret,
		&item.SignatureKey,
		&item.APIBaseURL,
		&item.IsActive,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return err
	}
	item.Mode = entity.Mode(mode)
	return nil
}
