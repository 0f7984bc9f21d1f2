package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/courtside-club/courtside-server/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrAdminNotFound      = errors.New("admin not found")
	ErrAdminEmailConflict = errors.New("admin email already in use")
)

type AdminRepository interface {
	Create(ctx context.Context, admin *models.Admin) error
	GetByEmail(ctx context.Context, email string) (*models.Admin, error)
	GetByID(ctx context.Context, id string) (*models.Admin, error)
}

type postgresAdminRepository struct {
	db *sql.DB
}

func NewPostgresAdminRepository(db *sql.DB) AdminRepository {
	return &postgresAdminRepository{db: db}
}

func (r *postgresAdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}
	query := `
		INSERT INTO admins (id, club_id, email, name, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		admin.ID, admin.ClubID, admin.Email, admin.Name, admin.PasswordHash,
	).Scan(&admin.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return ErrAdminEmailConflict
	}
	return err
}

func (r *postgresAdminRepository) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	return r.getOne(ctx, `WHERE email = $1`, email)
}

func (r *postgresAdminRepository) GetByID(ctx context.Context, id string) (*models.Admin, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *postgresAdminRepository) getOne(ctx context.Context, where string, arg any) (*models.Admin, error) {
	query := `SELECT id, club_id, email, name, password_hash, created_at FROM admins ` + where

	admin := &models.Admin{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&admin.ID, &admin.ClubID, &admin.Email, &admin.Name, &admin.PasswordHash, &admin.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return admin, nil
}
