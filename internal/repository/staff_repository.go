package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medinsight/staff-admin/internal/domain"
)

// Unique constraint violations surfaced by Create and Update.
var (
	ErrDuplicateEmail   = errors.New("staff email already exists")
	ErrDuplicateLicence = errors.New("staff licence number already exists")
)

// StaffRepository handles persistence for staff members.
// Missing rows are reported as pgx.ErrNoRows.
type StaffRepository interface {
	Create(ctx context.Context, staff *domain.Staff) error
	// Update overwrites the row. An empty PasswordHash keeps the stored one.
	Update(ctx context.Context, staff *domain.Staff) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Staff, error)
	GetByEmail(ctx context.Context, email string) (*domain.Staff, error)
	List(ctx context.Context, filter StaffFilter) ([]domain.Staff, error)
}

// StaffFilter defines query params for staff listing. A zero Limit lists everything.
type StaffFilter struct {
	Type   *domain.StaffType
	Active *bool
	Limit  int
	Offset int
}

const staffColumns = `id, account_id, nom, prenom, email, telephone, type, specialite,
        numero_licence, actif, date_embauche, password_hash, created_at, updated_at`

type staffRepository struct {
	pool *pgxpool.Pool
}

// NewStaffRepository instantiates the Postgres repository.
func NewStaffRepository(pool *pgxpool.Pool) StaffRepository {
	return &staffRepository{pool: pool}
}

func (r *staffRepository) Create(ctx context.Context, staff *domain.Staff) error {
	const query = `
        INSERT INTO staff (account_id, nom, prenom, email, telephone, type, specialite,
                           numero_licence, actif, date_embauche, password_hash)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		staff.AccountID,
		staff.Nom,
		staff.Prenom,
		staff.Email,
		staff.Telephone,
		staff.Type,
		staff.Specialite,
		staff.NumeroLicence,
		staff.Actif,
		staff.DateEmbauche,
		staff.PasswordHash,
	).Scan(&staff.ID, &staff.CreatedAt, &staff.UpdatedAt)
	return translateUniqueViolation(err)
}

func (r *staffRepository) Update(ctx context.Context, staff *domain.Staff) error {
	const query = `
        UPDATE staff
        SET account_id=$1, nom=$2, prenom=$3, email=$4, telephone=$5, type=$6, specialite=$7,
            numero_licence=$8, actif=$9, date_embauche=$10,
            password_hash=COALESCE(NULLIF($11, ''), password_hash), updated_at=NOW()
        WHERE id=$12
        RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		staff.AccountID,
		staff.Nom,
		staff.Prenom,
		staff.Email,
		staff.Telephone,
		staff.Type,
		staff.Specialite,
		staff.NumeroLicence,
		staff.Actif,
		staff.DateEmbauche,
		staff.PasswordHash,
		staff.ID,
	).Scan(&staff.UpdatedAt)
	return translateUniqueViolation(err)
}

func (r *staffRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM staff WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *staffRepository) GetByID(ctx context.Context, id int64) (*domain.Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff WHERE id=$1`
	return scanStaff(r.pool.QueryRow(ctx, query, id))
}

func (r *staffRepository) GetByEmail(ctx context.Context, email string) (*domain.Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff WHERE lower(email)=lower($1)`
	return scanStaff(r.pool.QueryRow(ctx, query, email))
}

func (r *staffRepository) List(ctx context.Context, filter StaffFilter) ([]domain.Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff`
	args := []any{}
	clauses := []string{}

	if filter.Type != nil {
		args = append(args, *filter.Type)
		clauses = append(clauses, fmt.Sprintf("type=$%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		clauses = append(clauses, fmt.Sprintf("actif=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY id"
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Staff{}
	for rows.Next() {
		staff, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *staff)
	}
	return result, rows.Err()
}

func scanStaff(row pgx.Row) (*domain.Staff, error) {
	var staff domain.Staff
	if err := row.Scan(
		&staff.ID,
		&staff.AccountID,
		&staff.Nom,
		&staff.Prenom,
		&staff.Email,
		&staff.Telephone,
		&staff.Type,
		&staff.Specialite,
		&staff.NumeroLicence,
		&staff.Actif,
		&staff.DateEmbauche,
		&staff.PasswordHash,
		&staff.CreatedAt,
		&staff.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &staff, nil
}

func translateUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	switch pgErr.ConstraintName {
	case "staff_email_key", "staff_email_lower_idx":
		return ErrDuplicateEmail
	case "staff_numero_licence_key":
		return ErrDuplicateLicence
	}
	return err
}
