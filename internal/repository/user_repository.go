package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/helpdesk-kit/helpdesk-service/internal/domain"
)

// UserRepository encapsulates user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	SetActive(ctx context.Context, id string, active bool) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	GrantRole(ctx context.Context, id string, role domain.RoleName) error
	ListByTenants(ctx context.Context, tenantIDs []string) ([]domain.User, error)
}

type userRepository struct {
	pool PgxPool
}

// NewUserRepository instantiates the repository.
func NewUserRepository(pool PgxPool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, password_hash, is_active, organization_id)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	if err := r.pool.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.IsActive,
		user.OrganizationID,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return err
	}
	for _, role := range user.Roles {
		if err := r.GrantRole(ctx, user.ID, role); err != nil {
			return err
		}
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
        SELECT id, name, email, password_hash, is_active, organization_id, created_at, updated_at
        FROM users WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT id, name, email, password_hash, is_active, organization_id, created_at, updated_at
        FROM users WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.IsActive,
		&user.OrganizationID,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	roles, err := r.rolesFor(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Roles = roles
	return &user, nil
}

func (r *userRepository) rolesFor(ctx context.Context, userID string) ([]domain.RoleName, error) {
	const query = `SELECT role FROM user_roles WHERE user_id=$1 ORDER BY role`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []domain.RoleName
	for rows.Next() {
		var role domain.RoleName
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *userRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE users SET is_active=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, active, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE users SET password_hash=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GrantRole(ctx context.Context, id string, role domain.RoleName) error {
	const query = `
        INSERT INTO user_roles (user_id, role) VALUES ($1,$2)
        ON CONFLICT (user_id, role) DO NOTHING`
	_, err := r.pool.Exec(ctx, query, id, role)
	return err
}

// ListByTenants returns users holding at least one assignment in the given
// tenants. Used to scope agent visibility.
func (r *userRepository) ListByTenants(ctx context.Context, tenantIDs []string) ([]domain.User, error) {
	if len(tenantIDs) == 0 {
		return []domain.User{}, nil
	}
	const query = `
        SELECT DISTINCT u.id, u.name, u.email, u.password_hash, u.is_active, u.organization_id, u.created_at, u.updated_at
        FROM users u
        JOIN tenant_assignments ta ON ta.user_id = u.id
        WHERE ta.tenant_id = ANY($1)
        ORDER BY u.id`
	rows, err := r.pool.Query(ctx, query, tenantIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.PasswordHash,
			&user.IsActive,
			&user.OrganizationID,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}
