package auth

import (
	"context"
	"database/sql"

	"personweb.org/internal/ids"
)

var _ Directory = (*PGStore)(nil)

// PGStore implements the credential store over PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

// Read side ----------------------------------------------------------------

func (s *PGStore) FindUserByUsername(ctx context.Context, username string) (*UserRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, username, password_hash, status, created_at, updated_at from users where username=$1`,
		username)
	return scanUser(row)
}

func (s *PGStore) FindUserByID(ctx context.Context, id string) (*UserRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, username, password_hash, status, created_at, updated_at from users where id=$1`,
		id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*UserRecord, error) {
	var u UserRecord
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Status, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *PGStore) Roles(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`select r.name from roles r
		 join user_roles ur on ur.role_id=r.id
		 where ur.user_id=$1 order by r.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStrings(rows)
}

func (s *PGStore) Permissions(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`select distinct p.key from permissions p
		 join role_permissions rp on rp.permission_id=p.id
		 join user_roles ur on ur.role_id=rp.role_id
		 where ur.user_id=$1 order by p.key`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStrings(rows)
}

func collectStrings(rows *sql.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Write side ----------------------------------------------------------------

func (s *PGStore) CreateUser(ctx context.Context, u *UserRecord) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	if u.Status == "" {
		u.Status = StatusActive
	}
	_, err := s.db.ExecContext(ctx,
		`insert into users(id, username, password_hash, status) values($1,$2,$3,$4)`,
		u.ID, u.Username, u.PasswordHash, u.Status,
	)
	return err
}

func (s *PGStore) UpdateUserStatus(ctx context.Context, userID, status string) error {
	res, err := s.db.ExecContext(ctx,
		`update users set status=$2, updated_at=now() where id=$1`,
		userID, status,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) CreateRole(ctx context.Context, role *Role) error {
	if role.ID == "" {
		role.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into roles(id, name, description) values($1,$2,$3)`,
		role.ID, role.Name, role.Description,
	)
	return err
}

func (s *PGStore) FindRoleByName(ctx context.Context, name string) (*Role, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, name, description, created_at from roles where name=$1`, name)
	var role Role
	if err := row.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &role, nil
}

func (s *PGStore) AssignRole(ctx context.Context, userID, roleID string) error {
	_, err := s.db.ExecContext(ctx,
		`insert into user_roles(user_id, role_id) values($1,$2) on conflict do nothing`,
		userID, roleID,
	)
	return err
}

func (s *PGStore) RevokeRole(ctx context.Context, userID, roleID string) error {
	_, err := s.db.ExecContext(ctx,
		`delete from user_roles where user_id=$1 and role_id=$2`,
		userID, roleID,
	)
	return err
}

func (s *PGStore) EnsurePermissions(ctx context.Context, perms []Permission) error {
	for _, p := range perms {
		if p.ID == "" {
			p.ID = ids.New()
		}
		_, err := s.db.ExecContext(ctx,
			`insert into permissions(id, key, description) values($1,$2,$3) on conflict (key) do nothing`,
			p.ID, p.Key, p.Description,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *PGStore) SetRolePermissions(ctx context.Context, roleID string, permissionKeys []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `delete from role_permissions where role_id=$1`, roleID); err != nil {
		return err
	}
	for _, key := range permissionKeys {
		_, err := tx.ExecContext(ctx,
			`insert into role_permissions(role_id, permission_id)
			 select $1, id from permissions where key=$2`, roleID, key,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}
