package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/vbonduro/clientes/internal/domain"
)

const customerColumns = `id, nombre, apellido, email, create_at, foto`

type CustomerStore struct {
	db *sqlx.DB
}

func NewCustomerStore(db *sqlx.DB) *CustomerStore {
	return &CustomerStore{db: db}
}

func (s *CustomerStore) FindAll(ctx context.Context) ([]*domain.Customer, error) {
	customers := []*domain.Customer{}
	err := s.db.SelectContext(ctx, &customers, s.db.Rebind(`
		SELECT `+customerColumns+` FROM clientes ORDER BY id ASC
	`))
	if err != nil {
		return nil, storeErr("failed to list customers", err)
	}
	return customers, nil
}

func (s *CustomerStore) FindAllPaged(ctx context.Context, pageIndex, pageSize int) (*domain.Page[*domain.Customer], error) {
	if pageIndex < 0 || pageSize <= 0 {
		return nil, fmt.Errorf("invalid page request: index %d, size %d", pageIndex, pageSize)
	}

	var total int64
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM clientes`); err != nil {
		return nil, storeErr("failed to count customers", err)
	}

	// Pages past the end are answered without a query; their offset may not fit in an int.
	if int64(pageIndex) >= (total+int64(pageSize)-1)/int64(pageSize) {
		return domain.NewPage[*domain.Customer](nil, pageIndex, pageSize, total), nil
	}

	customers := []*domain.Customer{}
	err := s.db.SelectContext(ctx, &customers, s.db.Rebind(`
		SELECT `+customerColumns+` FROM clientes ORDER BY id ASC LIMIT ? OFFSET ?
	`), pageSize, pageIndex*pageSize)
	if err != nil {
		return nil, storeErr("failed to list customer page", err)
	}

	return domain.NewPage(customers, pageIndex, pageSize, total), nil
}

// FindByID returns (nil, nil) when no customer has the given id.
func (s *CustomerStore) FindByID(ctx context.Context, id int64) (*domain.Customer, error) {
	c := &domain.Customer{}
	err := s.db.GetContext(ctx, c, s.db.Rebind(`
		SELECT `+customerColumns+` FROM clientes WHERE id = ?
	`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("failed to get customer", err)
	}
	return c, nil
}

// Save inserts c when it has no id yet and updates the matching row otherwise.
func (s *CustomerStore) Save(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	if c.ID == 0 {
		return s.insert(ctx, c)
	}
	return s.update(ctx, c)
}

func (s *CustomerStore) insert(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	var id int64
	err := s.db.QueryRowxContext(ctx, s.db.Rebind(`
		INSERT INTO clientes (nombre, apellido, email, create_at, foto)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`), c.FirstName, c.LastName, c.Email, c.CreatedAt, c.Photo).Scan(&id)
	if err != nil {
		return nil, storeErr("failed to create customer", err)
	}

	saved := *c
	saved.ID = id
	return &saved, nil
}

func (s *CustomerStore) update(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE clientes SET nombre = ?, apellido = ?, email = ?, create_at = ?, foto = ?
		WHERE id = ?
	`), c.FirstName, c.LastName, c.Email, c.CreatedAt, c.Photo, c.ID)
	if err != nil {
		return nil, storeErr("failed to update customer", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, storeErr("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return nil, storeErr("failed to update customer", fmt.Errorf("customer %d no longer exists", c.ID))
	}

	saved := *c
	return &saved, nil
}

// DeleteByID removes the row; deleting an id that does not exist is not an error.
func (s *CustomerStore) DeleteByID(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		DELETE FROM clientes WHERE id = ?
	`), id)
	if err != nil {
		return storeErr("failed to delete customer", err)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *CustomerStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func storeErr(op string, err error) error {
	return &domain.StoreError{Op: op, Err: err}
}
