package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"rfq/internal/apperr"
	"rfq/models"
)

type Storage struct {
	db *sqlx.DB
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

// уникальное ограничение нарушено (Postgres 23505)
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func notFoundOr(err error, code, format string, args ...interface{}) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(code, format, args...)
	}
	return err
}

// Site (Площадка)

func (s *Storage) CreateSite(ctx context.Context, site *models.Site) error {
	query := `
        INSERT INTO site (code, name)
        VALUES ($1, $2)
        RETURNING id, created_at, updated_at`
	return s.db.QueryRowContext(ctx, query, site.Code, site.Name).
		Scan(&site.ID, &site.CreatedAt, &site.UpdatedAt)
}

func (s *Storage) GetSite(ctx context.Context, id int) (*models.Site, error) {
	site := &models.Site{}
	query := `SELECT * FROM site WHERE id=$1`
	err := s.db.GetContext(ctx, site, query, id)
	if err != nil {
		return nil, notFoundOr(err, "UNKNOWN_SITE", "site %d not found", id)
	}
	return site, nil
}

func (s *Storage) GetSites(ctx context.Context) ([]models.Site, error) {
	sites := []models.Site{}
	query := `SELECT * FROM site ORDER BY code ASC`
	err := s.db.SelectContext(ctx, &sites, query)
	return sites, err
}

// Supplier (Поставщик)

func (s *Storage) CreateSupplier(ctx context.Context, sup *models.Supplier) error {
	query := `
        INSERT INTO supplier (code, name, email)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at`
	return s.db.QueryRowContext(ctx, query, sup.Code, sup.Name, sup.Email).
		Scan(&sup.ID, &sup.CreatedAt, &sup.UpdatedAt)
}

func (s *Storage) GetSupplier(ctx context.Context, id int) (*models.Supplier, error) {
	sup := &models.Supplier{}
	query := `SELECT * FROM supplier WHERE id=$1`
	err := s.db.GetContext(ctx, sup, query, id)
	if err != nil {
		return nil, notFoundOr(err, "UNKNOWN_SUPPLIER", "supplier %d not found", id)
	}
	return sup, nil
}

func (s *Storage) GetSuppliers(ctx context.Context) ([]models.Supplier, error) {
	suppliers := []models.Supplier{}
	query := `SELECT * FROM supplier ORDER BY code ASC`
	err := s.db.SelectContext(ctx, &suppliers, query)
	return suppliers, err
}

// Employee (Сотрудник)

func (s *Storage) CreateEmployee(ctx context.Context, e *models.Employee) error {
	query := `
        INSERT INTO employee (username, first_name, last_name, role)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`
	return s.db.QueryRowContext(ctx, query, e.Username, e.FirstName, e.LastName, e.Role).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

func (s *Storage) GetEmployeeByUsername(ctx context.Context, username string) (*models.Employee, error) {
	e := &models.Employee{}
	query := `SELECT * FROM employee WHERE username=$1`
	err := s.db.GetContext(ctx, e, query, username)
	if err != nil {
		return nil, notFoundOr(err, "UNKNOWN_USER", "employee %q not found", username)
	}
	return e, nil
}
