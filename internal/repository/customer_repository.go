package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/utils"
)

// CustomerRepo reads and writes the customers table.
type CustomerRepo struct{ DB *sql.DB }

func NewCustomerRepo(db *sql.DB) *CustomerRepo { return &CustomerRepo{DB: db} }

const customerColumns = "id,email,password_hash,first_name,last_name,date_of_birth,city,state,country,is_active,is_staff,created_at,updated_at"

// ProfileUpdate carries the editable profile fields.  Nil pointers leave
// the column unchanged.
type ProfileUpdate struct {
	FirstName   *string
	LastName    *string
	DateOfBirth *time.Time
	City        *string
	State       *string
	Country     *string
}

// Create hashes the password, inserts the customer and fills c.ID.
func (r *CustomerRepo) Create(ctx context.Context, c *model.Customer, password string, cost int) error {
	c.Email = normalizeEmail(c.Email)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO customers (email, password_hash, first_name, last_name, date_of_birth, city, state, country, is_staff) VALUES (?,?,?,?,?,?,?,?,?)",
		c.Email, hash, c.FirstName, c.LastName, c.DateOfBirth, c.City, c.State, c.Country, c.IsStaff)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	c.PasswordHash = hash
	c.IsActive = true
	return nil
}

// GetByEmail fetches a customer by normalized email.
func (r *CustomerRepo) GetByEmail(ctx context.Context, email string) (model.Customer, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+customerColumns+" FROM customers WHERE email=? LIMIT 1", normalizeEmail(email))
	return scanCustomer(row)
}

// GetByID fetches a customer by id.
func (r *CustomerRepo) GetByID(ctx context.Context, id uint64) (model.Customer, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+customerColumns+" FROM customers WHERE id=? LIMIT 1", id)
	return scanCustomer(row)
}

// UpdateProfile applies the non-nil fields of u.
func (r *CustomerRepo) UpdateProfile(ctx context.Context, id uint64, u ProfileUpdate) error {
	var (
		sets []string
		args []interface{}
	)
	add := func(col string, v interface{}) {
		sets = append(sets, col+"=?")
		args = append(args, v)
	}
	if u.FirstName != nil {
		add("first_name", *u.FirstName)
	}
	if u.LastName != nil {
		add("last_name", *u.LastName)
	}
	if u.DateOfBirth != nil {
		add("date_of_birth", *u.DateOfBirth)
	}
	if u.City != nil {
		add("city", *u.City)
	}
	if u.State != nil {
		add("state", *u.State)
	}
	if u.Country != nil {
		add("country", *u.Country)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	_, err := r.DB.ExecContext(ctx,
		"UPDATE customers SET "+strings.Join(sets, ",")+" WHERE id=?", args...)
	return err
}

// Delete removes the customer.  Customers that still own bookings are
// kept and ErrConflict is returned.
func (r *CustomerRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM customers WHERE id=?", id)
	if err != nil {
		if mysqlErrNo(err) == errRowIsReferenced {
			return ErrConflict
		}
		return err
	}
	return expectRow(res)
}

func scanCustomer(row *sql.Row) (model.Customer, error) {
	var (
		c                    model.Customer
		dob                  sql.NullTime
		city, state, country sql.NullString
	)
	err := row.Scan(&c.ID, &c.Email, &c.PasswordHash, &c.FirstName, &c.LastName, &dob,
		&city, &state, &country, &c.IsActive, &c.IsStaff, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Customer{}, ErrNotFound
	}
	if err != nil {
		return model.Customer{}, err
	}
	if dob.Valid {
		t := dob.Time
		c.DateOfBirth = &t
	}
	c.City = nullString(city)
	c.State = nullString(state)
	c.Country = nullString(country)
	return c, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// expectRow turns an update that touched no row into ErrNotFound.
func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
