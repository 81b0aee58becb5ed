package model

import "time"

// Customer represents an application account as stored in the
// `customers` table.  Customers book rooms and write reviews; staff
// accounts (IsStaff) additionally manage hotels, rooms and offers.
// The password hash never leaves the repository layer in responses.
//
// Fields:
//  ID           – primary key identifier of the customer.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hashed password.
//  FirstName    – given name.
//  LastName     – family name.
//  DateOfBirth  – optional date of birth.
//  City         – optional city of residence.
//  State        – optional state or region.
//  Country      – optional country.
//  IsActive     – whether the account may log in.
//  IsStaff      – whether the account has staff privileges.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type Customer struct {
	ID           uint64     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	DateOfBirth  *time.Time `json:"date_of_birth,omitempty"`
	City         *string    `json:"city,omitempty"`
	State        *string    `json:"state,omitempty"`
	Country      *string    `json:"country,omitempty"`
	IsActive     bool       `json:"is_active"`
	IsStaff      bool       `json:"is_staff"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Role returns the JWT role claim for the customer.
func (c Customer) Role() string {
	if c.IsStaff {
		return RoleStaff
	}
	return RoleCustomer
}

// Roles carried in the access token.
const (
	RoleCustomer = "CUSTOMER"
	RoleStaff    = "STAFF"
)

// CustomerPhone is one of possibly several phone numbers of a customer.
// The pair (CustomerID, PhoneNumber) is the primary key of the
// `customer_phones` table.
type CustomerPhone struct {
	CustomerID  uint64 `json:"customer_id"`
	PhoneNumber string `json:"phone_number"`
	IsPrimary   bool   `json:"is_primary"`
}

// RefreshToken models an entry in the `refresh_tokens` table.  The
// plain token is not stored; only its SHA-256 hash.
type RefreshToken struct {
	ID         uint64     // refresh_tokens.id
	CustomerID uint64     // refresh_tokens.customer_id
	TokenHash  string     // refresh_tokens.token_hash
	ExpiresAt  time.Time  // refresh_tokens.expires_at
	RevokedAt  *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt  time.Time  // refresh_tokens.created_at
}
