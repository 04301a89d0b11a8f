package models

import "time"

// UserRole represents the available roles.
type UserRole string

const (
	RoleAdmin UserRole = "ADMIN"
	RoleUser  UserRole = "USER"
)

// User represents an application user stored in the users table.
type User struct {
	ID           int64      `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Name         string     `db:"name" json:"name"`
	PhoneNumber  *string    `db:"phone_number" json:"phoneNumber,omitempty"`
	Position     string     `db:"position" json:"position"`
	Role         UserRole   `db:"role" json:"role"`
	DeletedAt    *time.Time `db:"deleted_at" json:"-"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// UserRef is the public identity of a document participant.
type UserRef struct {
	ID       int64  `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Position string `db:"position" json:"position"`
}

// UserFilter captures filtering criteria for listing regular users.
type UserFilter struct {
	Name     string
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"currentPage"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}
