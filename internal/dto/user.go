package dto

import "github.com/noah-isme/rab-api/internal/models"

// CreateUserRequest registers a regular user with the configured default password.
type CreateUserRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phoneNumber" validate:"required,max=32"`
	Position    string `json:"position" validate:"required,max=255"`
}

// UpdateUserRequest patches a user profile. Nil or blank fields keep their
// current value.
type UpdateUserRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=255"`
	Email       *string `json:"email" validate:"omitempty,email"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,max=32"`
	Position    *string `json:"position" validate:"omitempty,max=255"`
}

// ChangePasswordRequest replaces the caller's password after checking the old one.
type ChangePasswordRequest struct {
	OldPassword        string `json:"oldPassword" validate:"required,min=6,max=20"`
	NewPassword        string `json:"newPassword" validate:"required,min=6,max=20"`
	ConfirmNewPassword string `json:"confirmNewPassword" validate:"required,min=6,max=20"`
}

// UserListQuery mirrors the user list query string.
type UserListQuery struct {
	Name     string `form:"name"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// UserList is the paginated user listing.
type UserList struct {
	List       []models.User     `json:"list"`
	Pagination models.Pagination `json:"pagination"`
}
