package models

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Surname      string    `json:"surname,omitempty"`
	Photo        string    `json:"photo,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// PublicUser is the account view returned to clients.
type PublicUser struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Surname string `json:"surname,omitempty"`
	Email   string `json:"email"`
	Photo   string `json:"photo,omitempty"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:      u.ID,
		Name:    u.Name,
		Surname: u.Surname,
		Email:   u.Email,
		Photo:   u.Photo,
	}
}

type UpdateUserRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Surname *string `json:"surname,omitempty" validate:"omitempty,max=255"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Photo   *string `json:"photo,omitempty" validate:"omitempty,url"`
}

func (r *UpdateUserRequest) Empty() bool {
	return r.Name == nil && r.Surname == nil && r.Email == nil && r.Photo == nil
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}
