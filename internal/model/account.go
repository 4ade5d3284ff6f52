package model

import (
	"github.com/lib/pq"
)

type Admin struct {
	Base
	Username     string `db:"username" json:"username"`
	PasswordHash string `db:"password_hash" json:"-"`
}

type Doctor struct {
	Base
	Name         string         `db:"name" json:"name" validate:"required,min=3,max=100"`
	Specialty    string         `db:"specialty" json:"specialty" validate:"required,min=3,max=50"`
	Email        string         `db:"email" json:"email" validate:"required,email"`
	Phone        string         `db:"phone" json:"phone" validate:"required,len=10,numeric"`
	PasswordHash string         `db:"password_hash" json:"-"`
	Availability pq.StringArray `db:"availability" json:"availability" validate:"dive,ampm"`
}

type Patient struct {
	Base
	Name         string `db:"name" json:"name" validate:"required,min=3,max=100"`
	Email        string `db:"email" json:"email" validate:"required,email"`
	Phone        string `db:"phone" json:"phone" validate:"required,len=10,numeric"`
	Address      string `db:"address" json:"address" validate:"required,max=255"`
	PasswordHash string `db:"password_hash" json:"-"`
}

// AccountRef is a resolved, still-existing account bound to a role.
type AccountRef struct {
	ID         int64  `json:"id"`
	Role       Role   `json:"role"`
	NaturalKey string `json:"natural_key"`
	Name       string `json:"name,omitempty"`
}

type CreateDoctorRequest struct {
	Name         string   `json:"name" binding:"required,min=3,max=100"`
	Specialty    string   `json:"specialty" binding:"required,min=3,max=50"`
	Email        string   `json:"email" binding:"required,email"`
	Phone        string   `json:"phone" binding:"required,len=10,numeric"`
	Password     string   `json:"password" binding:"required,min=6"`
	Availability []string `json:"availability" binding:"dive,ampm"`
}

type UpdateDoctorRequest struct {
	ID           int64    `json:"id" binding:"required"`
	Name         string   `json:"name" binding:"required,min=3,max=100"`
	Specialty    string   `json:"specialty" binding:"required,min=3,max=50"`
	Email        string   `json:"email" binding:"required,email"`
	Phone        string   `json:"phone" binding:"required,len=10,numeric"`
	Password     string   `json:"password" binding:"omitempty,min=6"`
	Availability []string `json:"availability" binding:"dive,ampm"`
}

type SignupRequest struct {
	Name     string `json:"name" binding:"required,min=3,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required,len=10,numeric"`
	Address  string `json:"address" binding:"required,max=255"`
	Password string `json:"password" binding:"required,min=6"`
}

// DoctorFilter holds the optional doctor directory filters; empty fields are ignored.
type DoctorFilter struct {
	Name      string `form:"name"`
	Specialty string `form:"specialty"`
	AmPm      string `form:"time" binding:"omitempty,oneof=AM PM am pm"`
}
