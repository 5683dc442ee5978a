package models

import "github.com/lib/pq"

type Installer struct {
	Base
	Name        string         `json:"name" db:"name"`
	Email       string         `json:"email" db:"email"`
	Phone       string         `json:"phone" db:"phone"`
	Specialties pq.StringArray `json:"specialties" db:"specialties"`
}

type InstallerInput struct {
	Name        string   `json:"name" validate:"required"`
	Email       string   `json:"email" validate:"omitempty,email"`
	Phone       string   `json:"phone"`
	Specialties []string `json:"specialties"`
}

func (in InstallerInput) Entity() Installer {
	specialties := pq.StringArray{}
	if in.Specialties != nil {
		specialties = append(specialties, in.Specialties...)
	}
	return Installer{
		Name:        in.Name,
		Email:       in.Email,
		Phone:       in.Phone,
		Specialties: specialties,
	}
}

type InstallerPatch struct {
	Name        *string   `json:"name,omitempty" validate:"omitempty,min=1"`
	Email       *string   `json:"email,omitempty" validate:"omitempty,email"`
	Phone       *string   `json:"phone,omitempty"`
	Specialties *[]string `json:"specialties,omitempty"`
}
