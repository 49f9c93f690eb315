package domain

import "time"

// Role clasifica el tipo de cuenta dentro del marketplace.
type Role string

// SubRole distingue variantes dentro del rol user.
type SubRole string

const (
	RoleUser Role = "user"
	RoleHR   Role = "hr"

	SubRoleFreelancer SubRole = "freelancer"
	SubRoleJobseeker  SubRole = "jobseeker"
)

// User es el registro de identidad autoritativo de la plataforma.
type User struct {
	ID                 string  `json:"id"`
	Email              string  `json:"email"`
	PasswordHash       string  `json:"-"`
	Role               Role    `json:"role"`
	SubRole            SubRole `json:"sub_role,omitempty"`
	IsEmailVerified    bool    `json:"is_email_verified"`
	IsProfileCompleted bool    `json:"is_profile_completed"`
	IsDeleted          bool    `json:"-"`

	// Campos de empleador, solo presentes cuando Role == RoleHR.
	CompanyName    string `json:"company_name,omitempty"`
	CIN            string `json:"cin,omitempty"`
	CompanyMail    string `json:"company_mail,omitempty"`
	CompanyContact string `json:"company_contact,omitempty"`
	Industry       string `json:"industry,omitempty"`
	CompanySize    string `json:"company_size,omitempty"`
	CompanyAddress string `json:"company_address,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
