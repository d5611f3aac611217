package payload

import (
	"github.com/vasapolrittideah/jobfeed-api/services/social-service/internal/model"
)

type SignupRequest struct {
	CompanyName       string `json:"companyName"       validate:"required,max=120"`
	Username          string `json:"username"          validate:"required,min=3,max=40,excludesall= @"`
	Email             string `json:"email"             validate:"required,email"`
	Password          string `json:"password"          validate:"required,min=8"`
	NotificationToken string `json:"notificationToken"`
}

// LoginRequest carries a username or an email in Username.
type LoginRequest struct {
	Username          string `json:"username"          validate:"required"`
	Password          string `json:"password"          validate:"required"`
	NotificationToken string `json:"notificationToken"`
}

type SignupResponse struct {
	Status int                        `json:"status"`
	User   *model.OrganizationProfile `json:"user"`
	Token  string                     `json:"token"`
}

// LoginResponse carries the organization profile when the account owns one
// and the bare user otherwise.
type LoginResponse struct {
	Status int    `json:"status"`
	User   any    `json:"user"`
	Token  string `json:"token"`
}

type MessageResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// UnverifiedResponse is returned by login for accounts that still need to
// confirm their email. The token lets the client call the verification endpoint.
type UnverifiedResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Token   string `json:"token"`
}
