package models

// LoginRequest is the credential exchange payload for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token returned by a successful login.
type LoginResponse struct {
	Token string `json:"token"`
}

// RegisterRequest is the payload for POST /auth/register.
// Company fields are only meaningful when Role is COMPANY.
type RegisterRequest struct {
	Username       string `json:"username"`
	Password       string `json:"password"`
	Email          string `json:"email"`
	Role           Role   `json:"role,omitempty"`
	CompanyName    string `json:"companyName,omitempty"`
	CompanyAddress string `json:"companyAddress,omitempty"`
}

// UpdateProfileRequest is the payload for PUT /user/me.
// The endpoint contract is provisional; zero-valued fields are omitted.
type UpdateProfileRequest struct {
	Username       string `json:"username,omitempty"`
	Email          string `json:"email,omitempty"`
	CompanyName    string `json:"companyName,omitempty"`
	CompanyAddress string `json:"companyAddress,omitempty"`
}

// ChangePasswordRequest is the payload for PUT /user/change-password.
// The endpoint contract is provisional.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// PlaylistRequest is the payload for creating or updating a playlist.
type PlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
