package dto

type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type LoginUser struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type LoginResponse struct {
	Success bool      `json:"success"`
	Token   string    `json:"token"`
	User    LoginUser `json:"user"`
}

type RecoverAccountRequest struct {
	Email string `json:"email" form:"email"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password" form:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword" validate:"required"`
}

// AuthResponse is what a verified token carries.
type AuthResponse struct {
	SchoolID  uint   `json:"id"`
	Email     string `json:"email"`
	Purpose   string `json:"purpose"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}
