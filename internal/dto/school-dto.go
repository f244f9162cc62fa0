package dto

import (
	"time"

	"github.com/SundayYogurt/school_service/internal/domain"
)

// RegisterRequest is bound from multipart form fields or a JSON body.
type RegisterRequest struct {
	Email           string `json:"email" form:"email" validate:"required"`
	Password        string `json:"password" form:"password" validate:"required,password_policy"`
	ConfirmPassword string `json:"confirmpassword" form:"confirmpassword" validate:"required"`
	Name            string `json:"name" form:"name" validate:"required"`
	Description     string `json:"description" form:"description" validate:"required"`
	Phone           string `json:"phone" form:"phone" validate:"required"`
	Address         string `json:"address" form:"address" validate:"required"`
}

type SchoolResponse struct {
	ID          uint    `json:"id"`
	Email       string  `json:"email"`
	Name        string  `json:"name"`
	Image       *string `json:"image"`
	Description string  `json:"description"`
	Phone       string  `json:"phone"`
	Address     string  `json:"address"`
}

type SchoolDetail struct {
	SchoolResponse
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewSchoolResponse(s *domain.School) SchoolResponse {
	return SchoolResponse{
		ID:          s.ID,
		Email:       s.Email,
		Name:        s.Name,
		Image:       s.Image,
		Description: s.Description,
		Phone:       s.Phone,
		Address:     s.Address,
	}
}

func NewSchoolDetail(s *domain.School) SchoolDetail {
	return SchoolDetail{
		SchoolResponse: NewSchoolResponse(s),
		Verified:       s.Verified,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}
