package dto

// ===== Common responses =====

type APIError struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"email is required!"`
}

type APIMessage struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"ok"`
}

type APISuccessSchool struct {
	Success bool         `json:"success" example:"true"`
	Message string       `json:"message,omitempty" example:"School registered successfully."`
	Data    SchoolDetail `json:"data"`
}

type APISuccessSchools struct {
	Success bool           `json:"success" example:"true"`
	Data    []SchoolDetail `json:"data"`
}
