package dto

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	FullName  string `json:"fullname"`
	Role      string `json:"role"`
	CompanyID string `json:"company_id,omitempty"`
}
