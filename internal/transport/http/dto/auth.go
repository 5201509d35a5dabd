package dto

import (
	"time"

	"bagshop/internal/models"
)

type RegisterRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name"`
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	Phone     string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type CustomerResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

type LoginResponse struct {
	Customer    CustomerResponse `json:"customer"`
	AccessToken string           `json:"access_token"`
	ExpiresAt   int64            `json:"expires_at"`
}

func Customer(c *models.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        c.ID.String(),
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.PhoneNumber,
		Role:      string(c.Role),
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
	}
}
