package types

import (
	"github.com/princeprakhar/foodnetwork-backend/internal/models"
	"github.com/princeprakhar/foodnetwork-backend/internal/utils"
)

// AuthResponse is returned by signup, login and refresh.
type AuthResponse struct {
	Token utils.TokenPair `json:"tokens"`
	User  models.User     `json:"user"`
}
