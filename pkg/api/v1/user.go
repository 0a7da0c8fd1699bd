package v1

import "auditorium/pkg/constraints"

type UserMinimal struct {
	ID   *string           `json:"id"`
	Name *string           `json:"name"`
	Role *constraints.Role `json:"role"`
	Bio  *string           `json:"bio"`
}

type CreateUserRequest struct {
	Name     string           `json:"name" binding:"required,max=100"`
	Email    string           `json:"email" binding:"required,email"`
	Password string           `json:"password" binding:"required,min=8,max=72"`
	Role     constraints.Role `json:"role" binding:"required,oneof=event_coordinator user"`
}

type UpdateUserProfileRequest struct {
	Name *string `json:"name,omitempty" binding:"omitempty,min=1,max=100"`
	Bio  *string `json:"bio,omitempty" binding:"omitempty,max=1000"`
}

type CreateUserResponse struct {
	User struct {
		ID string `json:"id"`
	} `json:"user"`
}

type GetUserResponse struct {
	User User `json:"user"`
}

type GetUserMinimalResponse struct {
	User UserMinimal `json:"user"`
}
