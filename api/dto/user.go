package dto

type RegisterUserRequest struct {
	ExternalID string `json:"external_id" validate:"required"`
}

type UpdateUserStatusRequest struct {
	ExternalID string `json:"external_id" validate:"required"`
	Status     string `json:"status" validate:"required,oneof=pending approved rejected"`
}

type UserResponse struct {
	ExternalID    string `json:"external_id"`
	ApprovalState string `json:"approval_state"`
	CreatedAt     string `json:"created_at"`
}
