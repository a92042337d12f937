package dto

type CreateTaskRequest struct {
	ExternalID string `json:"external_id" validate:"required"`
	VideoURL   string `json:"video_url" validate:"required,url"`
	Action     string `json:"action" validate:"required,oneof=download reupload"`
}

type UpdateTaskStatusRequest struct {
	TaskID int64  `json:"task_id" validate:"required"`
	Status string `json:"status" validate:"required,oneof=queued claimed active done failed"`
}

type TaskResponse struct {
	ID          int64   `json:"id"`
	OwnerID     int64   `json:"owner_id"`
	VideoURL    string  `json:"video_url"`
	Action      string  `json:"action"`
	Status      string  `json:"status"`
	Error       string  `json:"error,omitempty"`
	CreatedAt   string  `json:"created_at"`
	ClaimedAt   *string `json:"claimed_at,omitempty"`
	CompletedAt *string `json:"completed_at,omitempty"`
}

type TaskStatusResponse struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}
