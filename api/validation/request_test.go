package validation

import (
	"testing"

	"github.com/mzimer/vidmore/api/dto"
)

func TestValidateRequest_CreateTask(t *testing.T) {
	valid := &dto.CreateTaskRequest{
		ExternalID: "tg-1001",
		VideoURL:   "https://youtu.be/abc",
		Action:     "download",
	}
	if err := ValidateRequest(valid); err != nil {
		t.Fatalf("Expected valid request, got: %v", err)
	}

	cases := []struct {
		name string
		req  dto.CreateTaskRequest
	}{
		{"missing external id", dto.CreateTaskRequest{VideoURL: "https://youtu.be/abc", Action: "download"}},
		{"bad url", dto.CreateTaskRequest{ExternalID: "tg-1001", VideoURL: "not-a-url", Action: "download"}},
		{"unknown action", dto.CreateTaskRequest{ExternalID: "tg-1001", VideoURL: "https://youtu.be/abc", Action: "upload"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := ValidateRequest(&tc.req); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}

func TestValidateRequest_UpdateUserStatus(t *testing.T) {
	valid := &dto.UpdateUserStatusRequest{ExternalID: "tg-1001", Status: "approved"}
	if err := ValidateRequest(valid); err != nil {
		t.Fatalf("Expected valid request, got: %v", err)
	}

	invalid := &dto.UpdateUserStatusRequest{ExternalID: "tg-1001", Status: "banned"}
	if err := ValidateRequest(invalid); err == nil {
		t.Error("Expected validation error for unknown approval state")
	}
}

func TestValidateRequest_UpdateTaskStatus(t *testing.T) {
	valid := &dto.UpdateTaskStatusRequest{TaskID: 1, Status: "failed"}
	if err := ValidateRequest(valid); err != nil {
		t.Fatalf("Expected valid request, got: %v", err)
	}

	invalid := &dto.UpdateTaskStatusRequest{TaskID: 1, Status: "downloading"}
	if err := ValidateRequest(invalid); err == nil {
		t.Error("Expected validation error for unknown task status")
	}
}
