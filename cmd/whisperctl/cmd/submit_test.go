package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"whisperd/pkg/types"
)

func TestSubmitCommand_Success(t *testing.T) {
	resetViper()

	submitCalled := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/jobs" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			return
		}
		submitCalled = true
		var req types.SubmitRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Input != "/data/a.wav" {
			t.Errorf("expected input=/data/a.wav, got %q", req.Input)
		}
		if req.Model != "base" {
			t.Errorf("expected model=base, got %q", req.Model)
		}
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(types.SubmitResponse{JobID: "job-123", Status: types.StatusQueued, QueuePosition: 2})
	}))
	defer server.Close()

	viper.Set("url", server.URL)

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"submit", "/data/a.wav", "--model", "base"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !submitCalled {
		t.Error("expected submit endpoint to be called")
	}
	output := stdout.String()
	if !strings.Contains(output, "Job submitted") {
		t.Errorf("expected success message, got: %s", output)
	}
	if !strings.Contains(output, "job-123") {
		t.Errorf("expected job ID in output, got: %s", output)
	}
	if !strings.Contains(output, "Queue position: 2") {
		t.Errorf("expected queue position in output, got: %s", output)
	}
}

func TestSubmitCommand_DevicesOnlySentWhenSet(t *testing.T) {
	resetViper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		json.NewDecoder(r.Body).Decode(&raw)
		if _, ok := raw["device_ids"]; ok {
			t.Error("device_ids should be omitted when the flag is not given")
		}
		json.NewEncoder(w).Encode(types.SubmitResponse{JobID: "job-1", Status: types.StatusQueued})
	}))
	defer server.Close()

	viper.Set("url", server.URL)

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"submit", "a.wav"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSubmitCommand_AdmissionRejected(t *testing.T) {
	resetViper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(types.ErrorResponse{
			Error: "insufficient device memory for model large-v3",
			Code:  422,
			InsufficientDevices: []types.DeviceShortfall{
				{DeviceID: 0, FreeMB: 2048, RequiredMB: 12800},
			},
			RecommendedModels: []string{"base", "tiny"},
		})
	}))
	defer server.Close()

	viper.Set("url", server.URL)

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"submit", "big.wav", "--model", "large-v3"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "Submit failed (422)") {
		t.Errorf("expected 422 message, got: %s", output)
	}
	if !strings.Contains(output, "device 0: 2048 MiB free, 12800 MiB required") {
		t.Errorf("expected shortfall detail, got: %s", output)
	}
	if !strings.Contains(output, "base") || !strings.Contains(output, "tiny") {
		t.Errorf("expected recommended models, got: %s", output)
	}
}

func TestSubmitCommand_WaitUntilCompleted(t *testing.T) {
	resetViper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(types.SubmitResponse{JobID: "job-w", Status: types.StatusQueued})
			return
		}
		json.NewEncoder(w).Encode(types.JobView{
			ID: "job-w", Status: types.StatusCompleted, Progress: 100,
			QueuePosition: -1, Output: "/data/outputs/a_job-w.txt",
		})
	}))
	defer server.Close()

	viper.Set("url", server.URL)

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"submit", "a.wav", "--wait"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "Transcript: /data/outputs/a_job-w.txt") {
		t.Errorf("expected transcript path, got: %s", output)
	}

	// Reset the sticky flag for later tests.
	submitCmd.Flags().Set("wait", "false")
	submitCmd.Flags().Set("model", "")
}
