package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestUploadFile(t *testing.T) {
	var gotAuth, gotPurpose, gotFilename string
	var gotBytes []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/files" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		gotPurpose = r.FormValue("purpose")
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		gotFilename = header.Filename
		gotBytes, err = io.ReadAll(file)
		if err != nil {
			t.Fatalf("read file part: %v", err)
		}

		_ = json.NewEncoder(w).Encode(map[string]string{"id": "file-123", "object": "file"})
	}))
	defer server.Close()

	c := NewClient("sk-test", WithBaseURL(server.URL))
	id, err := c.UploadFile(context.Background(), "tokens.csv", []byte("tokens\na b c\n"), PurposeUserData)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "file-123" {
		t.Errorf("file id = %q", id)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotPurpose != "user_data" {
		t.Errorf("purpose = %q", gotPurpose)
	}
	if gotFilename != "tokens.csv" {
		t.Errorf("filename = %q", gotFilename)
	}
	if string(gotBytes) != "tokens\na b c\n" {
		t.Errorf("uploaded bytes = %q", gotBytes)
	}
}

func TestUploadFileErrorSurfacesAsUploadError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "file too large", "type": "invalid_request_error"},
		})
	}))
	defer server.Close()

	c := NewClient("sk-test", WithBaseURL(server.URL))
	_, err := c.UploadFile(context.Background(), "a.csv", []byte("x"), PurposeUserData)

	var upErr *UploadError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected *UploadError, got %T: %v", err, err)
	}
	if upErr.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d", upErr.StatusCode)
	}
	if !strings.Contains(upErr.Error(), "file too large") {
		t.Errorf("error should carry the API message: %v", upErr)
	}
}

func TestCreateResponseSendsPayloadVerbatim(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/responses" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		_, _ = w.Write([]byte(`{
			"id": "resp_1",
			"output_text": "최적 K=10",
			"output": [
				{"type": "code_interpreter_call"},
				{"type": "message", "content": [{"type": "output_text", "text": "ok", "annotations": [
					{"type": "container_file_citation", "container_id": "cntr_1", "file_id": "cfile_1", "filename": "topics.csv"}
				]}]}
			]
		}`))
	}))
	defer server.Close()

	c := NewClient("sk-test", WithBaseURL(server.URL))
	resp, err := c.CreateResponse(context.Background(), ResponseRequest{
		Model:      "gpt-5",
		ToolChoice: "required",
		Tools: []Tool{{
			Type:      "code_interpreter",
			Container: &Container{Type: "auto", MemoryLimit: "4g", FileIDs: []string{"file-1"}},
		}},
		Instructions: "지시",
		Input: []Message{{
			Role:    "user",
			Content: []ContentPart{{Type: "input_text", Text: "프롬프트"}},
		}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotBody["tool_choice"] != "required" {
		t.Errorf("tool_choice = %v", gotBody["tool_choice"])
	}
	tools, _ := gotBody["tools"].([]any)
	if len(tools) != 1 {
		t.Fatalf("tools = %v", gotBody["tools"])
	}
	tool, _ := tools[0].(map[string]any)
	if tool["type"] != "code_interpreter" {
		t.Errorf("tool type = %v", tool["type"])
	}
	container, _ := tool["container"].(map[string]any)
	if container["type"] != "auto" || container["memory_limit"] != "4g" {
		t.Errorf("container = %v", container)
	}
	fileIDs, _ := container["file_ids"].([]any)
	if len(fileIDs) != 1 || fileIDs[0] != "file-1" {
		t.Errorf("file_ids = %v", container["file_ids"])
	}

	if resp.OutputText != "최적 K=10" {
		t.Errorf("output text = %q", resp.OutputText)
	}
	if len(resp.Output) != 2 {
		t.Errorf("output items = %d", len(resp.Output))
	}
	if len(resp.Output[1].Content) != 1 || len(resp.Output[1].Content[0].Annotations) != 1 {
		t.Errorf("message content not decoded: %+v", resp.Output[1])
	}
}

func TestDownloadContainerFile(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/containers/cntr_1/files/cfile_1/content" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("auth = %q", auth)
		}
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	c := NewClient("sk-test", WithBaseURL(server.URL))
	data, err := c.DownloadContainerFile(context.Background(), "cntr_1", "cfile_1", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != string(payload) {
		t.Errorf("downloaded bytes differ")
	}
}

func TestDownloadContainerFileSizeCap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 2048))
	}))
	defer server.Close()

	c := NewClient("sk-test", WithBaseURL(server.URL))
	_, err := c.DownloadContainerFile(context.Background(), "cntr_1", "cfile_1", 1024)

	var dlErr *DownloadError
	if !errors.As(err, &dlErr) {
		t.Fatalf("expected *DownloadError, got %v", err)
	}
	if dlErr.ContainerID != "cntr_1" || dlErr.FileID != "cfile_1" {
		t.Errorf("error must identify the artifact: %+v", dlErr)
	}
}

func TestDownloadContainerFileNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "No such file", "type": "invalid_request_error"},
		})
	}))
	defer server.Close()

	c := NewClient("sk-test", WithBaseURL(server.URL))
	_, err := c.DownloadContainerFile(context.Background(), "cntr_x", "cfile_x", 0)

	var dlErr *DownloadError
	if !errors.As(err, &dlErr) {
		t.Fatalf("expected *DownloadError, got %v", err)
	}
	if dlErr.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d", dlErr.StatusCode)
	}
	if !strings.Contains(dlErr.Error(), "cntr_x/cfile_x") {
		t.Errorf("error should name the artifact: %v", dlErr)
	}
}

func TestDownloadContainerFileTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	c := NewClient("sk-test", WithBaseURL(server.URL), WithDownloadTimeout(50*time.Millisecond))
	start := time.Now()
	_, err := c.DownloadContainerFile(context.Background(), "cntr_1", "cfile_1", 0)
	if err == nil {
		t.Fatal("expected a timeout error")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("download did not respect the bounded timeout (%v)", elapsed)
	}
}
