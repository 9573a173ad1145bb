package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/example/junai/internal/blob"
	"github.com/example/junai/internal/lda"
	"github.com/example/junai/internal/model"
	"github.com/example/junai/internal/store"
)

// errPrefix and noFilesHint are the user-facing markers the result page shows
// when a run fails or produces nothing.
const (
	errPrefix   = "[오류] "
	noFilesHint = "[안내] 결과 파일이 생성되지 않았습니다. 프롬프트/도구 실행 실패 가능성이 있어 서버 로그를 확인하세요."
)

// Runner executes one analysis job; satisfied by *lda.Runner.
type Runner interface {
	RunFromCSV(ctx context.Context, csvPath, jobDir, extraInstruction string) (*lda.Result, error)
}

type Server struct {
	Blobs          blob.LocalFS // rooted at the media root
	Jobs           *store.SQLite
	LDA            Runner
	BaseURL        string
	UploadMaxBytes int64
	Log            zerolog.Logger
}

func (s Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.Log))
	r.Use(cors)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/tools", s.handleListTools)
		r.Get("/tools/{id}", s.handleGetTool)
		r.Post("/tools/{id}/lda", s.handleRunLDA)
		r.Get("/jobs", s.handleListJobs)
		r.Get("/jobs/{id}", s.handleGetJob)
	})

	r.Get("/media/*", s.handleMedia)

	return r
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("elapsed", time.Since(start)).
				Msg("request")
		})
	}
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	tools, err := s.Jobs.ListTools(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if tools == nil {
		tools = []model.Tool{}
	}
	writeJSON(w, http.StatusOK, tools)
}

func (s Server) handleGetTool(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid tool id"))
		return
	}
	tool, err := s.Jobs.GetTool(r.Context(), id)
	if err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, tool)
}

// handleRunLDA accepts a multipart CSV upload, materializes a fresh job
// directory under the media root, and runs the analysis synchronously. The
// response mirrors what the result page renders: summary text, saved file
// paths, and the image subset.
func (s Server) handleRunLDA(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	toolID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid tool id"))
		return
	}
	tool, err := s.Jobs.GetTool(ctx, toolID)
	if err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}

	maxBytes := s.UploadMaxBytes
	if maxBytes <= 0 {
		maxBytes = 50 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+(1<<20))
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("parse multipart: %w", err))
		return
	}
	file, header, err := r.FormFile("csv_file")
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("missing 'csv_file' file: %w", err))
		return
	}
	defer file.Close()
	extra := strings.TrimSpace(r.FormValue("extra_instruction"))

	if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != ".csv" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("CSV 파일(.csv)만 업로드할 수 있습니다"))
		return
	}
	if header.Size > maxBytes {
		writeErr(w, http.StatusRequestEntityTooLarge,
			fmt.Errorf("파일이 너무 큽니다. %dMB 이하만 허용합니다", maxBytes>>20))
		return
	}

	// media/lda_results/tool_<id>/<timestamp>_<rand>/ — owner id plus a
	// timestamp and random suffix keeps concurrent submissions collision-free.
	rand := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	jobRelDir := fmt.Sprintf("lda_results/tool_%d/%s_%s", tool.ID, time.Now().Format("20060102_150405"), rand)

	inputName := "input_" + lda.SafeFilename(header.Filename)
	if _, err := s.Blobs.Put(jobRelDir+"/"+inputName, file); err != nil {
		writeErr(w, http.StatusInternalServerError, fmt.Errorf("store upload: %w", err))
		return
	}

	now := time.Now().UTC()
	job := model.Job{
		ID:        uuid.NewString(),
		ToolID:    tool.ID,
		CreatedAt: now,
		UpdatedAt: now,
		Status:    model.JobRunning,
		InputName: header.Filename,
		JobDir:    jobRelDir,
	}
	if err := s.Jobs.CreateJob(ctx, job); err != nil {
		writeErr(w, http.StatusInternalServerError, fmt.Errorf("create job: %w", err))
		return
	}

	jobDir := filepath.Join(s.Blobs.Root, filepath.FromSlash(jobRelDir))
	csvPath := filepath.Join(jobDir, inputName)

	result, runErr := s.LDA.RunFromCSV(ctx, csvPath, jobDir, extra)

	var answer string
	var files []string
	if runErr != nil {
		answer = errPrefix + runErr.Error()
		errMsg := runErr.Error()
		status := string(model.JobError)
		if err := s.Jobs.UpdateJob(ctx, job.ID, model.JobPatch{Status: &status, Error: &errMsg}); err != nil {
			s.Log.Error().Err(err).Str("job_id", job.ID).Msg("mark job failed")
		}
		s.Log.Error().Err(runErr).Str("job_id", job.ID).Msg("lda run failed")
	} else {
		answer = result.AnswerText
		files = result.SavedRelPaths
		if len(files) == 0 && strings.TrimSpace(answer) == "" {
			answer = noFilesHint
		}
		status := string(model.JobDone)
		patch := model.JobPatch{Status: &status, Answer: &answer, ArtifactPaths: files}
		if patch.ArtifactPaths == nil {
			patch.ArtifactPaths = []string{}
		}
		if err := s.Jobs.UpdateJob(ctx, job.ID, patch); err != nil {
			s.Log.Error().Err(err).Str("job_id", job.ID).Msg("mark job done")
		}
	}
	if files == nil {
		files = []string{}
	}

	images := make([]string, 0, len(files))
	for _, p := range files {
		switch strings.ToLower(filepath.Ext(p)) {
		case ".png", ".jpg", ".jpeg", ".gif", ".webp":
			images = append(images, p)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"jobId":  job.ID,
		"answer": answer,
		"files":  files,
		"images": images,
		"jobDir": jobRelDir,
	})
}

func (s Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var toolID *int64
	if raw := strings.TrimSpace(r.URL.Query().Get("tool")); raw != "" {
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid tool: %s", raw))
			return
		}
		toolID = &value
	}

	limit := 25
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid limit: %s", raw))
			return
		}
		if value > 100 {
			value = 100
		}
		limit = value
	}

	jobs, err := s.Jobs.ListJobs(ctx, toolID, limit)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	resp := make([]map[string]any, 0, len(jobs))
	for _, job := range jobs {
		resp = append(resp, jobResponse(job, s.BaseURL))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.Jobs.GetJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, jobResponse(job, s.BaseURL))
}

// handleMedia serves persisted artifacts from the media root as static
// content. Paths are cleaned and anything reaching above the root is refused.
func (s Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" || raw == "." {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("missing media path"))
		return
	}
	clean := filepath.Clean(filepath.FromSlash(raw))
	if clean == "." || strings.HasPrefix(clean, "..") || strings.Contains(clean, string(filepath.Separator)+"..") {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid media path"))
		return
	}

	if !s.Blobs.Exists(filepath.ToSlash(clean)) {
		writeErr(w, http.StatusNotFound, fmt.Errorf("media not found"))
		return
	}
	f, err := s.Blobs.Open(filepath.ToSlash(clean))
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, _ := f.Read(buf)
	contentType := http.DetectContentType(buf[:n])
	if ext := filepath.Ext(clean); ext != "" {
		if mimeType := mime.TypeByExtension(ext); mimeType != "" {
			if contentType == "application/octet-stream" || strings.HasPrefix(contentType, "text/plain") {
				contentType = mimeType
			}
		}
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	_, _ = io.Copy(w, f)
}

func jobResponse(job model.Job, baseURL string) map[string]any {
	resp := map[string]any{
		"id":        job.ID,
		"toolId":    job.ToolID,
		"createdAt": job.CreatedAt,
		"updatedAt": job.UpdatedAt,
		"status":    job.Status,
		"inputName": job.InputName,
		"jobDir":    job.JobDir,
		"answer":    job.Answer,
		"files":     job.ArtifactPaths,
		"error":     job.Error,
	}
	base := strings.TrimRight(baseURL, "/")
	urls := make([]string, 0, len(job.ArtifactPaths))
	for _, p := range job.ArtifactPaths {
		urls = append(urls, fmt.Sprintf("%s/media/%s", base, p))
	}
	resp["fileUrls"] = urls
	return resp
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]any{"error": err.Error()})
}
