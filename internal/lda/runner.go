// Package lda implements the analysis job core: upload the input CSV to the
// remote execution service, force a code-execution run that performs LDA topic
// modeling, then download and persist every artifact the sandbox produced.
package lda

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/example/junai/internal/config"
	"github.com/example/junai/internal/openai"
)

// Result is what one completed job hands back to the caller.
type Result struct {
	AnswerText    string   `json:"answerText"`
	SavedRelPaths []string `json:"savedRelPaths"`
}

// RemoteClient is the slice of the openai client the runner depends on.
// Tests substitute a fake.
type RemoteClient interface {
	UploadFile(ctx context.Context, filename string, data []byte, purpose string) (string, error)
	CreateResponse(ctx context.Context, req openai.ResponseRequest) (*openai.Response, error)
	DownloadContainerFile(ctx context.Context, containerID, fileID string, maxBytes int64) ([]byte, error)
}

// Runner drives one synchronous job per call. It is safe for concurrent use:
// the only shared state is the cached remote client, which is written once
// under the mutex and read-only afterwards.
type Runner struct {
	Config config.Config
	Log    zerolog.Logger

	// NewClient overrides client construction, mainly for tests. Left nil,
	// the runner builds a real client from its config.
	NewClient func(apiKey string) RemoteClient

	mu     sync.Mutex
	client RemoteClient
}

func NewRunner(cfg config.Config, log zerolog.Logger) *Runner {
	return &Runner{Config: cfg, Log: log}
}

// remote returns the cached client, resolving credentials on first use. A
// failed resolution caches nothing, so a key that appears later in the
// process lifetime is still picked up.
func (r *Runner) remote() (RemoteClient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client != nil {
		return r.client, nil
	}
	key, err := r.Config.ResolveAPIKey()
	if err != nil {
		return nil, err
	}
	if r.NewClient != nil {
		r.client = r.NewClient(key)
	} else {
		r.client = openai.NewClient(key,
			openai.WithBaseURL(r.Config.OpenAIBaseURL),
			openai.WithHTTPClient(&http.Client{Timeout: r.Config.RequestTimeout}),
			openai.WithDownloadTimeout(r.Config.DownloadTimeout),
			openai.WithLogger(r.Log),
		)
	}
	return r.client, nil
}

// RunFromCSV executes one job: validate input → upload → tool-forced
// generation → extract citations → fetch and persist each artifact → result.
// Zero artifacts is not an error; only an empty summary is replaced, with the
// fixed fallback text.
func (r *Runner) RunFromCSV(ctx context.Context, csvPath, jobDir, extraInstruction string) (*Result, error) {
	client, err := r.remote()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(csvPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, csvPath)
		}
		return nil, fmt.Errorf("stat input csv: %w", err)
	}
	data, err := os.ReadFile(csvPath)
	if err != nil {
		return nil, fmt.Errorf("read input csv: %w", err)
	}

	fileID, err := client.UploadFile(ctx, filepath.Base(csvPath), data, openai.PurposeUserData)
	if err != nil {
		return nil, err
	}

	resp, err := client.CreateResponse(ctx, openai.ResponseRequest{
		Model:      r.Config.Model,
		ToolChoice: "required",
		Tools: []openai.Tool{{
			Type: "code_interpreter",
			Container: &openai.Container{
				Type:        "auto",
				MemoryLimit: "4g",
				FileIDs:     []string{fileID},
			},
		}},
		Instructions: systemInstructions,
		Input: []openai.Message{{
			Role:    "user",
			Content: []openai.ContentPart{{Type: "input_text", Text: buildPrompt(extraInstruction)}},
		}},
	})
	if err != nil {
		return nil, err
	}

	citations := ExtractCitations(resp)
	if max := r.Config.MaxArtifacts; max > 0 && len(citations) > max {
		r.Log.Warn().
			Int("cited", len(citations)).
			Int("max", max).
			Msg("truncating artifact list")
		citations = citations[:max]
	}

	saved := make([]string, 0, len(citations))
	for _, c := range citations {
		blob, err := client.DownloadContainerFile(ctx, c.ContainerID, c.FileID, r.Config.MaxArtifactBytes)
		if err != nil {
			return nil, err
		}
		rel, err := PersistArtifact(jobDir, c.Filename, blob, r.Config.MediaRoot)
		if err != nil {
			return nil, err
		}
		saved = append(saved, rel)
	}

	answer := strings.TrimSpace(resp.OutputText)
	if answer == "" {
		answer = fallbackAnswer
	}
	r.Log.Info().
		Str("job_dir", jobDir).
		Int("artifacts", len(saved)).
		Msg("lda job finished")
	return &Result{AnswerText: answer, SavedRelPaths: saved}, nil
}
