package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/example/junai/internal/blob"
	"github.com/example/junai/internal/config"
	"github.com/example/junai/internal/httpapi"
	"github.com/example/junai/internal/lda"
	"github.com/example/junai/internal/store"
)

func main() {
	loadDotEnv()
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("mkdir data dir")
	}
	if err := os.MkdirAll(cfg.MediaRoot, 0o755); err != nil {
		log.Fatal().Err(err).Msg("mkdir media root")
	}

	dbPath := filepath.Join(cfg.DataDir, "junai.db")
	jobStore, err := store.Open(dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open job store")
	}
	if err := jobStore.SeedDefaultTool(context.Background(), "LDA 토픽 모델링", "CSV 토큰 데이터를 업로드하면 LDA 토픽 모델링 결과를 생성합니다."); err != nil {
		log.Fatal().Err(err).Msg("seed default tool")
	}

	baseURL := os.Getenv("JUNAI_BASE_URL")
	if baseURL == "" {
		addr := cfg.Addr
		if strings.HasPrefix(addr, ":") {
			addr = "localhost" + addr
		}
		baseURL = fmt.Sprintf("http://%s", addr)
	}

	if _, err := cfg.ResolveAPIKey(); err != nil {
		// Not fatal at boot: the key may land in the environment before the
		// first job, and the runner resolves per run until one succeeds.
		log.Warn().Msg("no OpenAI API key configured yet; analysis requests will fail until one is set")
	}

	server := httpapi.Server{
		Blobs:          blob.LocalFS{Root: cfg.MediaRoot},
		Jobs:           jobStore,
		LDA:            lda.NewRunner(cfg, log.With().Str("component", "lda").Logger()),
		BaseURL:        baseURL,
		UploadMaxBytes: cfg.UploadMaxBytes,
		Log:            log.With().Str("component", "http").Logger(),
	}

	log.Info().Str("addr", cfg.Addr).Str("base_url", baseURL).Str("media_root", cfg.MediaRoot).Msg("API listening")
	if err := http.ListenAndServe(cfg.Addr, server.Router()); err != nil {
		log.Fatal().Err(err).Msg("listen")
	}
}

// loadDotEnv walks up from the working directory looking for a .env or
// api.env file, mirroring how the service is run from nested dev checkouts.
func loadDotEnv() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}
	for i := 0; i < 5; i++ {
		for _, name := range []string{".env", "api.env"} {
			envPath := filepath.Join(dir, name)
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				return
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
