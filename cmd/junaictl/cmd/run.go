package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	runTool        int64
	runCSV         string
	runInstruction string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Upload a token CSV and run an LDA analysis",
	Run: func(cmd *cobra.Command, args []string) {
		if runCSV == "" {
			cmd.Println("--csv is required")
			return
		}
		data, err := os.ReadFile(runCSV)
		if err != nil {
			cmd.Printf("Failed to read CSV: %v\n", err)
			return
		}

		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		fw, err := mw.CreateFormFile("csv_file", filepath.Base(runCSV))
		if err != nil {
			cmd.Printf("Failed to build request: %v\n", err)
			return
		}
		if _, err := fw.Write(data); err != nil {
			cmd.Printf("Failed to build request: %v\n", err)
			return
		}
		if runInstruction != "" {
			if err := mw.WriteField("extra_instruction", runInstruction); err != nil {
				cmd.Printf("Failed to build request: %v\n", err)
				return
			}
		}
		if err := mw.Close(); err != nil {
			cmd.Printf("Failed to build request: %v\n", err)
			return
		}

		url := viper.GetString("api_url")
		endpoint := fmt.Sprintf("%s/v1/tools/%d/lda", url, runTool)
		req, err := http.NewRequest(http.MethodPost, endpoint, &body)
		if err != nil {
			cmd.Printf("Failed to create request: %v\n", err)
			return
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())

		// The analysis runs synchronously on the server and can take minutes.
		client := &http.Client{Timeout: 30 * time.Minute}
		resp, err := client.Do(req)
		if err != nil {
			cmd.Printf("Request failed: %v\n", err)
			return
		}
		defer resp.Body.Close()

		bodyBytes, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			cmd.Printf("Error (%d): %s\n", resp.StatusCode, string(bodyBytes))
			return
		}

		var result struct {
			JobID  string   `json:"jobId"`
			Answer string   `json:"answer"`
			Files  []string `json:"files"`
			JobDir string   `json:"jobDir"`
		}
		if err := json.Unmarshal(bodyBytes, &result); err != nil {
			cmd.Printf("Failed to parse response: %v\n", err)
			return
		}

		cmd.Printf("Job: %s\n\n%s\n", result.JobID, result.Answer)
		if len(result.Files) > 0 {
			cmd.Println("\nGenerated files:")
			for _, f := range result.Files {
				cmd.Printf("  %s/media/%s\n", url, f)
			}
		}
	},
}

func init() {
	runCmd.Flags().Int64Var(&runTool, "tool", 1, "tool id to run against")
	runCmd.Flags().StringVar(&runCSV, "csv", "", "path to the token CSV file")
	runCmd.Flags().StringVar(&runInstruction, "instruction", "", "extra instruction appended to the analysis prompt")
	rootCmd.AddCommand(runCmd)
}
