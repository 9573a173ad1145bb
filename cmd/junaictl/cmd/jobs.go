package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	jobsTool  int64
	jobsLimit int
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List recent analysis jobs",
	Run: func(cmd *cobra.Command, args []string) {
		url := viper.GetString("api_url")
		endpoint := fmt.Sprintf("%s/v1/jobs?limit=%d", url, jobsLimit)
		if jobsTool > 0 {
			endpoint += fmt.Sprintf("&tool=%d", jobsTool)
		}

		client := &http.Client{Timeout: 30 * time.Second}
		resp, err := client.Get(endpoint)
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

		var jobs []struct {
			ID        string    `json:"id"`
			ToolID    int64     `json:"toolId"`
			CreatedAt time.Time `json:"createdAt"`
			Status    string    `json:"status"`
			InputName string    `json:"inputName"`
			Files     []string  `json:"files"`
		}
		if err := json.Unmarshal(bodyBytes, &jobs); err != nil {
			cmd.Printf("Failed to parse response: %v\n", err)
			return
		}
		if len(jobs) == 0 {
			cmd.Println("No jobs found")
			return
		}

		for _, j := range jobs {
			cmd.Printf("%s  tool=%d  %-7s  %s  files=%d  %s\n",
				j.CreatedAt.Format(time.RFC3339), j.ToolID, j.Status, j.ID, len(j.Files), j.InputName)
		}
	},
}

func init() {
	jobsCmd.Flags().Int64Var(&jobsTool, "tool", 0, "filter by tool id")
	jobsCmd.Flags().IntVar(&jobsLimit, "limit", 25, "maximum number of jobs to list")
	rootCmd.AddCommand(jobsCmd)
}
