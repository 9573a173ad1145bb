package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "junaictl",
	Short: "junaictl is a command line client for the junai LDA analysis API",
	Long: `junaictl interacts with a running junai API server.

Common workflows:

  Run an LDA analysis on a token CSV:
    junaictl run --tool 1 --csv tokens.csv

  Run with an extra instruction for the analysis agent:
    junaictl run --tool 1 --csv tokens.csv --instruction "K=10 고정"

  List recent jobs:
    junaictl jobs --limit 10

Configuration:
  The API endpoint comes from the --url flag, the JUNAI_API_URL environment
  variable, or a ~/.junaictl.yaml config file.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".junaictl")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("JUNAI")
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.junaictl.yaml)")
	rootCmd.PersistentFlags().String("url", "http://localhost:8080", "junai API endpoint")
	_ = viper.BindPFlag("api_url", rootCmd.PersistentFlags().Lookup("url"))
}
