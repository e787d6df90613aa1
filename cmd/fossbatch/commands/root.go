package commands

import (
	"github.com/spf13/cobra"

	"github.com/wonny/fossbatch/pkg/config"
	"github.com/wonny/fossbatch/pkg/logger"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fossbatch",
	Short: "FOSS 제휴사 데이터 송수신 배치",
	Long: `FOSS Batch CLI

제휴사(FOSS)와 SFTP로 파일을 주고받는 일배치.
호출 1회당 하나의 작업만 수행합니다.

Usage:
  go run ./cmd/fossbatch [command]

Examples:
  go run ./cmd/fossbatch run --target_date 20241210 --process_type RECEIVE_UNIVERSE
  go run ./cmd/fossbatch calendar sync --year 2025
  go run ./cmd/fossbatch crontab`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// newLogger builds the process logger, honouring --verbose
func newLogger(cfg *config.Config) *logger.Logger {
	if verbose {
		c := *cfg
		c.LogLevel = "debug"
		return logger.New(&c)
	}
	return logger.New(cfg)
}
