package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fossbatch/internal/contracts"
	"github.com/wonny/fossbatch/internal/staging"
	"github.com/wonny/fossbatch/pkg/config"
	"github.com/wonny/fossbatch/pkg/database"
)

var stagingDryRun bool

// stagingCmd represents the staging command
var stagingCmd = &cobra.Command{
	Use:   "staging",
	Short: "송신 스테이징 테이블 관리",
}

var stagingPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "보관기간 지난 스테이징 데이터 삭제",
	Long: `1개월 지난 송신 스테이징(bcp_data) 행을 삭제합니다.
run --process_type DELETE_OLDDATA 와 같은 작업이며 감사 로그 없이 바로 실행합니다.

Example:
  go run ./cmd/fossbatch staging purge
  go run ./cmd/fossbatch staging purge --dry-run`,
	RunE: runStagingPurge,
}

func init() {
	rootCmd.AddCommand(stagingCmd)
	stagingCmd.AddCommand(stagingPurgeCmd)

	stagingPurgeCmd.Flags().BoolVar(&stagingDryRun, "dry-run", false, "only print the cutoff")
}

func runStagingPurge(cmd *cobra.Command, args []string) error {
	cutoff := staging.Cutoff(time.Now())
	fmt.Printf("=== Staging Purge (before %s) ===\n", contracts.FormatDate(cutoff))
	if stagingDryRun {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("❌ Failed to load config: %w", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("❌ Failed to connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := staging.NewRepository(db.Pool).DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("❌ Failed to purge: %w", err)
	}

	fmt.Printf("✅ Deleted %d staged rows\n", n)
	return nil
}
