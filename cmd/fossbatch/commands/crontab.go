package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fossbatch/internal/contracts"
	"github.com/wonny/fossbatch/internal/scheduler"
)

var crontabBinary string

// crontabCmd represents the crontab command
var crontabCmd = &cobra.Command{
	Use:   "crontab",
	Short: "권장 crontab 출력",
	Long: `작업별 외부 트리거(crontab) 설정과 다음 실행 시각을 출력합니다.
배치는 상주하지 않으며 cron이 매 작업을 한 번씩 호출합니다.

Example:
  go run ./cmd/fossbatch crontab --binary /opt/foss/fossbatch`,
	RunE: runCrontab,
}

func init() {
	rootCmd.AddCommand(crontabCmd)

	defaultBinary, _ := os.Executable()
	crontabCmd.Flags().StringVar(&crontabBinary, "binary", defaultBinary, "path of the fossbatch binary")
}

func runCrontab(cmd *cobra.Command, args []string) error {
	plan, err := scheduler.New(scheduler.DefaultJobs())
	if err != nil {
		return fmt.Errorf("❌ Invalid schedule: %w", err)
	}

	fmt.Println("# Next fire times")
	for _, e := range plan.Entries(time.Now()) {
		fmt.Printf("#   %-20s %s\n", e.Process, e.Next.Format("2006-01-02 15:04"))
	}
	fmt.Println()
	fmt.Print(plan.Crontab(crontabBinary))

	// EOF 마커는 항상 마지막
	fmt.Printf("\n# %s runs last; the partner treats it as the end of the daily feed.\n", contracts.ProcessSendMPInfoEOF)
	return nil
}
