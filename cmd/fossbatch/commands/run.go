package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/fossbatch/internal/batch"
	"github.com/wonny/fossbatch/internal/contracts"
	"github.com/wonny/fossbatch/internal/ingest"
	"github.com/wonny/fossbatch/internal/rebalance"
	"github.com/wonny/fossbatch/pkg/config"
	"github.com/wonny/fossbatch/pkg/database"
	"github.com/wonny/fossbatch/pkg/redis"
)

var (
	runTargetDate      string
	runProcessType     string
	runManualCustomers string
	runManualRebalYN   string
	runForcedRebalDate string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "배치 작업 1건 실행",
	Long: `지정한 기준일로 배치 작업 하나를 실행합니다.

Process types:
  DELETE_OLDDATA       - 1개월 지난 송신 스테이징 데이터 삭제
  RECEIVE_UNIVERSE     - fnd_list 수신 (펀드 유니버스)
  RECEIVE_ACCOUNT      - ap_acc_info 수신 (고객 계좌)
  RECEIVE_CUSTMERFND   - ap_fnd_info 수신 (고객 보유펀드)
  SEND_MPRATE          - mp_info 송신 (MP 수익률)
  SEND_MPLIST          - mp_fnd_info 송신 (MP 구성종목)
  SEND_REBALCUS        - ap_reval_yn 송신 (리밸런싱 대상 고객)
  SEND_REPORT          - report 송신 (운용 리포트)
  SEND_MP_INFO_EOF     - mp_info_eof 송신 (종료 마커)

수동 리밸런싱은 세 옵션을 모두 지정해야 적용되며, 일부만 지정하면 무시됩니다.

Example:
  go run ./cmd/fossbatch run --target_date 20241210 --process_type SEND_MPRATE
  go run ./cmd/fossbatch run --target_date 20241210 --process_type SEND_REBALCUS \
    --manual_customer_ids 10083,10090 --manual_rebal_yn Y --forced_rebal_date 20241212`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runTargetDate, "target_date", "", "target date (YYYYMMDD)")
	runCmd.Flags().StringVar(&runProcessType, "process_type", "", "process type")
	runCmd.Flags().StringVar(&runManualCustomers, "manual_customer_ids", "", "comma separated customer ids")
	runCmd.Flags().StringVar(&runManualRebalYN, "manual_rebal_yn", "", "forced rebalancing flag (Y/N)")
	runCmd.Flags().StringVar(&runForcedRebalDate, "forced_rebal_date", "", "forced rebalancing date (YYYYMMDD)")
	_ = runCmd.MarkFlagRequired("target_date")
	_ = runCmd.MarkFlagRequired("process_type")
}

func runBatch(cmd *cobra.Command, args []string) error {
	req, err := parseRequest()
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("❌ Failed to load config: %w", err)
	}
	if req.Process != contracts.ProcessDeleteOldData {
		if err := cfg.ValidateSFTP(); err != nil {
			return fmt.Errorf("❌ Invalid SFTP config: %w", err)
		}
	}

	log := newLogger(cfg)
	if rebalance.PartialOverride(runManualCustomers, runManualRebalYN, runForcedRebalDate) {
		log.Warn("⚠️ 수동 리밸런싱 옵션 일부만 지정되어 무시합니다")
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("❌ Failed to connect to database: %v: %w", err, contracts.ErrTransport)
	}
	defer db.Close()

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("❌ Failed to connect to redis: %w", err)
	}
	defer redisClient.Close()

	opts := []batch.Option{
		batch.WithLocker(batch.NewRedisLocker(redis.NewLocker(redisClient, "fossbatch"), cfg.Redis.LockTTL)),
	}

	if cfg.Mirror.Enabled() && req.Process == contracts.ProcessReceiveUniverse {
		mirrorDB, err := database.New(cfg.Mirror)
		if err != nil {
			return fmt.Errorf("❌ Failed to connect to qbt_api database: %v: %w", err, contracts.ErrTransport)
		}
		defer mirrorDB.Close()
		opts = append(opts, batch.WithMirror(ingest.NewMirror(mirrorDB, log)))
	}

	runner := batch.NewRunner(cfg, batch.NewPostgres(db), batch.SFTPDialer(cfg.SFTP), log, opts...)
	return runner.Run(context.Background(), req)
}

func parseRequest() (batch.Request, error) {
	target, err := contracts.ParseDate(runTargetDate)
	if err != nil {
		return batch.Request{}, fmt.Errorf("❌ Invalid --target_date: %w", err)
	}

	process, err := contracts.ParseProcessType(runProcessType)
	if err != nil {
		return batch.Request{}, fmt.Errorf("❌ Invalid --process_type: %w", err)
	}

	ov, err := rebalance.ParseOverride(runManualCustomers, runManualRebalYN, runForcedRebalDate)
	if err != nil {
		return batch.Request{}, fmt.Errorf("❌ Invalid manual rebalancing options: %w", err)
	}

	return batch.Request{TargetDate: target, Process: process, Override: ov}, nil
}
