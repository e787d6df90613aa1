package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fossbatch/internal/calendar"
	"github.com/wonny/fossbatch/internal/contracts"
	"github.com/wonny/fossbatch/internal/external/holiday"
	"github.com/wonny/fossbatch/internal/rebalance"
	"github.com/wonny/fossbatch/pkg/config"
	"github.com/wonny/fossbatch/pkg/database"
	"github.com/wonny/fossbatch/pkg/httputil"
	"github.com/wonny/fossbatch/pkg/redis"
)

var (
	calendarYear int
	calendarDate string
)

// calendarCmd represents the calendar command
var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "휴일 캘린더 관리",
	Long: `영업일 판단에 쓰는 휴일 테이블을 관리합니다.

Subcommands:
  sync   - 공공데이터포털 특일정보로 연간 휴일 갱신
  check  - 특정 일자의 영업일/기준일/리밸런싱일 확인

Example:
  go run ./cmd/fossbatch calendar sync --year 2025
  go run ./cmd/fossbatch calendar check --date 20241210`,
}

var (
	calendarSyncCmd = &cobra.Command{
		Use:   "sync",
		Short: "연간 휴일 갱신",
		RunE:  runCalendarSync,
	}

	calendarCheckCmd = &cobra.Command{
		Use:   "check",
		Short: "일자별 영업일 정보",
		RunE:  runCalendarCheck,
	}
)

func init() {
	rootCmd.AddCommand(calendarCmd)
	calendarCmd.AddCommand(calendarSyncCmd)
	calendarCmd.AddCommand(calendarCheckCmd)

	calendarSyncCmd.Flags().IntVar(&calendarYear, "year", time.Now().Year(), "calendar year")
	calendarCheckCmd.Flags().StringVar(&calendarDate, "date", "", "date (YYYYMMDD)")
	_ = calendarCheckCmd.MarkFlagRequired("date")
}

func runCalendarSync(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Holiday Calendar Sync (%d) ===\n", calendarYear)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("❌ Failed to load config: %w", err)
	}
	if cfg.Holiday.APIKey == "" {
		return fmt.Errorf("❌ HOLIDAY_API_KEY is required")
	}
	log := newLogger(cfg)

	db, err := database.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("❌ Failed to connect to database: %w", err)
	}
	defer db.Close()

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("❌ Failed to connect to redis: %w", err)
	}
	defer redisClient.Close()

	// 공공데이터포털 호출 제한
	httpClient := httputil.New(log).
		WithLocalLimit(5, 1).
		WithRateLimiter(redis.NewRateLimiter(redisClient, "fossbatch"), redis.HolidayAPIRateLimit)

	feed := holiday.NewClient(httpClient, redis.NewCache(redisClient, "fossbatch"), cfg.Holiday.APIKey, cfg.Holiday.BaseURL, log)
	syncer := calendar.NewSyncer(feed, calendar.NewRepository(db.Pool), log)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// 캐시된 월별 응답을 버리고 새로 조회
	if err := feed.Invalidate(ctx, calendarYear); err != nil {
		log.WithError(err).Warn("Failed to invalidate holiday cache")
	}

	n, err := syncer.SyncYear(ctx, calendarYear)
	if err != nil {
		return fmt.Errorf("❌ Sync failed: %w", err)
	}

	fmt.Printf("✅ %d calendar rows written\n", n)
	return nil
}

func runCalendarCheck(cmd *cobra.Command, args []string) error {
	date, err := contracts.ParseDate(calendarDate)
	if err != nil {
		return fmt.Errorf("❌ Invalid --date: %w", err)
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

	cal, err := calendar.NewProvider(calendar.NewRepository(db.Pool)).ForDate(ctx, date)
	if err != nil {
		return fmt.Errorf("❌ Failed to load calendar: %w", err)
	}

	first, last := cal.Range()
	fmt.Printf("📅 %s (coverage %s ~ %s)\n", contracts.FormatDate(date), contracts.FormatDate(first), contracts.FormatDate(last))
	fmt.Printf("   Trading day       : %v\n", cal.IsTradingDay(date))

	if base, err := cal.MostRecentTradingDayBefore(date); err == nil {
		fmt.Printf("   Fund base date    : %s\n", contracts.FormatDate(base))
	} else {
		fmt.Printf("   Fund base date    : - (%v)\n", err)
	}

	if next, err := rebalance.NewDecider(cal).NextRebalanceDate(date); err == nil {
		fmt.Printf("   Next rebalancing  : %s\n", contracts.FormatDate(next))
	} else {
		fmt.Printf("   Next rebalancing  : - (%v)\n", err)
	}

	return nil
}
