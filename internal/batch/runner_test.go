package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fossbatch/internal/calendar"
	"github.com/wonny/fossbatch/internal/contracts"
	"github.com/wonny/fossbatch/internal/rebalance"
	"github.com/wonny/fossbatch/pkg/config"
	"github.com/wonny/fossbatch/pkg/logger"
	"github.com/wonny/fossbatch/pkg/sftp"
)

var (
	targetDate = time.Date(2024, 12, 10, 0, 0, 0, 0, time.UTC)
	runClock   = time.Date(2024, 12, 10, 8, 10, 2, 0, time.UTC)
)

// ============================================================================
// Fakes
// ============================================================================

type fakeStore struct {
	calendar   []contracts.CalendarEntry
	universe   []contracts.UniverseRow
	accounts   []contracts.AccountRow
	funds      []contracts.CustomerFundRow
	preloaded  int
	rebalanced map[contracts.ProductGroup]int
	customers  map[contracts.ProductGroup][]contracts.CustomerAccount
	overrides  []contracts.ManualRebalanceOverride
	holdings   []contracts.ModelPortfolioHolding
	observed   int
	expected   int
	reports    []contracts.ReportEntry
	staged     map[string][]contracts.OutboundLine
	cutoff     time.Time
	events     []contracts.EventLog
	batches    []contracts.BatchLog
}

func newFakeStore() *fakeStore {
	listed := map[string]string{"20241225": "기독탄신일", "20250101": "신정"}
	entries := append(calendar.BuildYear(2024, listed), calendar.BuildYear(2025, listed)...)
	return &fakeStore{
		calendar:   entries,
		rebalanced: make(map[contracts.ProductGroup]int),
		customers:  make(map[contracts.ProductGroup][]contracts.CustomerAccount),
		staged:     make(map[string][]contracts.OutboundLine),
	}
}

func (f *fakeStore) Load(context.Context, time.Time, time.Time) ([]contracts.CalendarEntry, error) {
	return f.calendar, nil
}

func (f *fakeStore) ListPortfolios(context.Context, string) ([]contracts.PortfolioDefinition, error) {
	return nil, nil
}

func (f *fakeStore) CountLatestRebalancePortfolios(context.Context, string) (int, error) {
	return f.expected, nil
}

func (f *fakeStore) CountRebalanceEvents(_ context.Context, _ string, _ time.Time, group contracts.ProductGroup) (int, error) {
	return f.rebalanced[group], nil
}

func (f *fakeStore) ListLatestHoldings(context.Context, string, time.Time) ([]contracts.ModelPortfolioHolding, error) {
	return f.holdings, nil
}

func (f *fakeStore) CountObservedPortfolios(context.Context, string, time.Time) (int, error) {
	return f.observed, nil
}

func (f *fakeStore) ListReturns(context.Context, string, time.Time, time.Time) ([]contracts.ReturnObservation, error) {
	return nil, nil
}

func (f *fakeStore) ListAccounts(_ context.Context, _ time.Time, group contracts.ProductGroup) ([]contracts.CustomerAccount, error) {
	return f.customers[group], nil
}

func (f *fakeStore) SaveManualOverrides(_ context.Context, rows []contracts.ManualRebalanceOverride) error {
	f.overrides = append(f.overrides, rows...)
	return nil
}

func (f *fakeStore) LatestOnOrBefore(context.Context, time.Time) ([]contracts.ReportEntry, bool, error) {
	return f.reports, len(f.reports) > 0, nil
}

func (f *fakeStore) Replace(_ context.Context, name string, lines []contracts.OutboundLine) (int64, error) {
	f.staged[name] = lines
	return int64(len(lines)), nil
}

func (f *fakeStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return 7, nil
}

func (f *fakeStore) CountUniverse(context.Context, time.Time) (int, error) {
	return f.preloaded + len(f.universe), nil
}

func (f *fakeStore) CountAccounts(context.Context, time.Time) (int, error) {
	return f.preloaded + len(f.accounts), nil
}

func (f *fakeStore) CountCustomerFunds(context.Context, time.Time) (int, error) {
	return f.preloaded + len(f.funds), nil
}

func (f *fakeStore) InsertUniverse(_ context.Context, rows []contracts.UniverseRow) (int64, error) {
	f.universe = append(f.universe, rows...)
	return int64(len(rows)), nil
}

func (f *fakeStore) InsertAccounts(_ context.Context, rows []contracts.AccountRow) (int64, error) {
	f.accounts = append(f.accounts, rows...)
	return int64(len(rows)), nil
}

func (f *fakeStore) InsertCustomerFunds(_ context.Context, rows []contracts.CustomerFundRow) (int64, error) {
	f.funds = append(f.funds, rows...)
	return int64(len(rows)), nil
}

func (f *fakeStore) ListUniverse(context.Context, time.Time) ([]contracts.UniverseRow, error) {
	return f.universe, nil
}

func (f *fakeStore) LogEvent(_ context.Context, e contracts.EventLog) error {
	f.events = append(f.events, e)
	return nil
}

func (f *fakeStore) LogBatch(_ context.Context, b contracts.BatchLog) error {
	f.batches = append(f.batches, b)
	return nil
}

// fakeDB binds every store to the same in-memory state
type fakeDB struct {
	store *fakeStore
	txs   int
}

func (d *fakeDB) stores() *Stores {
	s := d.store
	return &Stores{
		Calendar: s, Portfolios: s, Returns: s, Customers: s,
		Reports: s, Staging: s, Inbound: s, Audit: s,
	}
}

func (d *fakeDB) WithTx(ctx context.Context, fn func(context.Context, *Stores) error) error {
	d.txs++
	return fn(ctx, d.stores())
}

func (d *fakeDB) Stores() *Stores {
	return d.stores()
}

type fakeTransport struct {
	files    map[string]string
	uploaded map[string]string
	putErr   error
	readDirs []string
	accounts []sftp.Account
	closed   int
}

func (t *fakeTransport) dial(account sftp.Account) (Transport, error) {
	t.accounts = append(t.accounts, account)
	return t, nil
}

func (t *fakeTransport) ReadMatching(dir, substr string) (map[string]string, error) {
	t.readDirs = append(t.readDirs, dir)
	out := make(map[string]string)
	for name, content := range t.files {
		if strings.Contains(name, substr) {
			out[sftp.Stem(name)] = content
		}
	}
	return out, nil
}

func (t *fakeTransport) Put(localPath, remotePath string) error {
	if t.putErr != nil {
		return t.putErr
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	if t.uploaded == nil {
		t.uploaded = make(map[string]string)
	}
	t.uploaded[remotePath] = string(data)
	return nil
}

func (t *fakeTransport) Close() error {
	t.closed++
	return nil
}

type fakeMirror struct {
	calls int
	rows  int
}

func (m *fakeMirror) Mirror(_ context.Context, _ string, _ time.Time, rows []contracts.UniverseRow) error {
	m.calls++
	m.rows = len(rows)
	return nil
}

type heldLocker struct{}

func (heldLocker) Acquire(_ context.Context, name string) (func(context.Context) error, error) {
	return nil, errors.New(name + ": " + contracts.ErrRunInProgress.Error())
}

type countingLocker struct {
	names    []string
	released int
}

func (l *countingLocker) Acquire(_ context.Context, name string) (func(context.Context) error, error) {
	l.names = append(l.names, name)
	return func(context.Context) error { l.released++; return nil }, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AuthID:     "foss",
		StagingDir: t.TempDir(),
		SFTP: config.SFTPConfig{
			InboundDir:  "foss_data",
			OutboundDir: "robo_data",
		},
	}
}

func newTestRunner(t *testing.T, store *fakeStore, tr *fakeTransport, opts ...Option) (*Runner, *config.Config) {
	t.Helper()
	cfg := testConfig(t)
	opts = append([]Option{WithClock(func() time.Time { return runClock })}, opts...)
	return NewRunner(cfg, &fakeDB{store: store}, tr.dial, logger.Nop(), opts...), cfg
}

func stagingFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*"))
	require.NoError(t, err)
	sort.Strings(matches)
	return matches
}

// ============================================================================
// Inbound
// ============================================================================

const universeFile = "1;K55101BX1234;F001;펀드A;A1234;Y;C;3;77;C01;운용사A;120\n" +
	"2;K55101BX5678;F002;펀드B;A5678;Y;C;2;61;C02;운용사B;80\n" +
	"3;K55101BX9012;F003;펀드C;A9012;N;A;4;61;C02;운용사B;15\n" +
	"4;K55101BX0000;F004;펀드D;A0000;Y;C;3;77;C01;운용사A\n"

func TestRunner_ReceiveUniverse(t *testing.T) {
	store := newFakeStore()
	tr := &fakeTransport{files: map[string]string{"fnd_list.20241210": universeFile}}
	mirror := &fakeMirror{}
	runner, _ := newTestRunner(t, store, tr, WithMirror(mirror))

	err := runner.Run(context.Background(), Request{TargetDate: targetDate, Process: contracts.ProcessReceiveUniverse})
	require.NoError(t, err)

	assert.Len(t, store.universe, 3)
	assert.Equal(t, []sftp.Account{sftp.ReceiveAccount}, tr.accounts)
	assert.Equal(t, 1, tr.closed)

	require.Len(t, store.events, 1)
	assert.Equal(t, "BATCH_FOSS_01", store.events[0].EventType)
	assert.Equal(t, "openrowset insert success      fnd_list.20241210", store.events[0].Message)
	require.Len(t, store.batches, 1)
	assert.Equal(t, 2, store.batches[0].BatchSpid)
	assert.Equal(t, "20241210073000", store.batches[0].RunningKey)

	assert.Equal(t, 1, mirror.calls)
	assert.Equal(t, 3, mirror.rows)
}

func TestRunner_ReceiveUniverse_AlreadyLoaded(t *testing.T) {
	store := newFakeStore()
	store.preloaded = 1
	tr := &fakeTransport{files: map[string]string{"fnd_list.20241210": universeFile}}
	mirror := &fakeMirror{}
	runner, _ := newTestRunner(t, store, tr, WithMirror(mirror))

	err := runner.Run(context.Background(), Request{TargetDate: targetDate, Process: contracts.ProcessReceiveUniverse})
	require.NoError(t, err)

	assert.Empty(t, store.universe)
	assert.Empty(t, store.events)
	assert.Empty(t, store.batches)
	assert.Equal(t, 1, mirror.calls, "mirror keeps its own existence checks")
}

func TestRunner_ReceiveAccount_NoFile(t *testing.T) {
	store := newFakeStore()
	tr := &fakeTransport{files: map[string]string{"fnd_list.20241210": universeFile}}
	runner, _ := newTestRunner(t, store, tr)

	err := runner.Run(context.Background(), Request{TargetDate: targetDate, Process: contracts.ProcessReceiveAccount})
	require.NoError(t, err)

	assert.Empty(t, store.accounts)
	assert.Empty(t, store.events)
}

func TestRunner_ReceiveCustomerFund(t *testing.T) {
	store := newFakeStore()
	tr := &fakeTransport{files: map[string]string{
		"ap_fnd_info.20241210": "C001;K1;100;110;10\nC001;K1;100;110;10\n",
		"ap_fnd_info.20241209": "C009;K9;1;1;0\n",
	}}
	runner, _ := newTestRunner(t, store, tr)

	err := runner.Run(context.Background(), Request{TargetDate: targetDate, Process: contracts.ProcessReceiveCustomerFund})
	require.NoError(t, err)

	require.Len(t, store.funds, 1)
	assert.Equal(t, "C001", store.funds[0].CustomerID)
	assert.Equal(t, targetDate, store.funds[0].TradeDate)
	assert.Equal(t, runClock, store.funds[0].RegDate)
	assert.Equal(t, "BATCH_FOSS_03", store.events[0].EventType)
}

// ============================================================================
// Outbound
// ============================================================================

func TestRunner_SendMPList(t *testing.T) {
	store := newFakeStore()
	store.holdings = []contracts.ModelPortfolioHolding{
		{PortfolioCode: "MP_F12_3", ProductGroup: contracts.ProductPension, ProductCode: "K1", FundName: "Fund One", Weight: decimal.NewFromInt(3000)},
		{PortfolioCode: "MP_F12_3", ProductGroup: contracts.ProductPension, ProductCode: "K2", FundName: "Fund Two", Weight: decimal.NewFromInt(7000)},
	}
	tr := &fakeTransport{}
	runner, cfg := newTestRunner(t, store, tr)

	err := runner.Run(context.Background(), Request{TargetDate: targetDate, Process: contracts.ProcessSendMPList})
	require.NoError(t, err)

	assert.Equal(t, []sftp.Account{sftp.SendAccount}, tr.accounts)
	assert.Equal(t,
		"3;77;K1;Fund One;30.0;\n3;77;K2;Fund Two;70.0;\n",
		tr.uploaded["robo_data/mp_fnd_info.20241210"])

	staged := store.staged["mp_fnd_info.20241210"]
	require.Len(t, staged, 2)
	for i, line := range staged {
		assert.Equal(t, i+1, line.Idx)
		assert.Equal(t, "20241210081002", line.InDate)
	}

	assert.Empty(t, stagingFiles(t, cfg.StagingDir), "local file is removed after upload")
	assert.Equal(t, "BATCH_FOSS_05", store.events[0].EventType)
	assert.Equal(t, "20241210081000", store.batches[0].RunningKey)
}

func TestRunner_SendRebalCus_WithOverride(t *testing.T) {
	store := newFakeStore()
	store.rebalanced[contracts.ProductPension] = 1
	store.customers[contracts.ProductPension] = []contracts.CustomerAccount{
		{CustomerID: "C1", InvestGB: "77", OrderStatus: "Y1"},
		{CustomerID: "C2", InvestGB: "77", OrderStatus: "N"},
	}
	store.customers[contracts.ProductGeneral] = []contracts.CustomerAccount{
		{CustomerID: "C3", InvestGB: "61", OrderStatus: "Y"},
	}
	tr := &fakeTransport{}
	runner, _ := newTestRunner(t, store, tr)

	ov, err := rebalance.ParseOverride("C2", "Y", "20250110")
	require.NoError(t, err)

	err = runner.Run(context.Background(), Request{
		TargetDate: targetDate,
		Process:    contracts.ProcessSendRebalCus,
		Override:   ov,
	})
	require.NoError(t, err)

	assert.Equal(t,
		"C1;Y;20250106;\nC2;Y;20250110;\nC3;N;20250106;\n",
		tr.uploaded["robo_data/ap_reval_yn.20241210"])

	require.Len(t, store.overrides, 1)
	assert.Equal(t, "C2", store.overrides[0].CustomerID)
	assert.Contains(t, store.batches[0].ParamValues, "manual_customer_ids=C2")
}

func TestRunner_SendMPRate_NotReady(t *testing.T) {
	store := newFakeStore()
	store.observed = 9
	store.expected = 10
	tr := &fakeTransport{}
	runner, cfg := newTestRunner(t, store, tr)

	err := runner.Run(context.Background(), Request{TargetDate: targetDate, Process: contracts.ProcessSendMPRate})
	require.NoError(t, err)

	assert.Empty(t, tr.accounts, "nothing is uploaded")
	assert.Empty(t, store.staged)
	assert.Empty(t, store.events)
	assert.Empty(t, stagingFiles(t, cfg.StagingDir))
}

func TestRunner_SendReport_EmptyWithoutReport(t *testing.T) {
	store := newFakeStore()
	tr := &fakeTransport{}
	runner, _ := newTestRunner(t, store, tr)

	err := runner.Run(context.Background(), Request{TargetDate: targetDate, Process: contracts.ProcessSendReport})
	require.NoError(t, err)

	content, ok := tr.uploaded["robo_data/report.20241210"]
	require.True(t, ok)
	assert.Empty(t, content)
}

func TestRunner_SendEOF(t *testing.T) {
	store := newFakeStore()
	tr := &fakeTransport{}
	runner, _ := newTestRunner(t, store, tr)

	err := runner.Run(context.Background(), Request{TargetDate: targetDate, Process: contracts.ProcessSendMPInfoEOF})
	require.NoError(t, err)

	assert.Equal(t, "", tr.uploaded["robo_data/mp_info_eof.20241210"])
	assert.Equal(t, 23, store.batches[0].BatchSpid)
}

func TestRunner_RemoteDirsAreLoginRelative(t *testing.T) {
	store := newFakeStore()
	tr := &fakeTransport{files: map[string]string{"fnd_list.20241210": universeFile}}
	runner, _ := newTestRunner(t, store, tr)

	require.NoError(t, runner.Run(context.Background(), Request{TargetDate: targetDate, Process: contracts.ProcessReceiveUniverse}))
	require.NoError(t, runner.Run(context.Background(), Request{TargetDate: targetDate, Process: contracts.ProcessSendMPInfoEOF}))

	assert.Equal(t, []string{"foss_data"}, tr.readDirs)
	for name := range tr.uploaded {
		assert.False(t, strings.HasPrefix(name, ".."), name)
	}
	assert.Contains(t, tr.uploaded, "robo_data/mp_info_eof.20241210")
}

func TestRunner_UploadFailure(t *testing.T) {
	store := newFakeStore()
	store.holdings = []contracts.ModelPortfolioHolding{
		{PortfolioCode: "MP_F11_1", ProductGroup: contracts.ProductGeneral, ProductCode: "K1", FundName: "Fund", Weight: decimal.NewFromInt(10000)},
	}
	tr := &fakeTransport{putErr: errors.New("connection lost")}
	runner, cfg := newTestRunner(t, store, tr)

	err := runner.Run(context.Background(), Request{TargetDate: targetDate, Process: contracts.ProcessSendMPList})
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrTransport)

	assert.Len(t, store.staged["mp_fnd_info.20241210"], 1, "staged rows survive a late upload failure")
	assert.Empty(t, stagingFiles(t, cfg.StagingDir))

	require.Len(t, store.events, 1)
	assert.False(t, store.events[0].Result)
	assert.Equal(t, "bcp create failed      mp_fnd_info.20241210", store.events[0].Message)
	assert.False(t, store.batches[0].Success)
}

// ============================================================================
// Retention sweep and locking
// ============================================================================

func TestRunner_DeleteOldData(t *testing.T) {
	store := newFakeStore()
	tr := &fakeTransport{}
	runner, _ := newTestRunner(t, store, tr)

	err := runner.Run(context.Background(), Request{TargetDate: targetDate, Process: contracts.ProcessDeleteOldData})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 11, 10, 0, 0, 0, 0, time.UTC), store.cutoff)
	assert.Empty(t, tr.accounts)
	assert.Empty(t, store.events, "the sweep is not audited")
}

func TestRunner_Lock(t *testing.T) {
	store := newFakeStore()
	locker := &countingLocker{}
	runner, _ := newTestRunner(t, store, &fakeTransport{}, WithLocker(locker))

	require.NoError(t, runner.Run(context.Background(), Request{TargetDate: targetDate, Process: contracts.ProcessSendMPInfoEOF}))
	assert.Equal(t, []string{"SEND_MP_INFO_EOF:20241210"}, locker.names)
	assert.Equal(t, 1, locker.released)

	held, _ := newTestRunner(t, store, &fakeTransport{}, WithLocker(heldLocker{}))
	err := held.Run(context.Background(), Request{TargetDate: targetDate, Process: contracts.ProcessSendMPInfoEOF})
	assert.Error(t, err)
}

func TestRequest_ParamValues(t *testing.T) {
	req := Request{TargetDate: targetDate, Process: contracts.ProcessSendReport}
	assert.Equal(t, "target_date=20241210 process_type=SEND_REPORT", req.ParamValues())
}
