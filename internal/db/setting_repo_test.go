package db

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/RikitoMorikawa/IPPON-Backend-test-sub001/internal/types"
)

// --- Mock DBTX ---

type mockDBTX struct {
	mock.Mock
}

func (m *mockDBTX) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockDBTX) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if r := args.Get(0); r != nil {
		return r.(pgx.Rows), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDBTX) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

// mockRow drives scanSetting through a configurable Scan.
type mockRow struct {
	scanErr error
	scanFn  func(dest ...any) error
}

func (r *mockRow) Scan(dest ...any) error {
	if r.scanFn != nil {
		return r.scanFn(dest...)
	}
	return r.scanErr
}

// settingScanFn fills the settingColumns dest list with a plausible row.
func settingScanFn(dest ...any) error {
	createdAt := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	next := time.Date(2024, 6, 10, 1, 0, 0, 0, time.UTC)

	*dest[0].(*string) = "client_1"
	*dest[1].(*time.Time) = createdAt
	*dest[2].(*string) = "setting_1"
	*dest[3].(*string) = "prop_1"
	*dest[4].(*string) = "グランメゾン青山"
	*dest[5].(*int) = 1
	*dest[6].(*string) = "2024-06-10"
	*dest[7].(*string) = string(types.CadenceWeekly)
	*dest[8].(*bool) = true
	*dest[9].(*string) = "01:00"
	*dest[10].(*time.Time) = next
	*dest[11].(*string) = string(types.SettingActive)
	*dest[12].(**time.Time) = nil
	*dest[13].(*int) = 3
	*dest[14].(*string) = "emp_1"
	*dest[15].(*time.Time) = createdAt
	*dest[16].(**time.Time) = nil
	return nil
}

// --- Create ---

func TestBatchSettingRepository_Create_Success(t *testing.T) {
	db := new(mockDBTX)
	repo := NewBatchSettingRepository(db)
	ctx := context.Background()

	setting := &types.BatchReportSetting{
		ID:                "setting_1",
		ClientID:          "client_1",
		PropertyID:        "prop_1",
		PropertyName:      "グランメゾン青山",
		Weekday:           1,
		StartDate:         "2024-06-10",
		Cadence:           types.CadenceWeekly,
		AutoGenerate:      true,
		ExecutionTime:     "01:00",
		NextExecutionDate: time.Date(2024, 6, 10, 1, 0, 0, 0, time.UTC),
		Status:            types.SettingActive,
		EmployeeID:        "emp_1",
		CreatedAt:         time.Now().UTC(),
		UpdatedAt:         time.Now().UTC(),
	}

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	err := repo.Create(ctx, setting)
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestBatchSettingRepository_Create_DBError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewBatchSettingRepository(db)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.CommandTag{}, errors.New("connection refused"))

	err := repo.Create(context.Background(), &types.BatchReportSetting{})
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeInternalDB, appErr.Code)
}

// --- GetByProperty ---

func TestBatchSettingRepository_GetByProperty_Found(t *testing.T) {
	db := new(mockDBTX)
	repo := NewBatchSettingRepository(db)

	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanFn: settingScanFn})

	setting, err := repo.GetByProperty(context.Background(), "client_1", "prop_1")
	require.NoError(t, err)
	require.NotNil(t, setting)
	assert.Equal(t, "setting_1", setting.ID)
	assert.Equal(t, types.CadenceWeekly, setting.Cadence)
	assert.Equal(t, types.SettingActive, setting.Status)
	assert.Equal(t, 3, setting.ExecutionCount)
}

func TestBatchSettingRepository_GetByProperty_NotFoundIsNil(t *testing.T) {
	db := new(mockDBTX)
	repo := NewBatchSettingRepository(db)

	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanErr: pgx.ErrNoRows})

	setting, err := repo.GetByProperty(context.Background(), "client_1", "prop_unknown")
	require.NoError(t, err, "absence is not an error")
	assert.Nil(t, setting)
}

// --- Update ---

func TestBatchSettingRepository_Update_BuildsPatchSetClause(t *testing.T) {
	db := new(mockDBTX)
	repo := NewBatchSettingRepository(db)

	var capturedSQL string
	db.On("QueryRow", mock.Anything, mock.MatchedBy(func(sql string) bool {
		capturedSQL = sql
		return true
	}), mock.Anything).
		Return(&mockRow{scanFn: settingScanFn})

	name := "新名称"
	auto := false
	_, err := repo.Update(context.Background(), "client_1", time.Now(), types.SettingPatch{
		PropertyName: &name,
		AutoGenerate: &auto,
	})
	require.NoError(t, err)

	assert.Contains(t, capturedSQL, "property_name = $3")
	assert.Contains(t, capturedSQL, "auto_generate = $4")
	assert.NotContains(t, capturedSQL, "weekday =")
	assert.NotContains(t, capturedSQL, "next_execution_date")
}

func TestBatchSettingRepository_Update_NotFound(t *testing.T) {
	db := new(mockDBTX)
	repo := NewBatchSettingRepository(db)

	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanErr: pgx.ErrNoRows})

	_, err := repo.Update(context.Background(), "client_1", time.Now(), types.SettingPatch{})
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeNotFoundSetting, appErr.Code)
}

// Soft-deleted rows must be excluded from every read and from due-selection.
func TestBatchSettingRepository_ReadsExcludeSoftDeleted(t *testing.T) {
	db := new(mockDBTX)
	repo := NewBatchSettingRepository(db)

	var sqls []string
	db.On("Query", mock.Anything, mock.MatchedBy(func(sql string) bool {
		sqls = append(sqls, sql)
		return true
	}), mock.Anything).Return(nil, errors.New("stop"))
	db.On("QueryRow", mock.Anything, mock.MatchedBy(func(sql string) bool {
		sqls = append(sqls, sql)
		return true
	}), mock.Anything).Return(&mockRow{scanErr: pgx.ErrNoRows})

	_, _ = repo.GetByTenant(context.Background(), "client_1")
	_, _ = repo.GetByProperty(context.Background(), "client_1", "prop_1")
	_, _ = repo.ListActiveTargets(context.Background())

	require.Len(t, sqls, 3)
	for _, sql := range sqls {
		assert.Contains(t, sql, "deleted_at IS NULL")
	}
	// Due-selection also filters to active settings.
	assert.Contains(t, sqls[2], "status = 'active'")
}

// --- SoftDelete ---

func TestBatchSettingRepository_SoftDelete_Success(t *testing.T) {
	db := new(mockDBTX)
	repo := NewBatchSettingRepository(db)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("UPDATE 1"), nil)

	err := repo.SoftDelete(context.Background(), "client_1", time.Now())
	require.NoError(t, err)
}

func TestBatchSettingRepository_SoftDelete_NotFound(t *testing.T) {
	db := new(mockDBTX)
	repo := NewBatchSettingRepository(db)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("UPDATE 0"), nil)

	err := repo.SoftDelete(context.Background(), "client_1", time.Now())
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeNotFoundSetting, appErr.Code)
}

// --- AdvanceSchedule ---

func TestBatchSettingRepository_AdvanceSchedule_Advanced(t *testing.T) {
	db := new(mockDBTX)
	repo := NewBatchSettingRepository(db)

	createdAt := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	executedAt := time.Date(2024, 6, 10, 1, 0, 0, 0, time.UTC)
	next := time.Date(2024, 6, 17, 1, 0, 0, 0, time.UTC)

	var capturedSQL string
	var capturedArgs []any
	db.On("Exec", mock.Anything, mock.MatchedBy(func(sql string) bool {
		capturedSQL = sql
		return true
	}), mock.MatchedBy(func(args []any) bool {
		capturedArgs = args
		return true
	})).Return(pgconn.NewCommandTag("UPDATE 1"), nil)

	advanced, err := repo.AdvanceSchedule(context.Background(), "client_1", createdAt, executedAt, next)
	require.NoError(t, err)
	assert.True(t, advanced)

	// The write is conditional on the fired value still being current.
	assert.True(t, strings.Contains(capturedSQL, "next_execution_date = $4"),
		"conditional write precondition missing:\n%s", capturedSQL)
	assert.Contains(t, capturedSQL, "execution_count = execution_count + 1")

	require.Len(t, capturedArgs, 4)
	assert.Equal(t, next, capturedArgs[2])
	assert.Equal(t, executedAt, capturedArgs[3])
}

func TestBatchSettingRepository_AdvanceSchedule_LostRace(t *testing.T) {
	db := new(mockDBTX)
	repo := NewBatchSettingRepository(db)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("UPDATE 0"), nil)

	advanced, err := repo.AdvanceSchedule(context.Background(), "client_1", time.Now(), time.Now(), time.Now())
	require.NoError(t, err, "losing the conditional write is not an error")
	assert.False(t, advanced)
}

func TestBatchSettingRepository_AdvanceSchedule_DBError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewBatchSettingRepository(db)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.CommandTag{}, errors.New("connection refused"))

	_, err := repo.AdvanceSchedule(context.Background(), "client_1", time.Now(), time.Now(), time.Now())
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeInternalDB, appErr.Code)
}
