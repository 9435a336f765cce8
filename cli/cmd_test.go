package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/addition-engine/generic"
)

const healthySnapshot = `{
  "facility": {"id": "f1", "name": "Test Facility", "region_grade": 1, "capacity": 10, "base_units": 500},
  "staff": [
    {"id": "s1", "work_style": "fulltime_dedicated", "contracted_weekly_hours": 40,
     "qualifications": ["child_instructor"], "years_of_experience": 6, "personnel_type": "addition"},
    {"id": "s2", "work_style": "fulltime_dedicated", "contracted_weekly_hours": 40,
     "qualifications": ["nursery_teacher"], "years_of_experience": 2}
  ],
  "children": [
    {"id": "c1", "beneficiary_number": "1300100001", "income_category": "general_1"}
  ],
  "usage": [
    {"id": "u1", "child_id": "c1", "date": "2025-06-02", "billing_target": "請求する", "start_time": "14:00", "end_time": "17:30"},
    {"id": "u2", "child_id": "c1", "date": "2025-06-03", "billing_target": "請求する", "start_time": "14:00", "end_time": "17:30"}
  ],
  "billing": [
    {"id": "b1", "child_id": "c1", "year_month": "2025-06", "income_category": "general_1", "total_cost": 20000, "copay_amount": 2000}
  ],
  "census": {"child_count": 10, "avg_usage_days": 20}
}`

// Welfare child charged a co-payment and no census.
const blockedSnapshot = `{
  "facility": {"id": "f2", "name": "Blocked Facility", "region_grade": 1, "base_units": 500},
  "children": [
    {"id": "c1", "beneficiary_number": "1300100001", "income_category": "welfare"}
  ],
  "usage": [
    {"id": "u1", "child_id": "c1", "date": "2025-05-12", "billing_target": "請求する", "start_time": "14:00", "end_time": "17:00"}
  ],
  "billing": [
    {"id": "b1", "child_id": "c1", "year_month": "2025-05", "income_category": "welfare", "total_cost": 20000, "copay_amount": 2000}
  ]
}`

func writeSnapshot(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// executeCmd runs a fresh root command and captures its output.
func executeCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := NewApp(false)
	app.Today = func() generic.TimePoint { return generic.NewTimePoint(2025, time.July, 3) }

	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestEvaluateCmd(t *testing.T) {
	path := writeSnapshot(t, healthySnapshot)

	out, err := executeCmd(t, "evaluate", "--snapshot", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Test Facility (f1)")
	assert.Contains(t, out, "staff_allocation_1_fulltime")
	assert.Contains(t, out, "Claimed:")
}

func TestEvaluateCmd_RequiresSnapshot(t *testing.T) {
	_, err := executeCmd(t, "evaluate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--snapshot")
}

func TestEvaluateCmd_MissingFile(t *testing.T) {
	_, err := executeCmd(t, "evaluate", "--snapshot", filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading snapshot")
}

func TestSimulateCmd_UsesSnapshotCensus(t *testing.T) {
	path := writeSnapshot(t, healthySnapshot)

	out, err := executeCmd(t, "simulate", "--snapshot", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Monthly revenue")
	assert.Contains(t, out, "Total")
	assert.Contains(t, out, "¥")
}

func TestSimulateCmd_NeedsCensus(t *testing.T) {
	path := writeSnapshot(t, blockedSnapshot)

	// GIVEN: A snapshot without a census
	// WHEN: Simulating without flags
	_, err := executeCmd(t, "simulate", "--snapshot", path)

	// THEN: The user is told how to supply one
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no census")

	// AND: Flags are enough
	out, err := executeCmd(t, "simulate", "--snapshot", path, "--children", "10", "--days", "20")
	require.NoError(t, err)
	assert.Contains(t, out, "Total")
}

func TestAdviseCmd(t *testing.T) {
	path := writeSnapshot(t, healthySnapshot)

	out, err := executeCmd(t, "advise", "--snapshot", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Suggestions")
}

func TestVerifyCmd_ReadyToSubmit(t *testing.T) {
	path := writeSnapshot(t, healthySnapshot)

	// GIVEN: No --month, so the latest month in the snapshot is used
	out, err := executeCmd(t, "verify", "--snapshot", path)

	require.NoError(t, err)
	assert.Contains(t, out, "Verification f1 2025-06")
	assert.Contains(t, out, "ready to submit")
}

func TestVerifyCmd_BlockedSubmissionFails(t *testing.T) {
	path := writeSnapshot(t, blockedSnapshot)

	out, err := executeCmd(t, "verify", "--snapshot", path, "--month", "2025-05")

	require.ErrorIs(t, err, ErrSubmissionBlocked)
	assert.Contains(t, out, "submission blocked")
	assert.Contains(t, out, "ERROR")
}

func TestVerifyCmd_BadMonth(t *testing.T) {
	path := writeSnapshot(t, healthySnapshot)

	_, err := executeCmd(t, "verify", "--snapshot", path, "--month", "June")
	require.ErrorIs(t, err, generic.ErrInvalidYearMonth)
}

func TestTargetMonth_FallsBackToPreviousMonth(t *testing.T) {
	app := NewApp(false)
	app.Today = func() generic.TimePoint { return generic.NewTimePoint(2025, time.January, 15) }

	s, err := app.Snapshots.ParseSnapshot([]byte(`{"facility": {"id": "f3", "name": "Empty", "region_grade": 1}}`))
	require.NoError(t, err)

	ym, err := app.targetMonth(s)
	require.NoError(t, err)
	assert.Equal(t, generic.NewYearMonth(2024, time.December), ym)
}

func TestYen(t *testing.T) {
	assert.Equal(t, "¥0", Yen(0))
	assert.Equal(t, "¥999", Yen(999))
	assert.Equal(t, "¥1,000", Yen(1000))
	assert.Equal(t, "¥1,478,400", Yen(1_478_400))
	assert.Equal(t, "-¥1,200", Yen(-1200))
}
