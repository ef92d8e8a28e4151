package health

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedSampler(bytes uint64) MemorySampler {
	return func() (uint64, error) { return bytes, nil }
}

func TestStatus_Healthy(t *testing.T) {
	m := New(fixedSampler(64 * 1024 * 1024))

	status := m.Status()
	assert.Equal(t, StatusHealthy, status.Status)
	assert.GreaterOrEqual(t, status.UptimeMS, int64(0))
	assert.Equal(t, 64.0, status.MemoryMB)
}

func TestStatus_UptimeNonDecreasing(t *testing.T) {
	m := New(fixedSampler(0))

	first := m.Status().UptimeMS
	time.Sleep(15 * time.Millisecond)
	second := m.Status().UptimeMS

	assert.GreaterOrEqual(t, second, first)
	assert.GreaterOrEqual(t, second, int64(10))
}

func TestStatus_ClockBeforeStartClampsToZero(t *testing.T) {
	m := New(fixedSampler(0))
	m.now = func() time.Time { return m.start.Add(-time.Second) }

	assert.Equal(t, int64(0), m.Status().UptimeMS)
}

func TestStatus_MemoryRounding(t *testing.T) {
	m := New(fixedSampler(1536 * 1024)) // 1.5 MiB
	assert.Equal(t, 1.5, m.Status().MemoryMB)

	m = New(fixedSampler(1234567))
	assert.Equal(t, 1.18, m.Status().MemoryMB)
}

func TestStatus_SamplerFailureReportsZero(t *testing.T) {
	m := New(func() (uint64, error) { return 0, errors.New("no metrics") })

	status := m.Status()
	assert.Equal(t, StatusHealthy, status.Status)
	assert.Equal(t, 0.0, status.MemoryMB)
}

func TestDegraded(t *testing.T) {
	m := New(fixedSampler(0))

	m.SetDegraded("agent reload failed")
	assert.Equal(t, StatusDegraded, m.Status().Status)
	assert.Equal(t, "agent reload failed", m.DegradedReason())

	m.ClearDegraded()
	assert.Equal(t, StatusHealthy, m.Status().Status)
	assert.Empty(t, m.DegradedReason())

	m.SetDegraded("")
	assert.Equal(t, "unspecified", m.DegradedReason())
}

func TestResidentMemory(t *testing.T) {
	rss, err := ResidentMemory()
	require.NoError(t, err)
	assert.Positive(t, rss)
}

func TestReadStatm(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "statm")
	require.NoError(t, os.WriteFile(good, []byte("12345 100 50 1 0 200 0\n"), 0644))
	rss, err := readStatm(good)
	require.NoError(t, err)
	assert.Equal(t, uint64(100*os.Getpagesize()), rss)

	bad := filepath.Join(dir, "bad")
	require.NoError(t, os.WriteFile(bad, []byte("12345"), 0644))
	_, err = readStatm(bad)
	assert.Error(t, err)

	_, err = readStatm(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestResidentMemory_FallsBackWithoutProc(t *testing.T) {
	orig := statmPath
	statmPath = filepath.Join(t.TempDir(), "missing")
	t.Cleanup(func() { statmPath = orig })

	rss, err := ResidentMemory()
	require.NoError(t, err)
	assert.Positive(t, rss)
}
