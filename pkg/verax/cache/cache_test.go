package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verax-io/verax/pkg/verax/report"
)

func TestFingerprintNormalizesWhitespace(t *testing.T) {
	base := Fingerprint("Water boils at 100°C at sea level.")

	assert.Equal(t, base, Fingerprint("  Water   boils at\t100°C\nat sea level.  "))
	assert.NotEqual(t, base, Fingerprint("Water boils at 90°C at sea level."))
	assert.Len(t, base, 64)
}

func TestCachePutGet(t *testing.T) {
	c := New(time.Hour)
	r := &report.Report{Mode: report.ModeText, RiskLevel: "low"}

	fp := Fingerprint("some claim text")
	c.Put(fp, r)

	got, ok := c.Get(fp)
	require.True(t, ok)
	assert.Same(t, r, got)

	_, ok = c.Get(Fingerprint("different text"))
	assert.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	c := New(time.Minute)
	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }

	fp := Fingerprint("expiring entry")
	c.Put(fp, &report.Report{Mode: report.ModeText})

	_, ok := c.Get(fp)
	require.True(t, ok)

	now = now.Add(61 * time.Second)
	_, ok = c.Get(fp)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "expired entry is evicted on lookup")
}

func TestCachePutRefreshesTTL(t *testing.T) {
	c := New(time.Minute)
	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }

	fp := Fingerprint("refreshed entry")
	c.Put(fp, &report.Report{Mode: report.ModeText})

	now = now.Add(45 * time.Second)
	c.Put(fp, &report.Report{Mode: report.ModeText})

	now = now.Add(45 * time.Second)
	_, ok := c.Get(fp)
	assert.True(t, ok)
}

func TestCachePurge(t *testing.T) {
	c := New(time.Hour)
	c.Put(Fingerprint("one"), &report.Report{})
	c.Put(Fingerprint("two"), &report.Report{})
	require.Equal(t, 2, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
}
