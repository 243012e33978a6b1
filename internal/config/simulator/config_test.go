package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedValue(t *testing.T) {
	now := func() time.Time { return time.Unix(0, 12345) }

	tests := map[string]struct {
		cfg  Config
		want uint64
	}{
		"fixed zero": {cfg: Config{FixedSeed: true}, want: 0},
		"fixed":      {cfg: Config{FixedSeed: true, Seed: 9}, want: 9},
		"from clock": {cfg: Config{Seed: 9}, want: 12345},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.cfg.SeedValue(now))
		})
	}
}

func TestMustLoad_FixedZeroSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "simulator.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
fixed_seed: true
seed: 0
sink:
  kind: http
  http_url: http://localhost:8081/events
`), 0o600))
	t.Setenv("CONFIG_PATH", path)

	cfg := MustLoad()
	assert.True(t, cfg.FixedSeed)
	assert.Equal(t, uint64(0), cfg.SeedValue(time.Now))
	assert.Equal(t, 100000, cfg.MaxRecords)
}
