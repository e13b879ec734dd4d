package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nepaliabroad/resources/internal/resource"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 2*time.Second, cfg.RequestDelay())
	require.Equal(t, 30*time.Second, cfg.RequestTimeout())
	require.Equal(t, 3, cfg.Fetch.MaxRetries)
	require.Equal(t, 90, cfg.Validation.StaleThresholdDays)
	require.ElementsMatch(t, []int{404, 403, 410, 500, 502, 503}, cfg.Validation.BrokenStatusCodes)
	require.Equal(t, 10, cfg.Validation.LinkCheckConcurrency)
	require.NotEmpty(t, cfg.Fetch.UserAgent)
	require.Equal(t, time.Hour, cfg.Fetch.RobotsCacheTTL)
}

func TestLoad_FileOverridesAndSources(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
fetch:
  delay_seconds: 0.5
  timeout_seconds: 10
validation:
  stale_threshold_days: 30
sources:
  scholarships:
    - name: EduCanada Scholarships
      url: https://www.educanada.ca/scholarships-bourses/index.aspx
      robots_txt: https://www.educanada.ca/robots.txt
      type: official
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 500*time.Millisecond, cfg.RequestDelay())
	require.Equal(t, 10*time.Second, cfg.RequestTimeout())
	require.Equal(t, 30, cfg.Validation.StaleThresholdDays)
	require.Len(t, cfg.Sources.Scholarships, 1)
	require.Equal(t, "EduCanada Scholarships", cfg.Sources.Scholarships[0].Name)
	require.Equal(t, "https://www.educanada.ca/robots.txt", cfg.Sources.Scholarships[0].RobotsURL)
	require.Len(t, cfg.AllSources(), 1)
}

func TestValidate_Rejections(t *testing.T) {
	base := func() Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	cfg.Server.Port = 0
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Fetch.TimeoutSeconds = 0
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Validation.LinkCheckConcurrency = 0
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Sources.Jobs = append(cfg.Sources.Jobs, resource.Source{Name: "no-url"})
	require.Error(t, cfg.Validate())
}
