package activities

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"profilemeister/internal/cache"
	"profilemeister/internal/config"
	"profilemeister/internal/providers"
	"profilemeister/internal/util"
)

func testActivities(t *testing.T) *Activities {
	t.Helper()
	pm, err := providers.NewManager(config.Config{LLMProviders: "mock"})
	require.NoError(t, err)
	return &Activities{
		cfg:       config.Config{DataOutRoot: t.TempDir(), MaxBundleMB: 20},
		cache:     cache.NewMemoryStore(),
		providers: pm,
	}
}

func TestCacheActivitiesRoundTrip(t *testing.T) {
	a := testActivities(t)
	ctx := context.Background()

	out, err := a.CacheLookupActivity(ctx, CacheLookupInput{Key: "k1"})
	require.NoError(t, err)
	require.False(t, out.Hit)

	require.NoError(t, a.CacheWriteActivity(ctx, CacheWriteInput{Key: "k1", Text: "section text"}))

	out, err = a.CacheLookupActivity(ctx, CacheLookupInput{Key: "k1"})
	require.NoError(t, err)
	require.True(t, out.Hit)
	require.Equal(t, "section text", out.Text)
}

func TestCacheWriteActivityCollision(t *testing.T) {
	a := testActivities(t)
	ctx := context.Background()

	require.NoError(t, a.CacheWriteActivity(ctx, CacheWriteInput{Key: "k1", Text: "original"}))
	require.NoError(t, a.CacheWriteActivity(ctx, CacheWriteInput{Key: "k1", Text: "original"}))

	err := a.CacheWriteActivity(ctx, CacheWriteInput{Key: "k1", Text: "different"})
	require.ErrorIs(t, err, util.ErrCacheCollision)
}

func TestLLMGenerateActivityUsesConfiguredProvider(t *testing.T) {
	a := testActivities(t)
	out, err := a.LLMGenerateActivity(context.Background(), LLMGenerateInput{
		Operation: "section_draft",
		Prompt:    "profile section",
	})
	require.NoError(t, err)
	require.Equal(t, "mock", out.ProviderName)
	require.NotEmpty(t, out.Text)

	_, err = a.LLMGenerateActivity(context.Background(), LLMGenerateInput{
		Operation: "section_draft",
		Prompt:    "profile section",
		Provider:  "gemini",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not configured")
}

func TestWriteProfileActivity(t *testing.T) {
	a := testActivities(t)
	out, err := a.WriteProfileActivity(context.Background(), WriteProfileInput{
		RunID:       "run-1",
		CompanyName: "Acme",
		Entries: []WriteProfileEntry{
			{SectionID: "operating-footprint", Number: 1, Title: "Operating Footprint", Text: "## 1. Operating Footprint\n\nBody."},
			{SectionID: "swot-analysis", Number: 20, Title: "SWOT Analysis", Failed: true, FailReason: "gateway_exhausted", FailStage: "draft"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(a.cfg.DataOutRoot, "runs", "run-1", "profile.html"), out.ReportPath)

	html, err := os.ReadFile(out.ReportPath)
	require.NoError(t, err)
	require.Contains(t, string(html), "Company Profile: Acme")
	require.Contains(t, string(html), `class="error"`)

	raw, err := os.ReadFile(out.ProfilePath)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(raw), `"run_id": "run-1"`) || strings.Contains(string(raw), `"run_id":"run-1"`))
}

func TestBuildBundleActivityMissingDir(t *testing.T) {
	a := testActivities(t)
	_, err := a.BuildBundleActivity(context.Background(), BuildBundleInput{InputDir: filepath.Join(t.TempDir(), "absent")})
	require.Error(t, err)
}
