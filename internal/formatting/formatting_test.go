package formatting

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitat/internal/api"
	"habitat/internal/orchestrator"
)

func sampleInfo() api.EnvironmentInfo {
	return api.EnvironmentInfo{
		ID:         "0b1e0e6a-9f4f-4f10-8a74-2a5a6f9c1234",
		TemplateID: "web-development",
		Name:       "demo",
		Kind:       api.KindContainer,
		Status:     api.StateReady,
		Resources:  api.ResourceShape{MemoryGi: 2, CPUMillis: 1000},
		Endpoints:  map[string]string{"primary": "https://demo.habitat.dev"},
		CreatedAt:  time.Now().Add(-90 * time.Minute),
		Owner:      "alice",
		Instances:  1,
		Uptime:     90 * time.Minute,
		Cost:       api.CostEstimate{HourlyUSD: 0.09, TotalUSD: 0.14},
	}
}

func TestTableEnvironmentList(t *testing.T) {
	f := NewFormatter(Options{Format: FormatTable, Quiet: true})

	out, err := f.FormatEnvironmentList([]api.EnvironmentInfo{sampleInfo()})
	require.NoError(t, err)
	assert.Contains(t, out, "0b1e0e6a")
	assert.Contains(t, out, "demo")
	assert.Contains(t, out, "ready")
	assert.Contains(t, out, "1h30m")
	assert.Contains(t, out, "$0.09")
}

func TestTableEmptyList(t *testing.T) {
	f := NewFormatter(Options{Format: FormatTable, Quiet: true})

	out, err := f.FormatEnvironmentList(nil)
	require.NoError(t, err)
	assert.Equal(t, "No environments found", out)
}

func TestTableEnvironmentDetailShowsEndpoints(t *testing.T) {
	f := NewFormatter(Options{Format: FormatTable, Quiet: true})
	info := sampleInfo()

	out, err := f.FormatEnvironmentDetail(&info)
	require.NoError(t, err)
	assert.Contains(t, out, "https://demo.habitat.dev")
	assert.Contains(t, out, "web-development")
}

func TestJSONRoundTrips(t *testing.T) {
	f := NewFormatter(Options{Format: FormatJSON})

	out, err := f.FormatEnvironmentList([]api.EnvironmentInfo{sampleInfo()})
	require.NoError(t, err)

	var decoded []api.EnvironmentInfo
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "demo", decoded[0].Name)
}

func TestYAMLTemplateList(t *testing.T) {
	f := NewFormatter(Options{Format: FormatYAML})

	out, err := f.FormatTemplateList([]*api.EnvironmentTemplate{
		{ID: "web-development", Name: "Web Development", Kind: api.KindContainer},
	})
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "web-development"))
}

func TestUsageTable(t *testing.T) {
	f := NewFormatter(Options{Format: FormatTable, Quiet: true})

	out, err := f.FormatUsage(orchestrator.UsageReport{
		Usage: api.ResourceUsage{TotalEnvironments: 3, ReadyEnvironments: 2, MemoryGi: 6, CPUCores: 2.5},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "6.0 Gi")
	assert.Contains(t, out, "2.5 cores")
}
