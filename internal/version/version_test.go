package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withBuildInfo(t *testing.T, v, commit, date string) {
	t.Helper()
	oldV, oldC, oldD := Version, GitCommit, BuildDate
	SetBuildInfo(v, commit, date)
	t.Cleanup(func() { SetBuildInfo(oldV, oldC, oldD) })
}

func TestGetInfo(t *testing.T) {
	withBuildInfo(t, "1.2.3-beta.1+42", "abcdef1234567", "2025-03-04T05:06:07Z")

	info, err := GetInfo()
	require.NoError(t, err)
	assert.Equal(t, "1.2.3-beta.1+42", info.Version)
	assert.Equal(t, "20250304050607", info.BuildID)
	assert.Equal(t, "beta.1", info.SemVer.Prerelease())
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
}

func TestGetInfo_InvalidVersion(t *testing.T) {
	withBuildInfo(t, "not-a-version", "unknown", "unknown")
	_, err := GetInfo()
	assert.Error(t, err)
	assert.Equal(t, "not-a-version", GetBaseVersion())
}

func TestGetBaseVersion(t *testing.T) {
	withBuildInfo(t, "2.0.1-rc.1+7.abc", "unknown", "unknown")
	assert.Equal(t, "2.0.1", GetBaseVersion())
}

func TestGetBuildID(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		expected string
	}{
		{"unknown", "unknown", "0"},
		{"empty", "", "0"},
		{"date only", "2024-12-31", "20241231000000"},
		{"space separated", "2024-12-31 23:59:58", "20241231235958"},
		{"garbage", "yesterday", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withBuildInfo(t, "1.0.0", "unknown", tt.date)
			assert.Equal(t, tt.expected, GetBuildID())
		})
	}
}

func TestGetFormattedVersion(t *testing.T) {
	withBuildInfo(t, "1.0.0", "0123456789", "2025-01-01")
	assert.Equal(t, "hostkit v1.0.0, commit 0123456, built 2025-01-01", GetFormattedVersion("hostkit"))

	withBuildInfo(t, "1.0.0", "unknown", "unknown")
	assert.Equal(t, "hostkit v1.0.0", GetFormattedVersion("hostkit"))
}

func TestSatisfies(t *testing.T) {
	ok, err := Satisfies("1.4.0", ">= 1.2, < 2")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Satisfies("2.0.0", ">= 1.2, < 2")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = Satisfies("x", ">= 1")
	assert.Error(t, err)
	_, err = Satisfies("1.0.0", "~~~")
	assert.Error(t, err)
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		v1, v2   string
		expected int
		wantErr  bool
	}{
		{"1.0.0", "1.0.1", -1, false},
		{"1.1.0", "1.1.0", 0, false},
		{"2.0.0", "1.9.9", 1, false},
		{"bad", "1.0.0", 0, true},
		{"1.0.0", "bad", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.v1+"_"+tt.v2, func(t *testing.T) {
			got, err := CompareVersions(tt.v1, tt.v2)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
