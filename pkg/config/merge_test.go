package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mergeTarget struct {
	Addr     string
	Timeout  time.Duration
	Enabled  bool
	Seeds    []string
	Labels   map[string]string
	Nested   mergeNested
	Optional *mergeNested
	hidden   int
}

type mergeNested struct {
	Count int64
	Name  string
}

func TestMergeConfig_Nil(t *testing.T) {
	_, err := MergeConfig[mergeTarget](nil, nil)
	assert.Error(t, err)

	src := &mergeTarget{Addr: "a"}
	got, err := MergeConfig(nil, src)
	require.NoError(t, err)
	assert.Same(t, src, got)

	dst := &mergeTarget{Addr: "b"}
	got, err = MergeConfig(dst, nil)
	require.NoError(t, err)
	assert.Same(t, dst, got)
}

func TestMergeConfig_OverridesNonZero(t *testing.T) {
	dst := &mergeTarget{
		Addr:    "127.0.0.1:6379",
		Timeout: 2 * time.Second,
		Enabled: true,
		Seeds:   []string{"127.0.0.1:7000"},
		Labels:  map[string]string{"env": "dev", "team": "infra"},
		Nested:  mergeNested{Count: 100, Name: "default"},
		hidden:  1,
	}
	src := &mergeTarget{
		Timeout:  5 * time.Second,
		Seeds:    []string{"10.0.0.1:7000", "10.0.0.2:7000"},
		Labels:   map[string]string{"env": "prod"},
		Nested:   mergeNested{Count: 10},
		Optional: &mergeNested{Name: "set"},
		hidden:   2,
	}

	got, err := MergeConfig(dst, src)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:6379", got.Addr)
	assert.Equal(t, 5*time.Second, got.Timeout)
	assert.True(t, got.Enabled, "false in src does not override")
	assert.Equal(t, []string{"10.0.0.1:7000", "10.0.0.2:7000"}, got.Seeds)
	assert.Equal(t, map[string]string{"env": "prod", "team": "infra"}, got.Labels)
	assert.Equal(t, mergeNested{Count: 10, Name: "default"}, got.Nested)
	require.NotNil(t, got.Optional)
	assert.Equal(t, "set", got.Optional.Name)
	assert.Equal(t, 1, got.hidden)
}

func TestMergeConfig_EmptyContainersKeepDefaults(t *testing.T) {
	dst := &mergeTarget{Seeds: []string{"a"}, Labels: map[string]string{"k": "v"}}
	got, err := MergeConfig(dst, &mergeTarget{Seeds: []string{}, Labels: map[string]string{}})
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, got.Seeds)
	assert.Equal(t, map[string]string{"k": "v"}, got.Labels)
}

func BenchmarkMergeConfig(b *testing.B) {
	src := &mergeTarget{Addr: "x", Seeds: []string{"a", "b"}, Labels: map[string]string{"k": "v"}}
	for i := 0; i < b.N; i++ {
		dst := &mergeTarget{Timeout: time.Second}
		_, _ = MergeConfig(dst, src)
	}
}
