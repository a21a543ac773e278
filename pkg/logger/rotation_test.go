package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"
)

func TestNewRotationWriter(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "keyspace.log")

	tests := []struct {
		name    string
		config  *RotationConfig
		wantErr bool
		isSize  bool
	}{
		{name: "size", config: &RotationConfig{Type: RotationBySize, MaxSize: 10}, isSize: true},
		{name: "unknown falls back to size", config: &RotationConfig{}, isSize: true},
		{name: "time", config: &RotationConfig{Type: RotationByTime, RotationTime: "1h", MaxAgeTime: "24h"}},
		{name: "time with defaults", config: &RotationConfig{Type: RotationByTime}},
		{name: "bad rotation time", config: &RotationConfig{Type: RotationByTime, RotationTime: "daily"}, wantErr: true},
		{name: "bad max age", config: &RotationConfig{Type: RotationByTime, MaxAgeTime: "week"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewRotationWriter(tt.config, outputPath)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			_, isSize := w.(*lumberjack.Logger)
			assert.Equal(t, tt.isSize, isSize)
		})
	}
}

func TestFileOutput(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "keyspace.log")

	l, err := New(&Config{
		Format:     JSONFormat,
		EnableFile: true,
		OutputPath: outputPath,
		Rotation:   RotationConfig{Type: RotationBySize, MaxSize: 1},
	}, WithWriter(nopWriter{}))
	require.NoError(t, err)

	l.Info("written to file", "pattern", "session:*")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
	assert.Contains(t, string(data), `"pattern":"session:*"`)
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
