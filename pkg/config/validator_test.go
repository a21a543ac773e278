package config

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validatedConfig struct {
	Addr      string `validate:"required"`
	ScanCount int64  `validate:"gte=0"`
	Port      int    `validate:"omitempty,min=1,max=65535"`
	Level     string `validate:"omitempty,oneof=debug info warn error"`
}

func TestValidatorValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     any
		wantErr bool
		msg     string
	}{
		{name: "valid", cfg: &validatedConfig{Addr: "127.0.0.1:6379", ScanCount: 100, Port: 6379, Level: "info"}},
		{name: "nil", cfg: nil, wantErr: true},
		{name: "missing addr", cfg: &validatedConfig{}, wantErr: true, msg: "field 'validatedConfig.Addr' is required"},
		{name: "negative count", cfg: &validatedConfig{Addr: "x", ScanCount: -1}, wantErr: true, msg: "must be at least 0"},
		{name: "port too large", cfg: &validatedConfig{Addr: "x", Port: 70000}, wantErr: true, msg: "must be at most 65535"},
		{name: "bad level", cfg: &validatedConfig{Addr: "x", Level: "trace"}, wantErr: true, msg: "must be one of"},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.cfg)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.cfg != nil {
				assert.ErrorIs(t, err, ErrValidationFailed)
			}
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestValidatorValidateField(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateField("127.0.0.1:7000", "hostname_port"))
	assert.ErrorIs(t, v.ValidateField("not-an-addr", "hostname_port"), ErrValidationFailed)
}

func TestValidatorRegisterRule(t *testing.T) {
	type seeds struct {
		Addrs []string `validate:"dive,hasport"`
	}

	v := NewValidator()
	require.NoError(t, v.RegisterRule("hasport", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		for i := len(s) - 1; i >= 0; i-- {
			if s[i] == ':' {
				return i < len(s)-1
			}
		}
		return false
	}))

	assert.NoError(t, v.Validate(&seeds{Addrs: []string{"a:1", "b:2"}}))
	assert.Error(t, v.Validate(&seeds{Addrs: []string{"a:1", "b"}}))
}
