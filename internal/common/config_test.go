package common_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saikiran76/SwipeAI/internal/common"
)

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("JOURNAL_DRIVER", "Postgres")
	t.Setenv("JOURNAL_DSN", "postgres://u:p@localhost/db")
	t.Setenv("WORKERS", "9")
	t.Setenv("LLM_RPS", "0.5")
	t.Setenv("LLM_TIMEOUT", "10s")
	t.Setenv("SCHEMA_STRICT", "false")
	t.Setenv("OCR_DPI", "not-a-number")

	cfg := common.LoadConfig()
	assert.Equal(t, "postgres", cfg.Journal.Driver)
	assert.Equal(t, 9, cfg.Server.Workers)
	assert.Equal(t, 0.5, cfg.LLM.RPS)
	assert.Equal(t, 10*time.Second, cfg.LLM.Timeout)
	assert.False(t, cfg.Extract.Strict)
	assert.Equal(t, 300, cfg.OCR.DPI, "unparseable values keep the default")
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*common.Config)
		field  string
	}{
		{name: "unknown driver", mutate: func(c *common.Config) { c.Journal.Driver = "mysql" }, field: "JOURNAL_DRIVER"},
		{name: "missing dsn", mutate: func(c *common.Config) { c.Journal.Driver = "sqlite"; c.Journal.DSN = "" }, field: "JOURNAL_DSN"},
		{name: "openai without key", mutate: func(c *common.Config) { c.LLM.Provider = "openai"; c.LLM.APIKey = "" }, field: "OPENAI_API_KEY"},
		{name: "unknown provider", mutate: func(c *common.Config) { c.LLM.Provider = "bard" }, field: "LLM_PROVIDER"},
		{name: "zero workers", mutate: func(c *common.Config) { c.Server.Workers = 0 }, field: "WORKERS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := common.LoadConfig()
			cfg.LLM.Provider = "none"
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidInput)
			assert.Equal(t, common.CodeInvalidInput, common.ErrorKind(err))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "no text", err: common.NoTextExtracted("ocr"), want: common.CodeNoTextExtracted},
		{name: "wrapped sentinel", err: fmt.Errorf("ctx: %w", common.ErrUnsupportedInput), want: common.CodeUnsupportedInput},
		{name: "malformed", err: common.NewMalformedResponseError("{oops", errors.New("eof")), want: common.CodeMalformedMachineResponse},
		{name: "schema", err: &common.SchemaViolationError{}, want: common.CodeSchemaViolation},
		{name: "other", err: errors.New("disk full"), want: common.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, common.ErrorKind(tt.err))
		})
	}
}

func TestMalformedResponseError_TruncatesSnippet(t *testing.T) {
	raw := string(bytes.Repeat([]byte("x"), 500))
	err := common.NewMalformedResponseError(raw, nil)
	assert.Len(t, err.Snippet, 203)
	assert.ErrorIs(t, err, common.ErrMalformedMachineResponse)
}

func TestValidator(t *testing.T) {
	v := common.NewValidator().
		Field("name", "  ", common.Required).
		Field("body", make([]byte, 10), common.MaxBytes(4)).
		Field("mode", "fast", common.OneOf("slow"))
	require.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 3)
	assert.ErrorIs(t, v.Error(), common.ErrInvalidInput)

	assert.NoError(t, common.NewValidator().Field("name", "ok", common.Required).Error())
}

func TestLoggerWithRun(t *testing.T) {
	var buf bytes.Buffer
	logger := common.NewLogger(&buf, "json", "debug")

	ctx := common.WithContentHash(common.WithRunID(context.Background(), "run-42"), "abc")
	common.LoggerWithRun(ctx, logger).Debug("pipeline.test")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "run-42", rec["run_id"])
	assert.Equal(t, "pipeline.test", rec["msg"])
	assert.Equal(t, "abc", common.ContentHashFromContext(ctx))
	assert.Empty(t, common.RunIDFromContext(context.Background()))
}
