package observability

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zapcore.Level
	}{
		{input: "DEBUG", want: zap.DebugLevel},
		{input: "debug", want: zap.DebugLevel},
		{input: " warn ", want: zap.WarnLevel},
		{input: "ERROR", want: zap.ErrorLevel},
		{input: "INFO", want: zap.InfoLevel},
		{input: "", want: zap.InfoLevel},
		{input: "nonsense", want: zap.InfoLevel},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			if got := parseLogLevel(tc.input).Level(); got != tc.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}
