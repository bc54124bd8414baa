package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestJSONFormatter(t *testing.T) {
	formatter := NewFormatter(FormatJSON)

	var buf bytes.Buffer
	err := formatter.FormatTo(&buf, map[string]string{"key": "value"})
	if err != nil {
		t.Fatalf("FormatTo failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"key": "value"`) {
		t.Errorf("Unexpected JSON output: %s", buf.String())
	}
}

func TestTextFormatter(t *testing.T) {
	formatter := NewFormatter(FormatText)

	out, err := formatter.Format("hello")
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if string(out) != "hello\n" {
		t.Errorf("Unexpected text output: %q", out)
	}
}

func TestNewFormatter_UnknownFormatFallsBackToText(t *testing.T) {
	if _, ok := NewFormatter("yaml").(*TextFormatter); !ok {
		t.Error("Expected text formatter for unknown format")
	}
}
