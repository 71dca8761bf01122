package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"table", FormatTable},
		{"", FormatTable},
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"yaml", FormatYAML},
		{"yml", FormatYAML},
		{" table ", FormatTable},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if err != nil {
			t.Errorf("ParseFormat(%q) returned error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}

	if _, err := ParseFormat("xml"); err == nil {
		t.Error("Expected error for invalid format")
	}
}

func TestPrinterJSON(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatJSON)

	if err := p.Print(map[string]int{"events": 42}); err != nil {
		t.Fatalf("Print failed: %v", err)
	}

	var decoded map[string]int
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if decoded["events"] != 42 {
		t.Errorf("Expected events=42, got %d", decoded["events"])
	}
}

func TestPrinterYAML(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatYAML)

	if err := p.Print(map[string]string{"status": "completed"}); err != nil {
		t.Fatalf("Print failed: %v", err)
	}

	var decoded map[string]string
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Output is not valid YAML: %v", err)
	}
	if decoded["status"] != "completed" {
		t.Errorf("Expected status=completed, got %q", decoded["status"])
	}
}

func TestPrinterTableFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatTable)

	// Non-TableRenderer values render as JSON rather than failing.
	if err := p.Print([]string{"a", "b"}); err != nil {
		t.Fatalf("Print failed: %v", err)
	}
	if !strings.Contains(buf.String(), "\"a\"") {
		t.Errorf("Expected JSON fallback, got %q", buf.String())
	}
}

func TestPrinterUnknownFormat(t *testing.T) {
	p := NewPrinter(&bytes.Buffer{}, Format("csv"))
	if err := p.Print("data"); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestPrintTable(t *testing.T) {
	table := NewTableData("ID", "STATUS")
	table.AddRow("1", "completed")
	table.AddRow("2", "failed")

	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatTable)
	if err := p.Print(table); err != nil {
		t.Fatalf("Print failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"ID", "STATUS", "completed", "failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("Table output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintln(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatTable)
	p.Println("No ingest jobs found.")
	if buf.String() != "No ingest jobs found.\n" {
		t.Errorf("Unexpected Println output: %q", buf.String())
	}
}
