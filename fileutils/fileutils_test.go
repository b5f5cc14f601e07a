package fileutils

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteJSONFileAtomic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "out", "report.json")

	if err := WriteJSONFileAtomic(path, map[string]int{"messages": 2}, false); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "{\"messages\":2}\n" {
		t.Fatalf("content=%q", string(b))
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries=%d, want 1 (temp file left behind?)", len(entries))
	}
}

func TestCheckOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "records.json")

	if err := CheckOutput(path, false); err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := CheckOutput(path, false); !errors.Is(err, ErrExists) {
		t.Fatalf("err=%v, want ErrExists", err)
	}
	if err := CheckOutput(path, true); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if !FileExists(path) {
		t.Fatalf("FileExists=false, want true")
	}
}

func TestDecodeModelJSON(t *testing.T) {
	t.Parallel()

	var out struct {
		Compound float64 `json:"compound"`
	}
	if err := DecodeModelJSON("Sure!\n```json\n{\"compound\": 0.5}\n```", &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Compound != 0.5 {
		t.Fatalf("compound=%v, want 0.5", out.Compound)
	}
	if err := DecodeModelJSON("   ", &out); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("err=%v, want io.ErrUnexpectedEOF", err)
	}
	if err := DecodeModelJSON("no json here", &out); !errors.Is(err, ErrNoJSONObject) {
		t.Fatalf("err=%v, want ErrNoJSONObject", err)
	}
}

func TestDecodeModelJSON_FirstObjectWins(t *testing.T) {
	t.Parallel()

	cases := map[string]float64{
		`{"compound":0.2} and {"x":1}`:                0.2,
		"scores {not json} then {\"compound\": -0.4}": -0.4,
		"```json\n{\"compound\": 1}\n```\nDone.":      1,
	}
	for in, want := range cases {
		var out struct {
			Compound float64 `json:"compound"`
		}
		if err := DecodeModelJSON(in, &out); err != nil {
			t.Fatalf("DecodeModelJSON(%q): %v", in, err)
		}
		if out.Compound != want {
			t.Fatalf("DecodeModelJSON(%q) compound=%v, want %v", in, out.Compound, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	if got := Truncate("  héllo wörld ", 5); got != "héllo…" {
		t.Fatalf("Truncate=%q", got)
	}
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("Truncate=%q", got)
	}
}
