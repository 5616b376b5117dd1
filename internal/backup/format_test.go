package backup

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteRead_RoundTrip(t *testing.T) {
	c := testCollection("round-trip")

	var buf bytes.Buffer
	h, err := Write(&buf, c)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if h.Samples != 2 || h.Walkers != 6 {
		t.Errorf("header samples/walkers = %d/%d, want 2/6", h.Samples, h.Walkers)
	}
	if !strings.HasPrefix(h.Checksum, "sha256:") {
		t.Errorf("checksum = %q, want sha256: prefix", h.Checksum)
	}

	got, gotHeader, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if gotHeader.Name != "round-trip" {
		t.Errorf("header name = %q", gotHeader.Name)
	}
	if got.Config != c.Config {
		t.Errorf("config = %q, want %q", got.Config, c.Config)
	}
	if len(got.Samples) != 2 {
		t.Fatalf("samples = %d, want 2", len(got.Samples))
	}
	w := got.Samples[1].Walker(0)
	if w.Tip().X != 12 {
		t.Errorf("sample 1 root tip x = %v, want 12", w.Tip().X)
	}
	if err := got.Samples[0].Validate(); err != nil {
		t.Errorf("restored lineage invalid: %v", err)
	}
}

func TestRead_ChecksumMismatch(t *testing.T) {
	var buf bytes.Buffer
	if _, err := Write(&buf, testCollection("corrupt")); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()
	data[len(data)-5] ^= 0xff

	_, _, err := Read(bytes.NewReader(data))
	if err == nil || !strings.Contains(err.Error(), "checksum mismatch") {
		t.Errorf("Read() error = %v, want checksum mismatch", err)
	}
}

func TestRead_BadHeader(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no newline", `{"version":1}`},
		{"not json", "hello\n"},
		{"future version", `{"version":99}` + "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Read(strings.NewReader(tt.input)); err == nil {
				t.Error("Read() expected error")
			}
		})
	}
}

func TestWriteFile_ReadHeaderAndVerify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "a"+ArchiveExt)
	if _, err := WriteFile(path, testCollection("on-disk")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("archive permissions = %o, want 600", perm)
	}

	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("ReadHeader() error = %v", err)
	}
	if h.Name != "on-disk" || h.Version != FormatVersion {
		t.Errorf("header = %+v", h)
	}

	if err := Verify(path); err != nil {
		t.Errorf("Verify() error = %v", err)
	}

	data, _ := os.ReadFile(path)
	data[len(data)-1] ^= 0x01
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}
	if err := Verify(path); err == nil {
		t.Error("Verify() expected error after corruption")
	}
}

func TestReadFile_Missing(t *testing.T) {
	if _, _, err := ReadFile(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("ReadFile() expected error for missing file")
	}
}
