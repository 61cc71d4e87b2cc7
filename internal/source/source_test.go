package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/trabalhosfenix/planconv/internal/export"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDetect(t *testing.T) {
	dir := t.TempDir()
	ole := append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, make([]byte, 512)...)

	tests := []struct {
		name string
		file string
		data []byte
		want Format
	}{
		{"mspdi by content", "plan.dat", []byte(`<?xml version="1.0"?><Project xmlns="http://schemas.microsoft.com/project"><Name>x</Name></Project>`), FormatMSPDI},
		{"mspdi without declaration", "plan", []byte("\n  <Project><Name>x</Name></Project>"), FormatMSPDI},
		{"mpx by content", "plan.txt", []byte("MPX,Microsoft Project,4.0,ANSI\r\n"), FormatMPX},
		{"mpx with bom", "plan.txt", append([]byte{0xEF, 0xBB, 0xBF}, []byte("MPX;x")...), FormatMPX},
		{"ole compound file", "plan.bin", ole, FormatMPP},
		{"xml extension", "plan.xml", []byte("not really xml"), FormatMSPDI},
		{"mpt extension", "template.MPT", []byte("garbage"), FormatMPP},
		{"mpx extension", "plan.mpx", []byte{}, FormatMPX},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.file, tt.data)
			got, err := Detect(path)
			if err != nil {
				t.Fatalf("Detect: %v", err)
			}
			if got != tt.want {
				t.Errorf("Detect = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectUnknown(t *testing.T) {
	dir := t.TempDir()

	path := writeFile(t, dir, "notes.txt", []byte("just some text"))
	_, err := Detect(path)
	if !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
	if !strings.Contains(err.Error(), "text/plain") {
		t.Errorf("expected detected MIME type in message, got %q", err)
	}

	path = writeFile(t, dir, "other.dat", []byte(`<?xml version="1.0"?><Workbook/>`))
	if _, err := Detect(path); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("non-Project XML should be unknown, got %v", err)
	}

	if _, err := Detect(filepath.Join(dir, "missing.xml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatAuto},
		{"xml", FormatMSPDI},
		{"MPX", FormatMPX},
		{"mpp", FormatMPP},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = (%q, %v), want %q", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseFormat("pdf"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestFormats(t *testing.T) {
	got := Formats()
	want := []Format{FormatMPX, FormatMSPDI}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Formats() = %v, want %v", got, want)
	}
	if !strings.Contains(Describe(FormatMPP), "not supported") {
		t.Errorf("unexpected description: %q", Describe(FormatMPP))
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("fixtures normalize identically", func(t *testing.T) {
		xmlProject, format, err := Open(ctx, filepath.Join("testdata", "demo.xml"), Options{})
		if err != nil {
			t.Fatalf("Open xml: %v", err)
		}
		if format != FormatMSPDI {
			t.Errorf("format = %q", format)
		}
		mpxProject, format, err := Open(ctx, filepath.Join("testdata", "demo.mpx"), Options{})
		if err != nil {
			t.Fatalf("Open mpx: %v", err)
		}
		if format != FormatMPX {
			t.Errorf("format = %q", format)
		}

		a := export.Normalize(xmlProject, export.Options{})
		b := export.Normalize(mpxProject, export.Options{})
		aJSON, _ := a.Marshal()
		bJSON, _ := b.Marshal()
		if string(aJSON) != string(bJSON) {
			t.Errorf("documents differ:\nmspdi: %s\nmpx:   %s", aJSON, bJSON)
		}
		if len(a.Tasks) != 2 || *a.Tasks[1].Predecessors != "1FI" || *a.Tasks[1].ResourceNames != "Carol" {
			t.Errorf("unexpected demo document: %s", aJSON)
		}
	})

	t.Run("forced format", func(t *testing.T) {
		_, _, err := Open(ctx, filepath.Join("testdata", "demo.xml"), Options{Format: "mpx"})
		var re *ReadError
		if !errors.As(err, &re) {
			t.Fatalf("expected *ReadError, got %v", err)
		}
		if re.Format != FormatMPX {
			t.Errorf("ReadError.Format = %q", re.Format)
		}
	})

	t.Run("mpp is unsupported", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "plan.mpp", []byte("whatever"))
		_, _, err := Open(ctx, path, Options{})
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("expected ErrUnsupportedFormat, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := Open(ctx, filepath.Join(t.TempDir(), "nope.xml"), Options{})
		var re *ReadError
		if !errors.As(err, &re) || !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected ReadError wrapping ErrNotExist, got %v", err)
		}
	})

	t.Run("corrupt input", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "broken.xml", []byte("<Project><Tasks><Task>"))
		_, _, err := Open(ctx, path, Options{})
		var re *ReadError
		if !errors.As(err, &re) {
			t.Errorf("expected *ReadError, got %v", err)
		}
	})

	t.Run("bad format option", func(t *testing.T) {
		_, _, err := Open(ctx, filepath.Join("testdata", "demo.xml"), Options{Format: "pdf"})
		if !errors.Is(err, ErrUnknownFormat) {
			t.Errorf("expected ErrUnknownFormat, got %v", err)
		}
	})
}
