// Package source turns project files into the in-memory model. Each file
// format has a Reader; the Registry maps format names to reader factories.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/trabalhosfenix/planconv/internal/model"
	"github.com/trabalhosfenix/planconv/internal/source/mpx"
	"github.com/trabalhosfenix/planconv/internal/source/mspdi"
	"github.com/trabalhosfenix/planconv/internal/utils"
)

// Format names a project file format.
type Format string

const (
	FormatAuto  Format = "auto"
	FormatMSPDI Format = "mspdi"
	FormatMPX   Format = "mpx"
	FormatMPP   Format = "mpp"
)

var (
	// ErrUnknownFormat is returned when neither content nor extension identify the file.
	ErrUnknownFormat = errors.New("unknown project file format")
	// ErrUnsupportedFormat is returned for recognized formats without a reader.
	ErrUnsupportedFormat = errors.New("unsupported project file format")
)

// Reader decodes one project from a stream.
type Reader interface {
	Read(ctx context.Context, r io.Reader) (*model.Project, error)
}

// Factory creates a Reader for the given options.
type Factory func(opts Options) (Reader, error)

// Registry holds the available readers by format.
var Registry = map[Format]Factory{
	FormatMSPDI: func(Options) (Reader, error) {
		return mspdi.NewReader(), nil
	},
	FormatMPX: func(opts Options) (Reader, error) {
		return mpx.NewReader(opts.Encoding), nil
	},
}

var descriptions = map[Format]string{
	FormatMSPDI: "Microsoft Project XML (.xml)",
	FormatMPX:   "MPX exchange format (.mpx)",
	FormatMPP:   "Microsoft Project binary (.mpp, .mpt), not supported",
}

// Describe returns a one-line description of a format.
func Describe(f Format) string {
	if d, ok := descriptions[f]; ok {
		return d
	}
	return string(f)
}

// Formats returns the registered formats in sorted order.
func Formats() []Format {
	out := make([]Format, 0, len(Registry))
	for f := range Registry {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseFormat resolves a configured format name or alias.
func ParseFormat(name string) (Format, error) {
	normalized, ok := utils.NormalizeFormat(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
	return Format(normalized), nil
}

// Options controls how a file is read.
type Options struct {
	// Format forces a reader. Empty or "auto" detects it.
	Format string
	// Encoding overrides the character set of text formats.
	Encoding string
}

// ReadError reports a failure to read or decode an input file.
type ReadError struct {
	Path   string
	Format Format
	Err    error
}

func (e *ReadError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("read %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("read %s (%s): %v", e.Path, e.Format, e.Err)
}

// Unwrap returns the underlying error.
func (e *ReadError) Unwrap() error {
	return e.Err
}

// Open reads the project at path. The format is forced by opts or detected.
func Open(ctx context.Context, path string, opts Options) (*model.Project, Format, error) {
	format, err := ParseFormat(opts.Format)
	if err != nil {
		return nil, "", &ReadError{Path: path, Err: err}
	}
	if format == FormatAuto {
		if format, err = Detect(path); err != nil {
			return nil, format, &ReadError{Path: path, Format: format, Err: err}
		}
	}

	factory, ok := Registry[format]
	if !ok {
		return nil, format, &ReadError{Path: path, Format: format, Err: unsupported(format)}
	}
	reader, err := factory(opts)
	if err != nil {
		return nil, format, &ReadError{Path: path, Format: format, Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, format, &ReadError{Path: path, Format: format, Err: err}
	}
	defer f.Close()

	project, err := reader.Read(ctx, f)
	if err != nil {
		return nil, format, &ReadError{Path: path, Format: format, Err: err}
	}
	return project, format, nil
}

func unsupported(f Format) error {
	if f == FormatMPP {
		return fmt.Errorf("%w: binary .mpp files cannot be read, save the plan as XML or MPX", ErrUnsupportedFormat)
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
}
