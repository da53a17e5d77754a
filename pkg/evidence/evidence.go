// Package evidence checks uploaded evidence files and renders the metadata
// lines that are shown to the model. File contents are only ever counted,
// never decoded.
package evidence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"strings"

	"github.com/charmbracelet/log"

	"aijudge/pkg/utils"
)

const (
	MaxFiles    = 3
	MaxFileSize = 8 << 20
)

type Kind string

const (
	KindPDF   Kind = "PDF"
	KindImage Kind = "IMAGE"
)

var kinds = map[string]Kind{
	"jpg":  KindImage,
	"jpeg": KindImage,
	"png":  KindImage,
	"webp": KindImage,
	"gif":  KindImage,
	"bmp":  KindImage,
	"heic": KindImage,
	"heif": KindImage,
	"pdf":  KindPDF,
}

// Descriptor is the metadata of one accepted file.
type Descriptor struct {
	Index       int
	Filename    string
	Kind        Kind
	ContentType string
	Size        int64
}

func (d Descriptor) String() string {
	ct := d.ContentType
	if ct == "" {
		ct = "unknown"
	}
	return fmt.Sprintf("%d. %s (%s, %s, %d bytes)", d.Index, d.Filename, d.Kind, ct, d.Size)
}

// Lines renders one line per descriptor, in order.
func Lines(ds []Descriptor) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.String()
	}
	return out
}

// Validate checks every file in order and stops at the first violation.
// Validation failures unwrap to ErrInvalid; anything else is an I/O error.
func Validate(ctx context.Context, files []*multipart.FileHeader) ([]Descriptor, error) {
	if len(files) > MaxFiles {
		return nil, &TooManyFilesError{Count: len(files)}
	}

	out := make([]Descriptor, 0, len(files))
	for i, fh := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d, err := inspect(fh)
		if err != nil {
			return nil, err
		}
		d.Index = i + 1
		out = append(out, d)
	}
	return out, nil
}

func inspect(fh *multipart.FileHeader) (Descriptor, error) {
	name := utils.SanitizeFilename(fh.Filename)
	if name == "" {
		name = "unnamed"
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	kind, ok := kinds[ext]
	if !ok {
		return Descriptor{}, &UnsupportedFormatError{Filename: name}
	}

	size, err := measure(fh)
	if err != nil {
		return Descriptor{}, fmt.Errorf("read %s: %w", name, err)
	}
	if size == 0 {
		return Descriptor{}, &EmptyFileError{Filename: name}
	}
	if size > MaxFileSize {
		return Descriptor{}, &FileTooLargeError{Filename: name, Limit: MaxFileSize}
	}

	return Descriptor{
		Filename:    name,
		Kind:        kind,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        size,
	}, nil
}

var openFile = func(fh *multipart.FileHeader) (io.ReadCloser, error) {
	return fh.Open()
}

// measure counts at most MaxFileSize+1 bytes.
func measure(fh *multipart.FileHeader) (int64, error) {
	f, err := openFile(fh)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Warn("closing evidence file", "filename", fh.Filename, "err", err)
		}
	}()
	return io.Copy(io.Discard, io.LimitReader(f, MaxFileSize+1))
}

// ErrInvalid is the parent of every validation error in this package.
var ErrInvalid = errors.New("invalid evidence")

type TooManyFilesError struct{ Count int }

func (e *TooManyFilesError) Error() string {
	return fmt.Sprintf("too many evidence files: got %d, max %d files", e.Count, MaxFiles)
}
func (e *TooManyFilesError) Unwrap() error { return ErrInvalid }

type UnsupportedFormatError struct{ Filename string }

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported evidence format: %s (allowed: images or pdf)", e.Filename)
}
func (e *UnsupportedFormatError) Unwrap() error { return ErrInvalid }

type EmptyFileError struct{ Filename string }

func (e *EmptyFileError) Error() string {
	return fmt.Sprintf("evidence file is empty: %s", e.Filename)
}
func (e *EmptyFileError) Unwrap() error { return ErrInvalid }

type FileTooLargeError struct {
	Filename string
	Limit    int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("evidence file too large: %s (max %d MiB)", e.Filename, e.Limit>>20)
}
func (e *FileTooLargeError) Unwrap() error { return ErrInvalid }
