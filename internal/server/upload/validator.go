// Package upload validates incoming files and names the objects they are
// stored under.
package upload

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bridgeclub/clubhouse/internal/common"
	"github.com/gabriel-vasile/mimetype"
)

// MaxUploadSize is the largest accepted file, in bytes (10 MiB).
const MaxUploadSize int64 = 10 << 20

// SniffLen is how many leading bytes Validate needs to classify content.
const SniffLen = 3072

// allowed maps each accepted extension to the content types it may carry.
// Office formats also accept the container type because the sniffer cannot
// always see past the first few kilobytes.
var allowed = map[string][]string{
	".png":  {"image/png"},
	".jpg":  {"image/jpeg"},
	".jpeg": {"image/jpeg"},
	".gif":  {"image/gif"},
	".webp": {"image/webp"},
	".pdf":  {"application/pdf"},
	".txt":  {"text/plain"},
	".csv":  {"text/csv", "text/plain"},
	".lin":  {"text/plain"},
	".pbn":  {"text/plain"},
	".doc":  {"application/msword", "application/x-ole-storage"},
	".xls":  {"application/vnd.ms-excel", "application/x-ole-storage"},
	".ppt":  {"application/vnd.ms-powerpoint", "application/x-ole-storage"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "application/zip"},
	".xlsx": {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "application/zip"},
	".pptx": {"application/vnd.openxmlformats-officedocument.presentationml.presentation", "application/zip"},
}

var allowedMIMEs = func() map[string]struct{} {
	set := make(map[string]struct{})
	for _, types := range allowed {
		for _, t := range types {
			set[t] = struct{}{}
		}
	}
	return set
}()

// AllowedExtensions lists the accepted extensions, sorted.
func AllowedExtensions() []string {
	out := make([]string, 0, len(allowed))
	for ext := range allowed {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Result describes a file that passed validation.
type Result struct {
	// Extension is lower-case and has no leading dot.
	Extension   string
	ContentType string
}

// Validate checks a file's declared size, its name and its sniffed content.
// head holds the first bytes of the file (at least SniffLen when the file is
// that long).
//
// The size ceiling is checked first (common.ErrFileTooLarge). The
// extension and the sniffed type must each be in the allow-set, and the
// sniffed type must be one the extension may carry; any failure there is
// common.ErrUnsupportedMediaType.
func Validate(size int64, name string, head []byte) (Result, error) {
	if size > MaxUploadSize {
		return Result{}, fmt.Errorf("%w: %d bytes exceeds %d", common.ErrFileTooLarge, size, MaxUploadSize)
	}
	if size <= 0 || len(head) == 0 {
		return Result{}, fmt.Errorf("%w: empty file", common.ErrorValidation)
	}

	ext := strings.ToLower(filepath.Ext(name))
	types, ok := allowed[ext]
	if !ok {
		return Result{}, fmt.Errorf("%w: extension %q", common.ErrUnsupportedMediaType, ext)
	}

	detected := mimetype.Detect(head)
	if !inAllowSet(detected) {
		return Result{}, fmt.Errorf("%w: content type %s", common.ErrUnsupportedMediaType, detected.String())
	}
	if !isOneOf(detected, types) {
		return Result{}, fmt.Errorf("%w: content type %s does not match extension %s", common.ErrUnsupportedMediaType, detected.String(), ext)
	}

	return Result{Extension: strings.TrimPrefix(ext, "."), ContentType: detected.String()}, nil
}

func inAllowSet(m *mimetype.MIME) bool {
	for t := range allowedMIMEs {
		if m.Is(t) {
			return true
		}
	}
	return false
}

// isOneOf reports whether m or one of its ancestors is in types, so text
// the sniffer narrows to text/csv still counts as text/plain.
func isOneOf(m *mimetype.MIME, types []string) bool {
	for ; m != nil; m = m.Parent() {
		for _, t := range types {
			if m.Is(t) {
				return true
			}
		}
	}
	return false
}
