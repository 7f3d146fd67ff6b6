package drive

import (
	"math"
	"mime"
	"slices"
	"strings"

	"github.com/marmos91/dittodrive/pkg/store/catalog"
)

// DefaultMaxUploadSize is the default upload limit (10 MiB).
const DefaultMaxUploadSize int64 = 10 * 1024 * 1024

// DefaultAllowedTypes lists the media types accepted by default.
var DefaultAllowedTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"text/plain",
	"text/csv",
	"image/jpeg",
	"image/png",
	"image/gif",
}

// UploadLimits bounds what Upload accepts.
type UploadLimits struct {
	// MaxSize is the largest accepted upload in bytes.
	MaxSize int64 `mapstructure:"max_size" yaml:"max_size" validate:"gte=0"`

	// AllowedTypes is the media type allow-list. An empty list after
	// defaults are applied cannot happen; use DefaultAllowedTypes to extend.
	AllowedTypes []string `mapstructure:"allowed_types" yaml:"allowed_types"`
}

// DefaultUploadLimits returns the limits used when none are configured.
func DefaultUploadLimits() UploadLimits {
	return UploadLimits{
		MaxSize:      DefaultMaxUploadSize,
		AllowedTypes: slices.Clone(DefaultAllowedTypes),
	}
}

func (l UploadLimits) withDefaults() UploadLimits {
	out := l.clone()
	if out.MaxSize <= 0 {
		out.MaxSize = DefaultMaxUploadSize
	}
	if len(out.AllowedTypes) == 0 {
		out.AllowedTypes = slices.Clone(DefaultAllowedTypes)
	}
	for i, t := range out.AllowedTypes {
		out.AllowedTypes[i] = normalizeMediaType(t)
	}
	return out
}

func (l UploadLimits) clone() UploadLimits {
	return UploadLimits{MaxSize: l.MaxSize, AllowedTypes: slices.Clone(l.AllowedTypes)}
}

// Allows reports whether mediaType is on the allow-list. Parameters such
// as "; charset=utf-8" are ignored.
func (l UploadLimits) Allows(mediaType string) bool {
	return slices.Contains(l.AllowedTypes, normalizeMediaType(mediaType))
}

// CheckSize fails with a ValidationError when size is negative or exceeds
// MaxSize.
func (l UploadLimits) CheckSize(size int64) error {
	if size < 0 {
		return catalog.NewError(catalog.ErrValidation, "file size must not be negative")
	}
	if size > l.MaxSize {
		maxMB := int64(math.Round(float64(l.MaxSize) / (1024 * 1024)))
		return catalog.NewError(catalog.ErrValidation, "file is too large, maximum size is %dMB", maxMB)
	}
	return nil
}

// CheckType fails with a ValidationError when mediaType is not allowed.
func (l UploadLimits) CheckType(mediaType string) error {
	if !l.Allows(mediaType) {
		return catalog.NewError(catalog.ErrValidation, "file type not supported")
	}
	return nil
}

// normalizeMediaType lowercases the type and drops any parameters.
func normalizeMediaType(mediaType string) string {
	mediaType = strings.TrimSpace(mediaType)
	if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
		return parsed
	}
	return strings.ToLower(mediaType)
}

func requireName(kind, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", catalog.NewError(catalog.ErrValidation, "%s name is required", kind)
	}
	return name, nil
}
