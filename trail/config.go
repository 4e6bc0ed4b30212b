package trail

import (
	"github.com/trailcask/trailcask/errs"
	"github.com/trailcask/trailcask/format"
	"github.com/trailcask/trailcask/internal/options"
)

// EncoderConfig holds Encoder build parameters, set via functional options
// the way mebo's blob encoders are configured (internal/options.Option[T]).
type EncoderConfig struct {
	layout               format.Layout
	sectionCompression   format.CompressionType
	pageIndexCompression format.CompressionType
	declaredFields       []string
}

// EncoderOption configures an Encoder at construction time.
type EncoderOption = options.Option[*EncoderConfig]

func defaultEncoderConfig() EncoderConfig {
	return EncoderConfig{
		layout:               format.LayoutPackage,
		sectionCompression:   format.CompressionNone,
		pageIndexCompression: format.CompressionNone,
	}
}

// WithLayout selects directory-of-files or single-package-file output.
func WithLayout(l format.Layout) EncoderOption {
	return options.NoError[*EncoderConfig](func(c *EncoderConfig) { c.layout = l })
}

// WithSectionCompression sets the codec applied to lexicon section payloads
// (spec.md's Non-goals exclude a general compression layer over the hot
// trails stream, but lexicon payloads are plain bytes and benefit from it).
func WithSectionCompression(t format.CompressionType) EncoderOption {
	return options.NoError[*EncoderConfig](func(c *EncoderConfig) { c.sectionCompression = t })
}

// WithPageIndexCompression sets the codec applied to the page index section.
func WithPageIndexCompression(t format.CompressionType) EncoderOption {
	return options.NoError[*EncoderConfig](func(c *EncoderConfig) { c.pageIndexCompression = t })
}

// WithFields declares a store's field names up front, in the given order,
// mirroring spec.md §4.6's "open(path, field_names[0..F])". Each name is
// validated against the same charset/reserved-name rule AddEvent's lazy
// field creation applies, and a name repeated in the list is rejected with
// errs.ErrDuplicateField. A field not declared here is still created lazily
// on first use, so WithFields is optional, not the only field-creation path.
func WithFields(names ...string) EncoderOption {
	return options.New[*EncoderConfig](func(c *EncoderConfig) error {
		seen := make(map[string]struct{}, len(names))
		for _, name := range names {
			if err := validateFieldName(name); err != nil {
				return err
			}
			if _, ok := seen[name]; ok {
				return errs.ErrDuplicateField
			}
			seen[name] = struct{}{}
		}
		c.declaredFields = append(c.declaredFields, names...)

		return nil
	})
}
