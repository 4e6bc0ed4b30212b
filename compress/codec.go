package compress

import (
	"fmt"
	"time"

	"github.com/trailcask/trailcask/format"
)

// Compressor provides high-performance compression and decompression for trail section payloads.
//
// The interface is optimized for a trail store's low-entropy section payloads (spec.md
// §4.3, §4.11) where:
//   - Lexicon value-bytes payloads: concatenated field values, often repetitive across
//     a corpus (e.g. enum-like categorical fields)
//   - Page-index payloads: posting-list bytes for the coarse bitmap index
//   - Payload sizes: Usually 1KB-64KB per payload
type Compressor interface {
	// Compress compresses the input data and returns the compressed result.
	//
	// The input data typically represents a complete section payload (lexicon value bytes
	// or page-index postings)
	// that has already been encoded using the appropriate encoding strategy.
	//
	// Memory management:
	//   - Returned slice is newly allocated and owned by the caller
	//   - Input slice is not modified
	//   - Internal buffers may be reused for efficiency
	Compress(data []byte) ([]byte, error)
}

// Decompressor provides high-performance decompression for compressed section payload.
//
// This interface mirrors the Compressor interface but focuses on the decompression
// operation. Separate interfaces allow for asymmetric implementations where
// compression and decompression may have different performance characteristics
// or resource requirements.
//
// Example:
//
//	decompressor := NewZstdCompressor()
//	originalData, err := decompressor.Decompress(compressedPayload)
//	if err != nil {
//	    return fmt.Errorf("decompression failed: %w", err)
//	}
//
// Thread Safety: Decompressor implementations must be safe for concurrent use
// or document their thread safety requirements clearly.
type Decompressor interface {
	// Decompress decompresses the input data and returns the original result.
	//
	// The input data should be previously compressed using the same compression
	// algorithm. The decompressor validates the data format and returns an error
	// if the data is corrupted or uses an incompatible format.
	//
	// Performance expectations:
	//   - Decompression is typically 2-5x faster than compression
	//   - Memory overhead: 1-2x output size for decompression buffers
	//   - Output size: Determined by original data size (stored in compressed format)
	//
	// Error conditions:
	//   - Returns error if input data is corrupted or invalid
	//   - Returns error if data was compressed with incompatible algorithm
	//   - Returns error if decompression buffer allocation fails
	//
	// Memory management:
	//   - Returned slice is newly allocated and owned by the caller
	//   - Input slice is not modified
	//   - Internal buffers may be reused for efficiency
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
//
// This interface is useful for implementations that can handle both operations
// efficiently with shared internal state or optimizations.
type Codec interface {
	Compressor
	Decompressor
}

// CompressionStats provides detailed information about compression operations.
//
// This is useful for monitoring, profiling, and optimization of compression
// performance in production time-series systems.
type CompressionStats struct {
	// Algorithm identifies the compression algorithm used
	Algorithm format.CompressionType

	// OriginalSize is the size of input data before compression
	OriginalSize int64

	// CompressedSize is the size of data after compression
	CompressedSize int64

	// Ratio is the ratio of compressed size to original size (< 1.0 for compression)
	Ratio float64

	// CompressionTime is the time taken to compress the data
	CompressionTimeNs int64

	// DecompressionTime is the time taken to decompress the data (if applicable)
	DecompressionTimeNs int64
}

// CompressionRatio returns the compression ratio (compressed size / original size).
//
// Values less than 1.0 indicate successful compression.
// Values equal to 1.0 indicate no compression benefit.
// Values greater than 1.0 indicate compression overhead (rare for time-series data).
//
// Returns:
//   - float64: Compression ratio (0.0 if original size is zero)
func (s CompressionStats) CompressionRatio() float64 {
	if s.OriginalSize == 0 {
		return 0.0
	}

	return float64(s.CompressedSize) / float64(s.OriginalSize)
}

// SpaceSavings returns the space savings as a percentage (0-100%).
//
// Higher values indicate better compression.
//
// Returns:
//   - float64: Space savings percentage (0-100)
func (s CompressionStats) SpaceSavings() float64 {
	return (1.0 - s.CompressionRatio()) * 100.0
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec retrieves a built-in Codec for the specified compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}

// TagCompress prefixes raw with a one-byte format.CompressionType tag
// identifying, per section, which codec (if any) TagDecompress must invert,
// and reports a CompressionStats describing the operation (spec.md §6's
// per-section compression, SPEC_FULL.md's supplemented "compression stats"
// feature: a build that enables section compression can inspect what it
// bought). When t is format.CompressionNone, or compression is unavailable
// or does not help, the tag is format.CompressionNone and raw follows
// unmodified; this is how a trail store's lexicon and page-index sections
// (spec.md §6) are written.
func TagCompress(raw []byte, t format.CompressionType) ([]byte, CompressionStats) {
	stats := CompressionStats{Algorithm: format.CompressionNone, OriginalSize: int64(len(raw))}

	if t == format.CompressionNone {
		stats.CompressedSize = stats.OriginalSize + 1

		return append([]byte{byte(format.CompressionNone)}, raw...), stats
	}

	codec, err := GetCodec(t)
	if err != nil {
		stats.CompressedSize = stats.OriginalSize + 1

		return append([]byte{byte(format.CompressionNone)}, raw...), stats
	}

	start := time.Now()
	out, err := codec.Compress(raw)
	elapsed := time.Since(start)
	if err != nil || len(out) >= len(raw) {
		stats.CompressedSize = stats.OriginalSize + 1

		return append([]byte{byte(format.CompressionNone)}, raw...), stats
	}

	stats.Algorithm = t
	stats.CompressedSize = int64(len(out)) + 1
	stats.CompressionTimeNs = elapsed.Nanoseconds()

	return append([]byte{byte(t)}, out...), stats
}

// TagDecompress strips and interprets the one-byte format.CompressionType
// tag TagCompress prefixed a section's bytes with, inverting whichever codec
// (if any) was applied. Returns an error if the tagged codec is unknown or
// decompression fails, which callers should treat as section corruption.
func TagDecompress(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return raw, nil
	}
	tag := format.CompressionType(raw[0])
	payload := raw[1:]
	if tag == format.CompressionNone {
		return payload, nil
	}
	codec, err := GetCodec(tag)
	if err != nil {
		return nil, fmt.Errorf("tagged section uses %w", err)
	}

	return codec.Decompress(payload)
}
