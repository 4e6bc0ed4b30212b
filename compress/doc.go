// Package compress provides optional compression codecs for the low-entropy,
// non-hot-path sections of a trailcask store: lexicon payloads and the page
// index's posting-list payload. The trails section is never wrapped by this
// package; it is already Huffman-coded and an additional general-purpose
// compressor buys little on top of that.
//
// # Supported algorithms
//
//   - None: no compression (format.CompressionNone)
//   - Zstd: best ratio, moderate speed (format.CompressionZstd), via
//     github.com/klauspost/compress/zstd
//   - S2: balanced ratio and speed (format.CompressionS2), via
//     github.com/klauspost/compress/s2
//   - LZ4: fastest decompression (format.CompressionLZ4), via
//     github.com/pierrec/lz4/v4
//
// # Architecture
//
//	type Compressor interface {
//	    Compress(data []byte) ([]byte, error)
//	}
//
//	type Decompressor interface {
//	    Decompress(data []byte) ([]byte, error)
//	}
//
//	type Codec interface {
//	    Compressor
//	    Decompressor
//	}
//
// GetCodec looks up a built-in Codec by format.CompressionType, letting an
// encoder or reader select the algorithm recorded in a store's info section
// without a type switch at every call site. TagCompress/TagDecompress build
// on GetCodec to prefix and strip the one-byte tag a section's bytes carry,
// and TagCompress additionally reports a CompressionStats for the operation.
//
// # Thread safety
//
// All codec implementations are safe for concurrent use.
package compress
