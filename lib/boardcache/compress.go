// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boardcache

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies how a snapshot payload is compressed. The
// name is stored in the compression column.
type Compression string

const (
	// CompressionNone stores the encoded snapshot as is. Chosen
	// automatically for payloads that do not shrink.
	CompressionNone Compression = "none"

	// CompressionZstd is the default: ticket lists are text-heavy and
	// compress well.
	CompressionZstd Compression = "zstd"

	// CompressionLZ4 trades ratio for speed.
	CompressionLZ4 Compression = "lz4"
)

// ParseCompression validates a configured compression name. The empty
// string selects zstd.
func ParseCompression(name string) (Compression, error) {
	switch Compression(name) {
	case "":
		return CompressionZstd, nil
	case CompressionNone, CompressionZstd, CompressionLZ4:
		return Compression(name), nil
	}
	return "", fmt.Errorf("unknown compression %q (want zstd, lz4, or none)", name)
}

var errIncompressible = errors.New("data is incompressible")

// zstd.Encoder and zstd.Decoder are safe for concurrent use of
// EncodeAll and DecodeAll.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("boardcache: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("boardcache: zstd decoder initialization failed: " + err.Error())
	}
}

// compress returns data compressed with algorithm, falling back to
// CompressionNone when the result would not be smaller.
func compress(data []byte, algorithm Compression) ([]byte, Compression, error) {
	var (
		compressed []byte
		err        error
	)
	switch algorithm {
	case CompressionNone:
		return data, CompressionNone, nil
	case CompressionZstd:
		compressed = zstdEncoder.EncodeAll(data, nil)
		if len(compressed) >= len(data) {
			err = errIncompressible
		}
	case CompressionLZ4:
		compressed, err = compressLZ4(data)
	default:
		return nil, "", fmt.Errorf("unsupported compression %q", algorithm)
	}
	if errors.Is(err, errIncompressible) {
		return data, CompressionNone, nil
	}
	if err != nil {
		return nil, "", err
	}
	return compressed, algorithm, nil
}

func compressLZ4(data []byte) ([]byte, error) {
	destination := make([]byte, lz4.CompressBlockBound(len(data)))
	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock reports 0 for incompressible input.
	if written == 0 || written >= len(data) {
		return nil, errIncompressible
	}
	return destination[:written], nil
}

// decompress reverses compress. size is the length of the original
// data and is verified.
func decompress(payload []byte, algorithm Compression, size int) ([]byte, error) {
	switch algorithm {
	case CompressionNone:
		if len(payload) != size {
			return nil, fmt.Errorf("uncompressed payload is %d bytes, expected %d", len(payload), size)
		}
		return payload, nil
	case CompressionZstd:
		result, err := zstdDecoder.DecodeAll(payload, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(result) != size {
			return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), size)
		}
		return result, nil
	case CompressionLZ4:
		destination := make([]byte, size)
		read, err := lz4.UncompressBlock(payload, destination)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if read != size {
			return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, size)
		}
		return destination, nil
	}
	return nil, fmt.Errorf("unsupported compression %q", algorithm)
}
