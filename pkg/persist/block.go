package persist

import (
	"errors"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// ErrIncompressible is returned when LZ4 cannot shrink a block.
var ErrIncompressible = errors.New("persist: block is incompressible")

// CompressBlock compresses data as a single raw LZ4 block.
func CompressBlock(data []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(data)))

	var c lz4.Compressor

	n, err := c.CompressBlock(data, dst)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}

	if n == 0 {
		return nil, ErrIncompressible
	}

	return dst[:n], nil
}

// DecompressBlock reverses CompressBlock; size is the original length.
func DecompressBlock(block []byte, size int) ([]byte, error) {
	dst := make([]byte, size)

	n, err := lz4.UncompressBlock(block, dst)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}

	return dst[:n], nil
}
