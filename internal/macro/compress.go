package macro

import (
	"bytes"
	"io"
	"os"
)

// Compression is a compressed file format recognised by %uncompress.
type Compression int

const (
	CompressedNot Compression = iota
	CompressedGzip
	CompressedBzip2
	CompressedZip
	CompressedLzma
	CompressedXz
	CompressedLzip
	CompressedLrzip
	Compressed7zip
)

// detectCompression reads the magic bytes of path. Unreadable and short
// files count as uncompressed.
func detectCompression(path string) Compression {
	f, err := os.Open(path) //nolint:gosec // G304: path is the argument of %uncompress
	if err != nil {
		return CompressedNot
	}
	defer f.Close()

	magic := make([]byte, 8)
	n, err := io.ReadFull(f, magic)
	if err != nil && n < len(magic) {
		return CompressedNot
	}
	return compressionOf(magic)
}

func compressionOf(magic []byte) Compression {
	switch {
	case bytes.HasPrefix(magic, []byte("BZh")):
		return CompressedBzip2
	case bytes.HasPrefix(magic, []byte("PK\x03\x04")):
		return CompressedZip
	case bytes.HasPrefix(magic, []byte("LRZI")):
		return CompressedLrzip
	case bytes.HasPrefix(magic, []byte("LZIP")):
		return CompressedLzip
	case bytes.HasPrefix(magic, []byte("7z\xbc\xaf\x27\x1c")):
		return Compressed7zip
	case bytes.HasPrefix(magic, []byte("\xfd7zXZ\x00")):
		return CompressedXz
	case bytes.HasPrefix(magic, []byte("\x5d\x00\x00")):
		return CompressedLzma
	case len(magic) >= 2 && magic[0] == 0x1f &&
		(magic[1] == 0x8b || magic[1] == 0x9e || magic[1] == 0x1e || magic[1] == 0xa0 || magic[1] == 0x9d):
		return CompressedGzip
	}
	return CompressedNot
}

func compressorCommand(c Compression) string {
	switch c {
	case CompressedGzip:
		return "%__gzip -dc"
	case CompressedBzip2:
		return "%__bzip2 -dc"
	case CompressedZip:
		return "%__unzip"
	case CompressedLzma, CompressedXz:
		return "%__xz -dc"
	case CompressedLzip:
		return "%__lzip -dc"
	case CompressedLrzip:
		return "%__lrzip -dqo-"
	case Compressed7zip:
		return "%__7zip x"
	}
	return "%__cat"
}
