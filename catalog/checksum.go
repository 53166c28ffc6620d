package catalog

import (
	"hash/crc32"
	"io"
	"os"
)

// crcTable is the IEEE CRC-32 table.
var crcTable = crc32.MakeTable(crc32.IEEE)

// Checksum returns the CRC-32 (IEEE) and length of everything read from r.
func Checksum(r io.Reader) (uint32, int64, error) {
	h := crc32.New(crcTable)
	n, err := io.Copy(h, r)
	if err != nil {
		return 0, n, err
	}
	return h.Sum32(), n, nil
}

// ChecksumFile is Checksum over the file at path.
func ChecksumFile(path string) (uint32, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	return Checksum(f)
}
