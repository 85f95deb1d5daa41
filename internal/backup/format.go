package backup

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nvandessel/lvlup/internal/constants"
)

// Format version constants.
const (
	FormatV1 = 1 // plain JSON payload
	FormatV2 = 2 // header line + gzip payload
)

// MaxDecompressedSize is the maximum allowed size of a decoded payload (200MB).
const MaxDecompressedSize = 200 * 1024 * 1024

// changelogHeader seeds the log when a backup carries no lines.
const changelogHeader = constants.ChangeLogHeader

// Header is the plain-text first line of a V2 backup file.
type Header struct {
	Version      int       `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	Checksum     string    `json:"checksum"`
	StatCount    int       `json:"stat_count"`
	LogLineCount int       `json:"log_line_count"`
	TotalLevel   int       `json:"total_level"`
	Compressed   bool      `json:"compressed"`
}

// DetectFormat reads the first line of a file to determine V1 vs V2.
// V2 files start with a header line carrying "version":2. V1 files are
// plain JSON starting with '{'.
func DetectFormat(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	first, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("reading first line: %w", err)
	}
	first = strings.TrimSpace(first)
	if first == "" {
		return 0, fmt.Errorf("file is empty")
	}

	var header Header
	if err := json.Unmarshal([]byte(first), &header); err == nil && header.Version == FormatV2 {
		return FormatV2, nil
	}
	if first[0] == '{' {
		return FormatV1, nil
	}
	return 0, fmt.Errorf("unrecognized backup format")
}

// WriteV1 writes p as indented JSON.
func WriteV1(path string, p *Payload) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}
	return writeBackupFile(path, append(data, '\n'))
}

// ReadV1 reads a plain JSON backup.
func ReadV1(path string) (*Payload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	data, err := readLimited(f)
	if err != nil {
		return nil, err
	}

	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing backup data: %w", err)
	}
	if p.Version != FormatV1 {
		return nil, fmt.Errorf("expected V1 format, got version %d", p.Version)
	}
	return &p, nil
}

// WriteV2 writes p as a header line followed by the gzip-compressed payload.
func WriteV2(path string, p *Payload) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	var compressed bytes.Buffer
	gzw, err := gzip.NewWriterLevel(&compressed, gzip.DefaultCompression)
	if err != nil {
		return fmt.Errorf("creating gzip writer: %w", err)
	}
	if _, err := gzw.Write(payload); err != nil {
		return fmt.Errorf("compressing payload: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("closing gzip writer: %w", err)
	}

	header := Header{
		Version:      FormatV2,
		CreatedAt:    p.CreatedAt,
		Checksum:     checksum(compressed.Bytes()),
		LogLineCount: len(p.LogLines),
		Compressed:   true,
	}
	if p.Snapshot != nil {
		header.StatCount = countStats(p.Snapshot)
		header.TotalLevel = p.Snapshot.TotalLevel
	}

	headerBytes, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("marshaling header: %w", err)
	}

	var out bytes.Buffer
	out.Write(headerBytes)
	out.WriteByte('\n')
	out.Write(compressed.Bytes())
	return writeBackupFile(path, out.Bytes())
}

// ReadV2 reads a V2 backup file, verifies the checksum, and decompresses the payload.
func ReadV2(path string) (*Payload, error) {
	header, compressedData, err := readV2Parts(path)
	if err != nil {
		return nil, err
	}
	if actual := checksum(compressedData); actual != header.Checksum {
		return nil, fmt.Errorf("checksum mismatch: expected %s, got %s", header.Checksum, actual)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(compressedData))
	if err != nil {
		return nil, fmt.Errorf("creating gzip reader: %w", err)
	}
	defer gzr.Close()

	decompressed, err := readLimited(gzr)
	if err != nil {
		return nil, err
	}

	var p Payload
	if err := json.Unmarshal(decompressed, &p); err != nil {
		return nil, fmt.Errorf("parsing backup data: %w", err)
	}
	return &p, nil
}

// ReadV2Header reads only the header line of a V2 backup file.
func ReadV2Header(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	return readHeader(bufio.NewReader(f))
}

// VerifyChecksum checks the integrity of a V2 backup file without decompressing it.
func VerifyChecksum(path string) error {
	header, compressedData, err := readV2Parts(path)
	if err != nil {
		return err
	}
	if actual := checksum(compressedData); actual != header.Checksum {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", header.Checksum, actual)
	}
	return nil
}

func readV2Parts(path string) (*Header, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	header, err := readHeader(reader)
	if err != nil {
		return nil, nil, err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, nil, fmt.Errorf("reading compressed payload: %w", err)
	}
	return header, data, nil
}

func readHeader(r *bufio.Reader) (*Header, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("reading header line: %w", err)
	}

	var header Header
	if err := json.Unmarshal(bytes.TrimSpace(line), &header); err != nil {
		return nil, fmt.Errorf("parsing header: %w", err)
	}
	if header.Version != FormatV2 {
		return nil, fmt.Errorf("expected V2 format, got version %d", header.Version)
	}
	return &header, nil
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxDecompressedSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading payload: %w", err)
	}
	if int64(len(data)) > MaxDecompressedSize {
		return nil, fmt.Errorf("payload exceeds maximum size of %d bytes", MaxDecompressedSize)
	}
	return data, nil
}

func checksum(data []byte) string {
	hash := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(hash[:])
}

// writeBackupFile writes data with owner-only permissions, creating dirs.
func writeBackupFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
