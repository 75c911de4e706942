package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/agbru/megacalc/internal/sequence"
	"github.com/agbru/megacalc/internal/service"
)

const (
	// ResultTimestampLayout names result files, e.g. 20260119_153045.
	ResultTimestampLayout = "20060102_150405"
	// CompressedSuffix is appended to zstd-compressed result files.
	CompressedSuffix = ".zst"

	checksumPrefix = "Checksum (xxh64): "
	resultPrefix   = "Result ("
)

// ErrChecksumMismatch reports a result file whose value does not match the
// checksum in its header.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// OutputConfig holds configuration for result output.
type OutputConfig struct {
	// Dir receives the result file. Empty disables the file.
	Dir string
	// Compress writes the file zstd-compressed.
	Compress bool
	// Quiet prints only the value.
	Quiet bool
	// JSON prints a models.CalculationResult document.
	JSON bool
}

// ResultFileName returns the name of the result file for kind written at now.
func ResultFileName(now time.Time, kind sequence.Kind, compress bool) string {
	name := fmt.Sprintf("%s_%s.txt", now.Format(ResultTimestampLayout), kind)
	if compress {
		name += CompressedSuffix
	}
	return name
}

// WriteResultFile saves the full result with a header carrying the request,
// the timestamp, an xxh64 checksum of the value and the run metadata. A file
// that already exists is never overwritten; a numeric suffix is added instead.
//
// Parameters:
//   - dir: The destination directory, created if needed.
//   - req: The request that produced res.
//   - res: The calculation result.
//   - compress: Whether to zstd-compress the file.
//   - now: The timestamp used for the file name and header.
//
// Returns:
//   - string: The path of the written file.
//   - error: An error if the directory or file cannot be written.
func WriteResultFile(dir string, req sequence.Request, res sequence.Result, compress bool, now time.Time) (path string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, path, err := createUnique(dir, ResultFileName(now, req.Kind, compress))
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	var w io.Writer = file
	if compress {
		enc, err := zstd.NewWriter(file)
		if err != nil {
			return "", err
		}
		defer func() {
			if cerr := enc.Close(); err == nil && cerr != nil {
				err = cerr
			}
		}()
		w = enc
	}

	bw := bufio.NewWriter(w)
	writeReport(bw, req, res, now)
	if err := bw.Flush(); err != nil {
		return "", err
	}
	return path, nil
}

func createUnique(dir, name string) (*os.File, string, error) {
	base, ext := name, ""
	if i := strings.Index(name, "."); i >= 0 {
		base, ext = name[:i], name[i:]
	}
	for attempt := 0; ; attempt++ {
		candidate := name
		if attempt > 0 {
			candidate = fmt.Sprintf("%s_%d%s", base, attempt, ext)
		}
		path := filepath.Join(dir, candidate)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) && attempt < 100 {
			continue
		}
		return f, path, err
	}
}

func writeReport(w io.Writer, req sequence.Request, res sequence.Result, now time.Time) {
	value := res.Value.String()
	fmt.Fprintf(w, "Calculation Result\n")
	fmt.Fprintf(w, "Type: %s\n", req.Kind)
	fmt.Fprintf(w, "Request: %s\n", req)
	fmt.Fprintf(w, "Resolved index: %d\n", res.ResolvedIndex)
	fmt.Fprintf(w, "Timestamp: %s\n", now.Format(time.RFC3339))
	fmt.Fprintf(w, "%s%s\n", checksumPrefix, service.ChecksumString(value))
	fmt.Fprintf(w, "\n%s%d digits):\n%s\n", resultPrefix, len(value), value)
	fmt.Fprintf(w, "\nExecution time: %.3f seconds\n", res.Elapsed.Seconds())
	fmt.Fprintf(w, "Peak RAM usage: %.2f MB\n", float64(res.PeakMemory)/bytesPerMB)
}

// ReadResultFile returns the text of a result file, decompressing files
// that end in CompressedSuffix.
func ReadResultFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if !strings.HasSuffix(path, CompressedSuffix) {
		return io.ReadAll(f)
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return io.ReadAll(dec)
}

// VerifyResultFile recomputes the checksum of the value stored in a result
// file and compares it with the header.
//
// Returns:
//   - string: The stored checksum.
//   - error: ErrChecksumMismatch on mismatch, or a read or format error.
func VerifyResultFile(path string) (string, error) {
	data, err := ReadResultFile(path)
	if err != nil {
		return "", err
	}
	var want, value string
	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, checksumPrefix):
			want = strings.TrimPrefix(line, checksumPrefix)
		case strings.HasPrefix(line, resultPrefix) && i+1 < len(lines):
			value = lines[i+1]
		}
	}
	if want == "" || value == "" {
		return "", fmt.Errorf("%s: not a result file", path)
	}
	if got := service.ChecksumString(value); got != want {
		return want, fmt.Errorf("%s: stored %s, computed %s: %w", path, want, got, ErrChecksumMismatch)
	}
	return want, nil
}

// DisplayJSON prints res as an indented models.CalculationResult document.
func DisplayJSON(out io.Writer, req sequence.Request, res sequence.Result, resultFile string) error {
	doc := service.ResultDocument(req, res, true)
	doc.ResultFile = resultFile
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// DisplayResultWithConfig prints res in the configured mode and writes the
// result file.
//
// Parameters:
//   - out: The output writer.
//   - req: The request that produced res.
//   - res: The calculation result.
//   - cfg: Output configuration.
//   - now: The timestamp of the result file.
//
// Returns:
//   - error: An error if file or JSON output fails.
func DisplayResultWithConfig(out io.Writer, req sequence.Request, res sequence.Result, cfg OutputConfig, now time.Time) error {
	var path string
	if cfg.Dir != "" {
		var err error
		if path, err = WriteResultFile(cfg.Dir, req, res, cfg.Compress, now); err != nil {
			return err
		}
	}

	switch {
	case cfg.JSON:
		return DisplayJSON(out, req, res, path)
	case cfg.Quiet:
		DisplayQuietResult(out, res)
	default:
		DisplayResult(out, req, res)
		if path != "" {
			fmt.Fprintf(out, "\nFull result saved to: %s\n", path)
		}
	}
	return nil
}
