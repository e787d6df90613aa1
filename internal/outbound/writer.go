package outbound

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"

	"github.com/wonny/fossbatch/internal/contracts"
)

// Encoding is the byte encoding of an outbound file
type Encoding int

const (
	// EncodingASCII rejects any non-ASCII character
	EncodingASCII Encoding = iota
	// EncodingEUCKR is used for files carrying Korean text
	EncodingEUCKR
)

// String implements fmt.Stringer
func (e Encoding) String() string {
	if e == EncodingEUCKR {
		return "euc-kr"
	}
	return "ascii"
}

// EncodingFor returns the encoding of an operation's file
func EncodingFor(p contracts.ProcessType) Encoding {
	switch p {
	case contracts.ProcessSendMPList, contracts.ProcessSendReport, contracts.ProcessSendMPInfoEOF:
		return EncodingEUCKR
	}
	return EncodingASCII
}

// LocalPath is where a file is staged before upload
func LocalPath(dir, filename string) string {
	return filepath.Join(dir, filename+".csv")
}

// WriteFile writes one line per text, each terminated by "\n", and returns the path
func WriteFile(dir, filename string, texts []string, enc Encoding) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}

	path := LocalPath(dir, filename)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}

	if err := writeLines(f, texts, enc); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write %s: %w", filename, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}

func writeLines(w io.Writer, texts []string, enc Encoding) error {
	var out io.Writer = w
	var encoder *transform.Writer
	if enc == EncodingEUCKR {
		encoder = transform.NewWriter(w, korean.EUCKR.NewEncoder())
		out = encoder
	}

	buf := bufio.NewWriter(out)
	for i, text := range texts {
		if enc == EncodingASCII {
			if err := checkASCII(text); err != nil {
				return fmt.Errorf("line %d: %w", i+1, err)
			}
		}
		if _, err := buf.WriteString(text + "\n"); err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
	}
	if err := buf.Flush(); err != nil {
		return err
	}

	if encoder != nil {
		return encoder.Close()
	}
	return nil
}

func checkASCII(s string) error {
	for i, r := range s {
		if r >= utf8.RuneSelf {
			return fmt.Errorf("non-ascii character %q at byte %d", r, i)
		}
	}
	return nil
}
