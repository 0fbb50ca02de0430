// Package textenc turns text of unknown charset into UTF-8.
package textenc

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const sniffLen = 4096

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// NewUTF8Reader wraps r so that reads yield UTF-8.
//
// A byte-order mark decides first (UTF-8 BOM is dropped, UTF-16 is decoded).
// Input that is already valid UTF-8 passes through. Otherwise chardet picks a
// single-byte charset and Windows-1252 is the fallback.
func NewUTF8Reader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReaderSize(r, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("peek: %w", err)
	}

	switch {
	case bytes.HasPrefix(head, bomUTF8):
		_, _ = br.Discard(len(bomUTF8))
		return br, nil
	case bytes.HasPrefix(head, bomUTF16LE):
		return decode(br, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)), nil
	case bytes.HasPrefix(head, bomUTF16BE):
		return decode(br, unicode.UTF16(unicode.BigEndian, unicode.UseBOM)), nil
	}

	if validPrefix(head) {
		return br, nil
	}
	return decode(br, guess(head)), nil
}

// DecodeString is NewUTF8Reader for in-memory input.
func DecodeString(b []byte) (string, error) {
	r, err := NewUTF8Reader(bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if _, err := io.Copy(&sb, r); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	return sb.String(), nil
}

func decode(r io.Reader, enc encoding.Encoding) io.Reader {
	return transform.NewReader(r, enc.NewDecoder())
}

func guess(head []byte) encoding.Encoding {
	res, err := chardet.NewTextDetector().DetectBest(head)
	if err == nil {
		switch res.Charset {
		case "ISO-8859-9":
			return charmap.ISO8859_9
		case "ISO-8859-2":
			return charmap.ISO8859_2
		}
	}
	return charmap.Windows1252
}

// validPrefix tolerates a multi-byte rune cut at the sniff boundary.
func validPrefix(b []byte) bool {
	if utf8.Valid(b) {
		return true
	}
	if len(b) < sniffLen {
		return false
	}
	for cut := 1; cut < utf8.UTFMax && cut < len(b); cut++ {
		if utf8.Valid(b[:len(b)-cut]) {
			return true
		}
	}
	return false
}
