package core

// streaming.go holds the io.Reader wrappers used before a file reaches a
// codec: charset detection and transcoding, BOM removal, UTF-8 repair and a
// hard size cap. All of them work in constant memory.

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// detectWindow is how many leading bytes feed charset detection.
const detectWindow = 2048

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// NewTextReader returns a reader that yields UTF-8 text for r together with
// the charset it detected.
//
// A UTF-8 BOM is dropped. Input that is already valid UTF-8 is passed through.
// Otherwise chardet guesses the charset; single-byte Western and Cyrillic
// encodings are transcoded and anything else is treated as UTF-8 with invalid
// bytes replaced by '?'.
func NewTextReader(r io.Reader) (io.Reader, string, error) {
	br := bufio.NewReaderSize(r, detectWindow*2)

	peek, err := br.Peek(detectWindow)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, "", err
	}

	if bytes.HasPrefix(peek, utf8BOM) {
		br.Discard(len(utf8BOM))
		return NewUTF8Sanitizer(br), "UTF-8", nil
	}

	if utf8.Valid(peek[:len(peek)-incompleteTail(peek)]) {
		return NewUTF8Sanitizer(br), "UTF-8", nil
	}

	charset := "UTF-8"
	if res, err := chardet.NewTextDetector().DetectBest(peek); err == nil && res != nil {
		charset = res.Charset
	}

	if enc := singleByteEncoding(charset); enc != nil {
		return transform.NewReader(br, enc.NewDecoder()), charset, nil
	}
	return NewUTF8Sanitizer(br), "UTF-8", nil
}

// singleByteEncoding maps a chardet charset name to a decoder, or nil.
func singleByteEncoding(charset string) encoding.Encoding {
	switch strings.ToLower(charset) {
	case "iso-8859-1", "windows-1252":
		return charmap.Windows1252
	case "iso-8859-15":
		return charmap.ISO8859_15
	case "iso-8859-2":
		return charmap.ISO8859_2
	case "iso-8859-9":
		return charmap.ISO8859_9
	case "windows-1251":
		return charmap.Windows1251
	case "koi8-r":
		return charmap.KOI8R
	default:
		return nil
	}
}

// UTF8Sanitizer replaces every byte that is not part of a valid UTF-8
// sequence with '?'. Multi-byte sequences split across reads are carried
// over to the next read.
type UTF8Sanitizer struct {
	r     io.Reader
	raw   []byte
	carry int
	out   []byte
	buf   []byte
	err   error
}

// NewUTF8Sanitizer wraps r.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{
		r:   r,
		raw: make([]byte, 32*1024),
		out: make([]byte, 0, 32*1024),
	}
}

func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(s.buf) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		s.fill()
	}
	n := copy(p, s.buf)
	s.buf = s.buf[n:]
	return n, nil
}

func (s *UTF8Sanitizer) fill() {
	n, err := s.r.Read(s.raw[s.carry:])
	data := s.raw[:s.carry+n]
	s.err = err

	keep := 0
	if err == nil {
		keep = incompleteTail(data)
	}
	valid := data[:len(data)-keep]

	out := s.out[:0]
	if utf8.Valid(valid) {
		out = append(out, valid...)
	} else {
		for i := 0; i < len(valid); {
			r, size := utf8.DecodeRune(valid[i:])
			if r == utf8.RuneError && size <= 1 {
				out = append(out, '?')
				i++
				continue
			}
			out = append(out, valid[i:i+size]...)
			i += size
		}
	}
	s.out = out
	s.buf = out
	s.carry = copy(s.raw, data[len(data)-keep:])
}

// incompleteTail returns how many trailing bytes of b start a multi-byte
// sequence that has not been completed yet.
func incompleteTail(b []byte) int {
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		c := b[len(b)-i]
		if c < 0x80 {
			return 0
		}
		if c >= 0xC0 {
			if seqLen(c) > i {
				return i
			}
			return 0
		}
	}
	return 0
}

// seqLen is the encoded length announced by a UTF-8 leading byte.
func seqLen(lead byte) int {
	switch {
	case lead >= 0xF0:
		return 4
	case lead >= 0xE0:
		return 3
	default:
		return 2
	}
}

// cappedReader fails with ErrFileTooLarge once more than limit bytes have
// been read.
type cappedReader struct {
	r    io.Reader
	left int64
}

// limitSize wraps r with a size cap. A non-positive limit disables it.
func limitSize(r io.Reader, limit int64) io.Reader {
	if limit <= 0 {
		return r
	}
	return &cappedReader{r: r, left: limit}
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.left <= 0 {
		var probe [1]byte
		n, err := c.r.Read(probe[:])
		if n > 0 {
			return 0, ErrFileTooLarge
		}
		return 0, err
	}
	if int64(len(p)) > c.left {
		p = p[:c.left]
	}
	n, err := c.r.Read(p)
	c.left -= int64(n)
	return n, err
}
