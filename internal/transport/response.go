package transport

import (
	"crypto/sha256"
	"io"
	"strconv"
	"strings"

	"epf/internal/errs"
	"epf/internal/hexcodec"
	"epf/internal/session"
	"epf/internal/xorcipher"
)

// fingerprintSalt is prepended to the plaintext before hashing; it must
// match the remote service byte for byte.
const fingerprintSalt = "2093457209837"

// FingerprintHeader carries the expected hash of the plaintext body.
// Lookups are case-sensitive, exactly as the server emits the name.
const FingerprintHeader = "TL-RESP-BYTEHASH"

// maxHeaderLine is the fixed header line buffer; a longer line fails the
// response.
const maxHeaderLine = 256

// Response is a parsed header block plus the still-unread body stream.
type Response struct {
	r               io.Reader
	streamEncrypted bool
	tok             *session.Token
	headers         map[string]string
}

// newResponse reads the header block off r one byte at a time, up to the
// blank line, and leaves r positioned at the start of the body.
func newResponse(r io.Reader, streamEncrypted bool, tok *session.Token) (*Response, error) {
	resp := &Response{
		r:               r,
		streamEncrypted: streamEncrypted,
		tok:             tok,
		headers:         make(map[string]string),
	}
	if err := resp.parseHeaders(); err != nil {
		return nil, err
	}
	return resp, nil
}

// parseHeaders scans byte-at-a-time until two consecutive line terminators.
// A logical line ends at '\n'; '\r' is tolerated and does not reset the
// end-of-headers detector.
func (resp *Response) parseHeaders() error {
	var (
		line         [maxHeaderLine]byte
		i            int
		newLineCount int
		firstLine    = true
		one          [1]byte
	)
	for {
		n, err := resp.r.Read(one[:])
		if err != nil && n == 0 {
			if err == io.EOF {
				return errs.New(errs.KindMalformedHeader, "response ended before end of headers")
			}
			return errs.Wrap(errs.KindMalformedHeader, "error when reading response headers", err)
		}
		if i >= len(line) {
			return errs.New(errs.KindHeaderOverflow, "response header line too long")
		}
		c := one[0]
		line[i] = c
		i++
		if c == '\n' {
			newLineCount++
			if firstLine {
				firstLine = false
				resp.storeLine(string(line[:i]), '/')
			} else {
				resp.storeLine(string(line[:i]), ':')
			}
			if newLineCount > 1 {
				return nil
			}
			i = 0
		} else if c != '\r' {
			newLineCount = 0
		}
	}
}

// storeLine splits one header line on the first delimiter. The key keeps
// its casing; surrounding whitespace is trimmed from both sides of the
// split. A line without the delimiter stores the whole trimmed line under
// itself, matching the historical parser.
func (resp *Response) storeLine(s string, delimiter byte) {
	s = strings.TrimLeft(s, " \f\t\v")
	if s == "" || s == "\r\n" || s == "\n" {
		return
	}
	var key, value string
	if idx := strings.IndexByte(s, delimiter); idx >= 0 {
		key = strings.TrimRight(s[:idx], " \f\t\v\n\r")
		value = strings.Trim(s[idx+1:], " \f\n\r\t\v")
	} else {
		key = strings.TrimRight(s, " \f\t\v\n\r")
		value = key
	}
	if key == "" {
		return
	}
	resp.headers[key] = value
}

// Header returns the value stored for name. Lookup is case-sensitive.
func (resp *Response) Header(name string) string {
	return resp.headers[name]
}

// StatusCode extracts the decimal status code from the second
// space-separated token of the HTTP pseudo-header. On any parse failure it
// reports 0.
func (resp *Response) StatusCode() int {
	v := resp.Header("HTTP")
	if v == "" {
		return 0
	}
	tokens := strings.Split(v, " ")
	if len(tokens) < 2 {
		return 0
	}
	code, err := strconv.Atoi(tokens[1])
	if err != nil {
		return 0
	}
	return code
}

// ReadContent fills buf completely from the body stream. EOF before the
// buffer is full fails with Truncated. When stream encryption is engaged,
// every read that advances the cursor re-applies the session-key XOR over
// the whole buffer and re-checks the salted fingerprint; the check only
// decides the outcome once the buffer is full, since earlier iterations
// hash a partially-populated buffer. This mirrors the wire peer, which
// answers each request with one fully-buffered write.
func (resp *Response) ReadContent(buf []byte) error {
	want := len(buf)
	total := 0
	for total < want {
		n, err := resp.r.Read(buf[total:])
		if n > 0 {
			total += n
			if resp.streamEncrypted {
				if verr := resp.verify(buf); verr != nil {
					// A mismatch on a partially-populated buffer is not
					// reported; only the check after the final read decides.
					// Each read XORs the whole buffer again, so a body only
					// verifies when it arrives in a single read.
					if total == want || !errs.IsKind(verr, errs.KindFingerprintMismatch) {
						return verr
					}
				}
			}
		}
		if err != nil {
			if err == io.EOF {
				if total != want {
					return errs.New(errs.KindTruncated, "incomplete HTTP response body")
				}
				break
			}
			return errs.Wrap(errs.KindTruncated, "error when reading response body", err)
		}
	}
	return nil
}

// verify XORs buf with the session key in place and compares the salted
// SHA-256 fingerprint against the response header.
func (resp *Response) verify(buf []byte) error {
	if err := xorcipher.XorInplace(buf, resp.tok.Key()[:resp.tok.KeyLen()]); err != nil {
		return err
	}
	expected := resp.Header(FingerprintHeader)
	if expected == "" {
		return errs.New(errs.KindMissingFingerprint, "missing byte stream hash value")
	}
	h := sha256.New()
	h.Write([]byte(fingerprintSalt))
	h.Write(buf)
	actual := hexcodec.Encode(h.Sum(nil))
	if actual != expected {
		return errs.New(errs.KindFingerprintMismatch, "byte stream hash values don't match")
	}
	return nil
}
