package ledger

import (
	"bytes"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"strings"
)

// MaxPrincipalLength is the largest principal body in bytes.
const MaxPrincipalLength = 29

var (
	ErrPrincipalFormat   = errors.New("malformed principal text")
	ErrPrincipalChecksum = errors.New("principal checksum mismatch")
)

var principalEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Principal is an identity on the ledger. The zero value is the management canister.
type Principal struct {
	raw []byte
}

// PrincipalFromBytes wraps a raw principal body.
func PrincipalFromBytes(b []byte) (Principal, error) {
	if len(b) > MaxPrincipalLength {
		return Principal{}, fmt.Errorf("%w: %d bytes", ErrPrincipalFormat, len(b))
	}
	raw := make([]byte, len(b))
	copy(raw, b)
	return Principal{raw: raw}, nil
}

// ParsePrincipal decodes the dashed textual form, e.g. "ryjl3-tyaaa-aaaaa-aaaba-cai".
func ParsePrincipal(text string) (Principal, error) {
	compact := strings.ReplaceAll(text, "-", "")
	if compact == "" || strings.ToLower(text) != text {
		return Principal{}, fmt.Errorf("%w: %q", ErrPrincipalFormat, text)
	}
	decoded, err := principalEncoding.DecodeString(strings.ToUpper(compact))
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrPrincipalFormat, err)
	}
	if len(decoded) < 4 {
		return Principal{}, fmt.Errorf("%w: too short", ErrPrincipalFormat)
	}

	body := decoded[4:]
	if binary.BigEndian.Uint32(decoded[:4]) != crc32.ChecksumIEEE(body) {
		return Principal{}, fmt.Errorf("%w: %q", ErrPrincipalChecksum, text)
	}
	p, err := PrincipalFromBytes(body)
	if err != nil {
		return Principal{}, err
	}
	if p.String() != text {
		return Principal{}, fmt.Errorf("%w: non-canonical %q", ErrPrincipalFormat, text)
	}
	return p, nil
}

// MustParsePrincipal is ParsePrincipal for compile-time constants.
func MustParsePrincipal(text string) Principal {
	p, err := ParsePrincipal(text)
	if err != nil {
		panic(err)
	}
	return p
}

// Bytes returns a copy of the principal body.
func (p Principal) Bytes() []byte {
	out := make([]byte, len(p.raw))
	copy(out, p.raw)
	return out
}

// Equal reports whether p and o name the same identity.
func (p Principal) Equal(o Principal) bool {
	return bytes.Equal(p.raw, o.raw)
}

// String renders the canonical dashed, lowercase textual form.
func (p Principal) String() string {
	buf := make([]byte, 4+len(p.raw))
	binary.BigEndian.PutUint32(buf, crc32.ChecksumIEEE(p.raw))
	copy(buf[4:], p.raw)
	enc := strings.ToLower(principalEncoding.EncodeToString(buf))

	var sb strings.Builder
	for i := 0; i < len(enc); i += 5 {
		if i > 0 {
			sb.WriteByte('-')
		}
		end := min(i+5, len(enc))
		sb.WriteString(enc[i:end])
	}
	return sb.String()
}

func (p Principal) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Principal) UnmarshalText(text []byte) error {
	parsed, err := ParsePrincipal(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
