package fetcher

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/korean"
)

// Text encodings accepted by DecodeText.
const (
	EncodingAuto  = "auto"
	EncodingUTF8  = "utf-8"
	EncodingEUCKR = "euc-kr"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeText converts raw snapshot bytes to UTF-8. With EncodingAuto the
// input is taken as UTF-8 when it is valid UTF-8 and as EUC-KR (CP949)
// otherwise.
func DecodeText(data []byte, encoding string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", EncodingAuto:
		if utf8.Valid(data) {
			return bytes.TrimPrefix(data, utf8BOM), nil
		}
		return decodeEUCKR(data)
	case EncodingUTF8, "utf8":
		if !utf8.Valid(data) {
			return nil, eris.New("encoding: input is not valid utf-8")
		}
		return bytes.TrimPrefix(data, utf8BOM), nil
	case EncodingEUCKR, "cp949", "euckr":
		return decodeEUCKR(data)
	default:
		return nil, eris.Errorf("encoding: unsupported encoding %q", encoding)
	}
}

func decodeEUCKR(data []byte) ([]byte, error) {
	out, err := korean.EUCKR.NewDecoder().Bytes(data)
	if err != nil {
		return nil, eris.Wrap(err, "encoding: decode euc-kr")
	}
	return out, nil
}
