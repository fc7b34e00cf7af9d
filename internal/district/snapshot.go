package district

import (
	"bytes"
	_ "embed"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/parcel-risk/internal/fetcher"
	"github.com/sells-group/parcel-risk/internal/model"
)

// Header labels used by the national legal-district code file.
const (
	headerCode   = "법정동코드"
	headerName   = "법정동명"
	headerStatus = "폐지여부"
	activeMarker = "존재"
)

//go:embed snapshot/sample_legal_districts.tsv
var sampleSnapshot []byte

// Source produces a reference table. Loader calls it at most once per
// successful load.
type Source func() (*Table, error)

// SampleSource reads the small sample packaged into the binary: a handful
// of Seoul districts, enough for "district lookup" and tests. Analyses run
// against the national code file through FileSource.
func SampleSource() Source {
	return func() (*Table, error) {
		return parseDelimited(sampleSnapshot, fetcher.EncodingUTF8, '\t')
	}
}

// FileOptions control how FileSource reads a snapshot.
type FileOptions struct {
	// Encoding of text content: "auto", "utf-8" or "euc-kr".
	Encoding string
	// Sheet of an .xlsx workbook; the first sheet when empty.
	Sheet string
}

// FileSource reads a snapshot from disk. Supported forms: delimited text
// (.txt/.tsv tab, .csv comma, anything else sniffed), a .zip holding one
// such file, or an .xlsx workbook.
func FileSource(path string, opts FileOptions) Source {
	encoding := opts.Encoding
	return func() (*Table, error) {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".xlsx":
			rows, err := fetcher.ReadXLSX(path, opts.Sheet)
			if err != nil {
				return nil, eris.Wrapf(err, "district: read %s", path)
			}
			return ParseRows(rows)
		case ".zip":
			name, data, err := fetcher.ReadZIPSingle(path)
			if err != nil {
				return nil, eris.Wrapf(err, "district: read %s", path)
			}
			return parseDelimited(data, encoding, delimiterFor(name, data))
		default:
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, eris.Wrapf(err, "district: read %s", path)
			}
			return parseDelimited(data, encoding, delimiterFor(path, data))
		}
	}
}

func delimiterFor(name string, data []byte) rune {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return ','
	case ".tsv", ".txt":
		return '\t'
	}
	firstLine := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		firstLine = data[:i]
	}
	if bytes.IndexByte(firstLine, '\t') >= 0 {
		return '\t'
	}
	return ','
}

func parseDelimited(data []byte, encoding string, delim rune) (*Table, error) {
	text, err := fetcher.DecodeText(data, encoding)
	if err != nil {
		return nil, eris.Wrap(err, "district: decode snapshot")
	}
	rows, err := fetcher.ReadCSV(bytes.NewReader(text), fetcher.CSVOptions{Delimiter: delim, TrimSpace: true})
	if err != nil {
		return nil, eris.Wrap(err, "district: parse snapshot")
	}
	return ParseRows(rows)
}

// ParseRows builds a table from snapshot rows. A first row naming the
// "법정동코드" or "법정동명" columns is a header; columns are then located by
// header text and rows whose "폐지여부" cell is not "존재" are dropped.
// Without a header, columns 0 and 1 are code and name and every row is
// active. Rows without a 10-digit code or a name are skipped.
func ParseRows(rows [][]string) (*Table, error) {
	if len(rows) == 0 {
		return nil, eris.New("district: empty snapshot")
	}

	codeIdx, nameIdx, statusIdx := 0, 1, -1
	if isHeader(rows[0]) {
		for i, cell := range rows[0] {
			switch cleanHeader(cell) {
			case headerCode:
				codeIdx = i
			case headerName:
				nameIdx = i
			case headerStatus:
				statusIdx = i
			}
		}
		rows = rows[1:]
	}

	records := make([]model.LegalDistrictRecord, 0, len(rows))
	for _, row := range rows {
		code := cell(row, codeIdx)
		name := strings.Join(strings.Fields(cell(row, nameIdx)), " ")
		if !isDistrictCode(code) || name == "" {
			continue
		}
		if statusIdx >= 0 && cell(row, statusIdx) != activeMarker {
			continue
		}
		records = append(records, model.LegalDistrictRecord{Code: code, Name: name})
	}
	if len(records) == 0 {
		return nil, eris.New("district: snapshot has no active records")
	}
	return NewTable(records), nil
}

func isHeader(row []string) bool {
	for _, c := range row {
		if h := cleanHeader(c); h == headerCode || h == headerName {
			return true
		}
	}
	return false
}

func cleanHeader(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isDistrictCode(s string) bool {
	if len(s) != 10 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
