// Package basket turns headerless transaction tables into item lists.
package basket

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// MissingValue is the literal text stored for an empty cell.
const MissingValue = "nan"

// missingTokens are cell texts read as a missing value, as pandas does by default.
var missingTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// IsMissing reports whether cell text stands for a missing value.
func IsMissing(cell string) bool {
	_, ok := missingTokens[cell]
	return ok
}

// Transaction is one basket: a row of item names, one per column.
type Transaction []string

// ErrEmptyTable is returned when the input holds no rows.
var ErrEmptyTable = errors.New("no columns to parse from file")

// Options controls how a table is read.
type Options struct {
	// Delimiter for CSV. If 0, ',' is used (or '\t' when loading a .tsv by name).
	Delimiter rune
	// XLSX: sheet name to read. Takes precedence over SheetIndex.
	SheetName string
	// XLSX: 1-based sheet index, defaults to the first sheet.
	SheetIndex int
}

// Summary describes the shape of a parsed table.
type Summary struct {
	Rows          int
	Columns       int
	DistinctItems int
	MissingCells  int
}

// ReadCSV reads a headerless CSV table. Every row becomes a Transaction whose length
// equals the widest row in the table; short rows and missing cells (see IsMissing)
// hold MissingValue.
func ReadCSV(r io.Reader, opt Options) ([]Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	if opt.Delimiter != 0 {
		cr.Comma = opt.Delimiter
	}
	var rows [][]string
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, rec)
	}
	return fromRows(rows)
}

// Load parses table bytes, picking the reader from the file name's extension.
func Load(name string, data []byte, opt Options) ([]Transaction, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".xlsx"):
		return ReadXLSX(data, opt)
	case strings.HasSuffix(lower, ".tsv") && opt.Delimiter == 0:
		opt.Delimiter = '\t'
	}
	return ReadCSV(bytes.NewReader(data), opt)
}

// LoadFile reads and parses a table from disk.
func LoadFile(path string, opt Options) ([]Transaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	txs, err := Load(filepath.Base(path), data, opt)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return txs, nil
}

// Supported reports whether a file name has an extension Load understands.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".tsv", ".txt", ".xlsx":
		return true
	}
	return false
}

func fromRows(rows [][]string) ([]Transaction, error) {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	if len(rows) == 0 || width == 0 {
		return nil, ErrEmptyTable
	}
	out := make([]Transaction, len(rows))
	for i, r := range rows {
		tx := make(Transaction, width)
		for j := range tx {
			if j < len(r) && !IsMissing(r[j]) {
				tx[j] = r[j]
			} else {
				tx[j] = MissingValue
			}
		}
		out[i] = tx
	}
	return out, nil
}

// Summarize counts rows, columns, distinct items and missing cells.
func Summarize(txs []Transaction) Summary {
	s := Summary{Rows: len(txs)}
	seen := make(map[string]struct{})
	for _, tx := range txs {
		if len(tx) > s.Columns {
			s.Columns = len(tx)
		}
		for _, item := range tx {
			if item == MissingValue {
				s.MissingCells++
			}
			seen[item] = struct{}{}
		}
	}
	s.DistinctItems = len(seen)
	return s
}
