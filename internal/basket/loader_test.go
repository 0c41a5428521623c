package basket

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSVShapeAndMissingCells(t *testing.T) {
	in := "shrimp,almonds,avocado\n" +
		"burgers,meatballs,\n" +
		"chutney\n" +
		"turkey,avocado,eggs\n"
	txs, err := ReadCSV(strings.NewReader(in), Options{})
	require.NoError(t, err)
	require.Len(t, txs, 4)
	for i, tx := range txs {
		assert.Len(t, tx, 3, "row %d", i)
	}
	assert.Equal(t, Transaction{"burgers", "meatballs", MissingValue}, txs[1])
	assert.Equal(t, Transaction{"chutney", MissingValue, MissingValue}, txs[2])
}

func TestReadCSVMissingTokens(t *testing.T) {
	in := "milk,NA,N/A\nnull,NaN,None\nbread,#N/A,na\n"
	txs, err := ReadCSV(strings.NewReader(in), Options{})
	require.NoError(t, err)
	assert.Equal(t, Transaction{"milk", MissingValue, MissingValue}, txs[0])
	assert.Equal(t, Transaction{MissingValue, MissingValue, MissingValue}, txs[1])
	// matching is exact: "na" is an item name
	assert.Equal(t, Transaction{"bread", MissingValue, "na"}, txs[2])
	assert.True(t, IsMissing(""))
	assert.False(t, IsMissing(" NA"))
}

func TestReadCSVWidestRowSetsWidth(t *testing.T) {
	in := "milk,bread\nmilk,bread\nmilk,eggs\nbread,eggs\nmilk,bread,eggs\n"
	txs, err := ReadCSV(strings.NewReader(in), Options{})
	require.NoError(t, err)
	require.Len(t, txs, 5)
	for _, tx := range txs {
		assert.Len(t, tx, 3)
	}
	assert.Equal(t, MissingValue, txs[0][2])
	assert.Equal(t, "eggs", txs[4][2])
}

func TestReadCSVKeepsNumericCodesAsText(t *testing.T) {
	txs, err := ReadCSV(strings.NewReader("101,007\n 3.50,x\n"), Options{})
	require.NoError(t, err)
	assert.Equal(t, Transaction{"101", "007"}, txs[0])
	assert.Equal(t, Transaction{" 3.50", "x"}, txs[1])
}

func TestReadCSVEmptyInput(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), Options{})
	assert.ErrorIs(t, err, ErrEmptyTable)
}

func TestReadCSVMalformed(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,b\nc,\"d\n"), Options{})
	require.Error(t, err)
	var pe *csv.ParseError
	assert.True(t, errors.As(err, &pe), "expected csv.ParseError, got %v", err)
}

func TestLoadTSVByName(t *testing.T) {
	txs, err := Load("baskets.tsv", []byte("tea\tsugar\ncoffee\tmilk\n"), Options{})
	require.NoError(t, err)
	assert.Equal(t, Transaction{"coffee", "milk"}, txs[1])
}

func TestLoadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "store.csv")
	require.NoError(t, os.WriteFile(p, []byte("a,b\nc,d\n"), 0o644))
	txs, err := LoadFile(p, Options{})
	require.NoError(t, err)
	assert.Len(t, txs, 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.csv"), Options{})
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	txs := []Transaction{{"a", "b", MissingValue}, {"b", MissingValue, MissingValue}}
	s := Summarize(txs)
	assert.Equal(t, Summary{Rows: 2, Columns: 3, DistinctItems: 3, MissingCells: 3}, s)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("x.CSV"))
	assert.True(t, Supported("x.xlsx"))
	assert.False(t, Supported("x.json"))
}

func buildXLSX(t *testing.T, sheet string, shared []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"xl/workbook.xml": `<?xml version="1.0" encoding="UTF-8"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<sheets><sheet name="Baskets" sheetId="1" r:id="rId1"/></sheets></workbook>`,
		"xl/_rels/workbook.xml.rels": `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet1.xml"/>
</Relationships>`,
		"xl/worksheets/sheet1.xml": sheet,
	}
	if shared != nil {
		var sb strings.Builder
		sb.WriteString(`<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">`)
		for _, s := range shared {
			sb.WriteString("<si><t>" + s + "</t></si>")
		}
		sb.WriteString("</sst>")
		files["xl/sharedStrings.xml"] = sb.String()
	}
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestReadXLSX(t *testing.T) {
	sheet := `<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>
<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c><c r="C1" t="s"><v>2</v></c></row>
<row r="2"><c r="A2" t="s"><v>1</v></c><c r="C2" t="inlineStr"><is><t>yogurt</t></is></c></row>
<row r="3"><c r="A3"><v>42</v></c></row>
</sheetData></worksheet>`
	data := buildXLSX(t, sheet, []string{"milk", "bread", "eggs"})

	txs, err := Load("baskets.xlsx", data, Options{})
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, Transaction{"milk", "bread", "eggs"}, txs[0])
	assert.Equal(t, Transaction{"bread", MissingValue, "yogurt"}, txs[1])
	assert.Equal(t, Transaction{"42", MissingValue, MissingValue}, txs[2])

	_, err = ReadXLSX(data, Options{SheetName: "Nope"})
	assert.ErrorContains(t, err, "Baskets")
}

func TestReadXLSXRejectsGarbage(t *testing.T) {
	_, err := ReadXLSX([]byte("not a zip"), Options{})
	assert.Error(t, err)
}
