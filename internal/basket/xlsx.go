package basket

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"
)

// ReadXLSX reads a headerless worksheet from an .xlsx workbook. The sheet is picked by
// opt.SheetName, then opt.SheetIndex (1-based), then the first sheet.
func ReadXLSX(data []byte, opt Options) ([]Transaction, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	sheets := parseWorkbook(readZipFile(zr, "xl/workbook.xml"))
	rels := parseRelationships(readZipFile(zr, "xl/_rels/workbook.xml.rels"))

	target := ""
	if opt.SheetName != "" {
		for _, s := range sheets {
			if strings.EqualFold(s.Name, opt.SheetName) {
				target = normalizeRelPath(rels[s.RID])
				break
			}
		}
		if target == "" {
			names := make([]string, len(sheets))
			for i, s := range sheets {
				names[i] = s.Name
			}
			return nil, fmt.Errorf("sheet %q not found; available sheets: %s", opt.SheetName, strings.Join(names, ", "))
		}
	}
	if target == "" {
		idx := opt.SheetIndex
		if idx <= 0 {
			idx = 1
		}
		// Prefer the workbook's own ordering, fall back to the conventional part name.
		if idx <= len(sheets) {
			if rel, ok := rels[sheets[idx-1].RID]; ok {
				target = normalizeRelPath(rel)
			}
		}
		if target == "" {
			target = fmt.Sprintf("xl/worksheets/sheet%d.xml", idx)
		}
	}
	sheetXML := readZipFile(zr, target)
	if sheetXML == nil {
		return nil, fmt.Errorf("worksheet %s missing from workbook", target)
	}
	rr := newSheetRowReader(sheetXML, parseSharedStrings(readZipFile(zr, "xl/sharedStrings.xml")))
	var rows [][]string
	for {
		row, ok := rr.Next()
		if !ok {
			break
		}
		rows = append(rows, row)
	}
	return fromRows(rows)
}

type wbSheet struct {
	Name    string
	SheetID int
	RID     string
}

// parseWorkbook extracts sheet entries with names and relationship ids.
func parseWorkbook(data []byte) []wbSheet {
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var sheets []wbSheet
	for {
		tok, err := dec.Token()
		if err != nil {
			return sheets
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "sheet" {
			continue
		}
		var s wbSheet
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "name":
				s.Name = a.Value
			case "sheetId":
				s.SheetID = atoiSafe(a.Value)
			case "id":
				s.RID = a.Value
			}
		}
		sheets = append(sheets, s)
	}
}

// parseRelationships returns map[r:id]Target.
func parseRelationships(data []byte) map[string]string {
	out := map[string]string{}
	if len(data) == 0 {
		return out
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Relationship" {
			continue
		}
		var id, target string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "Id":
				id = a.Value
			case "Target":
				target = a.Value
			}
		}
		if id != "" && target != "" {
			out[id] = target
		}
	}
}

func readZipFile(zr *zip.Reader, name string) []byte {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil
		}
		defer rc.Close()
		b, _ := io.ReadAll(rc)
		return b
	}
	return nil
}

func parseSharedStrings(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []string
	var buf strings.Builder
	var inT bool
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "si" {
				buf.Reset()
			}
			if se.Name.Local == "t" {
				inT = true
			}
		case xml.EndElement:
			if se.Name.Local == "t" {
				inT = false
			}
			if se.Name.Local == "si" {
				out = append(out, buf.String())
				buf.Reset()
			}
		case xml.CharData:
			if inT {
				buf.Write(se)
			}
		}
	}
}

type sheetRowReader struct {
	dec    *xml.Decoder
	shared []string
	inRow  bool
	curRow []string
}

func newSheetRowReader(data []byte, shared []string) *sheetRowReader {
	return &sheetRowReader{dec: xml.NewDecoder(bytes.NewReader(data)), shared: shared}
}

// Next returns the next <row> as a slice indexed by column; gaps are empty strings.
func (r *sheetRowReader) Next() ([]string, bool) {
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return nil, false
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "row" {
				r.inRow = true
				r.curRow = nil
			}
			if r.inRow && se.Name.Local == "c" {
				var ref, typ string
				for _, a := range se.Attr {
					switch a.Name.Local {
					case "r":
						ref = a.Value
					case "t":
						typ = a.Value
					}
				}
				col := colIndexFromRef(ref)
				if col < 0 {
					col = len(r.curRow)
				}
				val := r.readCellValue(typ)
				if len(r.curRow) <= col {
					tmp := make([]string, col+1)
					copy(tmp, r.curRow)
					r.curRow = tmp
				}
				r.curRow[col] = val
			}
		case xml.EndElement:
			if se.Name.Local == "row" {
				r.inRow = false
				return r.curRow, true
			}
		}
	}
}

// readCellValue consumes tokens up to </c>, returning the <v> or inline <t> text.
func (r *sheetRowReader) readCellValue(typ string) string {
	var val string
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return val
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "v" || se.Name.Local == "t" {
				var sb strings.Builder
				for {
					tk, er := r.dec.Token()
					if er != nil {
						break
					}
					if ed, ok := tk.(xml.EndElement); ok && (ed.Name.Local == "v" || ed.Name.Local == "t") {
						break
					}
					if ch, ok := tk.(xml.CharData); ok {
						sb.Write(ch)
					}
				}
				val = sb.String()
			}
		case xml.EndElement:
			if se.Name.Local == "c" {
				if typ == "s" {
					idx := atoiSafe(val)
					if idx >= 0 && idx < len(r.shared) {
						return r.shared[idx]
					}
					return ""
				}
				return val
			}
		}
	}
}

// colIndexFromRef maps refs like "C12" to 2. Returns -1 when the ref has no letters.
func colIndexFromRef(ref string) int {
	i := 0
	for i < len(ref) {
		c := ref[i]
		if c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' {
			i++
			continue
		}
		break
	}
	s := strings.ToUpper(ref[:i])
	idx := 0
	for j := 0; j < len(s); j++ {
		idx = idx*26 + int(s[j]-'A'+1)
	}
	return idx - 1
}

func atoiSafe(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// normalizeRelPath converts relationship targets ("/xl/worksheets/sheet1.xml" or
// "worksheets/sheet1.xml") to zip entry names.
func normalizeRelPath(rel string) string {
	if rel == "" {
		return ""
	}
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return path.Join("xl", rel)
}
