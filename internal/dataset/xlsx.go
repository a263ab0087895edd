package dataset

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
)

// ErrSheetNotFound is returned when a requested worksheet does not exist.
var ErrSheetNotFound = errors.New("sheet not found")

type workbookXML struct {
	Sheets []struct {
		Name string `xml:"name,attr"`
		RID  string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sheets>sheet"`
}

type relsXML struct {
	Rels []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

type sharedXML struct {
	Items []struct {
		T string `xml:"t"`
		R []struct {
			T string `xml:"t"`
		} `xml:"r"`
	} `xml:"si"`
}

// readXLSX returns the header and rows of one worksheet. An empty sheet name
// selects the first sheet. Short rows are padded to the header width.
func readXLSX(data []byte, sheet string) ([]string, [][]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, fmt.Errorf("open xlsx: %w", err)
	}
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	var wb workbookXML
	if err := unmarshalPart(files, "xl/workbook.xml", &wb); err != nil {
		return nil, nil, err
	}
	var rels relsXML
	if err := unmarshalPart(files, "xl/_rels/workbook.xml.rels", &rels); err != nil {
		return nil, nil, err
	}
	targets := make(map[string]string, len(rels.Rels))
	for _, r := range rels.Rels {
		targets[r.ID] = r.Target
	}

	var part string
	var names []string
	for _, s := range wb.Sheets {
		names = append(names, s.Name)
		if part == "" && (sheet == "" || strings.EqualFold(s.Name, sheet)) {
			part = sheetPart(targets[s.RID])
		}
	}
	if part == "" {
		if sheet != "" {
			return nil, nil, fmt.Errorf("%w: %q (available: %s)", ErrSheetNotFound, sheet, strings.Join(names, ", "))
		}
		part = "xl/worksheets/sheet1.xml"
	}

	var shared []string
	if _, ok := files["xl/sharedStrings.xml"]; ok {
		var ss sharedXML
		if err := unmarshalPart(files, "xl/sharedStrings.xml", &ss); err != nil {
			return nil, nil, err
		}
		for _, it := range ss.Items {
			s := it.T
			for _, r := range it.R {
				s += r.T
			}
			shared = append(shared, s)
		}
	}

	raw, err := readPart(files, part)
	if err != nil {
		return nil, nil, err
	}
	all, err := sheetRows(raw, shared)
	if err != nil {
		return nil, nil, err
	}
	if len(all) == 0 {
		return nil, nil, ErrEmpty
	}
	header := all[0]
	rows := all[1:]
	for i, r := range rows {
		if len(r) < len(header) {
			rows[i] = append(r, make([]string, len(header)-len(r))...)
		}
	}
	return header, rows, nil
}

func sheetPart(target string) string {
	if target == "" {
		return ""
	}
	target = strings.TrimPrefix(target, "/")
	if strings.HasPrefix(target, "xl/") {
		return target
	}
	return path.Join("xl", target)
}

func readPart(files map[string]*zip.File, name string) ([]byte, error) {
	f, ok := files[name]
	if !ok {
		return nil, fmt.Errorf("xlsx part %s missing", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func unmarshalPart(files map[string]*zip.File, name string, v any) error {
	b, err := readPart(files, name)
	if err != nil {
		return err
	}
	if err := xml.Unmarshal(b, v); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

// sheetRows decodes <row>/<c> elements, placing each cell by its A1 reference.
func sheetRows(data []byte, shared []string) ([][]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var rows [][]string
	var cur []string
	var cellCol int
	var cellType, text string
	var inValue bool
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse sheet: %w", err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "row":
				cur = nil
			case "c":
				cellCol, cellType, text = len(cur), "", ""
				for _, a := range el.Attr {
					switch a.Name.Local {
					case "r":
						if c := columnIndex(a.Value); c >= 0 {
							cellCol = c
						}
					case "t":
						cellType = a.Value
					}
				}
			case "v", "t":
				inValue = true
			}
		case xml.CharData:
			if inValue {
				text += string(el)
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "v", "t":
				inValue = false
			case "c":
				if cellType == "s" {
					i, err := strconv.Atoi(strings.TrimSpace(text))
					if err != nil || i < 0 || i >= len(shared) {
						return nil, fmt.Errorf("bad shared string index %q", text)
					}
					text = shared[i]
				}
				for len(cur) <= cellCol {
					cur = append(cur, "")
				}
				cur[cellCol] = text
			case "row":
				rows = append(rows, cur)
			}
		}
	}
}

// columnIndex maps the letters of an A1 reference to a 0-based column.
func columnIndex(ref string) int {
	idx := 0
	n := 0
	for _, r := range strings.ToUpper(ref) {
		if r < 'A' || r > 'Z' {
			break
		}
		idx = idx*26 + int(r-'A'+1)
		n++
	}
	if n == 0 {
		return -1
	}
	return idx - 1
}
