package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("formato de archivo no soportado: use .xlsx o .csv")
	ErrNoSheet           = errors.New("el archivo Excel no contiene hojas")
)

// ReadFile: elige lector según la extensión del nombre de archivo
func ReadFile(name string, r io.Reader) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(r)
	case ".csv", ".txt":
		return ReadCSV(r)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// ReadXLSX: todas las filas de la primera hoja
func ReadXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("no se pudo leer el archivo Excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("no se pudo leer la hoja %q: %w", sheets[0], err)
	}
	return rows, nil
}

// ReadCSV: separador ';' si aparece en la primera línea, si no ','
func ReadCSV(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	// BOM de Excel
	if b, err := br.Peek(3); err == nil && bytes.Equal(b, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
	}

	comma := ','
	line, _ := br.Peek(br.Buffered())
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if bytes.IndexByte(line, ';') >= 0 {
		comma = ';'
	}

	cr := csv.NewReader(br)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("no se pudo leer el archivo CSV: %w", err)
	}
	return rows, nil
}
