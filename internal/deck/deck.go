// Package deck imports vocabulary cards from TSV, CSV and xlsx files.
package deck

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/thuan734655/all-tools-nihongo/internal/model"
)

// idNamespace scopes card IDs so that the same deck/front/reading always maps
// to the same ID and re-imports update rather than duplicate.
var idNamespace = uuid.MustParse("6f1d3c9e-2a4b-4f0e-9c7d-5b8a1e2f3c4d")

// Column is a card field a file column can map to.
type Column int

const (
	ColumnFront Column = iota
	ColumnReading
	ColumnMeaning
	ColumnRomaji
	ColumnMeaningVi
	columnCount
)

// Positional order used when a file has no header row.
var defaultColumns = []Column{ColumnFront, ColumnReading, ColumnMeaning, ColumnRomaji, ColumnMeaningVi}

var headerNames = map[string]Column{
	"front":      ColumnFront,
	"kanji":      ColumnFront,
	"word":       ColumnFront,
	"reading":    ColumnReading,
	"kana":       ColumnReading,
	"hiragana":   ColumnReading,
	"furigana":   ColumnReading,
	"meaning":    ColumnMeaning,
	"english":    ColumnMeaning,
	"romaji":     ColumnRomaji,
	"meaning_vi": ColumnMeaningVi,
	"meaningvi":  ColumnMeaningVi,
	"vietnamese": ColumnMeaningVi,
	"nghia":      ColumnMeaningVi,
	"nghĩa":      ColumnMeaningVi,
}

// Options controls an import.
type Options struct {
	Deck string
	// Sheet selects the xlsx worksheet. Empty means the first sheet.
	Sheet string
}

// Result holds the cards read from a file.
type Result struct {
	Items   []model.Item
	Skipped int
}

// ItemID returns the stable ID of a card.
func ItemID(deck, front, reading string) string {
	key := deck + "\x00" + front + "\x00" + reading
	return uuid.NewSHA1(idNamespace, []byte(key)).String()
}

// Load reads cards from path, choosing the format by extension: .xlsx, .csv,
// anything else is read as tab separated text.
func Load(path string, opts Options) (Result, error) {
	if strings.TrimSpace(opts.Deck) == "" {
		return Result{}, errors.New("deck name is required")
	}
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = readXLSX(path, opts.Sheet)
	case ".csv":
		rows, err = readDelimited(path, readCSV)
	default:
		rows, err = readDelimited(path, readTSV)
	}
	if err != nil {
		return Result{}, err
	}
	res := parseRows(opts.Deck, rows)
	if len(res.Items) == 0 {
		return Result{}, errors.Errorf("no cards found in %s", path)
	}
	return res, nil
}

func readDelimited(path string, read func(io.Reader) ([][]string, error)) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open deck file")
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only deck file.
			_ = cerr
		}
	}()
	return read(file)
}

func readTSV(r io.Reader) ([][]string, error) {
	var rows [][]string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rows = append(rows, strings.Split(line, "\t"))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read deck file")
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.Comment = '#'
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV")
	}
	return rows, nil
}

func readXLSX(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open xlsx file")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close for read-only workbook.
			_ = cerr
		}
	}()
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %q", sheet)
	}
	return rows, nil
}

// parseRows maps rows to items. A first row made only of known column names
// is treated as a header; otherwise columns are positional.
func parseRows(deck string, rows [][]string) Result {
	var res Result
	if len(rows) == 0 {
		return res
	}
	columns := defaultColumns
	if header, ok := headerColumns(rows[0]); ok {
		columns = header
		rows = rows[1:]
	}

	seen := map[string]struct{}{}
	for _, row := range rows {
		var fields [columnCount]string
		for i, cell := range row {
			if i >= len(columns) || columns[i] < 0 {
				continue
			}
			fields[columns[i]] = strings.TrimSpace(cell)
		}
		if fields[ColumnFront] == "" {
			res.Skipped++
			continue
		}
		id := ItemID(deck, fields[ColumnFront], fields[ColumnReading])
		if _, dup := seen[id]; dup {
			res.Skipped++
			continue
		}
		seen[id] = struct{}{}
		res.Items = append(res.Items, model.Item{
			ID:        id,
			Deck:      deck,
			Front:     fields[ColumnFront],
			Reading:   fields[ColumnReading],
			Romaji:    fields[ColumnRomaji],
			Meaning:   fields[ColumnMeaning],
			MeaningVi: fields[ColumnMeaningVi],
		})
	}
	return res
}

func headerColumns(row []string) ([]Column, bool) {
	if len(row) == 0 {
		return nil, false
	}
	columns := make([]Column, len(row))
	hasFront := false
	for i, cell := range row {
		name := strings.ToLower(strings.TrimSpace(cell))
		if name == "" {
			columns[i] = -1
			continue
		}
		col, ok := headerNames[name]
		if !ok {
			return nil, false
		}
		if col == ColumnFront {
			hasFront = true
		}
		columns[i] = col
	}
	return columns, hasFront
}
