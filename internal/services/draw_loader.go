package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/logger"
	"github.com/xuri/excelize/v2"

	"loterias/internal/models"
)

var (
	ErrNoDrawSource  = errors.New("nenhuma planilha de resultados encontrada")
	ErrMissingColumn = errors.New("coluna obrigatória ausente")
)

// headerSearchRows is how many leading rows may precede the header row;
// exported spreadsheets often start with a title line.
const headerSearchRows = 5

var accentReplacer = strings.NewReplacer("á", "a", "à", "a", "ã", "a", "â", "a", "é", "e", "ê", "e", "í", "i", "ó", "o", "õ", "o", "ô", "o", "ú", "u", "ç", "c")

var dateLayouts = []string{"02/01/2006", "2006-01-02", "01-02-06", "2/1/2006", "2006-01-02 15:04:05"}

// DrawLoader reads historical results from the data directory.
type DrawLoader struct {
	DataDir string
}

// NewDrawLoader creates a loader rooted at dataDir.
func NewDrawLoader(dataDir string) *DrawLoader {
	return &DrawLoader{DataDir: dataDir}
}

// LoadDraws tries each of the game's sources in order and returns the draws
// of the first one that parses, sorted by contest.
func (l *DrawLoader) LoadDraws(g models.Game) ([]models.Draw, error) {
	var lastErr error
	for _, name := range g.Sources {
		path := filepath.Join(l.DataDir, name)
		if _, err := os.Stat(path); err != nil {
			lastErr = err
			continue
		}
		rows, err := readRows(path)
		if err != nil {
			logger.Warningf("Could not read %s: %v", path, err)
			lastErr = err
			continue
		}
		draws, err := ParseDrawRows(g, rows)
		if err != nil {
			logger.Warningf("Could not parse %s: %v", path, err)
			lastErr = err
			continue
		}
		logger.Infof("Loaded %d draws of %s from %s", len(draws), g.Name, path)
		return draws, nil
	}
	return nil, fmt.Errorf("%w para %s: %v", ErrNoDrawSource, g.Name, lastErr)
}

// readRows returns the cells of a CSV file or of the first sheet of an XLSX
// workbook.
func readRows(path string) ([][]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return readCSV(bytes.NewReader(data))
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: planilha vazia", path)
	}
	return f.GetRows(sheets[0])
}

// readCSV reads every record, guessing between ';' and ',' separators and
// dropping a UTF-8 BOM.
func readCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	firstLine := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		firstLine = data[:i]
	}
	reader := csv.NewReader(bytes.NewReader(data))
	if bytes.Count(firstLine, []byte(";")) > bytes.Count(firstLine, []byte(",")) {
		reader.Comma = ';'
	}
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader.ReadAll()
}

// normalizeHeader lowercases a column name and drops spaces, underscores and
// accents so "Data Sorteio", "data_sorteio" and "DataSorteio" compare equal.
func normalizeHeader(h string) string {
	h = accentReplacer.Replace(strings.ToLower(strings.TrimSpace(h)))
	var b strings.Builder
	for _, r := range h {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func findHeader(rows [][]string, required string) (int, map[string]int, error) {
	for i := 0; i < len(rows) && i < headerSearchRows; i++ {
		cols := make(map[string]int, len(rows[i]))
		for j, h := range rows[i] {
			cols[normalizeHeader(h)] = j
		}
		if _, ok := cols[required]; ok {
			return i, cols, nil
		}
	}
	return 0, nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
}

func parseNumber(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("valor numérico inválido %q", s)
	}
	return int(f), nil
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

// ParseDrawRows converts spreadsheet rows into draws. The header row must
// carry Concurso and Bola1..BolaN (plus Trevo1..TrevoN for +Milionária).
// Invalid rows are skipped; repeated contests keep the last row.
func ParseDrawRows(g models.Game, rows [][]string) ([]models.Draw, error) {
	start, cols, err := findHeader(rows, "concurso")
	if err != nil {
		return nil, err
	}
	ballCols := make([]int, g.DrawSize)
	for i := range ballCols {
		name := fmt.Sprintf("bola%d", i+1)
		idx, ok := cols[name]
		if !ok {
			return nil, fmt.Errorf("%w: Bola%d", ErrMissingColumn, i+1)
		}
		ballCols[i] = idx
	}
	trevoCols := make([]int, g.TrevoCount)
	for i := range trevoCols {
		idx, ok := cols[fmt.Sprintf("trevo%d", i+1)]
		if !ok {
			return nil, fmt.Errorf("%w: Trevo%d", ErrMissingColumn, i+1)
		}
		trevoCols[i] = idx
	}
	dateCol, hasDate := cols["datasorteio"]
	if !hasDate {
		dateCol, hasDate = cols["data"]
	}

	byContest := make(map[int]models.Draw)
	for lineNo, row := range rows[start+1:] {
		concurso, err := parseNumber(cell(row, cols["concurso"]))
		if err != nil {
			if strings.TrimSpace(strings.Join(row, "")) != "" {
				logger.Warningf("%s: skipping row %d: %v", g.Name, start+lineNo+2, err)
			}
			continue
		}
		d := models.Draw{Concurso: concurso}
		if hasDate {
			d.Data = parseDate(cell(row, dateCol))
		}
		if d.Numbers, err = parseBalls(row, ballCols, g.MinNumber, g.MaxNumber); err != nil {
			logger.Warningf("%s: skipping contest %d: %v", g.Name, concurso, err)
			continue
		}
		if g.TrevoCount > 0 {
			if d.Trevos, err = parseBalls(row, trevoCols, 1, g.TrevoMax); err != nil {
				logger.Warningf("%s: skipping contest %d: %v", g.Name, concurso, err)
				continue
			}
		}
		byContest[concurso] = d
	}
	if len(byContest) == 0 {
		return nil, ErrNoDraws
	}

	draws := make([]models.Draw, 0, len(byContest))
	for _, d := range byContest {
		draws = append(draws, d)
	}
	sort.Slice(draws, func(i, j int) bool { return draws[i].Concurso < draws[j].Concurso })
	return draws, nil
}

func parseBalls(row []string, idxs []int, min, max int) ([]int, error) {
	nums := make([]int, 0, len(idxs))
	seen := make(map[int]bool, len(idxs))
	for _, idx := range idxs {
		n, err := parseNumber(cell(row, idx))
		if err != nil {
			return nil, err
		}
		if n < min || n > max {
			return nil, fmt.Errorf("dezena %d fora do intervalo %d-%d", n, min, max)
		}
		if seen[n] {
			return nil, fmt.Errorf("dezena %d repetida", n)
		}
		seen[n] = true
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums, nil
}

// LoadCandidateCards reads a pre-filtered CSV holding a Cartao_N column.
func LoadCandidateCards(path string, g models.Game) ([]models.Card, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseCardsCSV(f, g)
}

// ParseCardsCSV parses string-encoded number lists such as "[1, 2, 4, ...]"
// from the first column whose header starts with Cartao. Invalid cards are
// skipped and logged.
func ParseCardsCSV(r io.Reader, g models.Game) ([]models.Card, error) {
	rows, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoCandidates
	}
	col := -1
	for j, h := range rows[0] {
		if strings.HasPrefix(normalizeHeader(h), "cartao") {
			col = j
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("%w: Cartao_%d", ErrMissingColumn, g.CardSize)
	}

	cards := make([]models.Card, 0, len(rows)-1)
	for i, row := range rows[1:] {
		numbers, err := parseNumberList(cell(row, col))
		if err == nil {
			err = g.ValidateCard(numbers)
		}
		if err != nil {
			logger.Warningf("Skipping card on line %d: %v", i+2, err)
			continue
		}
		cards = append(cards, models.NewCard(numbers))
	}
	return cards, nil
}

func parseNumberList(s string) ([]int, error) {
	if strings.Contains(s, "-") {
		return nil, fmt.Errorf("dezena negativa em %q", s)
	}
	fields := strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	if len(fields) == 0 {
		return nil, fmt.Errorf("lista de dezenas vazia")
	}
	nums := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		nums[i] = n
	}
	return nums, nil
}
