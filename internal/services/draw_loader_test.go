package services

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"loterias/internal/models"
)

func TestParseDrawRows(t *testing.T) {
	rows := [][]string{
		{"Resultados da Quina"},
		{"Concurso", "Data Sorteio", "Bola1", "Bola2", "Bola3", "Bola4", "Bola5"},
		{"2", "02/01/2024", "80", "3", "15", "40", "7"},
		{"1", "2024-01-01", "1", "2", "3", "4", "5"},
		{"3", "03/01/2024", "1", "1", "3", "4", "5"},  // repeated number
		{"4", "04/01/2024", "1", "2", "3", "4", "81"}, // out of range
		{"", "", "", "", "", "", ""},
		{"2", "02/01/2024", "10", "20", "30", "40", "50"}, // repeated contest, last wins
	}

	draws, err := ParseDrawRows(models.Quina, rows)
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if len(draws) != 2 {
		t.Fatalf("expected 2 valid draws, got %d: %+v", len(draws), draws)
	}
	if draws[0].Concurso != 1 || draws[1].Concurso != 2 {
		t.Errorf("expected draws sorted by contest, got %d, %d", draws[0].Concurso, draws[1].Concurso)
	}
	if !reflect.DeepEqual(draws[1].Numbers, []int{10, 20, 30, 40, 50}) {
		t.Errorf("expected the last row of a repeated contest, got %v", draws[1].Numbers)
	}
	if !draws[0].Data.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected date %v", draws[0].Data)
	}
}

func TestParseDrawRows_Trevos(t *testing.T) {
	rows := [][]string{
		{"Concurso", "Data", "Bola1", "Bola2", "Bola3", "Bola4", "Bola5", "Bola6", "Trevo1", "Trevo2"},
		{"100", "10/05/2024", "50", "1", "12", "33", "8", "21", "6", "2"},
		{"101", "13/05/2024", "5", "1", "12", "33", "8", "21", "7", "2"}, // trevo out of range
	}
	draws, err := ParseDrawRows(models.MaisMilionaria, rows)
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if len(draws) != 1 || !reflect.DeepEqual(draws[0].Trevos, []int{2, 6}) {
		t.Errorf("unexpected draws %+v", draws)
	}
}

func TestParseDrawRows_MissingColumns(t *testing.T) {
	_, err := ParseDrawRows(models.Quina, [][]string{{"Numero", "Bola1"}})
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("expected ErrMissingColumn without Concurso, got %v", err)
	}
	_, err = ParseDrawRows(models.Quina, [][]string{{"Concurso", "Bola1", "Bola2"}, {"1", "1", "2"}})
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("expected ErrMissingColumn without Bola3, got %v", err)
	}
}

func TestReadCSV_SemicolonAndBOM(t *testing.T) {
	rows, err := readCSV(strings.NewReader("\xef\xbb\xbfConcurso;Bola1\n1;2,0\n"))
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if rows[0][0] != "Concurso" || rows[1][1] != "2,0" {
		t.Errorf("unexpected rows %q", rows)
	}
	if n, err := parseNumber(rows[1][1]); err != nil || n != 2 {
		t.Errorf("expected 2,0 to parse as 2, got %d, %v", n, err)
	}
}

func writeQuinaWorkbook(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"Concurso", "Data Sorteio", "Bola1", "Bola2", "Bola3", "Bola4", "Bola5"},
		{1, "01/01/2024", 5, 10, 15, 20, 25},
		{2, "02/01/2024", 6, 11, 16, 21, 26},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("could not save workbook: %v", err)
	}
}

func TestDrawLoader_FallsBackThroughSources(t *testing.T) {
	dir := t.TempDir()
	// The first source exists but has no usable header.
	if err := os.WriteFile(filepath.Join(dir, "quina.csv"), []byte("foo,bar\n1,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	writeQuinaWorkbook(t, filepath.Join(dir, "Quina.xlsx"))

	draws, err := NewDrawLoader(dir).LoadDraws(models.Quina)
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if len(draws) != 2 || !reflect.DeepEqual(draws[1].Numbers, []int{6, 11, 16, 21, 26}) {
		t.Errorf("unexpected draws %+v", draws)
	}
}

func TestDrawLoader_NoSource(t *testing.T) {
	_, err := NewDrawLoader(t.TempDir()).LoadDraws(models.Lotomania)
	if !errors.Is(err, ErrNoDrawSource) {
		t.Errorf("expected ErrNoDrawSource, got %v", err)
	}
}

func TestParseCardsCSV(t *testing.T) {
	input := "Cartao_15,Outro\n" +
		"\"[1, 2, 4, 7, 8, 9, 10, 12, 14, 15, 17, 18, 20, 23, 25]\",x\n" +
		"\"[1, 2, 3]\",y\n" +
		"\"[25, 24, 23, 22, 21, 20, 19, 18, 17, 16, 15, 14, 13, 12, 11]\",z\n"

	cards, err := ParseCardsCSV(strings.NewReader(input), models.Lotofacil)
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("expected the short card to be skipped, got %d cards", len(cards))
	}
	if !reflect.DeepEqual(cards[0].Numbers, exampleCard) {
		t.Errorf("unexpected first card %v", cards[0].Numbers)
	}
	if cards[1].Numbers[0] != 11 {
		t.Errorf("expected cards to be sorted, got %v", cards[1].Numbers)
	}

	if _, err := ParseCardsCSV(strings.NewReader("Numeros\n1\n"), models.Lotofacil); !errors.Is(err, ErrMissingColumn) {
		t.Errorf("expected ErrMissingColumn, got %v", err)
	}
}

func TestParseCardsCSV_RejectsNegativeNumbers(t *testing.T) {
	input := "Cartao_15\n" +
		"\"[-3, 2, 4, 7, 8, 9, 10, 12, 14, 15, 17, 18, 20, 23, 25]\"\n" +
		"\"[3, 2, 4, 7, 8, 9, 10, 12, 14, 15, 17, 18, 20, 23, 25]\"\n"

	cards, err := ParseCardsCSV(strings.NewReader(input), models.Lotofacil)
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if len(cards) != 1 || cards[0].Numbers[0] != 2 {
		t.Errorf("expected only the card without a negative number, got %v", cards)
	}
	if _, err := parseNumberList("[-3, 2]"); err == nil {
		t.Error("expected an error for a negative number")
	}
}
