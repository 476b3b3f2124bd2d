// Package export renders a validated contract request draft as an
// .xlsx spreadsheet with a fixed layout: title row, client block, and
// one vehicle table combining technical and contractual columns.
package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/norsao/frotaportal/internal/domain"
	"github.com/norsao/frotaportal/internal/metrics"
)

// SheetName is the single worksheet's name.
const SheetName = "Pedido de Contrato"

// Exporter generates contract request spreadsheets. Callers must hand
// it a draft that already passed full validation.
type Exporter struct {
	logger *slog.Logger
}

// NewExporter creates an Exporter.
func NewExporter(logger *slog.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// columnWidths in characters, A through M. Column I is the visual
// spacer between technical and contractual columns.
var columnWidths = []float64{5, 15, 20, 15, 22, 8, 12, 25, 3, 15, 18, 15, 40}

// Generate writes the spreadsheet to w and returns the bytes written.
func (e *Exporter) Generate(ctx context.Context, draft *domain.Draft, w io.Writer) (int64, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return 0, fmt.Errorf("export: rename sheet: %w", err)
	}

	rows := buildRows(draft)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return 0, fmt.Errorf("export: cell name: %w", err)
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return 0, fmt.Errorf("export: row %d: %w", i+1, err)
		}
	}

	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return 0, fmt.Errorf("export: column name: %w", err)
		}
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return 0, fmt.Errorf("export: column width: %w", err)
		}
	}

	n, err := f.WriteTo(w)
	if err != nil {
		return n, fmt.Errorf("export: write workbook: %w", err)
	}

	metrics.ExportsTotal.Inc()
	e.logger.Info("spreadsheet exported",
		"empresa", draft.Client.CompanyName,
		"viaturas", len(draft.Vehicles),
		"bytes", n,
	)
	return n, nil
}

// buildRows lays the draft out as rows of cells.
func buildRows(draft *domain.Draft) [][]any {
	c := draft.Client
	rows := [][]any{
		{"PEDIDO DE CONTRATO DE MANUTENÇÃO - NORS ANGOLA"},
		{""},
		{"DADOS DO CLIENTE"},
		{"Nome da Empresa", c.CompanyName},
		{"NIF", c.TaxID},
		{"Província", c.Province},
		{"Morada", c.Address},
		{"Email Geral", orDash(c.CompanyEmail)},
		{""},
		{"Responsável", c.ContactName},
		{"Cargo", c.ContactRole},
		{"Email Responsável", c.ContactEmail},
		{"Telefone Responsável", c.ContactPhone},
		{""},
		{"FROTA DE VIATURAS & CONDIÇÕES CONTRATUAIS"},
		{
			"Nº", "Marca", "Modelo", "Matrícula", "VIN", "Ano",
			"Km Atual", "Tipo Operação", "|",
			"Duração (Meses)", "Km Total Contrato", "Data Início", "Observações",
		},
	}

	for i, v := range draft.Vehicles {
		rows = append(rows, []any{
			i + 1, v.Make, v.Model, v.Plate, v.VIN, v.Year,
			v.Odometer, v.OperationType, "|",
			v.DurationMonths, v.TotalKm, v.StartDate, orDash(v.Notes),
		})
	}
	rows = append(rows, []any{""})
	return rows
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Filename derives the download name from a slug of the company name
// and the given date: "Pedido_Contrato_<slug>_<YYYY-MM-DD>.xlsx".
func Filename(companyName string, date time.Time) string {
	slug := companySlug(companyName)
	return fmt.Sprintf("Pedido_Contrato_%s_%s.xlsx", slug, date.Format(domain.StartDateLayout))
}

// companySlug lowercases the name, folds accents, and replaces every
// remaining non-alphanumeric rune with an underscore. Blank names fall
// back to "cliente".
func companySlug(name string) string {
	if strings.TrimSpace(name) == "" {
		return "cliente"
	}

	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
