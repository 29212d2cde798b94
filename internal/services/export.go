package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const registerSheet = "Invoices"

var registerHeaders = []string{
	"Number", "Date", "Client", "Tax ID", "Status", "Settlement",
	"Total HT", "VAT", "Stamp", "Total TTC", "Paid", "Remaining",
}

// ExportRegister writes every invoice as an xlsx register to w.
func (s *InvoiceService) ExportRegister(ctx context.Context, w io.Writer) error {
	invoices, err := s.List(ctx)
	if err != nil {
		return err
	}
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), registerSheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	numFmt := "#,##0"
	if cfg.Decimals > 0 {
		numFmt += "." + strings.Repeat("0", int(cfg.Decimals))
	}
	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(registerSheet, "A1", &registerHeaders); err != nil {
		return err
	}
	if err := f.SetRowStyle(registerSheet, 1, 1, bold); err != nil {
		return err
	}

	amount := func(d decimal.Decimal) float64 { return cfg.Round(d).InexactFloat64() }
	for i, inv := range invoices {
		row := []any{
			inv.Number,
			inv.InvoiceDate.Format("2006-01-02"),
			inv.ClientName,
			inv.ClientTaxID,
			string(inv.Status),
			string(inv.SettlementStatus),
			amount(inv.TaxableAmount),
			amount(inv.VATAmount),
			amount(inv.StampDuty),
			amount(inv.TotalTTC),
			amount(inv.PaidAmount),
			amount(inv.RemainingAmount),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(registerSheet, cell, &row); err != nil {
			return err
		}
	}
	if n := len(invoices); n > 0 {
		if err := f.SetCellStyle(registerSheet, "G2", fmt.Sprintf("L%d", n+1), money); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(registerSheet, "A", "B", 12)
	_ = f.SetColWidth(registerSheet, "C", "C", 30)
	_ = f.SetColWidth(registerSheet, "D", "L", 14)

	return f.Write(w)
}
