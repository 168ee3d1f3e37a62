package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"medcamp-backend/internal/i18n"
	"medcamp-backend/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

var exportColumns = []string{"name", "phone", "date", "amount", "payment", "attendance"}

// ExportRegistrations writes the registrants of an owned camp to w as an xlsx
// workbook and returns the camp it exported.
func (s *CampService) ExportRegistrations(ctx context.Context, identity *models.Identity, campID string, w io.Writer) (*models.Camp, error) {
	camp, regs, err := s.CampRegistrations(ctx, identity, campID)
	if err != nil {
		return nil, err
	}

	locale := i18n.LocaleFromContext(ctx)
	file := excelize.NewFile()
	defer func() {
		if err := file.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close workbook")
		}
	}()

	sheet := s.translator.T(locale, "export.sheet", nil)
	if err := file.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, column := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := file.SetCellValue(sheet, cell, s.translator.T(locale, "export.header."+column, nil)); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, reg := range regs {
		if err := appendRegistrationRow(file, sheet, i+2, reg); err != nil {
			return nil, err
		}
	}

	if err := file.Write(w); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	log.Info().Str("camp_id", camp.ID).Int("rows", len(regs)).Msg("Registrations exported")
	return camp, nil
}

func appendRegistrationRow(file *excelize.File, sheet string, row int, reg models.RegistrationView) error {
	values := []any{
		reg.RegistrantName,
		reg.RegistrantPhone,
		reg.RegistrationDate.Format(time.DateOnly),
		reg.AmountPaid,
		string(reg.PaymentStatus),
		string(reg.AttendanceStatus),
	}
	for col, v := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		if err := file.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row, err)
		}
	}
	return nil
}
