// Package export renders the appointment ledger as an xlsx workbook for
// offline review by clinic staff.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"nursecare/internal/model"
)

var appointmentColumns = []string{
	"ID", "Date", "Time", "Status", "Full Name", "Phone", "Email", "Address", "Services", "Created At",
}

// ServiceNameResolver returns the service names attached to an appointment.
type ServiceNameResolver func(appointmentID string) []string

// WriteAppointments writes one sheet of appointments to w.
func WriteAppointments(w io.Writer, appointments []model.Appointment, resolve ServiceNameResolver) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Appointments"
	f.SetSheetName("Sheet1", sheet)

	if err := writeHeader(f, sheet); err != nil {
		return err
	}

	for i, a := range appointments {
		names := resolve(a.ID)
		row := []interface{}{
			a.ID, a.Date, a.Time, a.Status, a.FullName, a.Phone, a.Email, a.Address,
			strings.Join(names, ", "),
			a.CreatedAt.Format("2006-01-02 15:04"),
		}
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string) error {
	for i, col := range appointmentColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, 1)
		endCell, _ := excelize.CoordinatesToCellName(len(appointmentColumns), 1)
		_ = f.SetCellStyle(sheet, startCell, endCell, style)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, rowNum int, row []interface{}) error {
	for i, val := range row {
		cell, err := excelize.CoordinatesToCellName(i+1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, val); err != nil {
			return err
		}
	}
	return nil
}
