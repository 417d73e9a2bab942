package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"time-ledger/internal/models"
	"time-ledger/internal/tracker"
	"time-ledger/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type ImportExportHandler struct {
	DB    *gorm.DB
	Codec entryCodec
	Now   func() time.Time
}

func NewImportExportHandler(db *gorm.DB, encryptKey string, loc *time.Location) *ImportExportHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ImportExportHandler{
		DB:    db,
		Codec: entryCodec{EncryptKey: encryptKey, Loc: loc},
		Now:   time.Now,
	}
}

var exportHeaders = []string{"Date", "Client", "Task", "Start", "End", "Duration", "Hours", "Comment"}

// exportRows builds one row per entry, oldest first. Active entries are
// exported with their live duration and an empty end.
func (h *ImportExportHandler) exportRows(userID uint) ([][]string, error) {
	var clients []models.Client
	if err := h.DB.Where("user_id = ?", userID).Find(&clients).Error; err != nil {
		return nil, err
	}
	names := make(map[string]string, len(clients))
	for _, cl := range clients {
		names[cl.ID] = cl.Name
	}

	var rows []models.TimeEntry
	if err := h.DB.Where("user_id = ?", userID).
		Order("started_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	now := tracker.Millis(h.Now())
	out := make([][]string, 0, len(rows))
	for i := range rows {
		e := h.Codec.toTracker(&rows[i])
		seconds := tracker.EffectiveDuration(e, now)
		end := ""
		if e.EndTime != nil {
			end = tracker.FromMillis(*e.EndTime, h.Codec.Loc).Format("15:04")
		}
		out = append(out, []string{
			e.Date,
			names[e.ClientID],
			e.TaskName,
			tracker.FromMillis(e.StartTime, h.Codec.Loc).Format("15:04"),
			end,
			tracker.FormatDuration(seconds),
			strconv.FormatFloat(tracker.Hours(seconds), 'f', 1, 64),
			e.Comment,
		})
	}
	return out, nil
}

// ExportCSV writes the user's entries as CSV.
func (h *ImportExportHandler) ExportCSV(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	rows, err := h.exportRows(user.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query entries failed")
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"time_entries_%s.csv\"",
		h.Now().Format("20060102")))

	// UTF-8 BOM so spreadsheet apps detect the encoding
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	writer.Write(exportHeaders)
	writer.WriteAll(rows)
}

// ExportXLSX writes the user's entries as an Excel workbook.
func (h *ImportExportHandler) ExportXLSX(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	rows, err := h.exportRows(user.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query entries failed")
		return
	}

	f, err := buildWorkbook(rows)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "build workbook failed")
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"time_entries_%s.xlsx\"",
		h.Now().Format("20060102")))

	if err := f.Write(c.Writer); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "export failed")
	}
}

const sheetName = "Time Entries"

func buildWorkbook(rows [][]string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	for i, title := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, title)
	}
	for r, row := range rows {
		for col, v := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, r+2)
			if col == 6 {
				// hours as a number so sums work
				hours, _ := strconv.ParseFloat(v, 64)
				f.SetCellValue(sheetName, cell, hours)
				continue
			}
			f.SetCellValue(sheetName, cell, v)
		}
	}

	f.SetColWidth(sheetName, "A", "A", 12)
	f.SetColWidth(sheetName, "B", "C", 24)
	f.SetColWidth(sheetName, "D", "G", 10)
	f.SetColWidth(sheetName, "H", "H", 40)
	return f, nil
}
