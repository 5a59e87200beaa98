package services

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"studyvault-backend/internal/engine"
	"studyvault-backend/internal/logger"
)

// ExportService renders generated quizzes as downloadable spreadsheets.
type ExportService struct{}

func NewExportService() *ExportService {
	return &ExportService{}
}

// QuizWorkbook builds an xlsx with one row per quiz item.
func (es *ExportService) QuizWorkbook(title string, items []engine.QuizItem) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("Error closing Excel file", "error", err)
		}
	}()

	sheetName := "Quiz"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"#", "Question", "Option A", "Option B", "Option C", "Option D", "Answer", "Explanation",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIdx, item := range items {
		row := rowIdx + 2 // Start from row 2 (after headers)

		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), rowIdx+1)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), item.Question)
		for i, opt := range item.Options {
			if i >= 4 {
				break
			}
			f.SetCellValue(sheetName, fmt.Sprintf("%c%d", 'C'+i, row), opt)
		}
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), item.Answer)
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), item.Explanation)
	}

	f.SetColWidth(sheetName, "B", "B", 50)
	f.SetColWidth(sheetName, "C", "F", 25)
	f.SetColWidth(sheetName, "G", "G", 25)
	f.SetColWidth(sheetName, "H", "H", 50)

	if title != "" {
		f.SetCellValue(sheetName, "J1", "Source")
		f.SetCellValue(sheetName, "J2", title)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

// StreamQuiz streams the quiz workbook as an attachment.
func (es *ExportService) StreamQuiz(c *gin.Context, filename string, items []engine.QuizItem) error {
	data, err := es.QuizWorkbook(filename, items)
	if err != nil {
		return err
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+filename+".xlsx")
	c.Header("Content-Length", strconv.Itoa(len(data)))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	return nil
}
