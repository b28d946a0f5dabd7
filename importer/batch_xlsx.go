package importer

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/xuri/excelize/v2"

	"termnorm/normalization"
)

// Normalizer сопоставляет одно сырое значение с каноническим термином
type Normalizer interface {
	Normalize(ctx context.Context, value string, table *normalization.MappingTable) *normalization.MatchResult
}

// BatchOptions параметры пакетной обработки Excel-файла
type BatchOptions struct {
	// Sheet имя листа; пустое значение означает первый лист
	Sheet string
	// SourceColumn колонка с сырыми значениями ("A", "B", ...)
	SourceColumn string
	// SkipHeader пропустить первую строку
	SkipHeader bool
}

// BatchResult итог пакетной обработки
type BatchResult struct {
	Total     int
	Matched   int
	NoMatch   int
	Started   time.Time
	Completed time.Time
}

// ProcessXLSX нормализует значения из колонки Excel-файла и дописывает
// рядом колонки с целью, методом и уверенностью. Файл перезаписывается.
func ProcessXLSX(ctx context.Context, path string, opts BatchOptions, normalizer Normalizer, table *normalization.MappingTable) (*BatchResult, error) {
	if opts.SourceColumn == "" {
		opts.SourceColumn = "A"
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	srcCol, err := excelize.ColumnNameToNumber(opts.SourceColumn)
	if err != nil {
		return nil, fmt.Errorf("invalid source column %q: %w", opts.SourceColumn, err)
	}

	result := &BatchResult{Started: time.Now()}

	targetCol, _ := excelize.ColumnNumberToName(srcCol + 1)
	methodCol, _ := excelize.ColumnNumberToName(srcCol + 2)
	confidenceCol, _ := excelize.ColumnNumberToName(srcCol + 3)

	if opts.SkipHeader && len(rows) > 0 {
		f.SetCellValue(sheet, fmt.Sprintf("%s1", targetCol), "Цель")
		f.SetCellValue(sheet, fmt.Sprintf("%s1", methodCol), "Метод")
		f.SetCellValue(sheet, fmt.Sprintf("%s1", confidenceCol), "Уверенность")
	}

	// Логируем прогресс каждые 100 строк
	logInterval := 100
	if len(rows) > 1000 {
		logInterval = 500
	}

	for idx, row := range rows {
		if opts.SkipHeader && idx == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		var value string
		if len(row) >= srcCol {
			value = row[srcCol-1]
		}
		if value == "" {
			continue
		}

		result.Total++

		match := normalizer.Normalize(ctx, value, table)

		rowNum := idx + 1
		f.SetCellValue(sheet, fmt.Sprintf("%s%d", targetCol, rowNum), match.Target)
		f.SetCellValue(sheet, fmt.Sprintf("%s%d", methodCol, rowNum), match.Method)
		f.SetCellValue(sheet, fmt.Sprintf("%s%d", confidenceCol, rowNum), match.Confidence)

		if match.Method == normalization.MethodNoMatch || match.Method == normalization.MethodError {
			result.NoMatch++
		} else {
			result.Matched++
		}

		if result.Total%logInterval == 0 {
			log.Printf("[Importer] INFO: processed %d/%d rows (%.1f%%)",
				result.Total, len(rows), float64(idx+1)/float64(len(rows))*100)
		}
	}

	if err := f.Save(); err != nil {
		return result, fmt.Errorf("failed to save Excel file: %w", err)
	}

	result.Completed = time.Now()
	log.Printf("[Importer] INFO: batch completed, %d matched, %d without match", result.Matched, result.NoMatch)

	return result, nil
}
