// Package importer загружает словари нормализации из внешних файлов
// (JSON, CSV в UTF-8 или windows-1251) и выполняет пакетную
// нормализацию Excel-файлов.
package importer

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"termnorm/database"
	"termnorm/normalization"
)

// dictionaryFile формат JSON-файла словарей: прямой словарь допускает
// и строку, и объект с метаданными в качестве значения
type dictionaryFile struct {
	Forward map[string]json.RawMessage             `json:"forward"`
	Reverse map[string]normalization.ReverseEntry  `json:"reverse"`
}

// LoadDictionaryJSON читает словари из JSON-файла
func LoadDictionaryJSON(path string) (*normalization.MappingTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dictionary file: %w", err)
	}
	return ParseDictionaryJSON(data)
}

// ParseDictionaryJSON разбирает словари из JSON
func ParseDictionaryJSON(data []byte) (*normalization.MappingTable, error) {
	var file dictionaryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse dictionary JSON: %w", err)
	}

	forward := make(map[string]normalization.MappingEntry, len(file.Forward))
	for key, raw := range file.Forward {
		entry, err := normalization.DecodeEntry(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid forward entry %q: %w", key, err)
		}
		forward[key] = entry
	}

	return normalization.NewMappingTable(forward, file.Reverse), nil
}

// CSVOptions параметры разбора CSV-словаря
type CSVOptions struct {
	// Encoding кодировка файла: "utf-8" (по умолчанию) или "windows-1251"
	Encoding string
	// Comma разделитель полей; по умолчанию ';'
	Comma rune
	// SkipHeader пропустить первую строку
	SkipHeader bool
}

// decodeReader оборачивает reader декодером указанной кодировки
func decodeReader(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
		return r, nil
	case "windows-1251", "cp1251":
		// Выгрузки из старых учетных систем приходят в cp1251
		return transform.NewReader(r, charmap.Windows1251.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}

// ImportForwardCSV читает прямой словарь из CSV и сохраняет его в базу.
// Формат строки: источник;цель[;категория[;единица]].
func ImportForwardCSV(r io.Reader, opts CSVOptions, db *database.MappingDB) (int, error) {
	decoded, err := decodeReader(r, opts.Encoding)
	if err != nil {
		return 0, err
	}

	reader := csv.NewReader(decoded)
	reader.Comma = opts.Comma
	if reader.Comma == 0 {
		reader.Comma = ';'
	}
	reader.FieldsPerRecord = -1

	imported := 0
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("failed to read CSV line %d: %w", line+1, err)
		}
		line++

		if opts.SkipHeader && line == 1 {
			continue
		}
		if len(record) < 2 {
			log.Printf("[Importer] WARN: line %d has %d fields, expected at least 2, skipping", line, len(record))
			continue
		}

		key := strings.TrimSpace(record[0])
		target := strings.TrimSpace(record[1])
		if key == "" || target == "" {
			continue
		}

		entry := buildEntry(target, record)
		if err := db.SaveMapping(key, entry); err != nil {
			return imported, fmt.Errorf("failed to save mapping from line %d: %w", line, err)
		}
		imported++
	}

	log.Printf("[Importer] INFO: imported %d forward mappings", imported)
	return imported, nil
}

// buildEntry собирает элемент словаря из полей CSV-строки
func buildEntry(target string, record []string) normalization.MappingEntry {
	var category, unit string
	if len(record) > 2 {
		category = strings.TrimSpace(record[2])
	}
	if len(record) > 3 {
		unit = strings.TrimSpace(record[3])
	}

	if category == "" && unit == "" {
		return normalization.PlainTarget(target)
	}
	return normalization.RichTarget{TargetValue: target, Category: category, Unit: unit}
}

// ImportTermsCSV читает канонические термины из CSV и сохраняет их в
// базу. Формат строки: термин[;категория[;алиасы через запятую]].
func ImportTermsCSV(r io.Reader, opts CSVOptions, db *database.MappingDB) (int, error) {
	decoded, err := decodeReader(r, opts.Encoding)
	if err != nil {
		return 0, err
	}

	reader := csv.NewReader(decoded)
	reader.Comma = opts.Comma
	if reader.Comma == 0 {
		reader.Comma = ';'
	}
	reader.FieldsPerRecord = -1

	imported := 0
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("failed to read CSV line %d: %w", line+1, err)
		}
		line++

		if opts.SkipHeader && line == 1 {
			continue
		}

		term := strings.TrimSpace(record[0])
		if term == "" {
			continue
		}

		entry := normalization.ReverseEntry{}
		if len(record) > 1 {
			entry.Category = strings.TrimSpace(record[1])
		}
		if len(record) > 2 {
			for _, alias := range strings.Split(record[2], ",") {
				if alias = strings.TrimSpace(alias); alias != "" {
					entry.Aliases = append(entry.Aliases, alias)
				}
			}
		}

		if err := db.SaveCanonicalTerm(term, entry); err != nil {
			return imported, fmt.Errorf("failed to save term from line %d: %w", line, err)
		}
		imported++
	}

	log.Printf("[Importer] INFO: imported %d canonical terms", imported)
	return imported, nil
}
