// Утилита нормализации терминов: разовая нормализация аргументов
// командной строки, пакетная обработка Excel-файлов и импорт словарей.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"termnorm/database"
	"termnorm/importer"
	"termnorm/internal/config"
	"termnorm/normalization"
	"termnorm/ranking"
	"termnorm/state"
)

// logNotifier печатает уведомления конвейера в лог
type logNotifier struct{}

func (logNotifier) Notify(message, severity string) {
	log.Printf("[Notify] %s: %s", severity, message)
}

func main() {
	configPath := flag.String("config", "", "путь к JSON-файлу конфигурации")
	dictPath := flag.String("dict", "", "JSON-файл словарей вместо базы данных")
	importCSV := flag.String("import-csv", "", "импортировать прямой словарь из CSV")
	importTerms := flag.String("import-terms", "", "импортировать канонические термины из CSV")
	encoding := flag.String("encoding", "utf-8", "кодировка CSV: utf-8 или windows-1251")
	skipHeader := flag.Bool("skip-header", true, "пропускать первую строку CSV и Excel")
	xlsxPath := flag.String("xlsx", "", "Excel-файл для пакетной нормализации")
	column := flag.String("column", "A", "колонка Excel с сырыми значениями")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[CLI] ERROR: failed to load config: %v", err)
	}

	db, err := database.NewMappingDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("[CLI] ERROR: failed to open database: %v", err)
	}
	defer db.Close()

	if *importCSV != "" {
		runImport(*importCSV, *encoding, *skipHeader, db, importer.ImportForwardCSV)
		return
	}
	if *importTerms != "" {
		runImport(*importTerms, *encoding, *skipHeader, db, importer.ImportTermsCSV)
		return
	}

	table, err := loadTable(db, *dictPath)
	if err != nil {
		log.Fatalf("[CLI] ERROR: %v", err)
	}

	pipeline, store := buildPipeline(cfg, db)
	store.Set(normalization.StateMappingsLoaded, true)
	store.Set(normalization.StateUseLLMRanking, true)

	ctx := context.Background()

	if *xlsxPath != "" {
		result, err := importer.ProcessXLSX(ctx, *xlsxPath, importer.BatchOptions{
			SourceColumn: *column,
			SkipHeader:   *skipHeader,
		}, pipeline, table)
		if err != nil {
			log.Fatalf("[CLI] ERROR: batch failed: %v", err)
		}
		fmt.Printf("Обработано %d значений: %d сопоставлено, %d без совпадений\n",
			result.Total, result.Matched, result.NoMatch)
		return
	}

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Использование: termnorm [флаги] <термин> [<термин>...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	for _, value := range flag.Args() {
		match := pipeline.Normalize(ctx, value, table)
		if err := encoder.Encode(match); err != nil {
			log.Fatalf("[CLI] ERROR: failed to encode result: %v", err)
		}
	}
}

// loadTable загружает словари из JSON-файла или из базы
func loadTable(db *database.MappingDB, dictPath string) (*normalization.MappingTable, error) {
	if dictPath != "" {
		return importer.LoadDictionaryJSON(dictPath)
	}
	return db.LoadMappingTable()
}

// buildPipeline собирает конвейер нормализации из конфигурации
func buildPipeline(cfg *config.Config, db *database.MappingDB) (*normalization.Pipeline, *state.Store) {
	transport := ranking.NewClient(ranking.ClientConfig{
		BaseURL: cfg.RankingBaseURL,
		APIKey:  cfg.RankingAPIKey,
		Timeout: cfg.RankingTimeout,
	})

	store := state.NewStore()

	retry := normalization.DefaultRetryConfig()
	retry.MaxAttempts = cfg.InitMaxAttempts

	pipeline := normalization.NewPipeline(transport, store, logNotifier{}, database.NewMatchLog(db), normalization.PipelineConfig{
		ForwardThreshold: cfg.ForwardThreshold,
		ReverseThreshold: cfg.ReverseThreshold,
		DedupeWindow:     cfg.DedupeWindow,
		Retry:            retry,
	})

	return pipeline, store
}

// runImport выполняет импорт CSV-файла в базу
func runImport(path, encoding string, skipHeader bool, db *database.MappingDB, importFn func(r io.Reader, opts importer.CSVOptions, db *database.MappingDB) (int, error)) {
	file, err := os.Open(path)
	if err != nil {
		log.Fatalf("[CLI] ERROR: failed to open %s: %v", path, err)
	}
	defer file.Close()

	count, err := importFn(file, importer.CSVOptions{Encoding: encoding, SkipHeader: skipHeader}, db)
	if err != nil {
		log.Fatalf("[CLI] ERROR: import failed: %v", err)
	}
	fmt.Printf("Импортировано %d записей из %s\n", count, path)
}
