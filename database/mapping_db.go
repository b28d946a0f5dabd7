// Package database хранит словари нормализации и журнал сопоставлений
// в SQLite. Схема версионируется через таблицу schema_migrations.
package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"termnorm/normalization"
)

// MappingDB подключение к базе словарей нормализации
type MappingDB struct {
	conn *sql.DB
}

// NewMappingDB открывает базу и применяет миграции
func NewMappingDB(dbPath string) (*MappingDB, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// In-memory SQLite требует ровно одного соединения, иначе каждое
	// новое соединение видит пустую БД без таблиц
	if isInMemory(dbPath) {
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
	} else {
		conn.SetMaxOpenConns(10)
		conn.SetConnMaxLifetime(time.Hour)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &MappingDB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

// isInMemory определяет, что путь относится к in-memory SQLite
func isInMemory(dbPath string) bool {
	if dbPath == ":memory:" {
		return true
	}
	return strings.HasPrefix(dbPath, "file:") && strings.Contains(dbPath, "mode=memory")
}

// Close закрывает подключение
func (db *MappingDB) Close() error {
	return db.conn.Close()
}

// migrate применяет миграции схемы
func (db *MappingDB) migrate() error {
	migrations := []struct {
		name string
		fn   func(*sql.DB) error
	}{
		{"001_create_forward_mappings", createForwardMappings},
		{"002_create_canonical_terms", createCanonicalTerms},
		{"003_create_match_log", createMatchLog},
	}

	for _, m := range migrations {
		if err := ensureMigrationApplied(db.conn, m.name, m.fn); err != nil {
			return err
		}
	}
	return nil
}

func createForwardMappings(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE TABLE forward_mappings (
			source_key TEXT PRIMARY KEY,
			target TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			unit TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

func createCanonicalTerms(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE TABLE canonical_terms (
			term TEXT PRIMARY KEY,
			category TEXT NOT NULL DEFAULT ''
		);
		CREATE TABLE term_aliases (
			term TEXT NOT NULL REFERENCES canonical_terms(term) ON DELETE CASCADE,
			alias TEXT NOT NULL,
			PRIMARY KEY (term, alias)
		);
	`)
	return err
}

func createMatchLog(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE TABLE match_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			target TEXT NOT NULL,
			method TEXT NOT NULL,
			confidence REAL NOT NULL,
			latency_ms INTEGER NOT NULL,
			matched_key TEXT NOT NULL DEFAULT '',
			direction TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX idx_match_log_method ON match_log(method);
	`)
	return err
}

// LoadMappingTable загружает словари из базы и строит таблицу для
// конвейера нормализации
func (db *MappingDB) LoadMappingTable() (*normalization.MappingTable, error) {
	forward, err := db.loadForward()
	if err != nil {
		return nil, err
	}

	reverse, err := db.loadReverse()
	if err != nil {
		return nil, err
	}

	return normalization.NewMappingTable(forward, reverse), nil
}

// loadForward читает прямой словарь
func (db *MappingDB) loadForward() (map[string]normalization.MappingEntry, error) {
	rows, err := db.conn.Query(`SELECT source_key, target, category, unit FROM forward_mappings`)
	if err != nil {
		return nil, fmt.Errorf("failed to query forward mappings: %w", err)
	}
	defer rows.Close()

	forward := make(map[string]normalization.MappingEntry)
	for rows.Next() {
		var key, target, category, unit string
		if err := rows.Scan(&key, &target, &category, &unit); err != nil {
			return nil, fmt.Errorf("failed to scan forward mapping: %w", err)
		}

		if category == "" && unit == "" {
			forward[key] = normalization.PlainTarget(target)
		} else {
			forward[key] = normalization.RichTarget{
				TargetValue: target,
				Category:    category,
				Unit:        unit,
			}
		}
	}

	return forward, rows.Err()
}

// loadReverse читает обратный словарь вместе с алиасами
func (db *MappingDB) loadReverse() (map[string]normalization.ReverseEntry, error) {
	rows, err := db.conn.Query(`SELECT term, category FROM canonical_terms`)
	if err != nil {
		return nil, fmt.Errorf("failed to query canonical terms: %w", err)
	}
	defer rows.Close()

	reverse := make(map[string]normalization.ReverseEntry)
	for rows.Next() {
		var term, category string
		if err := rows.Scan(&term, &category); err != nil {
			return nil, fmt.Errorf("failed to scan canonical term: %w", err)
		}
		reverse[term] = normalization.ReverseEntry{Category: category}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	aliasRows, err := db.conn.Query(`SELECT term, alias FROM term_aliases ORDER BY alias`)
	if err != nil {
		return nil, fmt.Errorf("failed to query term aliases: %w", err)
	}
	defer aliasRows.Close()

	for aliasRows.Next() {
		var term, alias string
		if err := aliasRows.Scan(&term, &alias); err != nil {
			return nil, fmt.Errorf("failed to scan term alias: %w", err)
		}
		entry, ok := reverse[term]
		if !ok {
			// Алиас без канонического термина игнорируем
			continue
		}
		entry.Aliases = append(entry.Aliases, alias)
		reverse[term] = entry
	}

	return reverse, aliasRows.Err()
}

// SaveMapping сохраняет или обновляет запись прямого словаря.
// Используется для запоминания ручного выбора пользователя.
func (db *MappingDB) SaveMapping(sourceKey string, entry normalization.MappingEntry) error {
	if sourceKey == "" || entry == nil {
		return fmt.Errorf("source key and entry are required")
	}

	var category, unit string
	if rich, ok := entry.(normalization.RichTarget); ok {
		category = rich.Category
		unit = rich.Unit
	}

	_, err := db.conn.Exec(`
		INSERT INTO forward_mappings(source_key, target, category, unit, updated_at)
		VALUES(?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(source_key) DO UPDATE SET
			target = excluded.target,
			category = excluded.category,
			unit = excluded.unit,
			updated_at = CURRENT_TIMESTAMP
	`, sourceKey, entry.Target(), category, unit)
	if err != nil {
		return fmt.Errorf("failed to save mapping: %w", err)
	}
	return nil
}

// SaveCanonicalTerm сохраняет канонический термин с алиасами
func (db *MappingDB) SaveCanonicalTerm(term string, entry normalization.ReverseEntry) error {
	if term == "" {
		return fmt.Errorf("term is required")
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO canonical_terms(term, category) VALUES(?, ?)
		ON CONFLICT(term) DO UPDATE SET category = excluded.category
	`, term, entry.Category); err != nil {
		return fmt.Errorf("failed to save canonical term: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM term_aliases WHERE term = ?`, term); err != nil {
		return fmt.Errorf("failed to clear term aliases: %w", err)
	}

	for _, alias := range entry.Aliases {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO term_aliases(term, alias) VALUES(?, ?)`, term, alias); err != nil {
			return fmt.Errorf("failed to save term alias: %w", err)
		}
	}

	return tx.Commit()
}
