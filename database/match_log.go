package database

import (
	"log"
	"time"

	"termnorm/normalization"
)

// MatchLog журнал сопоставлений поверх MappingDB. Ошибки записи
// проглатываются: журналирование не должно влиять на результат
// нормализации.
type MatchLog struct {
	db *MappingDB
}

// NewMatchLog создает журнал сопоставлений
func NewMatchLog(db *MappingDB) *MatchLog {
	return &MatchLog{db: db}
}

// LogMatch записывает одно сопоставление
func (ml *MatchLog) LogMatch(entry normalization.MatchLogEntry) {
	_, err := ml.db.conn.Exec(`
		INSERT INTO match_log(source, target, method, confidence, latency_ms, matched_key, direction, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.Source, entry.Target, entry.Method, entry.Confidence, entry.LatencyMS, entry.MatchedKey, entry.Direction, time.Now())
	if err != nil {
		log.Printf("[MatchLog] WARN: failed to log match for %q: %v", entry.Source, err)
	}
}

// MethodStats агрегированная статистика по одному методу сопоставления
type MethodStats struct {
	Method        string
	Count         int
	AvgConfidence float64
	AvgLatencyMS  float64
}

// Stats возвращает статистику журнала по методам сопоставления
func (ml *MatchLog) Stats() ([]MethodStats, error) {
	rows, err := ml.db.conn.Query(`
		SELECT method, COUNT(*), AVG(confidence), AVG(latency_ms)
		FROM match_log
		GROUP BY method
		ORDER BY COUNT(*) DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []MethodStats
	for rows.Next() {
		var s MethodStats
		if err := rows.Scan(&s.Method, &s.Count, &s.AvgConfidence, &s.AvgLatencyMS); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
