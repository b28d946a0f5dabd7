// Бэкенд ранжирования терминов: принимает init-terms и
// research-and-match запросы клиентского конвейера нормализации.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"termnorm/internal/config"
	"termnorm/server"
	"termnorm/websearch"
)

func main() {
	configPath := flag.String("config", "", "путь к JSON-файлу конфигурации")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[Server] ERROR: failed to load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	var search server.Searcher
	if cfg.WebSearch.Enabled {
		search = websearch.NewClient(websearch.ClientConfig{
			Cache: websearch.NewCache(websearch.CacheConfig{
				Enabled:         true,
				TTL:             cfg.WebSearch.CacheTTL,
				CleanupInterval: 10 * time.Minute,
				MaxSize:         cfg.WebSearch.MaxSize,
			}),
		})
	}

	srv := server.New(server.Config{
		Ranker: server.RankerConfig{
			Provider: cfg.RankerProvider,
			Language: cfg.RankerLanguage,
		},
		Search: search,
		Logger: logger,
		TopN:   cfg.RankerTopN,
	})

	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("[Server] ERROR: server stopped: %v", err)
	}
}
