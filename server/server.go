package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"termnorm/server/middleware"
	"termnorm/websearch"
)

// Searcher абстракция веб-поиска для обогащения профиля сущности
type Searcher interface {
	Search(ctx context.Context, query string) (*websearch.SearchResult, error)
}

// Server HTTP-сервер бэкенда ранжирования
type Server struct {
	index  *TermIndex
	ranker *Ranker
	search Searcher
	logger *slog.Logger
	topN   int
	engine *gin.Engine
}

// Config конфигурация сервера
type Config struct {
	// Ranker конфигурация ранжировщика
	Ranker RankerConfig
	// Search клиент веб-поиска; nil отключает обогащение
	Search Searcher
	// Logger структурный логгер; nil — slog.Default()
	Logger *slog.Logger
	// TopN максимальное число кандидатов в ответе
	TopN int
}

// New создает сервер с настроенными маршрутами
func New(config Config) *Server {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.TopN <= 0 {
		config.TopN = 10
	}

	s := &Server{
		index:  NewTermIndex(),
		ranker: NewRanker(config.Ranker),
		search: config.Search,
		logger: config.Logger,
		topN:   config.TopN,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(
		middleware.Recovery(s.logger),
		middleware.RequestID(),
		middleware.CORS(),
		middleware.RequestLogger(s.logger),
	)

	engine.GET("/health", s.handleHealth)

	api := engine.Group("/api")
	{
		api.POST("/session/init-terms", s.handleInitTerms)
		api.POST("/research-and-match", s.handleResearchAndMatch)
	}

	s.engine = engine
	return s
}

// Handler возвращает http.Handler сервера
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run запускает сервер на указанном адресе
func (s *Server) Run(addr string) error {
	s.logger.Info("starting ranking backend", "addr", addr)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}
