package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/korylprince/egpt-chat/chatbot"
	"github.com/korylprince/egpt-chat/httpapi"
	"github.com/korylprince/egpt-chat/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

//recoveryLogger adapts zap to handlers.RecoveryHandlerLogger
type recoveryLogger struct {
	l *zap.Logger
}

func (r recoveryLogger) Println(v ...interface{}) {
	r.l.Error("Recovered from panic", zap.String("panic", fmt.Sprint(v...)))
}

func newTranscriptStore(ctx context.Context, config *Config) (chatbot.TranscriptStore, string, error) {
	if config.RedisAddr == "" {
		return chatbot.NewLRUStore(config.CacheMaxBytes), "memory", nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         config.RedisAddr,
		Password:     config.RedisPassword,
		DB:           config.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	store := chatbot.NewRedisStore(rdb, time.Minute*time.Duration(config.SessionDuration))
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		rdb.Close()
		return nil, "", err
	}
	return store, "redis", nil
}

//registerGauges exposes the number of live sessions and, for the memory store, cached transcripts
func registerGauges(reg prometheus.Registerer, sessions *httpapi.MemorySessionStore, store chatbot.TranscriptStore) error {
	collectors := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "egpt_sessions",
			Help: "Number of browser sessions held in memory, including expired sessions not yet scavenged",
		}, func() float64 { return float64(sessions.Len()) }),
	}
	if lru, ok := store.(*chatbot.LRUStore); ok {
		collectors = append(collectors, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "egpt_transcripts_cached",
			Help: "Number of transcripts held by the memory transcript store",
		}, func() float64 { return float64(lru.Len()) }))
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	config, err := loadConfig()
	if err != nil {
		log.Fatalln("Could not load configuration:", err)
	}

	logger, err := logging.NewLogger(config.Debug)
	if err != nil {
		log.Fatalln("Could not create logger:", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, storeName, err := newTranscriptStore(ctx, config)
	if err != nil {
		logger.Fatal("Could not open transcript store", zap.Error(err))
	}

	searcher := chatbot.NewSearchClient(config.SearchURL)

	sessions := httpapi.NewMemorySessionStore(time.Minute*time.Duration(config.SessionDuration), ctx.Done())
	if err := registerGauges(prometheus.DefaultRegisterer, sessions, store); err != nil {
		logger.Fatal("Could not register metrics", zap.Error(err))
	}

	r := httpapi.NewRouter(&httpapi.Config{
		Sessions:      sessions,
		Transcripts:   store,
		StoreName:     storeName,
		Searcher:      searcher,
		SearchTimeout: config.SearchTimeout,
		Prefix:        config.Prefix,
		Logger:        logger,
	})

	chain := handlers.CompressHandler(
		handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{logger}))(
			http.StripPrefix(config.Prefix, r),
		),
	)

	server := &http.Server{Addr: config.ListenAddr, Handler: chain}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Could not shut down cleanly", zap.Error(err))
		}
	}()

	logger.Info("Listening",
		zap.String("addr", config.ListenAddr),
		zap.String("prefix", config.Prefix),
		zap.String("search_endpoint", searcher.Endpoint()),
		zap.String("store", storeName),
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
