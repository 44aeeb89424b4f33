package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_uuid "github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/HasnaMouflih/chatbot-educatif-intelligent/controller"
	"github.com/HasnaMouflih/chatbot-educatif-intelligent/model"
	"github.com/HasnaMouflih/chatbot-educatif-intelligent/platform"
	"github.com/HasnaMouflih/chatbot-educatif-intelligent/service"
)

// CORSMiddleware permits cross-origin requests from the configured
// allow-list only.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if _, ok := allowed[origin]; ok {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Max-Age", "86400")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, DELETE")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Origin, Authorization, Accept")
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

// RequestIDMiddleware attaches a unique id to each request for log
// correlation.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		uuid := _uuid.New()
		c.Writer.Header().Set("X-Request-Id", uuid.String())
		c.Set("requestId", uuid.String())
		c.Next()
	}
}

func LogMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		logger.Infof(" [%s] %d | %v | %s | %s | %s | %s ",
			c.GetString("requestId"),
			c.Writer.Status(),
			time.Since(start),
			c.ClientIP(),
			c.Request.Method,
			path,
			c.Request.UserAgent(),
		)
	}
}

func main() {
	collectFlag := flag.Bool("collect", false, "Scrape the documentation sources into the corpus CSV and exit")
	cleanFlag := flag.String("clean", "", "Comma-separated corpus CSVs to clean and merge, then exit")
	cleanOutput := flag.String("out", "dataset_bilingue_nettoye.csv", "Output file for -clean")
	flag.Parse()

	cfg, err := platform.LoadConfig()
	if err != nil {
		logrus.Fatalf("failed to load configuration: %v", err)
	}

	logger := platform.NewLogger(cfg.LogPath, "chatbot")

	// One-shot corpus tooling runs without the server.
	if *collectFlag {
		corpus := service.NewCorpusService(logger)
		stats, err := corpus.Collect(context.Background(), service.DefaultSources(), cfg.CorpusOutput)
		if err != nil {
			logger.Fatalf("corpus collection failed: %v", err)
		}
		logger.Infof("collected %d pairs into %s", stats.Pairs, stats.Output)
		return
	}
	if *cleanFlag != "" {
		dataset := service.NewDatasetService(logger)
		stats, err := dataset.Clean(strings.Split(*cleanFlag, ","), *cleanOutput)
		if err != nil {
			logger.Fatalf("dataset cleaning failed: %v", err)
		}
		logger.Infof("kept %d rows in %s", stats.Kept, stats.Output)
		return
	}

	client, err := platform.ConnectMongo(context.Background(), cfg.MongoURI)
	if err != nil {
		logger.Fatalf("failed to connect to the document store: %v", err)
	}
	defer client.Disconnect(context.Background())

	store := model.NewStore(client, cfg.MongoDB)

	llmClient := platform.NewLLMClient(cfg.LLMBaseURL, cfg.LLMAPIKey)
	inference := service.NewInferenceService(llmClient, cfg.LLMModel, logger)

	tokens := service.NewTokenService(cfg.AccessSecret, time.Duration(cfg.TokenTTLMinutes)*time.Minute)
	users := service.NewUserService(store, tokens)
	chat := service.NewChatService(store, inference)

	auth := controller.NewAuthController(users, tokens, logger)
	userCtrl := controller.NewUserController(users, logger)
	chatCtrl := controller.NewChatController(chat, logger)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(CORSMiddleware(cfg.AllowedOrigins))
	r.Use(RequestIDMiddleware())
	r.Use(LogMiddleware(logger))

	r.GET("/health", func(c *gin.Context) {
		if err := store.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "store unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/users/signup", userCtrl.Signup)
	r.POST("/users/login", userCtrl.Login)

	protected := r.Group("/", auth.TokenRequired())
	{
		protected.POST("/ask", chatCtrl.Ask)
		protected.GET("/history/ids", chatCtrl.ChatIDs)
		protected.GET("/history/:chat_id", chatCtrl.History)
		protected.DELETE("/history/:chat_id", chatCtrl.DeleteHistory)
	}

	// Optional scheduled corpus re-collection with a mailed report.
	if cfg.CollectCron != "" {
		report := service.NewReportService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass,
			cfg.ReportFrom, cfg.ReportTo, logger)
		task := service.NewCollectTask(service.NewCorpusService(logger), report, cfg.CorpusOutput, logger)

		c := cron.New()
		if _, err := c.AddJob(cfg.CollectCron, task); err != nil {
			logger.Fatalf("invalid COLLECT_CRON expression: %v", err)
		}
		c.Start()
		defer c.Stop()
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Infof("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("could not listen on :%s: %v", cfg.Port, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited")
}
