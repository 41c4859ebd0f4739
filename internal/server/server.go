package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/deenlabs/iqra/internal/api"
	"github.com/deenlabs/iqra/internal/content"
	"github.com/deenlabs/iqra/internal/event"
	"github.com/deenlabs/iqra/internal/glossary"
	"github.com/deenlabs/iqra/internal/progression"
	"github.com/deenlabs/iqra/internal/session"
	"github.com/deenlabs/iqra/internal/telemetry"
)

type Config struct {
	HTTP struct {
		Port int32
	}

	Content struct {
		Dir string
	}

	Redis struct {
		Notify struct {
			Addrs  []string
			Pass   string
			Prefix string
		}
	}
}

type Server struct {
	c Config

	eb *event.Bus

	infra struct {
		redis struct {
			notify redis.UniversalClient
		}

		content *content.Library
	}

	service struct {
		session     *session.Service
		progression *progression.Service
		glossary    *glossary.Matcher
	}

	http *http.Server
}

func Init(c Config) (*Server, error) {
	s := &Server{c: c}

	s.eb = event.NewBus()

	if err := s.initInfra(); err != nil {
		return nil, fmt.Errorf("server: init infra: %w", err)
	}

	s.initService()
	s.initAPI()
	return s, nil
}

func (s *Server) initInfra() error {
	if err := s.initRedis(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	lib, err := content.LoadDir(s.c.Content.Dir)
	if err != nil {
		return fmt.Errorf("content: %w", err)
	}
	s.infra.content = lib

	return nil
}

func (s *Server) initRedis() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	r := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    s.c.Redis.Notify.Addrs,
		Password: s.c.Redis.Notify.Pass,
	})

	if err := telemetry.MonitorRedis(r); err != nil {
		return err
	}

	if err := r.Ping(ctx).Err(); err != nil {
		return err
	}

	s.infra.redis.notify = r
	return nil
}

func (s *Server) initService() {
	s.service.session = session.NewService(session.Config{
		EventBus: s.eb,
		Content:  s.infra.content,
	})

	s.service.progression = progression.NewService(progression.Config{
		EventBus: s.eb,
	})

	s.service.glossary = glossary.NewMatcher(s.infra.content.Glossary())
}

func (s *Server) initAPI() {
	e := gin.New()
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	pprof.Register(e, "/debug/pprof")
	e.Use(gin.Recovery(), telemetry.HTTPLogger())

	api.New(api.Config{
		Router:       e,
		EventBus:     s.eb,
		Session:      s.service.session,
		Progression:  s.service.progression,
		Content:      s.infra.content,
		Glossary:     s.service.glossary,
		Redis:        s.infra.redis.notify,
		PubsubPrefix: s.c.Redis.Notify.Prefix,
	})

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.c.HTTP.Port),
		Handler:           e,
		ReadHeaderTimeout: 60 * time.Second,
	}
}

func (s *Server) Start() {
	ctx := context.TODO()

	slog.InfoContext(ctx, fmt.Sprintf("server: HTTP listening on port %d", s.c.HTTP.Port))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.ErrorContext(ctx, "server: shutdown with error", "error", err)
	}
}

func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "server: shutdown HTTP failed", "error", err)
	}

	s.eb.Stop()

	slog.InfoContext(ctx, "server: shutdown completed")
}
