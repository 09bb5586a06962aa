package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"salesai-streams/bus"
	"salesai-streams/domain"
	"salesai-streams/store"
	"salesai-streams/view"
)

func main() {
	log.Println("View Projector Service starting")
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}

	brokersEnv := os.Getenv("KAFKA_BROKERS")
	redisConn := os.Getenv("REDIS_CONNECTION_STRING")
	if brokersEnv == "" || redisConn == "" {
		log.Fatal("missing broker or store config")
	}
	brokers := strings.Split(brokersEnv, ",")
	namespace := envDefault("NAMESPACE", "salesai1")
	adminPort := envDefault("ADMIN_PORT", "8086")

	rc := redis.NewClient(redisOptions(redisConn))

	defs := view.Definitions()
	st := store.New(rc, namespace, view.IndexedFields(defs))
	agg := view.NewAggregator(st)
	consumer := bus.NewConsumer(brokers)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	start := func(group, topic string, handler bus.Handler) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Run(ctx, group, topic, handler); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).WithFields(log.Fields{"group": group, "topic": topic}).Fatal("listener failed")
			}
		}()
	}

	var listeners int
	for _, def := range defs {
		primary := view.NewPrimaryListener(def, agg, st)
		for _, verb := range def.PrimaryVerbs {
			start(primary.Group(), domain.IndexTopic(namespace, def.PrimaryEntity, verb), primary.Handle)
			listeners++
		}
		for _, dep := range def.Dependencies {
			secondary := view.NewDependencyListener(def, dep, agg, st)
			for _, verb := range dep.Verbs {
				start(secondary.Group(), domain.IndexTopic(namespace, dep.EntityName, verb), secondary.Handle)
				listeners++
			}
		}
	}
	log.WithFields(log.Fields{"views": len(defs), "listeners": listeners}).Info("dependency listeners started")

	e := adminServer(st, agg, defs)
	go func() {
		if err := e.Start(":" + adminPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("admin server failed")
		}
	}()

	wg.Wait()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("admin server shutdown")
	}
	log.Println("View Projector Service stopped")
}

func adminServer(st *store.Store, agg view.Aggregator, defs []view.Definition) *echo.Echo {
	repairer := view.NewRepairer(st, agg)
	e := echo.New()
	e.HideBanner = true
	e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.POST("/repair", func(c echo.Context) error {
		if err := repairer.RepairAll(c.Request().Context(), defs); err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "repaired"})
	})
	e.POST("/repair/:view", func(c echo.Context) error {
		name := c.Param("view")
		for _, def := range defs {
			if def.Name == name {
				if err := repairer.RepairView(c.Request().Context(), def); err != nil {
					return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
				}
				return c.JSON(http.StatusOK, map[string]string{"status": "repaired", "view": name})
			}
		}
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown view " + name})
	})
	return e
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func redisOptions(conn string) *redis.Options {
	opts, err := redis.ParseURL(conn)
	if err != nil {
		opts = &redis.Options{Addr: conn}
	}
	return opts
}
