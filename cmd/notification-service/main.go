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
	"salesai-streams/notify"
	"salesai-streams/store"
)

func main() {
	log.Println("Notification Service starting")
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
	adminPort := envDefault("ADMIN_PORT", "8087")
	dispatchTopic := envDefault("DISPATCH_TOPIC", namespace+"-notification-dispatch")

	rc := redis.NewClient(redisOptions(redisConn))
	views := store.New(rc, namespace, nil)

	prod, err := bus.NewSyncProducer(brokers)
	if err != nil {
		log.Fatalf("producer: %v", err)
	}
	defer prod.Close()
	dispatcher := notify.NewKafkaDispatcher(prod, dispatchTopic)
	consumer := bus.NewConsumer(brokers)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	for _, rule := range notify.Rules() {
		listener := notify.NewListener(rule, views, dispatcher)
		group := rule.Group(namespace)
		topic := rule.TriggerTopic
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Run(ctx, group, topic, listener.Handle); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).WithFields(log.Fields{"group": group, "topic": topic}).Fatal("rule listener failed")
			}
		}()
	}
	log.WithField("rules", len(notify.Rules())).Info("rule listeners started")

	e := echo.New()
	e.HideBanner = true
	e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
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
	log.Println("Notification Service stopped")
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
