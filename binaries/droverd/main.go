package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/droverco/drover/common/log/hooks"
	"github.com/droverco/drover/common/stats"
	"github.com/droverco/drover/config"
	"github.com/droverco/drover/dlq"
	"github.com/droverco/drover/jobstore"
	"github.com/droverco/drover/jobstore/memory"
	"github.com/droverco/drover/jobstore/redisstore"
	"github.com/droverco/drover/runner"
	"github.com/droverco/drover/sched/scheduler"
)

var cfgFile = flag.String("config", "", "Path to JSON configuration; empty uses defaults.")
var logLevel = flag.String("log_level", "info", "Log everything at this level and above (error|warn|info|debug).")
var statsInterval = flag.Duration("stats_interval", time.Minute, "How often to log a stats snapshot.")

func main() {
	log.AddHook(hooks.NewContextHook())
	flag.Parse()

	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	log.SetLevel(level)

	var cfgText []byte
	if *cfgFile != "" {
		if cfgText, err = os.ReadFile(*cfgFile); err != nil {
			log.Fatalf("Error reading config %s: %v", *cfgFile, err)
		}
	}
	cfg, err := config.Parse(cfgText)
	if err != nil {
		log.Fatal("Error parsing config: ", err)
	}

	var store jobstore.Store
	var dead dlq.Queue
	switch cfg.Store.Type {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Store.RedisAddr, DB: cfg.Store.RedisDB})
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("Error reaching redis at %s: %v", cfg.Store.RedisAddr, err)
		}
		store = redisstore.New(client)
		dead = dlq.NewRedis(client)
	default:
		store = memory.New()
		dead = dlq.NewMemory()
	}

	// Handler bindings for the deployment live here; the sim handler is
	// registered so an empty deployment still has something to run.
	registry := runner.NewRegistry()
	registry.Register("sim", runner.NewSimHandler())

	stat := stats.DefaultStatsReceiver().Scope("droverd")
	sched, err := scheduler.NewStatefulScheduler(store, dead, registry, cfg.SchedulerConfig(), stat)
	if err != nil {
		log.Fatal("Error constructing scheduler: ", err)
	}

	log.Infof("Starting droverd: store:%s capacity cpu:%d mem:%d max_concurrent:%d",
		cfg.Store.Type, cfg.Capacity.CPUUnits, cfg.Capacity.MemoryMB, cfg.Executor.MaxConcurrent)

	go logEvents(sched)
	go logStats(stat)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Infof("Received %s; draining", sig)
	sched.Stop()
}

// logEvents mirrors the lifecycle stream into the log at debug level.
func logEvents(sched scheduler.Scheduler) {
	sub := sched.Subscribe()
	for ev := range sub.C {
		log.Debugf("event:%s job:%s type:%s attempt:%d err:%q",
			ev.Kind, ev.JobId, ev.JobType, ev.Attempt, ev.Error)
	}
}

func logStats(stat stats.StatsReceiver) {
	for range time.Tick(*statsInterval) {
		log.Info("stats: ", string(stat.Render(false)))
	}
}
