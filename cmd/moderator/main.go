package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/storozh/moderator/internal/classify"
	"github.com/storozh/moderator/internal/commands"
	"github.com/storozh/moderator/internal/config"
	"github.com/storozh/moderator/internal/enforce"
	"github.com/storozh/moderator/internal/gateway"
	"github.com/storozh/moderator/internal/message"
	"github.com/storozh/moderator/internal/messaging"
	"github.com/storozh/moderator/internal/metrics"
	"github.com/storozh/moderator/internal/pipeline"
	"github.com/storozh/moderator/internal/policy"
	"github.com/storozh/moderator/internal/scorer"
	"github.com/storozh/moderator/internal/stats"
	"github.com/storozh/moderator/internal/transcribe"
)

func main() {
	log.Println("Starting storozh moderation service...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	ctx := context.Background()

	// Chat policy: config lists, optionally unioned with Postgres rows.
	startupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	pol, err := policy.Load(startupCtx, cfg.PostgresDSN, cfg.AllowedChatIDs, cfg.ExemptSenderChatIDs)
	cancel()
	if err != nil {
		log.Fatalf("failed to load chat policy: %v", err)
	}

	// Redis backs the enforcement idempotency guard. Optional: without it
	// enforcement is still best-effort, just without redelivery
	// suppression.
	guard := enforce.NopGuard()
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Fatalf("failed to connect to Redis: %v", err)
		}
		guard = enforce.NewRedisGuard(rdb)
	}

	// NATS connects us to the gateway and the scorer.
	natsConfig := messaging.DefaultConfig()
	natsConfig.URL = cfg.NATSURL
	natsClient, err := messaging.NewClient(natsConfig)
	if err != nil {
		log.Fatalf("failed to connect to NATS: %v", err)
	}

	gw := gateway.NewNATSClient(natsClient)

	// Voice transcription is optional; without it voice messages pass
	// through unmoderated.
	var transcriber transcribe.Transcriber
	if cfg.VoiceModeration {
		gt, err := transcribe.NewGoogleTranscriber(ctx, cfg.SpeechLanguage)
		if err != nil {
			log.Fatalf("failed to init speech client: %v", err)
		}
		defer gt.Close()
		transcriber = gt
	}

	agg := stats.New()
	chain := classify.NewChain(
		classify.NewCharsetClassifier(),
		classify.NewLinkClassifier(),
		classify.NewProfanityClassifier(scorer.NewClient(natsClient), cfg.ProfanityThreshold),
	)
	enforcer := enforce.New(gw, guard, cfg.AdminIDs)
	pipe := pipeline.New(pol, gw, transcriber, chain, enforcer, agg)
	cmds := commands.New(gw, pol, cfg.AdminIDs)
	callbacks := enforce.NewCallbackHandler(gw)

	// Every message runs as an independent unit of work.
	err = natsClient.SubscribeMessages(func(data []byte) {
		m, err := message.Decode(data)
		if err != nil {
			log.Printf("[moderator] dropping malformed message event: %v", err)
			return
		}
		go func() {
			// Commands get first refusal so an admin's /chatid is not
			// eaten by the classifiers. Anything the handler declines
			// runs through moderation as usual.
			if cmds.Handle(ctx, m) {
				return
			}
			pipe.Process(ctx, m)
		}()
	})
	if err != nil {
		log.Fatalf("failed to subscribe to message events: %v", err)
	}

	err = natsClient.SubscribeCallbacks(func(data []byte) {
		ev, err := gateway.DecodeCallback(data)
		if err != nil {
			log.Printf("[moderator] dropping malformed callback event: %v", err)
			return
		}
		go callbacks.Handle(ctx, *ev)
	})
	if err != nil {
		log.Fatalf("failed to subscribe to callback events: %v", err)
	}

	// Daily statistics report at the configured local time.
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("unknown timezone %q: %v", cfg.Timezone, err)
	}
	hour, minute, err := config.ParseReportTime(cfg.ReportTime)
	if err != nil {
		log.Fatalf("%v", err)
	}

	scheduler := cron.New(cron.WithLocation(loc))
	_, err = scheduler.AddFunc(fmt.Sprintf("%d %d * * *", minute, hour), func() {
		sendReport(ctx, gw, agg, cfg.AdminIDs)
	})
	if err != nil {
		log.Fatalf("failed to schedule daily report: %v", err)
	}
	scheduler.Start()

	// Prometheus metrics on a side listener.
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
			log.Printf("[moderator] metrics listener: %v", err)
		}
	}()

	log.Printf("storozh moderation service running")
	log.Printf("  allowed_chats:  %d", pol.AllowedCount())
	log.Printf("  admins:         %d", len(cfg.AdminIDs))
	log.Printf("  threshold:      %.2f", cfg.ProfanityThreshold)
	log.Printf("  voice:          %v", cfg.VoiceModeration)
	log.Printf("  report_time:    %s %s", cfg.ReportTime, cfg.Timezone)
	log.Printf("  nats_url:       %s", cfg.NATSURL)
	log.Printf("  redis_addr:     %s", cfg.RedisAddr)
	log.Printf("  metrics_addr:   %s", cfg.MetricsAddr)

	// Graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("received signal %v, shutting down...", sig)

	scheduler.Stop()
	natsClient.Close()
	if rdb != nil {
		rdb.Close()
	}
}

// sendReport snapshots the period and delivers the rendered report to
// every admin independently.
func sendReport(ctx context.Context, gw gateway.Client, agg *stats.Aggregator, admins []int64) {
	text := stats.Render(agg.SnapshotAndReset())
	for _, adminID := range admins {
		if _, err := gw.SendMessage(ctx, adminID, text, nil); err != nil {
			log.Printf("[moderator] report delivery to admin=%d failed: %v", adminID, err)
			continue
		}
		log.Printf("[moderator] report delivered to admin=%d", adminID)
	}
}
