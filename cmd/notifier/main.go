package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"

	"github.com/fatih-yavuz/kick-notifier/internal/bus"
	"github.com/fatih-yavuz/kick-notifier/internal/kick"
	"github.com/fatih-yavuz/kick-notifier/internal/notify"
	"github.com/fatih-yavuz/kick-notifier/internal/obs"
	"github.com/fatih-yavuz/kick-notifier/internal/ops"
	"github.com/fatih-yavuz/kick-notifier/internal/ui"
)

const eventQueueSize = 1024

func main() {
	if err := run(); err != nil {
		logs.Errorf("notifier: %+v", err)
		os.Exit(1)
	}
}

func run() error {
	channelFlag := flag.String("channel", "", "channel name to tail")
	configFlag := flag.String("config", "", "JSON config file path (optional)")
	headlessFlag := flag.Bool("headless", false, "print messages to the log instead of the terminal UI")
	noNotifyFlag := flag.Bool("no-notify", false, "disable desktop notifications")
	flag.Parse()

	cfg := ops.Default()
	if path := strings.TrimSpace(*configFlag); path != "" {
		loaded, err := ops.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if channel := strings.TrimSpace(*channelFlag); channel != "" {
		cfg.Channel = channel
	}
	if cfg.Channel == "" {
		return fmt.Errorf("missing channel; use -channel or the config file")
	}
	if *noNotifyFlag {
		cfg.Notifications = false
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Pyroscope.Enabled {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "kick-notifier",
			ServerAddress:   cfg.Pyroscope.ServerAddress,
			Logger:          emptyLogger{},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			return err
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	metrics := obs.NewMetrics()
	go metrics.RunReportSchedule(ctx, cfg.StatsInterval)

	queue := bus.NewQueue(eventQueueSize)
	defer queue.Close()

	var notifier kick.Notifier = notify.Nop{}
	if cfg.Notifications {
		notifier = notify.NewDesktop("")
	}

	svc, err := kick.New(kick.Config{
		Channel:           cfg.Channel,
		Resolver:          kick.NewResolver(cfg.APIHost, nil),
		Notifier:          notifier,
		Metrics:           metrics,
		BrokerURL:         cfg.BrokerURL,
		HeartbeatInterval: cfg.HeartbeatInterval,
		ReconnectDelay:    cfg.ReconnectDelay,
		OnMessage: func(username, content string) {
			err := queue.TryPublish(bus.Event{
				Kind:     bus.KindChat,
				Username: username,
				Content:  content,
				At:       time.Now(),
			})
			if err != nil {
				metrics.IncQueueDrop()
			}
		},
		OnDebugLog: func(line string) {
			err := queue.TryPublish(bus.Event{
				Kind: bus.KindLog,
				Line: line,
				At:   time.Now(),
			})
			if err != nil {
				metrics.IncQueueDrop()
			}
		},
	})
	if err != nil {
		return err
	}

	svc.Start()
	defer svc.Stop()

	go watchStatus(ctx, svc, queue)

	if *headlessFlag {
		queue.Run(ctx, func(e bus.Event) {
			if e.Kind == bus.KindChat {
				logs.Infof("%s: %s", e.Username, e.Content)
			}
		})
		return nil
	}

	return ui.New(cfg.Channel).Run(ctx, cancel, queue)
}

// watchStatus feeds the UI status line from the service's connected flag.
func watchStatus(ctx context.Context, svc *kick.Service, queue *bus.Queue) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			line := "[yellow]reconnecting…"
			if svc.Connected() {
				line = "[green]connected"
				if viewers, live := svc.Livestream(); live {
					line = fmt.Sprintf("[green]connected  [white]live, %d viewers", viewers)
				}
			}
			_ = queue.TryPublish(bus.Event{Kind: bus.KindStatus, Line: line, At: time.Now()})
		}
	}
}

type emptyLogger struct{}

func (emptyLogger) Infof(_ string, _ ...interface{})  {}
func (emptyLogger) Debugf(_ string, _ ...interface{}) {}
func (emptyLogger) Errorf(_ string, _ ...interface{}) {}
