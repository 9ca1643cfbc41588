package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bandseeking/bandseeking/api"
	"github.com/bandseeking/bandseeking/app"
	"github.com/bandseeking/bandseeking/auth"
	"github.com/bandseeking/bandseeking/config"
	"github.com/bandseeking/bandseeking/notify"
	"github.com/bandseeking/bandseeking/store"
	"github.com/bandseeking/bandseeking/ws"
)

var flagConfig = flag.String("config", "", "path to YAML config file, optional")

func main() {
	flag.Parse()

	// NOTE: os.Exit() does not call defers.
	os.Exit(run())
}

func run() int {
	defer glog.Flush()

	cfg, err := config.Load(*flagConfig)
	if err != nil {
		return errorf("%v", err)
	}

	pid := os.Getpid()

	if err := savePid(cfg.PidFile, pid); err != nil {
		return errorf("pid file: %v", err)
	}
	defer func() {
		_ = os.Remove(cfg.PidFile)
	}()

	pprofDir := filepath.Join(cfg.PprofDir, strconv.Itoa(pid))
	if err := os.MkdirAll(pprofDir, 0750); err != nil {
		return errorf("pprof dir: error create dir `%s`: %v", pprofDir, err)
	}
	defer func() {
		_ = os.RemoveAll(pprofDir)
	}()

	db, err := sql.Open("mysql", cfg.MysqlDSN)
	if err != nil {
		return errorf("sql.Open error, dsn: %s, err: %v", cfg.MysqlDSN, err)
	}

	db.SetConnMaxLifetime(time.Minute * 3)
	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(1)

	gdb, err := app.Connect(cfg.MysqlDSN)
	if err != nil {
		return errorf("gorm connect error: %v", err)
	}

	glog.Info("bandseeking server is starting")

	msgStore := store.NewMessageStore(db)
	authClient := newAuthClient()

	hub := ws.NewHub(authClient, msgStore, &ws.Conf{
		SessionQuota: cfg.SessionQuota,
	})

	var publisher *notify.Publisher
	if cfg.NotifyEnabled() {
		publisher = notify.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer publisher.Close()
	}

	var blobs api.BlobStore
	if cfg.Blob.Dir != "" {
		bs, err := api.NewDiskBlobStore(cfg.Blob.Dir, cfg.Blob.BaseURL)
		if err != nil {
			return errorf("blob store: %v", err)
		}
		blobs = bs
	}

	apiServer := api.NewServer(gdb, msgStore, authClient, publisher, blobs)

	mux := http.NewServeMux()
	if !cfg.DisableMetrics {
		mux.Handle("/metrics", promhttp.HandlerFor(
			prometheus.DefaultGatherer,
			promhttp.HandlerOpts{},
		))
	}
	mux.Handle("/ws", hub)
	mux.Handle("/api/", apiServer.Router())
	if cfg.Blob.Dir != "" {
		prefix := cfg.Blob.BaseURL + "/"
		mux.Handle(prefix, http.StripPrefix(prefix, http.FileServer(http.Dir(cfg.Blob.Dir))))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hubStopC := make(chan struct{})
	go hub.Run(ctx, hubStopC)

	var consumerStopC chan struct{}
	if cfg.NotifyEnabled() {
		consumer := notify.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID,
			notify.NewNoticeStore(app.NewNoticeRepo(gdb), app.NewUserRepo(gdb)), hub)
		consumerStopC = make(chan struct{})
		go consumer.Run(ctx, consumerStopC)
	}

	if cfg.CleanMessages {
		go cleanLoop(ctx, msgStore, int32(cfg.MessageTTLDays))
	}

	lis, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return errorf("listen %s error: %v", cfg.Addr, err)
	}
	httpServer := &http.Server{Handler: mux}
	go func() {
		glog.Infof("http server is listening %v", cfg.Addr)
		if err := httpServer.Serve(lis); errors.Is(err, http.ErrServerClosed) {
			glog.Infof("http server closed")
		} else if err != nil {
			glog.Errorf("error serve http mux server: %v", err)
		}
	}()

	glog.Infof("`kill -USR1 %d` to dump goroutines; `kill -USR2 %d` to start/stop profiler; `CTRL+c` or `kill %d` to graceful stop", pid, pid, pid)

	var stopping bool

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGUSR1, syscall.SIGUSR2, syscall.SIGTERM, syscall.SIGINT)

	var prof *Profiler

	for sig := range sigCh {
		switch sig {
		case syscall.SIGUSR1:
			if prof != nil {
				prof.dumpGoroutines()
			}
		case syscall.SIGUSR2:
			if prof == nil {
				prof = StartProfiler(pprofDir)
			} else {
				prof.Stop()
				prof = nil
			}
		case syscall.SIGTERM, syscall.SIGINT:
			if stopping {
				glog.Infof("bandseeking server is already in stop")
				continue
			}
			stopping = true
			glog.Infof("received signal `%s` stopping", sig.String())
			go func() {
				if prof != nil {
					prof.Stop()
				}
				_ = httpServer.Shutdown(context.Background())
				cancel()
				<-hubStopC
				if consumerStopC != nil {
					<-consumerStopC
				}
				_ = db.Close()
				signal.Stop(sigCh)
				close(sigCh)
			}()
		}
	}

	glog.Info("bandseeking server exited")
	return 0
}

// cleanLoop deletes outdated messages once an hour.
func cleanLoop(ctx context.Context, msgStore store.IMessageStore, ttlDays int32) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			n, err := msgStore.DeleteOutdated(context.Background(), ttlDays)
			if err == nil {
				glog.Infof("deleted %d outdated messages, took %s", n, time.Since(start))
			} else {
				glog.Errorf("delete outdated messages error: %v", err)
			}
		}
	}
}

func newAuthClient() auth.Client {
	// TODO: hook into production auth API.
	return &auth.MockClient{}
}

func errorf(format string, args ...interface{}) int {
	glog.Errorf(format, args...)
	return 1
}

func savePid(name string, pid int) error {
	if _, err := os.Stat(name); err == nil {
		// Ok, see, if we have a stale lockfile here
		content, err := os.ReadFile(name)
		if err != nil {
			return err
		}
		if len(content) > 0 {
			oldPid, err := strconv.Atoi(string(content))
			if err != nil {
				return err
			}

			proc, err := os.FindProcess(oldPid)
			if err != nil {
				return err
			}
			defer proc.Release()

			if err := proc.Signal(syscall.Signal(0)); err == nil {
				return fmt.Errorf("pid file: exists with pid: %d, the process is running", oldPid)
			} else {
				glog.Infof("pid file exists with pid: %d, but is not running", oldPid)
			}
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("pid file: stat error: %v", err)
	}

	if err := os.WriteFile(name, []byte(strconv.Itoa(pid)), 0600); err != nil {
		return fmt.Errorf("pid file: write error: %v", err)
	}
	glog.Infof("pid file: write pid done")
	return nil
}
