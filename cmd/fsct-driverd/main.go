// Command fsct-driverd runs the FSCT host driver: it owns the USB context,
// spawns the Driver Façade (C11), and serves the optional IPC and status
// surfaces until told to stop. Flag parsing, signal-based graceful shutdown
// and the listen-then-wait-for-quit shape are grounded on
// cmd/driver/hasher-host/main.go's func main.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/gousb"
	"golang.org/x/sync/errgroup"

	"github.com/HEM-RnD/fsct-host-sub000/internal/config"
	"github.com/HEM-RnD/fsct-host-sub000/internal/driver"
	"github.com/HEM-RnD/fsct-host-sub000/internal/ipc"
	"github.com/HEM-RnD/fsct-host-sub000/internal/statusapi"
)

var (
	pollInterval = flag.Duration("poll-interval", 0, "USB device watch poll interval (0 = use config/.env default)")
	ipcAddr      = flag.String("ipc-addr", "", "address the grpc IPC server listens on (empty = use config/.env default)")
	statusAddr   = flag.String("status-addr", "", "address the read-only HTTP status server listens on (empty = use config/.env default)")
	enableIPC    = flag.Bool("ipc", true, "enable the grpc IPC server")
	enableStatus = flag.Bool("status", true, "enable the HTTP status server")
	logLevel     = flag.String("log-level", "", "debug|info|warn|error (empty = use config/.env default)")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadDriverConfig()
	if err != nil {
		log.Fatalf("fsct-driverd: load config: %v", err)
	}
	if *pollInterval > 0 {
		cfg.PollInterval = *pollInterval
	}
	if *ipcAddr != "" {
		cfg.IPCAddr = *ipcAddr
	}
	if *statusAddr != "" {
		cfg.StatusAddr = *statusAddr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	logger := config.NewLogger(config.ParseLogLevel(cfg.LogLevel))

	logger.Infof("fsct-driverd starting: poll-interval=%s ipc=%s status=%s log-level=%s", cfg.PollInterval, cfg.IPCAddr, cfg.StatusAddr, cfg.LogLevel)

	usbCtx := gousb.NewContext()
	defer usbCtx.Close()

	d := driver.New()

	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()
	handle := d.Run(runCtx, usbCtx, cfg.PollInterval)

	var group errgroup.Group

	var grpcServer interface{ GracefulStop() }
	if *enableIPC {
		srv, err := ipc.Listen(cfg.IPCAddr, d)
		if err != nil {
			log.Fatalf("fsct-driverd: start IPC server: %v", err)
		}
		grpcServer = srv
		logger.Infof("IPC server listening on %s", cfg.IPCAddr)
	}

	var statusSrv *statusapi.Server
	if *enableStatus {
		statusSrv = statusapi.New(d, cfg.StatusAddr)
		statusErrCh := statusSrv.Start()
		group.Go(func() error {
			if err := <-statusErrCh; err != nil {
				return err
			}
			return nil
		})
		logger.Infof("status server listening on %s", cfg.StatusAddr)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("fsct-driverd shutting down...")

	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	if statusSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := statusSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("status server shutdown error: %v", err)
		}
		cancel()
	}

	cancelRun()
	if err := handle.Shutdown(); err != nil {
		logger.Warnf("driver shutdown error: %v", err)
	}

	if err := group.Wait(); err != nil {
		logger.Warnf("background server error: %v", err)
	}

	logger.Infof("fsct-driverd stopped")
}
