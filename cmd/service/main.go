package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/2beens/smartnotes/internal"
	"github.com/2beens/smartnotes/internal/config"
	"github.com/2beens/smartnotes/internal/logging"
	"github.com/2beens/smartnotes/internal/storage"
	"github.com/2beens/smartnotes/pkg"

	log "github.com/sirupsen/logrus"
)

func main() {
	fmt.Println("starting ...")

	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	flag.Parse()

	log.Warnf("---->> running in [%s] environment", *env)

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		panic(err)
	}

	sentryDSN := os.Getenv("SENTRY_DSN")
	logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.LogsPath,
		LogToStdout:      cfg.LogToStdout,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    cfg.LogFormatJSON,
		LogMaxSizeMB:     cfg.LogMaxSizeMB,
		LogMaxBackups:    cfg.LogMaxBackups,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        sentryDSN,
		SentryServerName: "smartnotes-service",
	})

	log.Debugf("using port: %d", cfg.Port)
	log.Debugf("using server logs path: [%s]", cfg.LogsPath)
	log.Debugf("using storage backend: [%s]", cfg.StorageBackend)

	versionInfo, err := tryGetLastCommitHash()
	if err != nil {
		log.Tracef("failed to get last commit hash / version info: %s", err)
	} else {
		log.Tracef("running version: %s", versionInfo)
	}

	redisPassword := os.Getenv("SMARTNOTES_REDIS_PASS")
	if redisPassword == "" && cfg.StorageBackend == storage.BackendRedis {
		log.Errorf("redis password not set. use SMARTNOTES_REDIS_PASS")
	}
	postgresPassword := os.Getenv("SMARTNOTES_POSTGRES_PASS")

	if otelServiceName := os.Getenv("OTEL_SERVICE_NAME"); otelServiceName == "" {
		log.Warnln("OTEL_SERVICE_NAME env var not set")
	}

	honeycombEnabled := os.Getenv("HONEYCOMB_ENABLED") == "true"
	if honeycombEnabled {
		if honeycombApiKey := os.Getenv("HONEYCOMB_API_KEY"); honeycombApiKey == "" {
			log.Warnln("HONEYCOMB_API_KEY env var not set")
		}
	}

	if err := ensureStorageDir(cfg); err != nil {
		log.Fatalf("prepare storage dir: %s", err)
	}

	chOsInterrupt := make(chan os.Signal, 1)
	signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server, err := internal.NewServer(
		ctx,
		internal.NewServerParams{
			Config:                  cfg,
			VersionInfo:             versionInfo,
			RedisPassword:           redisPassword,
			PostgresPassword:        postgresPassword,
			HoneycombTracingEnabled: honeycombEnabled,
		},
	)
	if err != nil {
		log.Fatalf("new server: %s", err)
	}

	server.Serve(cfg.Host, cfg.Port)

	receivedSig := <-chOsInterrupt
	log.Warnf("signal [%s] received, killing everything ...", receivedSig)
	cancel()

	server.GracefulShutdown()
}

// ensureStorageDir creates the directory the file or bolt backend writes into
func ensureStorageDir(cfg *config.Config) error {
	var dir string
	switch cfg.StorageBackend {
	case storage.BackendFile:
		dir = cfg.FileStorageDir
	case storage.BackendBolt:
		dir = filepath.Dir(cfg.BoltDBPath)
	default:
		return nil
	}

	exists, err := pkg.PathExists(dir, true)
	if err != nil {
		return err
	}
	if exists {
		log.Printf("storage dir: %s", dir)
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// tryGetLastCommitHash will try to get the last commit hash
// assumes that the built main executable is in project root
func tryGetLastCommitHash() (string, error) {
	cmd := exec.Command("/usr/bin/git", "rev-parse", "HEAD")
	stdout, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return commitHash(stdout), nil
}

// commitHash strips the trailing newline git prints after the hash.
func commitHash(gitOutput []byte) string {
	return strings.TrimSpace(pkg.BytesToString(gitOutput))
}
