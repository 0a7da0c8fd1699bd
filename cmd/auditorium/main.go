package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"auditorium/client"
	"auditorium/internal/config"
	"auditorium/pkg/logger"
	"auditorium/pkg/tokenstore"

	"github.com/redis/go-redis/v9"
	clientv3 "go.etcd.io/etcd/client/v3"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var errUsage = errors.New("usage")

type app struct {
	cfg     *config.Config
	client  *client.Client
	session *client.Session
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger.InitLogger("cli")
	defer logger.Sync()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, cmd, os.Args[2:]); err != nil {
		if errors.Is(err, errUsage) {
			usage()
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if traceID := traceOf(err); traceID != "" {
			fmt.Fprintf(os.Stderr, "trace id: %s\n", traceID)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, cmd command, args []string) error {
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	opts := []client.Option{
		client.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
		client.WithUserAgent(cfg.API.UserAgent),
	}
	if cfg.API.CoalesceRefresh {
		opts = append(opts, client.WithRefreshCoalescing())
	}
	c := client.New(cfg.API.BaseURL, store, opts...)
	c.OnSessionExpired(func(error) {
		fmt.Fprintln(os.Stderr, "session expired, run `auditorium login` again")
	})

	a := &app{cfg: cfg, client: c, session: client.NewSession(c)}
	return cmd.run(ctx, a, args)
}

func traceOf(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.TraceID()
	}
	return ""
}

func usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(os.Stderr, "usage: auditorium <command> [flags]")
	fmt.Fprintln(os.Stderr, "\ncommands:")
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-18s %s\n", name, commands[name].help)
	}
}

// -- Token store backends --

func openStore(ctx context.Context, cfg *config.Config) (*tokenstore.Store, func(), error) {
	nop := func() {}
	var (
		backend tokenstore.Backend
		closer  = nop
	)

	switch cfg.Storage.Backend {
	case "memory":
		backend = tokenstore.NewMemoryBackend()
	case "file":
		backend = tokenstore.NewFileBackend(cfg.Storage.Path)
	case "redis":
		rdb, err := initRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, nop, err
		}
		backend = tokenstore.NewRedisBackend(rdb, cfg.Storage.Prefix)
		closer = func() { rdb.Close() }
	case "etcd":
		cli, err := initEtcd(cfg.Etcd)
		if err != nil {
			return nil, nop, err
		}
		backend = tokenstore.NewEtcdBackend(cli, cfg.Storage.Prefix)
		closer = func() { cli.Close() }
	case "mysql":
		sqlBackend, err := initDB(ctx, cfg.MySQL)
		if err != nil {
			return nil, nop, err
		}
		backend = sqlBackend
		closer = func() { sqlBackend.Close() }
	default:
		return nil, nop, config.ErrUnknownBackend
	}

	store := tokenstore.New(backend, tokenstore.WithKeys(cfg.Storage.AccessKey, cfg.Storage.RefreshKey))
	return store, closer, nil
}

func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

func initEtcd(cfg config.EtcdConfig) (*clientv3.Client, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}
	return cli, nil
}

func initDB(ctx context.Context, cfg config.MySQLConfig) (*tokenstore.SQLBackend, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mysql: %w", err)
	}
	backend := tokenstore.NewSQLBackend(db)
	if err := backend.Migrate(ctx); err != nil {
		backend.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return backend, nil
}
