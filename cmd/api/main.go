package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/justsurfingit/jobboard/internal/auth"
	"github.com/justsurfingit/jobboard/internal/config"
	"github.com/justsurfingit/jobboard/internal/database"
	"github.com/justsurfingit/jobboard/internal/handlers"
	"github.com/justsurfingit/jobboard/internal/identity"
	"github.com/justsurfingit/jobboard/internal/logging"
	"github.com/justsurfingit/jobboard/internal/services"
	"github.com/justsurfingit/jobboard/internal/store"
)

const (
	shutdownTimeout = 5 * time.Second
	connectAttempts = 5
	connectBackoff  = time.Second
)

// stores bundles the selected adapters with whatever releases them.
type stores struct {
	jobs  store.JobStore
	users store.UserStore
	close func()
}

func openStores(ctx context.Context, cfg *config.Config, log *logrus.Entry) (*stores, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		var db *gorm.DB
		err := database.Retry(ctx, log, connectAttempts, connectBackoff, func() (err error) {
			db, err = database.Connect(cfg.DatabaseURL)
			return err
		})
		if err != nil {
			return nil, err
		}
		log.Info("Running migrations...")
		if err := store.MigratePostgres(ctx, db); err != nil {
			_ = database.Close(db)
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return &stores{
			jobs:  store.NewPostgresJobStore(db),
			users: store.NewPostgresUserStore(db),
			close: func() {
				if err := database.Close(db); err != nil {
					log.WithError(err).Warn("closing postgres")
				}
			},
		}, nil

	case config.DriverMongo:
		var client *mongo.Client
		err := database.Retry(ctx, log, connectAttempts, connectBackoff, func() (err error) {
			client, err = database.ConnectMongo(ctx, cfg.MongoURI)
			return err
		})
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.MongoDB)
		if err := store.EnsureMongoIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("ensure indexes: %w", err)
		}
		return &stores{
			jobs:  store.NewMongoJobStore(db.Collection(store.JobCollection)),
			users: store.NewMongoUserStore(db.Collection(store.UserCollection)),
			close: func() {
				ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := client.Disconnect(ctx); err != nil {
					log.WithError(err).Warn("disconnecting mongo")
				}
			},
		}, nil

	default:
		log.Warn("Using in-memory store, data is lost on restart")
		return &stores{
			jobs:  store.NewMemoryJobStore(),
			users: store.NewMemoryUserStore(),
			close: func() {},
		}, nil
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Error loading configuration")
	}

	log := logging.New("jobboard", cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(cfg.GinMode)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
}

// run serves until SIGINT/SIGTERM or a listener failure. Deferred cleanup
// always runs before it returns.
func run(cfg *config.Config, log *logrus.Entry) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.close()
	log.WithField("driver", cfg.StoreDriver).Info("Store ready")

	ids := identity.NewUUIDAllocator()
	tokens := auth.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL)

	jobService := services.NewJobService(st.jobs, ids, log)
	appendService := services.NewAppendService(st.jobs, ids, log)
	userService := services.NewUserService(st.users, ids, tokens, log)

	origins := cfg.AllowOrigins
	if cfg.AllowsAnyOrigin() {
		origins = nil
	}
	router := handlers.NewRouter(handlers.RouterConfig{
		Jobs:         handlers.NewJobHandler(jobService, appendService),
		Users:        handlers.NewUserHandler(userService),
		Tokens:       tokens,
		Log:          log,
		AllowOrigins: origins,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("Server starting")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
