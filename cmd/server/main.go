package main

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"ProductHub/internal/auth"
	"ProductHub/internal/httpapi"
	"ProductHub/internal/product"
	"ProductHub/internal/storage"
	"ProductHub/internal/user"
	"ProductHub/pkg/kit"
)

const service = "producthub"

func main() {
	dev := getenv("APP_ENV", "prod") == "dev"
	log := kit.NewLogger(service, dev)
	defer func() { _ = log.Sync() }()

	port := getenv("PORT", "3001")
	jwtSecret := getenv("JWT_SECRET", "dev-secret")
	backend := getenv("STORE_BACKEND", "file")

	products, users, err := buildStores(backend, log)
	if err != nil {
		log.Fatal("store init", zap.Error(err))
	}

	registry := prometheus.NewRegistry()

	h := httpapi.NewHandler(
		httpapi.Deps{
			Log:      log,
			Products: products,
			Users:    users,
			JWT:      auth.NewTokenMaker(jwtSecret),
		},
		httpapi.HTTPDeps{
			Log:      log,
			Service:  service,
			Registry: registry,

			MetricsEnabled: getenv("METRICS_ENABLED", "") == "true",
			MetricsToken:   getenv("METRICS_TOKEN", ""),
		},
	)

	if err := kit.RunHTTPServer(":"+port, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func buildStores(backend string, log *zap.Logger) (*product.Store, *user.Store, error) {
	switch backend {
	case "postgres":
		db, err := sql.Open("pgx", getenv("DATABASE_URL", "postgres://localhost:5432/producthub?sslmode=disable"))
		if err != nil {
			return nil, nil, err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := storage.EnsureSchema(ctx, db); err != nil {
			return nil, nil, err
		}

		return product.NewStore(storage.NewPostgresCollection[product.Product](db, "products", nil)),
			user.NewStore(storage.NewPostgresCollection(db, "users", user.DefaultUsers())),
			nil

	case "memory":
		return product.NewStore(storage.NewMemCollection[product.Product](nil)),
			user.NewStore(storage.NewMemCollection(user.DefaultUsers())),
			nil

	default:
		dataDir := getenv("DATA_DIR", "data")
		log.Info("using file store", zap.String("dir", dataDir))

		return product.NewStore(storage.NewFileCollection[product.Product](filepath.Join(dataDir, "products.json"), nil)),
			user.NewStore(storage.NewFileCollection(filepath.Join(dataDir, "users.json"), user.DefaultUsers())),
			nil
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
