package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/okian/gameweek/internal/config"
	"github.com/okian/gameweek/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func memoryConfig() *config.Config {
	cfg := config.New()
	cfg.DBDSN = "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	cfg.AdminPassword = "secret"
	return cfg
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("GAMEWEEK_ADDR", ":8080")
			_ = os.Setenv("GAMEWEEK_MAX_GAMEWEEK", "20")
			defer func() {
				_ = os.Unsetenv("GAMEWEEK_ADDR")
				_ = os.Unsetenv("GAMEWEEK_MAX_GAMEWEEK")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.MaxGameweek, convey.ShouldEqual, 20)
			})
		})

		convey.Convey("When building the application over an in-memory store", func() {
			ctx := context.Background()
			cfg := memoryConfig()
			cfg.MaxGameweek = 20
			svc, handler, err := build(ctx, cfg, logger.Get())
			convey.So(err, convey.ShouldBeNil)
			defer svc.Stop()

			convey.Convey("Then the configured season length is applied", func() {
				convey.So(svc.MaxGameweek(), convey.ShouldEqual, 20)
			})

			convey.Convey("And every surface is routed", func() {
				for _, path := range []string{"/", "/players", "/scores", "/healthz", "/metrics", "/static/app.js", "/openapi.yaml", "/api-docs"} {
					w := httptest.NewRecorder()
					handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
					convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				}
			})

			convey.Convey("And mutations require the configured credentials", func() {
				req := httptest.NewRequest(http.MethodGet, "/login", http.NoBody)
				req.SetBasicAuth(cfg.AdminUsername, "secret")
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, req)
				convey.So(w.Code, convey.ShouldEqual, http.StatusFound)
			})
		})

		convey.Convey("When metrics are configured for a league", func() {
			cfg := memoryConfig()
			cfg.MetricsNamespace = "fpl"
			cfg.League = "office"
			configureMetrics(cfg)
			defer configureMetrics(config.New())

			svc, handler, err := build(context.Background(), cfg, logger.Get())
			convey.So(err, convey.ShouldBeNil)
			defer svc.Stop()

			convey.Convey("Then the scrape carries the namespace and label", func() {
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, `fpl_tracker_recalculations_total{league="office"}`)
			})
		})

		convey.Convey("When the database driver cannot be opened", func() {
			cfg := memoryConfig()
			cfg.DBDriver = "oracle"
			_, _, err := build(context.Background(), cfg, logger.Get())

			convey.Convey("Then build fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When the system metrics updater is cancelled", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})

		convey.Convey("When updating system metrics", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("When updating service metrics", func() {
			ctx := context.Background()
			svc, _, err := build(ctx, memoryConfig(), logger.Get())
			convey.So(err, convey.ShouldBeNil)
			defer svc.Stop()

			convey.So(func() { updateServiceMetrics(ctx, svc) }, convey.ShouldNotPanic)

			cctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
			defer cancel()
			convey.So(func() { startServiceMetricsUpdater(cctx, svc) }, convey.ShouldNotPanic)
		})
	})
}

func TestMainApplicationErrorHandling(t *testing.T) {
	convey.Convey("Given an invalid configuration", t, func() {
		_ = os.Setenv("GAMEWEEK_DB_DRIVER", "mysql")
		defer func() { _ = os.Unsetenv("GAMEWEEK_DB_DRIVER") }()

		convey.Convey("Then configuration loading should fail", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}
