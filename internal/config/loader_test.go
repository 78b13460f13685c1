package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/careerrank/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		convey.Reset(clearConfigEnvVars)

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("CAREERRANK_ADDR", ":8080")
			_ = os.Setenv("CAREERRANK_QUEUE_SIZE", "16")
			_ = os.Setenv("CAREERRANK_DEFAULT_GAMMA", "0.5")
			_ = os.Setenv("CAREERRANK_STORE_BACKEND", "redis")
			_ = os.Setenv("CAREERRANK_REDIS_KEY_PREFIX", "test")
			_ = os.Setenv("CAREERRANK_EMBEDDING_DIMENSION", "3")
			_ = os.Setenv("CAREERRANK_METRICS_ENABLED", "false")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 16)
				convey.So(cfg.DefaultGamma, convey.ShouldEqual, 0.5)
				convey.So(cfg.StoreBackend, convey.ShouldEqual, config.StoreRedis)
				convey.So(cfg.RedisKeyPrefix, convey.ShouldEqual, "test")
				convey.So(cfg.EmbeddingDimension, convey.ShouldEqual, 3)
				convey.So(cfg.MetricsEnabled, convey.ShouldBeFalse)
				convey.So(cfg.CacheMaxEntries, convey.ShouldEqual, 1000)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			tmpFile := createTempConfigFile(`
# heuristic tables may be replaced per deployment
addr: ":9090"
cache_max_entries: 10
weight_career: 0.5
weight_institution: 0.3
weight_organization: 0.2
tables_version: "2025-02"
major_employers: [acme, globex]
org_neighbors:
  acme: [acme labs]
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("CAREERRANK_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the file and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.CacheMaxEntries, convey.ShouldEqual, 10)
				convey.So(cfg.WeightCareer, convey.ShouldEqual, 0.5)
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)

				tables := cfg.Tables()
				convey.So(tables.Version, convey.ShouldEqual, "2025-02")
				convey.So(tables.MajorEmployers, convey.ShouldResemble, []string{"acme", "globex"})
				convey.So(tables.Neighbors["acme"], convey.ShouldResemble, []string{"acme labs"})
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile("addr: \":9090\"\nqueue_size: 64\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("CAREERRANK_CONFIG", tmpFile)
			_ = os.Setenv("CAREERRANK_ADDR", ":8080")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("CAREERRANK_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("CAREERRANK_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("CAREERRANK_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("CAREERRANK_QUEUE_SIZE", "invalid")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the weights do not sum to one", func() {
			_ = os.Setenv("CAREERRANK_WEIGHT_CAREER", "0.9")

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"CAREERRANK_CONFIG",
		"CAREERRANK_ADDR",
		"CAREERRANK_QUEUE_SIZE",
		"CAREERRANK_DEFAULT_GAMMA",
		"CAREERRANK_STORE_BACKEND",
		"CAREERRANK_REDIS_KEY_PREFIX",
		"CAREERRANK_EMBEDDING_DIMENSION",
		"CAREERRANK_WEIGHT_CAREER",
		"CAREERRANK_METRICS_ENABLED",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "careerrank-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
