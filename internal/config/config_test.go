package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/careerrank/internal/config"
	"github.com/okian/careerrank/internal/domain/scoring"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.RequestTimeout(), convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.CacheMaxEntries, convey.ShouldEqual, 1000)
			convey.So(cfg.CacheTTL(), convey.ShouldEqual, 5*time.Minute)
			convey.So(cfg.DefaultGamma, convey.ShouldEqual, 0.1)
			convey.So(cfg.StoreBackend, convey.ShouldEqual, config.StoreMemory)
			convey.So(cfg.MetricsEnabled, convey.ShouldBeTrue)
			convey.So(cfg.MetricsRefreshInterval(), convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.Weights(), convey.ShouldResemble, scoring.DefaultWeights())
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the built-in tables should be used", func() {
			convey.So(cfg.Tables(), convey.ShouldResemble, scoring.DefaultTables())
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a valid config", t, func() {
		cfg := config.New()

		cases := []struct {
			name   string
			mutate func()
		}{
			{"empty addr", func() { cfg.Addr = "" }},
			{"zero queue", func() { cfg.QueueSize = 0 }},
			{"zero metrics refresh", func() { cfg.MetricsRefreshSeconds = 0 }},
			{"zero timeout", func() { cfg.RequestTimeoutMS = 0 }},
			{"non-positive gamma", func() { cfg.DefaultGamma = 0 }},
			{"weights not summing", func() { cfg.WeightCareer = 0.9 }},
			{"negative weight", func() { cfg.WeightCareer, cfg.WeightOrganization = -0.2, 0.8 }},
			{"unknown store", func() { cfg.StoreBackend = "cassandra" }},
			{"negative dimension", func() { cfg.EmbeddingDimension = -1 }},
		}
		for _, tc := range cases {
			convey.Convey("When it has "+tc.name, func() {
				tc.mutate()

				convey.Convey("Then validation should fail with ErrInvalidConfig", func() {
					convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}
	})
}

func TestConfig_TablesOverride(t *testing.T) {
	convey.Convey("Given a config with a custom neighbor table", t, func() {
		cfg := config.New()
		cfg.TablesVersion = "test-1"
		cfg.OrgNeighbors = map[string][]string{"acme": {"acme labs"}}

		convey.Convey("Then only the overridden parts should change", func() {
			tables := cfg.Tables()
			convey.So(tables.Version, convey.ShouldEqual, "test-1")
			convey.So(tables.Neighbors, convey.ShouldResemble, map[string][]string{"acme": {"acme labs"}})
			convey.So(tables.MajorEmployers, convey.ShouldResemble, scoring.DefaultTables().MajorEmployers)
		})
	})
}
