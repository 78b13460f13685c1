package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/careerrank/internal/adapters/repository"
	app "github.com/okian/careerrank/internal/app"
	"github.com/okian/careerrank/internal/domain/model"
	"github.com/okian/careerrank/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

type constEmbedder struct{}

func (constEmbedder) Embed(context.Context, string) (model.Vector, error) {
	return model.Vector{1, 0}, nil
}

func (constEmbedder) Model() string { return "const" }

func TestNewMux(t *testing.T) {
	convey.Convey("Given a started service behind the mux", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore(repository.WithSeed([]model.Candidate{
			{ID: "c-1", Sequence: model.Sequence{{1, 0}}, Organizations: []string{"Google"}},
		}))
		svc := app.New(app.WithEmbedder(constEmbedder{}), app.WithStore(store))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		convey.Reset(svc.Stop)

		srv := httptest.NewServer(newMux(ctx, svc))
		convey.Reset(srv.Close)

		convey.Convey("When a rerank request is posted", func() {
			body := `{"userEvents":[{"role":"SWE","organization":"Google"}],"candidateIds":["c-1","missing"]}`
			resp, err := http.Post(srv.URL+"/rerank", "application/json", strings.NewReader(body))
			convey.So(err, convey.ShouldBeNil)
			defer resp.Body.Close()

			convey.Convey("Then it should succeed end to end", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			})
		})

		convey.Convey("When the docs and health routes are requested", func() {
			for _, path := range []string{"/healthz", "/metrics", "/stats", "/openapi.yaml", "/api-docs", "/prometheus"} {
				resp, err := http.Get(srv.URL + path)
				convey.So(err, convey.ShouldBeNil)
				_ = resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			}
		})
	})
}

func TestSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("Then a single update should not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("Then the loop should return when the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			convey.So(func() { startSystemMetricsUpdater(ctx, 10*time.Millisecond) }, convey.ShouldNotPanic)
		})
	})
}
