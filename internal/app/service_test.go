package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/careerrank/internal/adapters/repository"
	service "github.com/okian/careerrank/internal/app"
	"github.com/okian/careerrank/internal/config"
	"github.com/okian/careerrank/internal/domain/model"
	"github.com/okian/careerrank/internal/domain/rerank"
	"github.com/okian/careerrank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// stubEmbedder returns a fixed vector per text. When release is set every
// call waits on it, ignoring the request context.
type stubEmbedder struct {
	vectors map[string]model.Vector
	started chan struct{}
	release chan struct{}
}

func (e *stubEmbedder) Embed(_ context.Context, text string) (model.Vector, error) {
	if e.release != nil {
		select {
		case e.started <- struct{}{}:
		default:
		}
		<-e.release
	}
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	return model.Vector{0, 0, 1}, nil
}

func (e *stubEmbedder) Model() string { return "stub" }

var (
	googleSWE = model.TimelineEvent{Role: "Software Engineer", Organization: "Google", PeriodLabel: "2018-2021"}
	metaTL    = model.TimelineEvent{Role: "Tech Lead", Organization: "Meta", PeriodLabel: "2021-2024"}
)

func newEmbedder() *stubEmbedder {
	return &stubEmbedder{vectors: map[string]model.Vector{
		googleSWE.Text(): {1, 0, 0},
		metaTL.Text():    {0, 1, 0},
	}}
}

func newStore() *repository.MemoryStore {
	return repository.NewMemoryStore(repository.WithSeed([]model.Candidate{
		{
			ID:            "match",
			Sequence:      model.Sequence{{1, 0, 0}, {0, 1, 0}},
			Organizations: []string{"Google", "Meta"},
			Institutions:  []string{"Stanford University"},
		},
		{
			ID:            "other",
			Sequence:      model.Sequence{{0, 0, 1}},
			Organizations: []string{"Acme"},
		},
	}))
}

func request() rerank.Request {
	return rerank.Request{
		UserEvents:   []model.TimelineEvent{googleSWE, metaTL},
		CandidateIDs: []string{"other", "match"},
		Goal:         model.Goal{TargetOrganization: "Meta"},
		Profile:      model.Profile{Institution: "Stanford"},
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should report defaults and zero counters", func() {
			So(svc, ShouldNotBeNil)
			stats := svc.GetStats(context.Background())
			So(stats["started"], ShouldEqual, false)
			So(stats["queueCapacity"], ShouldEqual, 1024)
			So(svc.Counters().TotalRequests, ShouldEqual, 0)
		})

		Convey("When reranking before Start", func() {
			_, err := svc.Rerank(context.Background(), request())

			Convey("Then it should be unavailable", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				So(rerank.Code(err), ShouldEqual, rerank.CodeUnavailable)
			})
		})
	})

	Convey("Given an invalid configuration", t, func() {
		cfg := config.New()
		cfg.StoreBackend = "nope"
		svc := service.New(service.WithConfig(cfg), service.WithEmbedder(newEmbedder()))

		Convey("Then Start should fail", func() {
			So(errors.Is(svc.Start(context.Background()), config.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}

func TestService_Rerank(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(
			service.WithEmbedder(newEmbedder()),
			service.WithStore(newStore()),
		)
		So(svc.Start(context.Background()), ShouldBeNil)
		Reset(svc.Stop)

		Convey("When a request is made", func() {
			resp, err := svc.Rerank(context.Background(), request())

			Convey("Then candidates should be ranked best first", func() {
				So(err, ShouldBeNil)
				So(resp.Cached, ShouldBeFalse)
				So(resp.CorrelationID, ShouldNotBeEmpty)
				So(len(resp.Results), ShouldEqual, 2)
				So(resp.Results[0].CandidateID, ShouldEqual, "match")
				So(resp.Results[0].Score, ShouldBeGreaterThanOrEqualTo, 0.8)
				So(resp.Results[0].Breakdown.OrganizationProximity, ShouldEqual, 1.0)
			})

			Convey("And the same request again should be served from cache", func() {
				again, err := svc.Rerank(context.Background(), request())
				So(err, ShouldBeNil)
				So(again.Cached, ShouldBeTrue)
				So(again.Results, ShouldResemble, resp.Results)
				So(again.CorrelationID, ShouldNotEqual, resp.CorrelationID)

				c := svc.Counters()
				So(c.TotalRequests, ShouldEqual, 2)
				So(c.CacheHits, ShouldEqual, 1)
				So(c.Reranks, ShouldEqual, 1)
				So(c.Errors, ShouldEqual, 0)
			})
		})

		Convey("When a request is invalid", func() {
			_, err := svc.Rerank(context.Background(), rerank.Request{UserEvents: []model.TimelineEvent{googleSWE}})

			Convey("Then a bad request failure with a correlation id is returned", func() {
				var f *rerank.Failure
				So(errors.As(err, &f), ShouldBeTrue)
				So(f.CorrelationID, ShouldNotBeEmpty)
				So(rerank.Code(err), ShouldEqual, rerank.CodeBadRequest)
				So(svc.Counters().Errors, ShouldEqual, 1)
			})
		})

		Convey("When stats are requested", func() {
			stats := svc.GetStats(context.Background())

			Convey("Then they should describe the running pipeline", func() {
				So(stats["started"], ShouldEqual, true)
				So(stats["totalCandidates"], ShouldEqual, 2)
				So(stats["embeddingModel"], ShouldEqual, "stub")
				So(stats["tablesVersion"], ShouldNotBeEmpty)
			})
		})

		Convey("When the service is stopped", func() {
			svc.Stop()
			_, err := svc.Rerank(context.Background(), request())

			Convey("Then requests are refused", func() {
				So(rerank.Code(err), ShouldEqual, rerank.CodeUnavailable)
			})
		})
	})
}

func TestService_Backpressure(t *testing.T) {
	Convey("Given a service with a one slot mailbox and a stalled worker", t, func() {
		cfg := config.New()
		cfg.QueueSize = 1
		cfg.RequestTimeoutMS = 2000
		emb := newEmbedder()
		emb.started = make(chan struct{}, 1)
		emb.release = make(chan struct{})

		svc := service.New(service.WithConfig(cfg), service.WithEmbedder(emb), service.WithStore(newStore()))
		So(svc.Start(context.Background()), ShouldBeNil)

		first := make(chan error, 1)
		go func() {
			_, err := svc.Rerank(context.Background(), request())
			first <- err
		}()
		<-emb.started

		second := make(chan error, 1)
		go func() {
			_, err := svc.Rerank(context.Background(), request())
			second <- err
		}()
		for svc.GetStats(context.Background())["queueLength"] != 1 {
			time.Sleep(time.Millisecond)
		}

		Convey("When another request arrives", func() {
			_, err := svc.Rerank(context.Background(), request())

			Convey("Then it should be rejected with backpressure", func() {
				So(errors.Is(err, service.ErrBackpressure), ShouldBeTrue)
				So(rerank.Code(err), ShouldEqual, rerank.CodeBackpressure)
				So(svc.GetStats(context.Background())["rejectedRequests"], ShouldEqual, uint64(1))

				close(emb.release)
				So(<-first, ShouldBeNil)
				So(<-second, ShouldBeNil)
				svc.Stop()
			})
		})
	})
}

func TestService_Timeout(t *testing.T) {
	Convey("Given a service whose embedder never answers in time", t, func() {
		cfg := config.New()
		cfg.RequestTimeoutMS = 30
		emb := newEmbedder()
		emb.started = make(chan struct{}, 1)
		emb.release = make(chan struct{})

		svc := service.New(service.WithConfig(cfg), service.WithEmbedder(emb), service.WithStore(newStore()))
		So(svc.Start(context.Background()), ShouldBeNil)

		Convey("When a request is made", func() {
			_, err := svc.Rerank(context.Background(), request())
			close(emb.release)
			svc.Stop()

			Convey("Then it should time out", func() {
				So(rerank.Code(err), ShouldEqual, rerank.CodeTimeout)
				So(errors.Is(err, rerank.ErrTimeout), ShouldBeTrue)
			})
		})
	})
}

func TestService_ExpiredWhileQueued(t *testing.T) {
	Convey("Given a worker busy computing a request", t, func() {
		cfg := config.New()
		cfg.RequestTimeoutMS = 2000
		emb := newEmbedder()
		emb.started = make(chan struct{}, 1)
		emb.release = make(chan struct{})

		svc := service.New(service.WithConfig(cfg), service.WithEmbedder(emb), service.WithStore(newStore()))
		So(svc.Start(context.Background()), ShouldBeNil)
		Reset(svc.Stop)

		first := make(chan error, 1)
		go func() {
			_, err := svc.Rerank(context.Background(), request())
			first <- err
		}()
		<-emb.started

		Convey("When a queued request's deadline passes before the worker reaches it", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()
			_, err := svc.Rerank(ctx, request())

			close(emb.release)
			So(<-first, ShouldBeNil)
			deadline := time.After(2 * time.Second)
			for svc.Counters().TotalRequests < 2 {
				select {
				case <-deadline:
					t.Fatal("queued request was never processed")
				case <-time.After(time.Millisecond):
				}
			}

			Convey("Then the caller and the counters should both see a single timeout", func() {
				So(rerank.Code(err), ShouldEqual, rerank.CodeTimeout)
				c := svc.Counters()
				So(c.Errors, ShouldEqual, 1)
				So(c.CacheHits, ShouldEqual, 0)
				So(c.Reranks, ShouldEqual, 1)
			})
		})
	})
}

// slowCountStore blocks Count until release is closed.
type slowCountStore struct {
	*repository.MemoryStore
	entered chan struct{}
	release chan struct{}
}

func (s *slowCountStore) Count(ctx context.Context) (int, error) {
	close(s.entered)
	<-s.release
	return s.MemoryStore.Count(ctx)
}

func TestService_StatsWithSlowStore(t *testing.T) {
	Convey("Given a service whose store is slow to count", t, func() {
		store := &slowCountStore{
			MemoryStore: newStore(),
			entered:     make(chan struct{}),
			release:     make(chan struct{}),
		}
		svc := service.New(service.WithEmbedder(newEmbedder()), service.WithStore(store))
		So(svc.Start(context.Background()), ShouldBeNil)

		stats := make(chan map[string]any, 1)
		go func() { stats <- svc.GetStats(context.Background()) }()
		<-store.entered

		Convey("When the service is stopped while stats are being collected", func() {
			stopped := make(chan struct{})
			go func() {
				svc.Stop()
				close(stopped)
			}()

			Convey("Then Stop should not wait for the count", func() {
				select {
				case <-stopped:
				case <-time.After(2 * time.Second):
					t.Fatal("Stop blocked behind GetStats")
				}
				close(store.release)
				So((<-stats)["totalCandidates"], ShouldEqual, 2)
			})
		})
	})
}
