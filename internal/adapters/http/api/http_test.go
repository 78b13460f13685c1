package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/careerrank/internal/adapters/http/api"
	"github.com/okian/careerrank/internal/domain/rerank"
	"github.com/okian/careerrank/internal/domain/types"
	"github.com/okian/careerrank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

type mockDependencies struct {
	resp     rerank.Response
	err      error
	got      rerank.Request
	calls    int
	counters types.Counters
	stats    map[string]any
}

func (m *mockDependencies) Rerank(_ context.Context, req rerank.Request) (rerank.Response, error) {
	m.calls++
	m.got = req
	return m.resp, m.err
}

func (m *mockDependencies) Counters() types.Counters { return m.counters }

func (m *mockDependencies) GetStats(context.Context) map[string]any { return m.stats }

func newMux(deps *mockDependencies) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps).Register(context.Background(), mux)
	return mux
}

func serve(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlation_id"`
}

func decodeError(w *httptest.ResponseRecorder) errorBody {
	var b errorBody
	So(json.Unmarshal(w.Body.Bytes(), &b), ShouldBeNil)
	return b
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &mockDependencies{
			counters: types.Counters{TotalRequests: 4, CacheHits: 1, Reranks: 2, Errors: 1},
			stats:    map[string]any{"started": true},
		}
		mux := newMux(deps)

		Convey("Then /healthz should report ok", func() {
			w := serve(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(strings.TrimSpace(w.Body.String()), ShouldEqual, `{"ok":true}`)
		})

		Convey("Then /metrics should return the counters", func() {
			w := serve(mux, http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(strings.TrimSpace(w.Body.String()), ShouldEqual, `{"totalRequests":4,"cacheHits":1,"reranks":2,"errors":1}`)
		})

		Convey("Then /stats should return the service stats", func() {
			w := serve(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("Then /prometheus should expose the text format", func() {
			w := serve(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)

			w = serve(mux, http.MethodGet, "/prometheus", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "careerrank_")
		})

		Convey("Then unknown routes and wrong methods should 404", func() {
			So(serve(mux, http.MethodGet, "/unknown", "").Code, ShouldEqual, http.StatusNotFound)
			So(serve(mux, http.MethodGet, "/rerank", "").Code, ShouldEqual, http.StatusNotFound)
			So(serve(mux, http.MethodPost, "/metrics", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestRerankHandler_HandlePostRerank(t *testing.T) {
	Convey("Given a rerank endpoint", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When the request succeeds", func() {
			deps.resp = rerank.Response{
				CorrelationID: "cid-1",
				Results: []types.RerankResult{
					{CandidateID: "c-1", Score: 0.9, Breakdown: types.ScoreBreakdown{Blended: 0.9}},
				},
				Timings: &types.Timings{TotalMs: 1.5},
			}
			body := `{"userEvents":[{"role":"SWE","organization":"Google","period_label":"2020"}],
				"candidateIds":["c-1"],"gamma":0.2,"goal":{"target_organization":"Meta"},
				"profile":{"institution":"MIT"},"includeAlignment":true,"topN":5}`
			w := serve(mux, http.MethodPost, "/rerank", body)

			Convey("Then the decoded request should reach the service", func() {
				So(deps.calls, ShouldEqual, 1)
				So(deps.got.UserEvents[0].PeriodLabel, ShouldEqual, "2020")
				So(deps.got.CandidateIDs, ShouldResemble, []string{"c-1"})
				So(*deps.got.Gamma, ShouldEqual, 0.2)
				So(deps.got.Goal.TargetOrganization, ShouldEqual, "Meta")
				So(deps.got.Profile.Institution, ShouldEqual, "MIT")
				So(deps.got.IncludeAlignment, ShouldBeTrue)
				So(deps.got.TopN, ShouldEqual, 5)
			})

			Convey("Then the response should be the ranked results", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var resp rerank.Response
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.CorrelationID, ShouldEqual, "cid-1")
				So(resp.Results[0].CandidateID, ShouldEqual, "c-1")
				So(resp.Timings.TotalMs, ShouldEqual, 1.5)
			})
		})

		Convey("When the body is not JSON", func() {
			w := serve(mux, http.MethodPost, "/rerank", `{not json`)

			Convey("Then it should be a bad request and the service untouched", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				b := decodeError(w)
				So(b.Code, ShouldEqual, rerank.CodeBadRequest)
				So(b.CorrelationID, ShouldNotBeEmpty)
				So(deps.calls, ShouldEqual, 0)
			})
		})

		failures := []struct {
			name   string
			err    error
			status int
			code   string
		}{
			{"invalid", rerank.ErrInvalidRequest, http.StatusBadRequest, rerank.CodeBadRequest},
			{"backpressure", rerank.ErrBackpressure, http.StatusTooManyRequests, rerank.CodeBackpressure},
			{"embedding", rerank.ErrEmbedding, http.StatusBadGateway, rerank.CodeEmbeddingFailed},
			{"alignment", rerank.ErrAlignmentPrecondition, http.StatusInternalServerError, rerank.CodeAlignmentPrecondition},
			{"timeout", rerank.ErrTimeout, http.StatusGatewayTimeout, rerank.CodeTimeout},
			{"unavailable", rerank.ErrUnavailable, http.StatusServiceUnavailable, rerank.CodeUnavailable},
			{"internal", errors.New("secret detail"), http.StatusInternalServerError, rerank.CodeInternal},
		}
		Convey("When the request fails validation", func() {
			deps.err = &rerank.Failure{CorrelationID: "cid-v", Err: &rerank.RequestError{Detail: "candidateIds is empty"}}
			w := serve(mux, http.MethodPost, "/rerank", `{"candidateIds":[]}`)

			Convey("Then only the field detail should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				b := decodeError(w)
				So(b.Code, ShouldEqual, rerank.CodeBadRequest)
				So(b.Message, ShouldEqual, "candidateIds is empty")
				So(b.Message, ShouldNotContainSubstring, rerank.ErrInvalidRequest.Error())
			})
		})

		for _, tc := range failures {
			Convey("When the service fails with "+tc.name, func() {
				deps.err = &rerank.Failure{CorrelationID: "cid-" + tc.name, Err: tc.err}
				w := serve(mux, http.MethodPost, "/rerank", `{"candidateIds":["c-1"]}`)

				Convey("Then the status, code and correlation id should be mapped", func() {
					So(w.Code, ShouldEqual, tc.status)
					b := decodeError(w)
					So(b.Code, ShouldEqual, tc.code)
					So(b.CorrelationID, ShouldEqual, "cid-"+tc.name)
					So(b.Message, ShouldNotContainSubstring, "secret detail")
				})
			})
		}
	})
}

func TestKindErrors(t *testing.T) {
	Convey("Given kind errors", t, func() {
		cause := errors.New("cause")

		Convey("Then both kind and cause should be matched", func() {
			err := api.WrapKind("op", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "op: bad request: cause")
		})

		Convey("Then NewKind and Wrap should keep their single error", func() {
			So(errors.Is(api.NewKind("op", api.ErrBackpressure), api.ErrBackpressure), ShouldBeTrue)
			So(errors.Is(api.Wrap("op", cause), cause), ShouldBeTrue)
			So(api.Wrap("op", nil), ShouldBeNil)
		})
	})
}
