// Package loadtest drives a running careerrank server with repeated rerank
// requests and produces synthetic candidates to rank.
package loadtest

import (
	"fmt"
	"time"
)

// Default configuration constants.
const (
	DefaultURL         = "http://localhost:9080"
	DefaultRequests    = 100
	DefaultConcurrency = 10
	DefaultTimeout     = 30 * time.Second
	DefaultCandidates  = 80
	DefaultTopN        = 10
	DefaultEvents      = 4
	DefaultDimension   = 768
	DefaultSeed        = 42
)

// RunConfig holds configuration for a load run.
type RunConfig struct {
	BaseURL     string        // Base URL of the service
	Requests    int           // Total requests to send
	Concurrency int           // Requests in flight at once
	Timeout     time.Duration // Per-request HTTP timeout
	Candidates  int           // Candidate ids per request
	TopN        int           // topN sent with each request
}

// SeedConfig holds configuration for synthetic candidate generation.
type SeedConfig struct {
	Candidates  int    // Number of candidates
	Events      int    // Events per candidate
	Dimension   int    // Embedding dimension
	Seed        uint64 // PRNG seed; equal seeds give equal output
	OutFile     string // JSON seed file for the memory store
	RedisAddr   string // Redis to write to instead of a file
	RedisPrefix string // Redis key prefix
}

// Report summarizes a load run.
type Report struct {
	Total       int     `json:"total"`
	Concurrency int     `json:"concurrency"`
	OK          int     `json:"ok"`
	QPS         float64 `json:"qps"`
	P50Ms       float64 `json:"p50_ms"`
	P95Ms       float64 `json:"p95_ms"`
	Cached      int     `json:"cached"`
	CacheRate   float64 `json:"cache_rate"`
}

// CandidateID returns the id of the i-th synthetic candidate.
func CandidateID(i int) string {
	return fmt.Sprintf("cand-%05d", i)
}
