package loadtest

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/okian/careerrank/internal/adapters/repository"
	"github.com/okian/careerrank/internal/domain/model"
	"github.com/okian/careerrank/internal/domain/scoring"
	"github.com/okian/careerrank/pkg/logger"
)

// ErrNoSeedTarget is returned when neither a file nor Redis was given.
var ErrNoSeedTarget = errors.New("seed needs an output file or a redis address")

// Generate builds synthetic candidates. Vectors are unit length and
// organizations are drawn from the built-in heuristic tables so the
// organization scorer sees realistic names.
func Generate(cfg SeedConfig) []model.Candidate {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)) //nolint:gosec // synthetic data

	tables := scoring.DefaultTables()
	orgs := slices.Clone(tables.MajorEmployers)
	for _, target := range slices.Sorted(maps.Keys(tables.Neighbors)) {
		orgs = append(orgs, tables.Neighbors[target]...)
	}
	schools := slices.Sorted(maps.Keys(tables.InstitutionAliases))

	out := make([]model.Candidate, cfg.Candidates)
	for i := range out {
		c := model.Candidate{
			ID:            CandidateID(i),
			URL:           fmt.Sprintf("https://profiles.example.com/%s", CandidateID(i)),
			Sequence:      make(model.Sequence, cfg.Events),
			Organizations: make([]string, cfg.Events),
			Institutions:  []string{schools[rng.IntN(len(schools))]},
		}
		for e := range cfg.Events {
			c.Sequence[e] = unitVector(rng, cfg.Dimension)
			c.Organizations[e] = orgs[rng.IntN(len(orgs))]
		}
		out[i] = c
	}
	return out
}

func unitVector(rng *rand.Rand, dim int) model.Vector {
	v := make(model.Vector, dim)
	var norm float64
	for i := range v {
		x := rng.NormFloat64()
		v[i] = float32(x)
		norm += x * x
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return v
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

// Seed generates candidates and writes them to a seed file or to Redis.
func Seed(ctx context.Context, cfg SeedConfig) (int, error) {
	candidates := Generate(cfg)
	log := logger.Get().Named("seed")

	switch {
	case cfg.RedisAddr != "":
		client, err := repository.DialRedis(ctx, repository.RedisConfig{Addr: cfg.RedisAddr})
		if err != nil {
			return 0, err
		}
		store := repository.NewRedisStore(client, repository.WithKeyPrefix(cfg.RedisPrefix))
		defer func() { _ = store.Close() }()
		for _, c := range candidates {
			if err := store.Upsert(ctx, c); err != nil {
				return 0, fmt.Errorf("upsert %s: %w", c.ID, err)
			}
		}
		log.Info(ctx, "seeded redis", logger.String("addr", cfg.RedisAddr), logger.Int("candidates", len(candidates)))

	case cfg.OutFile != "":
		if err := repository.WriteSeedFile(cfg.OutFile, candidates); err != nil {
			return 0, err
		}
		log.Info(ctx, "wrote seed file", logger.String("path", cfg.OutFile), logger.Int("candidates", len(candidates)))

	default:
		return 0, ErrNoSeedTarget
	}
	return len(candidates), nil
}
