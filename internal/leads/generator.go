// ABOUTME: Synthetic lead generator driven by an explicit seeded random source.
// ABOUTME: Produces independent lead records with constrained, randomized attributes.

package leads

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
)

const (
	// DefaultCount is the number of leads generated when none is configured.
	DefaultCount = 100
	// DefaultTopN is the default leaderboard size.
	DefaultTopN = 5
	// MaxCount caps the records in one dataset.
	MaxCount = 5000

	maxDraws               = 10
	fallbackBusinessDomain = "example-corp.com"
	fallbackName           = "Alex Doe"
)

var (
	confidenceLevels  = []float64{0.9, 0.7, 0.5, 0.3}
	confidenceWeights = []float64{0.4, 0.3, 0.2, 0.1}

	domainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)*\.[a-z]{2,}$`)
)

// Namer supplies human names and business domains for generated leads.
type Namer interface {
	FullName(r *rand.Rand) string
	CompanyDomain(r *rand.Rand) string
}

// Config drives the lead generator.
type Config struct {
	Count int
	Seed  int64
}

// DefaultConfig returns the dashboard's baseline settings.
func DefaultConfig() Config {
	return Config{Count: DefaultCount, Seed: 42}
}

// Validate rejects configurations the generator cannot honour.
func (c Config) Validate() error {
	if c.Count < 0 {
		return fmt.Errorf("%w: record count %d is negative", ErrInvalidConfiguration, c.Count)
	}
	if c.Count > MaxCount {
		return fmt.Errorf("%w: record count %d exceeds %d", ErrInvalidConfiguration, c.Count, MaxCount)
	}
	return nil
}

// Generator produces lead records. It owns its random source and is not safe
// for concurrent use.
type Generator struct {
	cfg   Config
	rand  *rand.Rand
	namer Namer
}

// NewGenerator returns a generator seeded from cfg.Seed.
func NewGenerator(cfg Config, namer Namer) *Generator {
	return &Generator{
		cfg:   cfg,
		rand:  rand.New(rand.NewSource(cfg.Seed)),
		namer: namer,
	}
}

// Generate creates cfg.Count leads. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) ([]Lead, error) {
	if err := g.cfg.Validate(); err != nil {
		return nil, err
	}

	records := make([]Lead, g.cfg.Count)
	for i := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records[i] = g.next()
	}
	return records, nil
}

// Generate is a one-shot helper around NewGenerator.
func Generate(ctx context.Context, count int, seed int64, namer Namer) ([]Lead, error) {
	return NewGenerator(Config{Count: count, Seed: seed}, namer).Generate(ctx)
}

func (g *Generator) next() Lead {
	isCorporate := g.rand.Intn(2) == 1

	var domain string
	leadType := TypePersonal
	if isCorporate {
		domain = g.businessDomain()
		leadType = TypeCorporate
	} else {
		domain = PersonalDomains[g.rand.Intn(len(PersonalDomains))]
	}

	name := g.fullName()

	lead := Lead{
		Name:  name,
		Email: EmailFor(name, domain),
		Attributes: Attributes{
			Type:             leadType,
			Sources:          MinSources + g.rand.Intn(MaxSources-MinSources+1),
			Bounce:           []Bounce{BounceNo, BounceYes, BounceUnknown}[g.rand.Intn(3)],
			LastUpdatedDays:  g.rand.Intn(MaxLastUpdatedDays + 1),
			VerifiedDomain:   g.rand.Intn(2) == 1,
			SocialPresence:   g.rand.Intn(2) == 1,
			SourceConfidence: weightedChoice(g.rand, confidenceLevels, confidenceWeights),
		},
	}
	lead.Rescore()
	return lead
}

func (g *Generator) businessDomain() string {
	for i := 0; i < maxDraws; i++ {
		d := strings.ToLower(strings.TrimSpace(g.namer.CompanyDomain(g.rand)))
		if domainPattern.MatchString(d) && !IsPersonalDomain(d) {
			return d
		}
	}
	return fallbackBusinessDomain
}

func (g *Generator) fullName() string {
	for i := 0; i < maxDraws; i++ {
		if name := strings.Join(strings.Fields(g.namer.FullName(g.rand)), " "); name != "" {
			return name
		}
	}
	return fallbackName
}

// weightedChoice picks from values with the given relative weights.
func weightedChoice(r *rand.Rand, values, weights []float64) float64 {
	var total float64
	for _, w := range weights {
		total += w
	}
	x := r.Float64() * total
	for i, w := range weights {
		if x < w {
			return values[i]
		}
		x -= w
	}
	return values[len(values)-1]
}
