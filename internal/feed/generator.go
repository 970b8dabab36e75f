package feed

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"deployhub/internal/deployment"
)

// Default name pools for synthetic records
var (
	DefaultUsernames = []string{"dev_guru", "code_wizard", "tech_ninja", "web_master", "cloud_expert"}
	DefaultProjects  = []string{
		"Social Media App",
		"Crypto Wallet",
		"Weather Tracker",
		"Video Streaming Service",
		"Chat Application",
	}
)

const avatarURL = "https://randomuser.me/api/portraits/%s/%d.jpg"

// Generator fabricates deployment records
type Generator struct {
	Usernames []string
	Projects  []string

	mu     sync.Mutex
	rng    *rand.Rand
	now    func() time.Time
	lastID int64
}

// NewGenerator creates a generator using the default pools, a time-seeded
// random source and the wall clock
func NewGenerator() *Generator {
	seed := uint64(time.Now().UnixNano())
	return NewGeneratorWith(rand.New(rand.NewPCG(seed, seed>>1)), time.Now)
}

// NewGeneratorWith creates a generator with an explicit random source and clock
func NewGeneratorWith(rng *rand.Rand, now func() time.Time) *Generator {
	return &Generator{
		Usernames: DefaultUsernames,
		Projects:  DefaultProjects,
		rng:       rng,
		now:       now,
	}
}

// Next returns a new record deployed now. IDs are Unix milliseconds, bumped
// when needed so they stay strictly increasing.
func (g *Generator) Next() deployment.Record {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	id := now.UnixMilli()
	if id <= g.lastID {
		id = g.lastID + 1
	}
	g.lastID = id

	gender := "women"
	if g.rng.Float64() > 0.5 {
		gender = "men"
	}

	return deployment.Record{
		ID:          id,
		Username:    pick(g.rng, g.Usernames),
		ProjectName: pick(g.rng, g.Projects),
		DeployedAt:  now.UTC(),
		Status:      deployment.Statuses[g.rng.IntN(len(deployment.Statuses))],
		Environment: deployment.Environments[g.rng.IntN(len(deployment.Environments))],
		Avatar:      fmt.Sprintf(avatarURL, gender, g.rng.IntN(100)),
		Duration:    fmt.Sprintf("%dm %ds", g.rng.IntN(5), g.rng.IntN(60)),
	}
}

func pick(rng *rand.Rand, pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	return pool[rng.IntN(len(pool))]
}
