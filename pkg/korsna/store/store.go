package store

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Store persists crawled posts and the results of analysis runs.
type Store interface {
	Close() error

	// Posts
	UpsertPost(ctx context.Context, p Post) error
	GetPostByURL(ctx context.Context, url string) (Post, bool, error)
	CountPosts(ctx context.Context) (int64, error)

	// Runs
	CreateRun(ctx context.Context, r Run) (Run, error)
	FinishRun(ctx context.Context, id string, status string, finishedAt time.Time) error
	GetRun(ctx context.Context, id string) (Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	// Run results
	SaveTerms(ctx context.Context, runID string, terms []Term) error
	GetTerms(ctx context.Context, runID string) ([]Term, error)
	SaveEdges(ctx context.Context, runID string, edges []Edge) error
	GetEdges(ctx context.Context, runID string) ([]Edge, error)
	TopNeighbors(ctx context.Context, runID, term string, k int) ([]Neighbor, error)
	SavePartition(ctx context.Context, runID string, members []Membership, modularity float64) error
	GetPartition(ctx context.Context, runID string) ([]Membership, error)

	// Curated stopwords accepted from suggestions
	UpsertStoplist(ctx context.Context, tokens []string) error
	Stoplist(ctx context.Context) ([]string, error)
}

// Post is a crawled forum post.
type Post struct {
	URL       string
	Title     string
	Body      string
	CrawledAt time.Time
}

// Run status values.
const (
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// Run records one execution of a pipeline stage.
type Run struct {
	ID         string
	Stage      string
	Params     string // JSON-encoded parameters
	Status     string
	Docs       int
	StartedAt  time.Time
	FinishedAt time.Time
	Modularity float64
}

// Term is a ranked vocabulary entry.
type Term struct {
	Term     string
	Weight   float64
	DF       int64
	Rank     int  // 0-based position in the ranking
	Included bool // kept in the target vocabulary
}

// Edge is a stored co-occurrence edge. Pos keeps the output order.
type Edge struct {
	Pos    int
	Source string
	Target string
	Weight int64
	NPMI   float64
}

// Neighbor is a term linked to another by an edge.
type Neighbor struct {
	Term   string
	Weight int64
	NPMI   float64
}

// Membership assigns a term to a community.
type Membership struct {
	Label     string
	Community int
	Degree    int
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewRunID returns a new lexically sortable run id.
func NewRunID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
