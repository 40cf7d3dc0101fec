package query

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/aidanlsb/cmisq/internal/model"
)

// Repository is the read-only view of a repository the engine queries. It
// must not change while a statement executes.
type Repository interface {
	// Object returns the object with the given id.
	Object(id string) (*model.Object, bool)
	// Children returns the ids of a folder's children in insertion order.
	Children(folderID string) []string
	// Parent returns the id of the folder containing id.
	Parent(id string) (string, bool)
	// ObjectsOfType returns the objects whose type is one of typeIDs, in a
	// deterministic order.
	ObjectsOfType(typeIDs ...string) []*model.Object
}

// Indexer scores full-text matches. ok is false when the object has no
// relevance for the term.
type Indexer interface {
	Score(term, objectID string) (score float64, ok bool, err error)
}

// Page selects a window of the sorted result.
type Page struct {
	Skip     int
	MaxItems int // <= 0 means no limit
}

// Engine executes statements against a repository. It keeps no state
// between calls and is safe for concurrent use when the repository is.
type Engine struct {
	reg    *model.Registry
	repo   Repository
	idx    Indexer
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithIndexer enables CONTAINS and SCORE().
func WithIndexer(idx Indexer) Option {
	return func(e *Engine) {
		e.idx = idx
	}
}

// WithLogger sets the logger for debug tracing of executions.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an engine over a frozen registry and a repository view.
func NewEngine(reg *model.Registry, repo Repository, opts ...Option) *Engine {
	e := &Engine{
		reg:    reg,
		repo:   repo,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Prepare parses and resolves statement without executing it.
func (e *Engine) Prepare(statement string) (*Statement, error) {
	stmt, err := Parse(statement)
	if err != nil {
		return nil, err
	}
	if _, err := resolve(e.reg, stmt, e.idx != nil); err != nil {
		return nil, err
	}
	return stmt, nil
}

// Execute runs statement and returns the requested page. Sorting sees every
// matching row; paging is applied afterwards. ctx is checked between
// candidates.
func (e *Engine) Execute(ctx context.Context, statement string, page Page) (*Result, error) {
	if page.Skip < 0 {
		return nil, newError(KindInvalidArgument, -1, "skip must not be negative, got %d", page.Skip)
	}
	start := time.Now()

	stmt, err := Parse(statement)
	if err != nil {
		return nil, err
	}
	p, err := resolve(e.reg, stmt, e.idx != nil)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("statement resolved",
		"tables", len(p.tables),
		"columns", len(p.columns),
		"predicates", len(p.nodes))

	rows, err := candidates(ctx, p, e.repo)
	if err != nil {
		return nil, err
	}

	ev := newEvaluator(p, e.repo, e.idx)
	var matches []match
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		o, err := ev.evaluate(row)
		if err != nil {
			return nil, err
		}
		if !o.match {
			continue
		}
		r := p.project(row, o)
		matches = append(matches, match{row: r, keys: p.sortValues(row, o, r)})
	}

	p.sortMatches(matches)
	out, more := paginate(matches, page)

	e.logger.Debug("statement executed",
		"candidates", len(rows),
		"matches", len(matches),
		"returned", len(out),
		"duration", time.Since(start))

	return &Result{Rows: out, TotalCount: len(matches), HasMoreItems: more}, nil
}
