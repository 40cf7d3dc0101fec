package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/aidanlsb/cmisq/internal/audit"
	"github.com/aidanlsb/cmisq/internal/config"
	"github.com/aidanlsb/cmisq/internal/index"
	"github.com/aidanlsb/cmisq/internal/model"
	"github.com/aidanlsb/cmisq/internal/query"
	"github.com/aidanlsb/cmisq/internal/repository"
	"github.com/aidanlsb/cmisq/internal/schema"
)

// workspace is the loaded registry and repository for one command.
type workspace struct {
	cfg   *config.Config
	reg   *model.Registry
	store *repository.Store
	audit *audit.Logger
}

// openWorkspace loads the repository named by the config. A missing
// repository file yields an empty repository.
func openWorkspace(c *config.Config, reg *model.Registry) (*workspace, error) {
	store, err := repository.Load(c.Repository, reg,
		repository.WithUser(c.User),
		repository.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	return &workspace{cfg: c, reg: reg, store: store, audit: audit.New(c.Audit)}, nil
}

// loadWorkspace opens the workspace of the global config. Failures are
// reported in the current output mode; a nil workspace means the command
// should return the error as is.
func loadWorkspace() (*workspace, error) {
	c := getConfig()
	reg, err := schema.Load(c.Schema)
	if err != nil {
		return nil, handleError(ErrSchemaInvalid, err, "Check the type definitions in "+c.Schema)
	}
	ws, err := openWorkspace(c, reg)
	if err != nil {
		return nil, handleError(ErrRepositoryInvalid, err, "")
	}
	return ws, nil
}

// save writes the repository back to its file.
func (w *workspace) save() error {
	if err := w.store.Save(w.cfg.Repository); err != nil {
		return fmt.Errorf("failed to save repository: %w", err)
	}
	return nil
}

// resolve looks up an object by id or, when ref starts with "/", by path.
func (w *workspace) resolve(ref string) (*model.Object, error) {
	if strings.HasPrefix(ref, "/") {
		return w.store.ObjectByPath(ref)
	}
	return w.store.Object(ref)
}

// persistentIndex reports whether the index lives in a file that must be
// kept in step with the repository.
func (w *workspace) persistentIndex() bool {
	return w.cfg.Index != "" && w.cfg.Index != ":memory:"
}

// openIndex opens the full-text index for snap. An in-memory index is
// built from the snapshot; a file index is built only when empty.
func (w *workspace) openIndex(ctx context.Context, snap *repository.Snapshot) (*index.Database, error) {
	db, err := index.Open(w.cfg.Index)
	if err != nil {
		return nil, err
	}
	n, err := db.Count()
	if err != nil {
		db.Close()
		return nil, err
	}
	if n == 0 {
		if _, err := db.Rebuild(ctx, index.DocumentsFrom(snap)); err != nil {
			db.Close()
			return nil, err
		}
		logger.Debug("index built", "path", w.cfg.Index, "objects", snap.Len())
	}
	return db, nil
}

// engine builds a query engine over a fresh snapshot. The returned close
// function releases the index.
func (w *workspace) engine(ctx context.Context) (*query.Engine, func(), error) {
	snap := w.store.Snapshot()
	db, err := w.openIndex(ctx, snap)
	if err != nil {
		return nil, nil, err
	}
	e := query.NewEngine(w.reg, snap,
		query.WithIndexer(db),
		query.WithLogger(logger),
	)
	return e, func() { db.Close() }, nil
}

// indexUpdate lists objects whose indexed text changed after a mutation.
type indexUpdate struct {
	upsert []string
	remove []string
}

// syncIndex applies u to a file index. Failures are returned as warnings:
// the repository change has already been saved.
func (w *workspace) syncIndex(ctx context.Context, u indexUpdate) []Warning {
	if !w.persistentIndex() || (len(u.upsert) == 0 && len(u.remove) == 0) {
		return nil
	}
	warn := func(err error) []Warning {
		logger.Warn("index update failed", "error", err)
		return []Warning{{
			Code:    WarnIndexUpdateFailed,
			Message: fmt.Sprintf("full-text index not updated: %v (run 'cmisq reindex')", err),
		}}
	}

	snap := w.store.Snapshot()
	db, err := w.openIndex(ctx, snap)
	if err != nil {
		return warn(err)
	}
	defer db.Close()

	for _, id := range u.upsert {
		o, ok := snap.Object(id)
		if !ok {
			continue
		}
		if err := db.Upsert(ctx, index.DocumentOf(o, snap)); err != nil {
			return warn(err)
		}
	}
	if len(u.remove) > 0 {
		if err := db.Remove(ctx, u.remove...); err != nil {
			return warn(err)
		}
	}
	return nil
}

// user is the principal recorded in the change log.
func (w *workspace) user() string {
	if w.cfg.User != "" {
		return w.cfg.User
	}
	return repository.DefaultUser
}

// finishMutation saves the repository, updates the index and appends
// entries to the change log. Save failures are reported in the current
// output mode; ok is false when the command should return err as is.
// Index and change log failures become warnings.
func (w *workspace) finishMutation(ctx context.Context, u indexUpdate, entries ...audit.Entry) (warnings []Warning, ok bool, err error) {
	if err := w.save(); err != nil {
		return nil, false, handleError(ErrFileWriteError, err, "")
	}
	warnings = w.syncIndex(ctx, u)

	for i := range entries {
		entries[i].User = w.user()
	}
	if err := w.audit.Log(entries...); err != nil {
		logger.Warn("change log not written", "error", err)
		warnings = append(warnings, Warning{Code: WarnAuditFailed, Message: err.Error()})
	}
	return warnings, true, nil
}
