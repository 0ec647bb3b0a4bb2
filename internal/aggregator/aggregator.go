// Package aggregator keeps a tag index in step with the remote bookmark
// service.
//
// Reads go to the service and rebuild the index wholesale. Mutations are
// sent first and mirrored into the index only once the service confirms
// them, so the index never shows a change the service rejected.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pickabook/pkb/internal/model"
	"github.com/pickabook/pkb/internal/tagindex"
	"github.com/pickabook/pkb/internal/validate"
)

// DefaultPageSize is requested for the tag and bookmark lists. It is large
// enough that one page holds a user's full set.
const DefaultPageSize = 1000

// ErrUnknownTag is returned by ByTag for a name the index does not hold.
var ErrUnknownTag = errors.New("unknown tag")

// Service is the subset of the remote API the aggregator needs.
// *api.Client satisfies it.
type Service interface {
	ListTags(ctx context.Context, page, size int) ([]model.Tag, error)
	ListBookmarks(ctx context.Context, page, size int) ([]model.Bookmark, error)
	ListBookmarksByTag(ctx context.Context, tagID int64, page, size int) ([]model.Bookmark, error)
	CreateBookmark(ctx context.Context, b model.Bookmark) (model.Bookmark, error)
	UpdateBookmark(ctx context.Context, b model.Bookmark) error
	DeleteBookmark(ctx context.Context, id int64) error
}

// Params configures an Aggregator.
type Params struct {
	Service   Service
	Index     *tagindex.Index     // optional; a fresh index when nil
	PageSize  int                 // default DefaultPageSize
	Logger    *zap.Logger         // optional
	Validator *validate.Validator // optional
	OnLoading func(loading bool)  // optional; called on every flag change
}

// Aggregator owns one tag index and applies service results to it.
type Aggregator struct {
	svc       Service
	idx       *tagindex.Index
	pageSize  int
	logger    *zap.Logger
	validator *validate.Validator
	onLoading func(bool)

	inflight atomic.Int32
}

// New creates an Aggregator.
func New(params Params) *Aggregator {
	idx := params.Index
	if idx == nil {
		idx = tagindex.New()
	}
	size := params.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	v := params.Validator
	if v == nil {
		v = validate.New()
	}

	return &Aggregator{
		svc:       params.Service,
		idx:       idx,
		pageSize:  size,
		logger:    logger,
		validator: v,
		onLoading: params.OnLoading,
	}
}

// Index returns the index the aggregator maintains.
func (a *Aggregator) Index() *tagindex.Index {
	return a.idx
}

// Loading reports whether a Load is in progress.
func (a *Aggregator) Loading() bool {
	return a.inflight.Load() > 0
}

// Load fetches the tag and bookmark lists concurrently and rebuilds the
// index from them. On failure the index is left as it was.
func (a *Aggregator) Load(ctx context.Context) (*tagindex.Index, error) {
	a.beginLoading()
	defer a.endLoading()

	var (
		tags      []model.Tag
		bookmarks []model.Bookmark
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tags, err = a.svc.ListTags(gctx, 0, a.pageSize)
		return err
	})
	g.Go(func() error {
		var err error
		bookmarks, err = a.svc.ListBookmarks(gctx, 0, a.pageSize)
		return err
	})
	if err := g.Wait(); err != nil {
		a.logger.Warn("load failed", zap.Error(err))
		return a.idx, fmt.Errorf("load bookmarks: %w", err)
	}

	a.idx.Rebuild(tags, bookmarks)
	a.logger.Debug("index rebuilt",
		zap.Int("tags", len(tags)),
		zap.Int("bookmarks", len(bookmarks)))
	return a.idx, nil
}

// Create validates b, stores it on the service and reloads the index so
// server-assigned tag identifiers are picked up. When the store succeeds but
// the reload fails, the created bookmark is returned together with the error.
func (a *Aggregator) Create(ctx context.Context, b model.Bookmark) (model.Bookmark, error) {
	if b.Tags == nil {
		b.Tags = []string{}
	}
	if err := a.validator.Struct(b); err != nil {
		return model.Bookmark{}, err
	}

	created, err := a.svc.CreateBookmark(ctx, b)
	if err != nil {
		return model.Bookmark{}, err
	}
	a.logger.Info("bookmark created", zap.Int64("id", created.ID), zap.String("url", created.URL))

	if _, err := a.Load(ctx); err != nil {
		return created, fmt.Errorf("reload after create: %w", err)
	}
	return created, nil
}

// Modify sends b to the service and, once accepted, updates the index.
func (a *Aggregator) Modify(ctx context.Context, b model.Bookmark) error {
	if b.Tags == nil {
		b.Tags = []string{}
	}
	if err := a.validator.Struct(b); err != nil {
		return err
	}
	if err := a.svc.UpdateBookmark(ctx, b); err != nil {
		return err
	}
	a.idx.Update(b)
	a.logger.Info("bookmark modified", zap.Int64("id", b.ID))
	return nil
}

// Delete removes the bookmark on the service and, once accepted, from the
// index.
func (a *Aggregator) Delete(ctx context.Context, id int64) error {
	if err := a.svc.DeleteBookmark(ctx, id); err != nil {
		return err
	}
	a.idx.Remove(id)
	a.logger.Info("bookmark deleted", zap.Int64("id", id))
	return nil
}

// Import creates every bookmark whose URL is not indexed yet and reloads
// the index once. Invalid bookmarks and URLs already present are skipped.
// The first service failure stops the import; bookmarks created before it
// are kept and reflected in the index.
func (a *Aggregator) Import(ctx context.Context, bookmarks []model.Bookmark) (added, skipped int, err error) {
	seen := make(map[string]bool, len(bookmarks))

	for _, b := range bookmarks {
		if seen[b.URL] || a.idx.HasURL(b.URL) {
			skipped++
			continue
		}
		seen[b.URL] = true

		if b.Tags == nil {
			b.Tags = []string{}
		}
		if verr := a.validator.Struct(b); verr != nil {
			a.logger.Warn("skipping invalid bookmark", zap.String("url", b.URL), zap.Error(verr))
			skipped++
			continue
		}

		if _, cerr := a.svc.CreateBookmark(ctx, b); cerr != nil {
			err = fmt.Errorf("import %s: %w", b.URL, cerr)
			break
		}
		added++
	}

	if added > 0 {
		if _, lerr := a.Load(ctx); lerr != nil {
			err = errors.Join(err, lerr)
		}
	}
	return added, skipped, err
}

// ByTag fetches the bookmarks of one tag straight from the service. "All"
// lists every bookmark.
func (a *Aggregator) ByTag(ctx context.Context, name string) ([]model.Bookmark, error) {
	if name == model.AllTagName {
		return a.svc.ListBookmarks(ctx, 0, a.pageSize)
	}

	e, ok := a.idx.Get(name)
	if !ok || e.TagID < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTag, name)
	}
	return a.svc.ListBookmarksByTag(ctx, e.TagID, 0, a.pageSize)
}

func (a *Aggregator) beginLoading() {
	if a.inflight.Add(1) == 1 && a.onLoading != nil {
		a.onLoading(true)
	}
}

func (a *Aggregator) endLoading() {
	if a.inflight.Add(-1) == 0 && a.onLoading != nil {
		a.onLoading(false)
	}
}
