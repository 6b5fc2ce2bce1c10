package resource

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/and161185/nullscape-admin/internal/api"
	"github.com/and161185/nullscape-admin/internal/model"
	"github.com/and161185/nullscape-admin/internal/pagination"
)

// Requester is the HTTP surface a Collection needs. *api.Client satisfies it.
type Requester interface {
	Get(ctx context.Context, path string, query url.Values) (*api.Response, error)
	Post(ctx context.Context, path string, body any) (*api.Response, error)
	Put(ctx context.Context, path string, body any) (*api.Response, error)
	Delete(ctx context.Context, path string) (*api.Response, error)
}

// ListQuery is a list request. Zero Page and Limit mean 1 and the default page size.
type ListQuery struct {
	Q       string
	Status  string
	Filters map[string]string
	Page    int
	Limit   int
}

// Values encodes the query: q, status and filters only when set, page and
// limit always.
func (q ListQuery) Values() url.Values {
	v := url.Values{}
	if q.Q != "" {
		v.Set("q", q.Q)
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if val := q.Filters[k]; val != "" {
			v.Set(k, val)
		}
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = pagination.DefaultPageSize
	}
	v.Set("page", strconv.Itoa(page))
	v.Set("limit", strconv.Itoa(limit))
	return v
}

// Collection is typed access to one REST collection.
type Collection[T any] struct {
	rq   Requester
	path string
}

// NewCollection binds T to the collection at path.
func NewCollection[T any](rq Requester, path string) *Collection[T] {
	return &Collection[T]{rq: rq, path: path}
}

// For binds T to r's collection.
func For[T any](rq Requester, r Resource) *Collection[T] {
	return NewCollection[T](rq, r.Path)
}

// Path is the collection path.
func (c *Collection[T]) Path() string { return c.path }

// List fetches one page.
func (c *Collection[T]) List(ctx context.Context, q ListQuery) (model.Page[T], error) {
	p, err := api.DecodeAs[model.Page[T]](c.rq.Get(ctx, c.path, q.Values()))
	if err != nil {
		return p, err
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Pages < 1 {
		p.Pages = 1
	}
	return p, nil
}

// Get fetches one entity.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	if id == "" {
		var zero T
		return zero, errors.New("empty id")
	}
	return api.DecodeAs[T](c.rq.Get(ctx, c.itemPath(id), nil))
}

// Create posts a new entity and returns what the server stored.
func (c *Collection[T]) Create(ctx context.Context, body any) (T, error) {
	return decodeEntity[T](c.rq.Post(ctx, c.path, body))
}

// Update replaces the entity id.
func (c *Collection[T]) Update(ctx context.Context, id string, body any) (T, error) {
	if id == "" {
		var zero T
		return zero, errors.New("empty id")
	}
	return decodeEntity[T](c.rq.Put(ctx, c.itemPath(id), body))
}

// Delete removes the entity id.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("empty id")
	}
	if _, err := c.rq.Delete(ctx, c.itemPath(id)); err != nil {
		return fmt.Errorf("delete %s: %w", c.itemPath(id), err)
	}
	return nil
}

func (c *Collection[T]) itemPath(id string) string {
	return c.path + "/" + url.PathEscape(id)
}

// decodeEntity tolerates empty bodies, which some write endpoints send.
func decodeEntity[T any](resp *api.Response, err error) (T, error) {
	var out T
	if err != nil {
		return out, err
	}
	if len(resp.Data) == 0 {
		return out, nil
	}
	return api.DecodeAs[T](resp, nil)
}

// FetchSummary loads the dashboard overview.
func FetchSummary(ctx context.Context, rq Requester) (model.Summary, error) {
	return api.DecodeAs[model.Summary](rq.Get(ctx, "/analytics/summary", nil))
}
