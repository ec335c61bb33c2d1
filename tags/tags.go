// Package tags is the client for the backend's tag endpoints.
package tags

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/star-console/apiclient"
)

const pathTags = "/tags"

// Summary is the short form of a tag embedded in projects.
type Summary struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

type ProjectRef struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	FullName string `json:"fullName,omitempty"`
	URL      string `json:"url,omitempty"`
}

type Tag struct {
	Summary
	Archived         bool         `json:"archived"`
	CreatedAt        *time.Time   `json:"createdAt,omitempty"`
	UpdatedAt        *time.Time   `json:"updatedAt,omitempty"`
	DeletedAt        *time.Time   `json:"deletedAt,omitempty"`
	Projects         []ProjectRef `json:"projects,omitempty"`
	ProjectsTotal    int          `json:"projectsTotal,omitempty"`
	ProjectsPage     int          `json:"projectsPage,omitempty"`
	ProjectsPageSize int          `json:"projectsPageSize,omitempty"`
	ProjectCount     int          `json:"projectCount"`
}

// ListQuery filters the tag list. Sort is "field" or "field:direction"; the direction defaults to desc.
type ListQuery struct {
	Page     int
	PageSize int
	Archived *bool
	Keyword  string
	Sort     string
}

func (q ListQuery) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if q.Archived != nil {
		v.Set("archived", strconv.FormatBool(*q.Archived))
	}
	if q.Keyword != "" {
		v.Set("keyword", q.Keyword)
	}
	if orderBy, direction := splitSort(q.Sort, "desc"); orderBy != "" {
		v.Set("orderBy", orderBy)
		v.Set("orderDirection", direction)
	}
	return v
}

// DetailQuery pages the projects embedded in a tag.
type DetailQuery struct {
	ProjectsPage     int
	ProjectsPageSize int
}

func (q DetailQuery) Values() url.Values {
	v := url.Values{}
	if q.ProjectsPage > 0 {
		v.Set("projectsPage", strconv.Itoa(q.ProjectsPage))
	}
	if q.ProjectsPageSize > 0 {
		v.Set("projectsPageSize", strconv.Itoa(q.ProjectsPageSize))
	}
	return v
}

type Payload struct {
	Name        string  `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

type Client struct {
	api *apiclient.Client
}

func New(api *apiclient.Client) *Client {
	return &Client{api: api}
}

func (c *Client) List(ctx context.Context, q ListQuery) (apiclient.Page[Tag], error) {
	return apiclient.DoJSON[apiclient.Page[Tag]](ctx, c.api, apiclient.Get(pathTags).WithQuery(q.Values()))
}

func (c *Client) Get(ctx context.Context, id string, q DetailQuery) (*Tag, error) {
	return data(apiclient.DoJSON[apiclient.Envelope[*Tag]](ctx, c.api, apiclient.Get(tagPath(id)).WithQuery(q.Values())))
}

func (c *Client) Create(ctx context.Context, p Payload) (*Tag, error) {
	return data(apiclient.DoJSON[apiclient.Envelope[*Tag]](ctx, c.api, apiclient.Post(pathTags, p)))
}

func (c *Client) Update(ctx context.Context, id string, p Payload) (*Tag, error) {
	return data(apiclient.DoJSON[apiclient.Envelope[*Tag]](ctx, c.api, apiclient.Put(tagPath(id), p)))
}

func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.api.Do(ctx, apiclient.Delete(tagPath(id)))
	return err
}

func tagPath(id string) string {
	return pathTags + "/" + url.PathEscape(id)
}

func data(env apiclient.Envelope[*Tag], err error) (*Tag, error) {
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

func splitSort(sort, defaultDirection string) (orderBy, direction string) {
	orderBy, direction, _ = strings.Cut(sort, ":")
	if direction == "" {
		direction = defaultDirection
	}
	return orderBy, direction
}
