// Package projects is the client for the backend's starred project endpoints.
package projects

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/star-console/apiclient"
	"github.com/jrsteele09/star-console/internal/utils"
	"github.com/jrsteele09/star-console/tags"
)

const (
	pathProjects  = "/projects"
	pathLanguages = "/projects/languages"
)

type Project struct {
	ID           string         `json:"id"`
	GithubID     int64          `json:"githubId"`
	Name         string         `json:"name"`
	FullName     string         `json:"fullName"`
	URL          string         `json:"url"`
	Description  *string        `json:"description,omitempty"`
	Language     *string        `json:"language,omitempty"`
	Stars        int            `json:"stars"`
	Forks        int            `json:"forks"`
	LastCommit   *time.Time     `json:"lastCommit,omitempty"`
	LastSyncAt   time.Time      `json:"lastSyncAt"`
	TouchedAt    *time.Time     `json:"touchedAt,omitempty"`
	Notes        *string        `json:"notes,omitempty"`
	Favorite     bool           `json:"favorite"`
	Archived     bool           `json:"archived"`
	Pinned       bool           `json:"pinned"`
	Score        *float64       `json:"score,omitempty"`
	SummaryShort *string        `json:"summaryShort,omitempty"`
	SummaryLong  *string        `json:"summaryLong,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    *time.Time     `json:"deletedAt,omitempty"`
	Tags         []tags.Summary `json:"tags"`
	VideoLinks   []string       `json:"videoLinks"`
}

// Clean strips control characters from the free text the backend copies from GitHub.
func (p *Project) Clean() {
	p.SummaryShort = utils.CleanOptional(p.SummaryShort)
	p.SummaryLong = utils.CleanOptional(p.SummaryLong)
	for i := range p.Tags {
		p.Tags[i].Name = utils.CleanText(p.Tags[i].Name)
		p.Tags[i].Description = utils.CleanOptional(p.Tags[i].Description)
	}
	if p.VideoLinks != nil {
		p.VideoLinks = utils.CleanStrings(p.VideoLinks)
	}
}

// ListQuery filters the project list. Languages takes precedence over Language. Sort is
// "field" or "field:direction"; the direction defaults to asc. Extra is passed through as is.
type ListQuery struct {
	Page      int
	PageSize  int
	Keyword   string
	Language  string
	Languages []string
	Favorite  *bool
	Pinned    *bool
	Archived  *bool
	TagNames  []string

	StarsMin *int
	StarsMax *int
	ForksMin *int
	ForksMax *int

	CreatedAtStart  string
	CreatedAtEnd    string
	UpdatedAtStart  string
	UpdatedAtEnd    string
	LastCommitStart string
	LastCommitEnd   string

	Sort  string
	Extra url.Values
}

func (q ListQuery) Values() url.Values {
	v := url.Values{}
	setInt := func(key string, n int) {
		if n > 0 {
			v.Add(key, strconv.Itoa(n))
		}
	}
	setIntPtr := func(key string, n *int) {
		if n != nil {
			v.Add(key, strconv.Itoa(*n))
		}
	}
	setBool := func(key string, b *bool) {
		if b != nil {
			v.Add(key, strconv.FormatBool(*b))
		}
	}
	setString := func(key, s string) {
		if s != "" {
			v.Add(key, s)
		}
	}

	setInt("page", q.Page)
	setInt("pageSize", q.PageSize)
	setString("keyword", q.Keyword)

	if len(q.Languages) > 0 {
		for _, lang := range q.Languages {
			v.Add("languages", lang)
		}
	} else {
		setString("language", q.Language)
	}

	setBool("favorite", q.Favorite)
	setBool("pinned", q.Pinned)
	setBool("archived", q.Archived)

	for _, tag := range q.TagNames {
		v.Add("tagNames", tag)
	}

	setIntPtr("starsMin", q.StarsMin)
	setIntPtr("starsMax", q.StarsMax)
	setIntPtr("forksMin", q.ForksMin)
	setIntPtr("forksMax", q.ForksMax)
	setString("createdAtStart", q.CreatedAtStart)
	setString("createdAtEnd", q.CreatedAtEnd)
	setString("updatedAtStart", q.UpdatedAtStart)
	setString("updatedAtEnd", q.UpdatedAtEnd)
	setString("lastCommitStart", q.LastCommitStart)
	setString("lastCommitEnd", q.LastCommitEnd)

	for key, values := range q.Extra {
		for _, value := range values {
			v.Add(key, value)
		}
	}

	if orderBy, direction, _ := strings.Cut(q.Sort, ":"); orderBy != "" {
		if direction == "" {
			direction = "asc"
		}
		v.Set("orderBy", orderBy)
		v.Set("orderDirection", direction)
	}
	return v
}

type UpdateRequest struct {
	Notes    *string  `json:"notes,omitempty"`
	Favorite *bool    `json:"favorite,omitempty"`
	Pinned   *bool    `json:"pinned,omitempty"`
	Archived *bool    `json:"archived,omitempty"`
	Score    *float64 `json:"score,omitempty"`
}

type SummaryOptions struct {
	Style          string   `json:"style,omitempty"` // short, long or both
	Lang           string   `json:"lang,omitempty"`
	Model          string   `json:"model,omitempty"`
	Temperature    *float64 `json:"temperature,omitempty"`
	CreateTags     *bool    `json:"createTags,omitempty"`
	IncludeReadme  *bool    `json:"includeReadme,omitempty"`
	ReadmeMaxChars int      `json:"readmeMaxChars,omitempty"`
}

type SummaryResult struct {
	ProjectID    string   `json:"projectId"`
	SummaryShort *string  `json:"summaryShort,omitempty"`
	SummaryLong  *string  `json:"summaryLong,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

type Client struct {
	api *apiclient.Client
}

func New(api *apiclient.Client) *Client {
	return &Client{api: api}
}

// List returns one page of projects with their text cleaned.
func (c *Client) List(ctx context.Context, q ListQuery) (apiclient.Page[Project], error) {
	resp, err := c.api.Do(ctx, apiclient.Get(pathProjects).WithQuery(q.Values()))
	if err != nil {
		return apiclient.Page[Project]{}, err
	}
	page, err := apiclient.DecodeTolerant[apiclient.Page[Project]](resp)
	if err != nil {
		return page, err
	}
	for i := range page.Data {
		page.Data[i].Clean()
	}
	return page, nil
}

// Languages returns the distinct languages across starred projects.
func (c *Client) Languages(ctx context.Context) ([]string, error) {
	resp, err := c.api.Do(ctx, apiclient.Get(pathLanguages))
	if err != nil {
		return nil, err
	}
	env, err := apiclient.DecodeTolerant[apiclient.Envelope[[]string]](resp)
	if err != nil {
		return nil, err
	}
	if env.Data == nil {
		return []string{}, nil
	}
	return utils.CleanStrings(env.Data), nil
}

func (c *Client) Get(ctx context.Context, id string) (*Project, error) {
	return c.one(ctx, apiclient.Get(projectPath(id)))
}

func (c *Client) Update(ctx context.Context, id string, req UpdateRequest) (*Project, error) {
	return c.one(ctx, apiclient.Put(projectPath(id), req))
}

func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.api.Do(ctx, apiclient.Delete(projectPath(id)))
	return err
}

// Summarize asks the backend to (re)generate the AI summary of a project.
func (c *Client) Summarize(ctx context.Context, id string, opts SummaryOptions) (*SummaryResult, error) {
	resp, err := c.api.Do(ctx, apiclient.Post("/ai/projects/"+url.PathEscape(id)+"/summary", opts))
	if err != nil {
		return nil, err
	}
	env, err := apiclient.DecodeTolerant[apiclient.Envelope[*SummaryResult]](resp)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *Client) one(ctx context.Context, req apiclient.Request) (*Project, error) {
	resp, err := c.api.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	env, err := apiclient.DecodeTolerant[apiclient.Envelope[*Project]](resp)
	if err != nil {
		return nil, err
	}
	if env.Data != nil {
		env.Data.Clean()
	}
	return env.Data, nil
}

func projectPath(id string) string {
	return pathProjects + "/" + url.PathEscape(id)
}
