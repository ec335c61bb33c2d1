// Package admin is the client for the backend's administration endpoints.
package admin

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"github.com/jrsteele09/star-console/apiclient"
	consoleerrors "github.com/jrsteele09/star-console/internal/errors"
	"github.com/rs/zerolog/log"
)

type QueueCounts struct {
	Waiting         int       `json:"waiting"`
	Active          int       `json:"active"`
	Delayed         int       `json:"delayed"`
	Completed       int       `json:"completed"`
	Failed          int       `json:"failed"`
	Paused          int       `json:"paused"`
	WaitingChildren int       `json:"waitingChildren"`
	Prioritized     int       `json:"prioritized"`
	Stalled         int       `json:"stalled"`
	Total           int       `json:"total"`
	TotalProcessed  int       `json:"totalProcessed"`
	SuccessRate     *float64  `json:"successRate,omitempty"`
	IsPaused        bool      `json:"isPaused"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type QueuesStatus struct {
	Message string `json:"message"`
	Queues  struct {
		SyncStars   QueueCounts `json:"syncStars"`
		AISummary   QueueCounts `json:"aiSummary"`
		Maintenance QueueCounts `json:"maintenance"`
	} `json:"queues"`
	Config struct {
		AISummaryConcurrency *int `json:"aiSummaryConcurrency,omitempty"`
		AIRPMLimit           *int `json:"aiRpmLimit,omitempty"`
		SyncConcurrency      *int `json:"syncConcurrency,omitempty"`
	} `json:"config"`
}

type SyncMode string

const (
	SyncFull        SyncMode = "full"
	SyncIncremental SyncMode = "incremental"
)

type SyncStarsRequest struct {
	Mode                SyncMode `json:"mode"`
	PerPage             int      `json:"perPage,omitempty"`
	MaxPages            int      `json:"maxPages,omitempty"`
	SoftDeleteUnstarred *bool    `json:"softDeleteUnstarred,omitempty"`
	Note                string   `json:"note,omitempty"`
}

// JobAccepted is the reply of endpoints that enqueue background work.
type JobAccepted struct {
	Message string `json:"message"`
	JobID   string `json:"jobId"`
}

type SyncStats struct {
	Scanned            int        `json:"scanned"`
	Created            int        `json:"created"`
	Updated            int        `json:"updated"`
	Unchanged          int        `json:"unchanged"`
	SoftDeleted        int        `json:"softDeleted"`
	Pages              int        `json:"pages"`
	RateLimitRemaining *int       `json:"rateLimitRemaining,omitempty"`
	Errors             *int       `json:"errors,omitempty"`
	StartedAt          *time.Time `json:"startedAt,omitempty"`
	FinishedAt         *time.Time `json:"finishedAt,omitempty"`
	DurationMs         *int64     `json:"durationMs,omitempty"`
}

// SyncState describes the last star synchronisation. StatsJSON is either a JSON encoded
// string or an object; LatestStats is filled from it when the backend did not send it.
type SyncState struct {
	ID            string          `json:"id"`
	Source        string          `json:"source"`
	Key           string          `json:"key"`
	Cursor        *string         `json:"cursor,omitempty"`
	ETag          *string         `json:"etag,omitempty"`
	LastRunAt     *time.Time      `json:"lastRunAt,omitempty"`
	LastSuccessAt *time.Time      `json:"lastSuccessAt,omitempty"`
	LastErrorAt   *time.Time      `json:"lastErrorAt,omitempty"`
	LastError     *string         `json:"lastError,omitempty"`
	StatsJSON     json.RawMessage `json:"statsJson,omitempty"`
	LatestStats   *SyncStats      `json:"latestStats"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type ArchiveReason string

const (
	ArchiveManual    ArchiveReason = "manual"
	ArchiveUnstarred ArchiveReason = "unstarred"
)

type ArchivedProject struct {
	ID         string          `json:"id"`
	GithubID   *int64          `json:"githubId,omitempty"`
	Reason     ArchiveReason   `json:"reason"`
	ArchivedAt time.Time       `json:"archivedAt"`
	Snapshot   json.RawMessage `json:"snapshot"`
}

type ArchivedQuery struct {
	Page     int
	PageSize int
	Reason   ArchiveReason
}

func (q ArchivedQuery) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if q.Reason != "" {
		v.Set("reason", string(q.Reason))
	}
	return v
}

type SummaryOptions struct {
	Style          string   `json:"style,omitempty"`
	Lang           string   `json:"lang,omitempty"`
	Model          string   `json:"model,omitempty"`
	Temperature    *float64 `json:"temperature,omitempty"`
	CreateTags     *bool    `json:"createTags,omitempty"`
	IncludeReadme  *bool    `json:"includeReadme,omitempty"`
	ReadmeMaxChars int      `json:"readmeMaxChars,omitempty"`
}

type SummaryRequest struct {
	ProjectIDs []string        `json:"projectIds"`
	Options    *SummaryOptions `json:"options,omitempty"`
	Note       string          `json:"note,omitempty"`
}

type SweepRequest struct {
	Limit             int    `json:"limit,omitempty"`
	Lang              string `json:"lang,omitempty"`
	Model             string `json:"model,omitempty"`
	Force             bool   `json:"force,omitempty"`
	StaleDaysOverride int    `json:"staleDaysOverride,omitempty"`
}

type Enqueued struct {
	Message        string `json:"message"`
	Enqueued       int    `json:"enqueued"`
	Total          int    `json:"total,omitempty"`
	QueueRemaining *int   `json:"queueRemaining,omitempty"`
}

type AIBatch struct {
	Key           string     `json:"key"`
	LastRunAt     *time.Time `json:"lastRunAt,omitempty"`
	LastSuccessAt *time.Time `json:"lastSuccessAt,omitempty"`
	StatsJSON     *string    `json:"statsJson,omitempty"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

type BatchQuery struct {
	Page      int
	PageSize  int
	SortField string // lastRunAt, lastSuccessAt or updatedAt
	SortOrder string
}

func (q BatchQuery) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if q.SortField != "" {
		v.Set("sortField", q.SortField)
	}
	if q.SortOrder != "" {
		v.Set("sortOrder", q.SortOrder)
	}
	return v
}

type Client struct {
	api *apiclient.Client
}

func New(api *apiclient.Client) *Client {
	return &Client{api: api}
}

func (c *Client) QueuesStatus(ctx context.Context) (*QueuesStatus, error) {
	return ptr(apiclient.DoJSON[QueuesStatus](ctx, c.api, apiclient.Get("/admin/queues")))
}

func (c *Client) SyncStars(ctx context.Context, req SyncStarsRequest) (*JobAccepted, error) {
	return ptr(apiclient.DoJSON[JobAccepted](ctx, c.api, apiclient.Post("/admin/sync-stars", req)))
}

// SyncState returns the last synchronisation, or nil when none has run yet.
func (c *Client) SyncState(ctx context.Context) (*SyncState, error) {
	state, err := apiclient.DoJSON[SyncState](ctx, c.api, apiclient.Get("/admin/sync-state").Quiet())
	if err != nil {
		if consoleerrors.Is(err, consoleerrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if state.LatestStats == nil {
		state.LatestStats = ParseStats(state.StatsJSON)
	}
	return &state, nil
}

func (c *Client) ArchivedProjects(ctx context.Context, q ArchivedQuery) (apiclient.Page[ArchivedProject], error) {
	return apiclient.DoJSON[apiclient.Page[ArchivedProject]](ctx, c.api, apiclient.Get("/admin/archived-projects").WithQuery(q.Values()))
}

func (c *Client) ArchivedProject(ctx context.Context, id string) (*ArchivedProject, error) {
	env, err := apiclient.DoJSON[apiclient.Envelope[*ArchivedProject]](ctx, c.api, apiclient.Get("/admin/archived-projects/"+url.PathEscape(id)))
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *Client) EnqueueSummaries(ctx context.Context, req SummaryRequest) (*Enqueued, error) {
	return ptr(apiclient.DoJSON[Enqueued](ctx, c.api, apiclient.Post("/admin/ai/summary/enqueue", req)))
}

func (c *Client) EnqueueSweep(ctx context.Context, req SweepRequest) (*Enqueued, error) {
	return ptr(apiclient.DoJSON[Enqueued](ctx, c.api, apiclient.Post("/admin/ai/summary/sweep", req)))
}

func (c *Client) AIBatches(ctx context.Context, q BatchQuery) (apiclient.Page[AIBatch], error) {
	return apiclient.DoJSON[apiclient.Page[AIBatch]](ctx, c.api, apiclient.Get("/admin/ai/batches").WithQuery(q.Values()))
}

func (c *Client) AIBatch(ctx context.Context, id string) (*AIBatch, error) {
	env, err := apiclient.DoJSON[apiclient.Envelope[*AIBatch]](ctx, c.api, apiclient.Get("/admin/ai/batches/"+url.PathEscape(id)))
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *Client) RunMaintenance(ctx context.Context) (*JobAccepted, error) {
	return ptr(apiclient.DoJSON[JobAccepted](ctx, c.api, apiclient.Post("/admin/maintenance/run", nil)))
}

// ParseStats decodes a statsJson value that is either an object or a string holding one.
// Anything unreadable yields nil.
func ParseStats(raw json.RawMessage) *SyncStats {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	payload := []byte(raw)
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		if encoded == "" {
			return nil
		}
		payload = []byte(encoded)
	}

	var stats SyncStats
	if err := json.Unmarshal(payload, &stats); err != nil {
		log.Debug().Err(err).Msg("Failed to parse sync statsJson")
		return nil
	}
	return &stats
}

func ptr[T any](v T, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	return &v, nil
}
