package typo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/tomnomnom/linkheader"
	"go.uber.org/zap"

	"github.com/ajitpratap0/tap-typo/pkg/clients"
	"github.com/ajitpratap0/tap-typo/pkg/errors"
	jsonpool "github.com/ajitpratap0/tap-typo/pkg/json"
	"github.com/ajitpratap0/tap-typo/pkg/observability"
)

// Getter performs authenticated GETs. auth.Session implements it.
type Getter interface {
	Get(ctx context.Context, target string, params url.Values) (*clients.Response, error)
	URL(path string) string
}

// envelope is the body shape of every Typo API response.
type envelope[T any] struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// DatasetInfo is one entry of GET /datasets.
type DatasetInfo struct {
	ID         int64                 `json:"id"`
	Repository string                `json:"repository"`
	Dataset    string                `json:"dataset"`
	Models     []jsonpool.RawMessage `json:"models"`
	Schema     *FieldMap             `json:"schema"`
	RowCount   int64                 `json:"row_count"`
}

// AuditInfo is one entry of GET /audits.
type AuditInfo struct {
	ID         int64     `json:"id"`
	Repository string    `json:"repository"`
	Dataset    string    `json:"dataset"`
	State      string    `json:"state"`
	Schema     *FieldMap `json:"schema"`
	RowCount   int64     `json:"row_count"`
}

// AuditStateCompleted marks an audit whose results can be synced.
const AuditStateCompleted = "COMPLETED"

// EntityHeader is the body of the dataset / audit header endpoint.
type EntityHeader struct {
	ID      int64 `json:"id"`
	Dataset struct {
		Schema *FieldMap `json:"schema"`
	} `json:"dataset"`
}

// RemoteRecord is one element of a results page.
type RemoteRecord struct {
	ID        int64                  `json:"id"`
	HasErrors bool                   `json:"has_errors"`
	Record    map[string]interface{} `json:"record"`
}

type resultsData struct {
	Page         int            `json:"page"`
	PerPage      int            `json:"per_page"`
	TotalPages   int            `json:"total_pages"`
	TotalRecords int64          `json:"total_records"`
	Records      []RemoteRecord `json:"records"`
}

// Page is one fetched batch of results.
type Page struct {
	Number       int
	Records      []RemoteRecord
	TotalRecords int64
	// EOF is set when the response carries no rel="next" link.
	EOF bool
}

// Entity addresses a dataset, or an audit of a dataset when AuditID > 0.
type Entity struct {
	Repository string
	Dataset    string
	AuditID    int64
}

// IsAudit reports whether e addresses an audit.
func (e Entity) IsAudit() bool {
	return e.AuditID > 0
}

func (e Entity) path() string {
	p := "repositories/" + url.PathEscape(e.Repository) + "/datasets/" + url.PathEscape(e.Dataset)
	if e.IsAudit() {
		p += "/audits/" + strconv.FormatInt(e.AuditID, 10)
	}
	return p
}

// PageRequest selects one page of an entity's results.
type PageRequest struct {
	Entity  Entity
	PerPage int
	Page    int
	// After, when set, restricts results to record ids greater than it.
	After *int64
}

// Query parameters of the results endpoint.
const (
	paramRecordsPerPage = "records_per_page"
	paramPage           = "page"
	paramRecordIDFilter = "record_id_filter"
)

// APIClient wraps the Typo REST endpoints the tap consumes.
type APIClient struct {
	session Getter
	logger  *zap.Logger
}

// NewAPIClient creates a client issuing requests through session.
func NewAPIClient(session Getter, logger *zap.Logger) *APIClient {
	return &APIClient{
		session: session,
		logger:  logger.With(zap.String("component", "typo_api")),
	}
}

// ListDatasets returns the datasets that have at least one model attached.
func (c *APIClient) ListDatasets(ctx context.Context) ([]DatasetInfo, error) {
	var body envelope[[]DatasetInfo]
	if err := c.get(ctx, "datasets", nil, "list datasets", &body); err != nil {
		return nil, err
	}

	datasets := make([]DatasetInfo, 0, len(body.Data))
	for _, d := range body.Data {
		if len(d.Models) == 0 {
			continue
		}
		datasets = append(datasets, d)
	}

	c.logger.Debug("listed datasets",
		zap.Int("returned", len(body.Data)),
		zap.Int("with_models", len(datasets)))
	return datasets, nil
}

// ListAudits returns the completed audits that carry a schema.
func (c *APIClient) ListAudits(ctx context.Context) ([]AuditInfo, error) {
	var body envelope[[]AuditInfo]
	if err := c.get(ctx, "audits", nil, "list audits", &body); err != nil {
		return nil, err
	}

	audits := make([]AuditInfo, 0, len(body.Data))
	for _, a := range body.Data {
		if a.State != AuditStateCompleted || a.Schema == nil {
			continue
		}
		audits = append(audits, a)
	}

	c.logger.Debug("listed audits",
		zap.Int("returned", len(body.Data)),
		zap.Int("completed", len(audits)))
	return audits, nil
}

// Describe fetches the header of a dataset or audit.
func (c *APIClient) Describe(ctx context.Context, entity Entity) (*EntityHeader, error) {
	operation := "describe dataset"
	if entity.IsAudit() {
		operation = "describe audit"
	}

	var body envelope[EntityHeader]
	if err := c.get(ctx, entity.path(), nil, operation, &body); err != nil {
		return nil, err
	}
	return &body.Data, nil
}

// FetchPage fetches one page of results.
func (c *APIClient) FetchPage(ctx context.Context, req PageRequest) (page *Page, err error) {
	ctx, span := observability.NewSpan(ctx, "typo.fetch_page")
	span.SetAttribute("typo.page", req.Page)
	span.SetAttribute("typo.per_page", req.PerPage)
	defer func() { span.Finish(err) }()

	params := url.Values{}
	params.Set(paramRecordsPerPage, strconv.Itoa(req.PerPage))
	params.Set(paramPage, strconv.Itoa(req.Page))
	if req.After != nil {
		params.Set(paramRecordIDFilter, fmt.Sprintf("gt:%d", *req.After))
	}

	resp, err := c.session.Get(ctx, c.session.URL(req.Entity.path()+"/results"), params)
	if err != nil {
		return nil, err
	}
	if err := resp.Err("fetch results page"); err != nil {
		return nil, c.remoteError(err, req.Entity.path()+"/results")
	}

	var body envelope[resultsData]
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}

	page = &Page{
		Number:       req.Page,
		Records:      body.Data.Records,
		TotalRecords: body.Data.TotalRecords,
		EOF:          !hasNextLink(resp),
	}
	span.SetAttribute("typo.records", len(page.Records))
	span.SetAttribute("typo.eof", page.EOF)
	return page, nil
}

// hasNextLink reports whether the Link header advertises a next page. A
// missing header means there is none.
func hasNextLink(resp *clients.Response) bool {
	values := resp.Header.Values("Link")
	if len(values) == 0 {
		return false
	}
	return len(linkheader.ParseMultiple(values).FilterByRel("next")) > 0
}

func (c *APIClient) get(ctx context.Context, path string, params url.Values, operation string, out interface{}) error {
	resp, err := c.session.Get(ctx, c.session.URL(path), params)
	if err != nil {
		return err
	}
	if err := resp.Err(operation); err != nil {
		return c.remoteError(err, path)
	}
	return resp.Decode(out)
}

func (c *APIClient) remoteError(err error, path string) error {
	details := errors.DetailsOf(err)
	c.logger.Error("remote rejected request",
		zap.String("path", path),
		zap.Any("status", details[errors.DetailStatusCode]),
		zap.Any("remote_message", details[errors.DetailMessage]))
	var typed *errors.Error
	if errors.As(err, &typed) {
		return typed.WithDetail(errors.DetailURL, path)
	}
	return err
}
