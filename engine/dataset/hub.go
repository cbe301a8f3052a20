package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/VoyagentAI/voyagent-mvp/engine/domain"
)

const (
	// DefaultRowsEndpoint is the Hugging Face datasets-server rows API.
	DefaultRowsEndpoint = "https://datasets-server.huggingface.co/rows"

	// DefaultDataset is the travel-planning corpus this engine ingests.
	DefaultDataset = "osunlp/TravelPlanner"

	// DefaultConfig and DefaultSplit select the training slice.
	DefaultConfig = "train"
	DefaultSplit  = "train"

	// hubPageSize is the rows-per-request cap the API enforces.
	hubPageSize = 100
)

// HubSource streams records page by page from the Hugging Face
// datasets-server rows API. Pages are fetched lazily and requests go
// through a client-side rate limiter.
type HubSource struct {
	endpoint string
	dataset  string
	config   string
	split    string
	client   *http.Client
	limiter  *rate.Limiter

	offset int // absolute row offset of the next record to yield
	page   []domain.RawRecord
	total  int // -1 until the first page reports it
}

// HubOption configures a HubSource.
type HubOption func(*HubSource)

// WithEndpoint overrides the rows API endpoint (tests point this at a
// local server).
func WithEndpoint(u string) HubOption {
	return func(s *HubSource) { s.endpoint = u }
}

// WithDataset selects a dataset, config and split.
func WithDataset(dataset, config, split string) HubOption {
	return func(s *HubSource) {
		s.dataset = dataset
		s.config = config
		s.split = split
	}
}

// WithHubOffset resumes the stream from an absolute row offset.
func WithHubOffset(n int) HubOption {
	return func(s *HubSource) { s.offset = n }
}

// WithRateLimit caps API requests per second.
func WithRateLimit(rps float64) HubOption {
	return func(s *HubSource) { s.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) HubOption {
	return func(s *HubSource) { s.client = c }
}

// NewHubSource creates a source over the datasets-server rows API.
func NewHubSource(opts ...HubOption) *HubSource {
	s := &HubSource{
		endpoint: DefaultRowsEndpoint,
		dataset:  DefaultDataset,
		config:   DefaultConfig,
		split:    DefaultSplit,
		client:   &http.Client{Timeout: 30 * time.Second},
		limiter:  rate.NewLimiter(rate.Limit(2), 1),
		total:    -1,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Offset returns the absolute row offset of the next record.
func (s *HubSource) Offset() int { return s.offset }

// Next returns the next record, fetching a new page when the buffered
// one is drained.
func (s *HubSource) Next(ctx context.Context) (domain.RawRecord, error) {
	if len(s.page) == 0 {
		if s.total >= 0 && s.offset >= s.total {
			return nil, io.EOF
		}
		if err := s.fetchPage(ctx); err != nil {
			return nil, err
		}
		if len(s.page) == 0 {
			return nil, io.EOF
		}
	}
	rec := s.page[0]
	s.page = s.page[1:]
	s.offset++
	return rec, nil
}

// rowsResponse mirrors the datasets-server rows payload.
type rowsResponse struct {
	Rows []struct {
		RowIdx int             `json:"row_idx"`
		Row    domain.RawRecord `json:"row"`
	} `json:"rows"`
	NumRowsTotal int `json:"num_rows_total"`
}

func (s *HubSource) fetchPage(ctx context.Context) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	q := url.Values{}
	q.Set("dataset", s.dataset)
	q.Set("config", s.config)
	q.Set("split", s.split)
	q.Set("offset", strconv.Itoa(s.offset))
	q.Set("length", strconv.Itoa(hubPageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: rows request: %v", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: rows request: status %d", domain.ErrSourceUnavailable, resp.StatusCode)
	}

	var body rowsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: rows decode: %v", domain.ErrSourceUnavailable, err)
	}

	s.total = body.NumRowsTotal
	s.page = s.page[:0]
	for _, r := range body.Rows {
		s.page = append(s.page, r.Row)
	}
	return nil
}
