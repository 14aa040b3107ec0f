package chatbot

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	stateIdle int32 = iota
	statePending
)

// Submission is an accepted query whose search is in flight
type Submission struct {
	Seq   uint64
	Query string
	// Done receives the result of the search once its messages are appended, then closes.
	Done <-chan error
}

// Client submits queries to a Searcher and renders the results into a View.
// At most one search is pending per Client.
type Client struct {
	searcher Searcher
	view     View
	logger   *zap.Logger

	state atomic.Int32
	seq   atomic.Uint64
}

// NewClient creates a new Client
func NewClient(searcher Searcher, view View, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		searcher: searcher,
		view:     view,
		logger:   logger,
	}
}

// Pending reports whether a search is in flight
func (c *Client) Pending() bool {
	return c.state.Load() == statePending
}

// Start validates rawQuery, appends the user message, clears the input and
// sends the search in the background. It returns ErrEmptyQuery or ErrBusy
// without touching the view.
func (c *Client) Start(ctx context.Context, rawQuery string) (*Submission, error) {
	query := strings.TrimSpace(rawQuery)
	if query == "" {
		c.logger.Debug("Empty query submitted, ignoring")
		return nil, ErrEmptyQuery
	}

	if !c.state.CompareAndSwap(stateIdle, statePending) {
		c.logger.Debug("Query submitted while a search is pending, ignoring", zap.String("query", query))
		submissionsTotal.WithLabelValues(outcomeBusy).Inc()
		return nil, ErrBusy
	}

	seq := c.seq.Add(1)
	c.logger.Debug("Query submitted", zap.Uint64("seq", seq), zap.String("query", query))

	c.append(NewMessage(seq, RoleUser, KindText, query, ""))
	c.view.ClearInput()

	done := make(chan error, 1)
	go func() {
		err := c.search(ctx, seq, query)
		c.state.Store(stateIdle)
		done <- err
		close(done)
	}()

	return &Submission{Seq: seq, Query: query, Done: done}, nil
}

// Submit is Start followed by waiting for the search to finish
func (c *Client) Submit(ctx context.Context, rawQuery string) error {
	sub, err := c.Start(ctx, rawQuery)
	if err != nil {
		return err
	}
	return <-sub.Done
}

func (c *Client) search(ctx context.Context, seq uint64, query string) error {
	start := time.Now()
	resp, err := c.searcher.Search(ctx, &SearchRequest{Query: query})
	searchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		var tErr *TransportError
		if !errors.As(err, &tErr) {
			err = &TransportError{Description: "Search failed", Kind: TransportNetwork, Err: err}
		}
		c.logger.Warn("Search request failed", zap.Uint64("seq", seq), zap.Error(err))
		submissionsTotal.WithLabelValues(outcomeFailed).Inc()
		c.append(ApologyMessage(seq))
		return err
	}

	msgs := Plan(resp, seq)
	c.logger.Debug("Response received",
		zap.Uint64("seq", seq),
		zap.Bool("ai_response", resp != nil && resp.AIResponse.Present()),
		zap.Bool("pdf", resp != nil && resp.PDFEmbedURL.Present()),
		zap.Bool("website", resp != nil && resp.EmbeddedWebsite.Present()),
	)
	for _, m := range msgs {
		c.append(m)
	}

	submissionsTotal.WithLabelValues(outcomeOK).Inc()
	return nil
}

func (c *Client) append(m Message) {
	c.view.Append(m)
	c.view.ScrollToEnd()
	messagesAppended.WithLabelValues(string(m.Role), string(m.Kind)).Inc()
}
