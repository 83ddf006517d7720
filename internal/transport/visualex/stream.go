package visualex

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/capazme/lexspace/internal/domain"
	"github.com/capazme/lexspace/internal/domain/norma"
)

// LineError reports a single undecodable stream line. The stream stays
// usable; callers skip the line and keep reading.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("stream line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// Stream reads newline-delimited JSON results from the upstream as they
// arrive. Close must be called when done.
type Stream struct {
	body io.ReadCloser
	sc   *bufio.Scanner
	line int
}

// StreamArticleText opens a streaming search. Each line of the response
// is one per-article result, emitted as the upstream scrapes it. The
// body read is not bounded by the client timeout; cancel ctx to abort
// a hung stream.
func (c *Client) StreamArticleText(ctx context.Context, p norma.SearchParams) (*Stream, error) {
	resp, err := c.postWith(ctx, c.streamc, "/stream_article_text", p)
	if err != nil {
		return nil, err
	}

	sc := bufio.NewScanner(resp.Body)
	// Article texts with brocardi annotations can run long.
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	return &Stream{body: resp.Body, sc: sc}, nil
}

// Next returns the next result. It returns io.EOF when the stream ends,
// and a *LineError wrapping domain.ErrLineDecode for a malformed line;
// the latter is recoverable and Next may be called again.
func (s *Stream) Next() (norma.Result, error) {
	for {
		if !s.sc.Scan() {
			if err := s.sc.Err(); err != nil {
				return norma.Result{}, fmt.Errorf("read stream: %w", err)
			}
			return norma.Result{}, io.EOF
		}
		s.line++

		raw := bytes.TrimSpace(s.sc.Bytes())
		if len(raw) == 0 {
			continue
		}

		res, err := norma.ParseResult(raw)
		if err != nil {
			if errors.Is(err, domain.ErrLineDecode) || errors.Is(err, domain.ErrMissingNormaData) {
				return norma.Result{}, &LineError{Line: s.line, Err: err}
			}
			return norma.Result{}, err
		}
		return res, nil
	}
}

// Close releases the underlying response body.
func (s *Stream) Close() error { return s.body.Close() }
