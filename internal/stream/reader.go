package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gingus/katfod/internal/version"
)

const (
	// MaxFrameSize bounds a single JPEG part.
	MaxFrameSize = 4 << 20

	// ConnectTimeout bounds dialing and waiting for response headers.
	ConnectTimeout = 5 * time.Second
)

var (
	// ErrNotMultipart is returned when /video does not answer with a
	// multipart body.
	ErrNotMultipart = errors.New("stream is not multipart")

	// ErrFrameTooLarge is returned for a part larger than MaxFrameSize.
	ErrFrameTooLarge = errors.New("frame exceeds maximum size")
)

// Frame is one image from the stream.
type Frame struct {
	Data        []byte
	ContentType string
	Received    time.Time
}

// NewHTTPClient returns a client suited to long-lived stream bodies: dialing
// and headers are bounded, the body is not.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: ConnectTimeout,
			}).DialContext,
			ResponseHeaderTimeout: ConnectTimeout,
			MaxIdleConnsPerHost:   1,
		},
	}
}

// Reader yields frames from a multipart stream body.
type Reader struct {
	body io.ReadCloser
	mr   *multipart.Reader
	now  func() time.Time
}

// NewReader reads frames from body using the given multipart boundary.
func NewReader(body io.ReadCloser, boundary string) *Reader {
	return &Reader{
		body: body,
		mr:   multipart.NewReader(body, boundary),
		now:  time.Now,
	}
}

// Open connects to rawURL and returns a Reader over its stream. The stream
// stays open until ctx is done or the Reader is closed.
func Open(ctx context.Context, client *http.Client, rawURL string) (*Reader, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to stream: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("stream returned status %d", resp.StatusCode)
	}

	boundary, err := boundaryOf(resp.Header.Get("Content-Type"))
	if err != nil {
		_ = resp.Body.Close()
		return nil, err
	}

	return NewReader(resp.Body, boundary), nil
}

func boundaryOf(contentType string) (string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotMultipart, err)
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		return "", fmt.Errorf("%w: got %s", ErrNotMultipart, mediaType)
	}
	boundary := params["boundary"]
	if boundary == "" {
		return "", fmt.Errorf("%w: missing boundary", ErrNotMultipart)
	}
	return boundary, nil
}

// Next returns the next frame. It returns io.EOF when the stream ends.
//
// When the part declares a Content-Length the frame is returned as soon as
// that many bytes have arrived, without waiting for the next boundary.
// The part is left open; the following Next call drains it.
func (r *Reader) Next() (Frame, error) {
	part, err := r.mr.NextRawPart()
	if err != nil {
		return Frame{}, err
	}

	var data []byte
	if n, perr := strconv.ParseInt(part.Header.Get("Content-Length"), 10, 64); perr == nil && n >= 0 {
		if n > MaxFrameSize {
			return Frame{}, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
		}
		data = make([]byte, n)
		if _, err := io.ReadFull(part, data); err != nil {
			return Frame{}, fmt.Errorf("failed to read frame: %w", err)
		}
	} else {
		data, err = io.ReadAll(io.LimitReader(part, MaxFrameSize+1))
		if err != nil {
			return Frame{}, fmt.Errorf("failed to read frame: %w", err)
		}
		if len(data) > MaxFrameSize {
			return Frame{}, ErrFrameTooLarge
		}
	}

	return Frame{
		Data:        data,
		ContentType: part.Header.Get("Content-Type"),
		Received:    r.now(),
	}, nil
}

// Close closes the underlying connection.
func (r *Reader) Close() error {
	return r.body.Close()
}

// Snapshot connects to rawURL, returns the first frame and disconnects.
func Snapshot(ctx context.Context, client *http.Client, rawURL string) (Frame, error) {
	r, err := Open(ctx, client, rawURL)
	if err != nil {
		return Frame{}, err
	}
	defer func() { _ = r.Close() }()

	frame, err := r.Next()
	if errors.Is(err, io.EOF) {
		return Frame{}, errors.New("stream ended before the first frame")
	}
	return frame, err
}
