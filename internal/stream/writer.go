package stream

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
)

// Boundary is the part separator used by Writer. It matches what the
// ESP32 camera firmware sends.
const Boundary = "123456789000000000000987654321"

// Writer serves frames as multipart/x-mixed-replace.
type Writer struct {
	w       http.ResponseWriter
	mw      *multipart.Writer
	flusher http.Flusher
}

// NewWriter sets the stream headers on w and returns a Writer. Nothing is
// sent until the first frame.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	mw := multipart.NewWriter(w)
	if err := mw.SetBoundary(Boundary); err != nil {
		return nil, err
	}

	h := w.Header()
	h.Set("Content-Type", "multipart/x-mixed-replace;boundary="+Boundary)
	h.Set("Cache-Control", "no-cache")
	h.Set("Access-Control-Allow-Origin", "*")

	flusher, _ := w.(http.Flusher)
	return &Writer{w: w, mw: mw, flusher: flusher}, nil
}

// WriteFrame sends one JPEG part and flushes it to the client.
func (sw *Writer) WriteFrame(jpeg []byte) error {
	header := textproto.MIMEHeader{}
	header.Set("Content-Type", "image/jpeg")
	header.Set("Content-Length", strconv.Itoa(len(jpeg)))

	part, err := sw.mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to start frame: %w", err)
	}
	if _, err := part.Write(jpeg); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}

	if sw.flusher != nil {
		sw.flusher.Flush()
	}
	return nil
}

// Close writes the closing boundary.
func (sw *Writer) Close() error {
	return sw.mw.Close()
}
