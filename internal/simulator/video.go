package simulator

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/gingus/katfod/internal/logging"
	"github.com/gingus/katfod/internal/stream"
)

const (
	frameWidth  = 320
	frameHeight = 240
	blockSize   = 40
)

var (
	background = color.RGBA{R: 0x30, G: 0x30, B: 0x38, A: 0xff}
	bowlColor  = color.RGBA{R: 0xc0, G: 0x80, B: 0x30, A: 0xff}
	catColor   = color.RGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff}
	doorColor  = color.RGBA{R: 0x40, G: 0xa0, B: 0x40, A: 0xff}
)

// Camera renders synthetic frames of the feeder's view.
type Camera struct {
	feeder *Feeder
}

// Frame renders frame number n as a JPEG. A block moves across the image so
// a viewer can tell the stream is live; the door strip is green while the
// door is open.
func (c *Camera) Frame(n int) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, frameWidth, frameHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: background}, image.Point{}, draw.Src)

	bowl := image.Rect(frameWidth/2-50, frameHeight-50, frameWidth/2+50, frameHeight-20)
	draw.Draw(img, bowl, &image.Uniform{C: bowlColor}, image.Point{}, draw.Src)

	x := (n * 4) % (frameWidth - blockSize)
	cat := image.Rect(x, 60, x+blockSize, 60+blockSize)
	draw.Draw(img, cat, &image.Uniform{C: catColor}, image.Point{}, draw.Src)

	if c.feeder != nil && c.feeder.State().DoorOpen {
		door := image.Rect(0, 0, frameWidth, 10)
		draw.Draw(img, door, &image.Uniform{C: doorColor}, image.Point{}, draw.Src)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 60}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// serveVideo streams frames at fps until the client disconnects.
func (s *Server) serveVideo(w http.ResponseWriter, r *http.Request) {
	sw, err := stream.NewWriter(w)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	fps := s.config.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	logging.Debug("Video client connected", zap.String("remote_addr", r.RemoteAddr))

	for n := 0; ; n++ {
		frame, err := s.camera.Frame(n)
		if err != nil {
			logging.Error("Failed to render frame", zap.Error(err))
			return
		}
		if err := sw.WriteFrame(frame); err != nil {
			logging.Debug("Video client gone", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}
