// Package stream reads and writes the feeder's MJPEG camera stream.
//
// The feeder serves its camera on GET /video as multipart/x-mixed-replace:
// an endless multipart body whose parts are individual JPEG images. Frames
// are handled as opaque byte blobs; nothing here decodes images.
//
//	r, err := stream.Open(ctx, stream.NewHTTPClient(), endpoint.VideoURL())
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//	frame, err := r.Next()
//
// Monitor keeps one connection open in the background and reports
// connection state, frame count and frame rate for status displays. Point
// it at a new URL with Watch and it reconnects there.
package stream
