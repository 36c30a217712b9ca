package urls

// Appliance endpoints. All of them are parameterless GETs.
const (
	// DispensePath releases one portion of food.
	DispensePath = "/dispense"

	// OpenDoorPath drives the door servo open.
	OpenDoorPath = "/open_servo"

	// CloseDoorPath drives the door servo closed.
	CloseDoorPath = "/close_servo"

	// VideoPath serves the camera as an MJPEG multipart stream.
	VideoPath = "/video"
)

// Scheme is the only scheme the appliance speaks.
const Scheme = "http://"

// Base returns the appliance base URL without a trailing slash.
func Base(host, port string) string {
	return Scheme + host + ":" + port
}

// Endpoint returns the full URL of path on the appliance.
func Endpoint(host, port, path string) string {
	return Base(host, port) + path
}

// Video returns the MJPEG stream URL.
func Video(host, port string) string {
	return Endpoint(host, port, VideoPath)
}
