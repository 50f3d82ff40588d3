package core

// Surface is the external playback surface. It interprets discrete commands
// and reports nothing back except an optional playback position, which the
// host delivers through Engine.ReportPosition.
type Surface interface {
	Play() error
	Pause() error
	UpdateURL(url string, startSeconds float64) error
	SeekTo(seconds float64) error
	// Close tears the surface down. The surface must not be used afterwards.
	Close() error
}

// SurfaceFactory creates playback surfaces on demand.
type SurfaceFactory interface {
	Create(url, column string) (Surface, error)
}
