package api

// Cache-Control header values.
const (
	// CacheOneWeek suits cover images: filenames change on re-upload,
	// so stale caches can never serve the wrong image.
	CacheOneWeek = "public, max-age=604800"
	CacheNoStore = "no-cache"
)
