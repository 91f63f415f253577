package obs

// Build metadata, overridable via -ldflags at release time.
var (
	Version = "0.1.0"
	Commit  = "dev"
)

// BuildInfo reports version metadata for the info endpoint.
func BuildInfo() map[string]string {
	return map[string]string{
		"version": Version,
		"commit":  Commit,
	}
}
