package graph

// knownFormats are the format hints the engine understands.
// Anything else degrades to the base primitive type with a warning.
var knownFormats = map[string]bool{
	"date-time": true,
	"date":      true,
	"time":      true,
	"duration":  true,
	"email":     true,
	"uuid":      true,
	"uri":       true,
	"hostname":  true,
	"ipv4":      true,
	"ipv6":      true,
	"byte":      true,
	"binary":    true,
	"password":  true,
	"int32":     true,
	"int64":     true,
	"float":     true,
	"double":    true,
}

// IsKnownFormat reports whether the format hint is recognized.
// The empty format is always known.
func IsKnownFormat(format string) bool {
	return format == "" || knownFormats[format]
}
