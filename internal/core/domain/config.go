package domain

// Config is the immutable runtime configuration, assembled once in main
// from the config file and passed explicitly to the components that
// consume it.
type Config struct {
	Server  ServerConfig
	Codec   CodecConfig
	Link    LinkConfig
	Sign    SignConfig
	Limits  LimitsConfig
	Encode  EncodeConfig
	NoImage NoImageConfig
	Storage StorageConfig
}

type ServerConfig struct {
	ListenAddr  string
	BasePath    string
	CacheMaxAge int
}

// CodecConfig holds the modifier segment separators.
type CodecConfig struct {
	Separator string
	Assigner  string
}

type LinkConfig struct {
	Host           string
	BasePath       string
	VersionParam   string
	SignatureParam string
}

// SignConfig enables request signing when Key is non-empty.
type SignConfig struct {
	Key       string
	Algorithm string
}

// LimitsConfig holds the allow-lists; an empty list disables the
// corresponding check.
type LimitsConfig struct {
	Resolutions    []string  `mapstructure:"resolutions"`
	PixelDensities []float64 `mapstructure:"pixel_densities"`
	Qualities      []int     `mapstructure:"qualities"`
}

type EncodeConfig struct {
	DefaultQuality int
	DefaultFormat  string
}

// NoImagePattern is one ordered fallback rule; the first pattern
// matching a requested path wins.
type NoImagePattern struct {
	Name    string `mapstructure:"name"`
	Pattern string `mapstructure:"pattern"`
}

type NoImageConfig struct {
	Default  string            `mapstructure:"default"`
	Paths    map[string]string `mapstructure:"paths"`
	Patterns []NoImagePattern  `mapstructure:"patterns"`
}

type StorageConfig struct {
	SourceRoot string
	CacheRoot  string
}
