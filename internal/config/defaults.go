package config

const (
	defaultLogLevel     = "info"
	defaultLogFormat    = "console"
	defaultFontPageSize = 1024
	defaultFontPadding  = 1
	defaultAtlasSize    = 2048
	defaultAtlasPadding = 2
	defaultGoPackage    = "assets"

	maxPageSize = 16384
)

var defaultIgnore = []string{".*", "Thumbs.db"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Ingest: Ingest{
			Ignore: append([]string(nil), defaultIgnore...),
		},
		Fonts: Fonts{
			PageSize: defaultFontPageSize,
			Padding:  defaultFontPadding,
		},
		Atlas: Atlas{
			MaxPageSize: defaultAtlasSize,
			Padding:     defaultAtlasPadding,
		},
		Output: Output{
			GoPackage: defaultGoPackage,
		},
	}
}
