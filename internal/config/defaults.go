package config

const (
	defaultDatabase        = "threespeak"
	defaultWorkDir         = "~/.local/share/subgen/work"
	defaultSubtitleDir     = "~/.local/share/subgen/subtitles"
	defaultLogDir          = "~/.local/share/subgen/logs"
	defaultCacheDir        = "~/.local/share/subgen/cache/media"
	defaultCacheMaxGiB     = 50
	defaultAPIBind         = "127.0.0.1:7680"
	defaultIPFSAPIURL      = "http://localhost:5001"
	defaultDownloadTimeout = 600
	defaultFFmpegTimeout   = 3600
	defaultWhisperBinary   = "whisper-ctranslate2"
	defaultWhisperModel    = "large-v3"
	defaultWhisperDevice   = "cpu"
	defaultWhisperCompute  = "int8"
	defaultWhisperTimeout  = 7200
	defaultTranslatorURL   = "http://localhost:8100"
	defaultTranslateTO     = 600
	defaultBatchSize       = 8
	defaultTaggerURL       = "http://localhost:8200"
	defaultTaggerTimeout   = 120
	defaultMaxTags         = 5
	defaultMinConfidence   = 0.35
	defaultSampleChars     = 1500
	defaultPollInterval    = 300
	defaultItemDelay       = 2
	defaultRemotePinURL    = "https://ipfs.3speak.tv/api/v0/pin/add"
	defaultNtfyTimeout     = 10
	defaultLogLevel        = "info"
	defaultLogFormat       = "console"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Mongo: Mongo{
			Database: defaultDatabase,
			Collections: Collections{
				Legacy:           "videos",
				Embed:            "embed-video",
				Audio:            "embed-audio",
				Progress:         "subtitles",
				Tags:             "subtitles-tags",
				Priority:         "subtitles-priority",
				Status:           "subtitles-status",
				Blacklist:        "subtitles-blacklist",
				BlacklistAuthors: "subtitles-blacklist-authors",
				Hotwords:         "subtitles-hotwords",
				Corrections:      "subtitles-corrections",
			},
		},
		Languages: []Language{
			{Code: "en"},
			{Code: "es"},
			{Code: "de", MaxDurationMinutes: 60},
			{Code: "fr", MaxDurationMinutes: 60},
		},
		IPFS: IPFS{
			Gateways:               []string{"https://ipfs.3speak.tv", "https://ipfs.io"},
			APIURL:                 defaultIPFSAPIURL,
			DownloadTimeoutSeconds: defaultDownloadTimeout,
			FFmpegTimeoutSeconds:   defaultFFmpegTimeout,
		},
		Whisper: Whisper{
			Binary:         defaultWhisperBinary,
			Model:          defaultWhisperModel,
			Device:         defaultWhisperDevice,
			ComputeType:    defaultWhisperCompute,
			TimeoutSeconds: defaultWhisperTimeout,
		},
		Translator: Translator{
			BaseURL:        defaultTranslatorURL,
			TimeoutSeconds: defaultTranslateTO,
			BatchSize:      defaultBatchSize,
		},
		Tagger: Tagger{
			Enabled:        true,
			BaseURL:        defaultTaggerURL,
			TimeoutSeconds: defaultTaggerTimeout,
			MaxTags:        defaultMaxTags,
			MinConfidence:  defaultMinConfidence,
			SampleChars:    defaultSampleChars,
			Labels: []string{
				"vlog", "gaming", "music", "news", "politics", "crypto",
				"finance", "technology", "science", "education", "travel",
				"food", "fitness", "spirituality", "comedy", "art",
			},
		},
		Paths: Paths{
			WorkDir:     defaultWorkDir,
			SubtitleDir: defaultSubtitleDir,
			LogDir:      defaultLogDir,
			APIBind:     defaultAPIBind,
		},
		Workflow: Workflow{
			PollIntervalSeconds: defaultPollInterval,
			ItemDelaySeconds:    defaultItemDelay,
			KeepLocalSubtitles:  true,
			RemotePinURL:        defaultRemotePinURL,
			CleanupMedia:        true,
		},
		Cache: Cache{
			Dir:    defaultCacheDir,
			MaxGiB: defaultCacheMaxGiB,
		},
		Ntfy: Ntfy{
			TimeoutSeconds: defaultNtfyTimeout,
		},
		Log: Log{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
