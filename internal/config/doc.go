// Package config handles configuration loading for quickreply.
//
// # Overview
//
// Configuration is loaded from a TOML or YAML file with environment variable
// expansion. The format follows the file extension: .yaml and .yml are YAML,
// everything else is TOML.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from QUICKREPLY_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/quickreply/config.toml
//  3. ~/.config/quickreply/config.toml
//
// `quickreply init` writes a starter file to the default location.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	[telegram]
//	token = "${QUICKREPLY_BOT_TOKEN}"
//
// Unset variables expand to the empty string.
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax. Unset durations stay
// zero and each component applies its own default.
//
//	[poller]
//	wait_timeout = "1s"
//	interval = "1s"
//	error_window = "1m"
//
// # Configuration Sections
//
//	[telegram]
//	token = "${QUICKREPLY_BOT_TOKEN}"            # required
//	api_endpoint = "https://api.telegram.org/bot%s/%s"
//	request_timeout = "10s"
//
//	[sender]
//	signature = ""                # empty uses the desktop signature
//	disable_signature = false
//	timeout = "30s"
//
//	[notify]
//	bell = true
//	command = ["paplay", "/usr/share/sounds/freedesktop/stereo/message.oga"]
//
//	[console]
//	local_author = "Вы"
//
//	[logging]
//	level = "info"   # debug, info, warn, error
//	format = "text"  # text, json
//
// # Validation
//
// Load() requires a bot token and rejects malformed endpoints, unknown log
// levels and formats, unknown TOML keys, and negative durations.
package config
