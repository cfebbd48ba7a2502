// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

Values are resolved in three layers, later ones winning:

 1. an optional .env file in the working directory (godotenv)
 2. the process environment, with defaults from struct tags (cleanenv)
 3. CLI flags

# Environment Variables

	PORT                 → -p             (default 3318)
	DATABASE_URL         → -d             (default evoting.db)
	DATABASE_TYPE        → -t             sqlite | postgres (default sqlite)
	ADMIN_KEY_HASH       → -admin-key-hash bcrypt hash, required
	JWT_SECRET           → -jwt-secret    required
	IP_HASH_SALT                          defaults to JWT_SECRET
	LOG_LEVEL            → -log-level     (default info)
	TX_TIMEOUT           → -tx-timeout    (default 5s)
	RATE_LIMIT_BACKEND   → -rate-limit    memory | tarantool (default memory)
	RATE_LIMIT_ATTEMPTS                   (default 1)
	RATE_LIMIT_WINDOW                     (default 10s)
	TARANTOOL_HOST, TARANTOOL_PORT, TARANTOOL_USER, TARANTOOL_PASSWORD

# Validation

ParseFlags returns an error if required values are missing or a backend name
is unknown.
*/
package cliparse
