// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: Postgres connection string or SQLite DSN (required)
  - DatabaseType: "sqlite" (default) or "postgres"
  - AdminKeySalt: Secret for admin key HMAC (required)
  - SettingsFile: Optional YAML file of global setting overrides
  - CloseRetries: Close attempts after a version conflict (default: 3)

# CLI Flags

	-p              Server port
	-d              Database URL
	-t              Database type
	--admin-salt    Admin key salt
	--settings      Settings YAML file
	--close-retries Close retry count
	--env           Dotenv file (default: .env, empty disables)

# Environment Variables

Flags fall back to environment variables:

	PORT           → -p
	DATABASE_URL   → -d
	DATABASE_TYPE  → -t
	ADMIN_KEY_SALT → --admin-salt
	SETTINGS_FILE  → --settings
	CLOSE_RETRIES  → --close-retries

The dotenv file is loaded with godotenv before the lookup. Variables already
set in the environment are not overwritten by it. CLI flags take precedence
over both.

# Validation

ParseFlags returns an error if required values are missing:

  - DATABASE_URL must be provided
  - ADMIN_KEY_SALT must be provided
  - DATABASE_TYPE must be sqlite or postgres

# Example

	// In main.go
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	conn, err := sql.Open(cfg.DatabaseType, cfg.DatabaseURL)
	// ...
	mux := router.NewRouter(svc, cfg, registry)
*/
package cliparse
