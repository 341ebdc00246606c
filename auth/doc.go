// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides admin key and ID generation utilities.

# Admin Keys

Admin keys use HMAC-SHA256 to create deterministic, verifiable keys:

	adminKey := auth.GenerateAdminKey(periodID, salt)
	err := auth.ValidateAdminKey(periodID, adminKey, salt)

The key is URL-safe base64 encoded without padding. Since it's deterministic,
the same period ID and salt always produce the same key. This allows validation
without storing the key in the database.

Global settings are guarded by the key for GlobalScope:

	key := auth.GenerateAdminKey(auth.GlobalScope, salt)

# ID Generation

Random UUIDs for database records:

	id := auth.NewID()
*/
package auth
