// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides password hashing and token utilities.

# Passwords

Passwords are hashed with bcrypt (golang.org/x/crypto/bcrypt):

	hash, err := auth.HashPassword(pw)
	err = auth.CheckPassword(hash, pw)

# Bearer Tokens

Tokens are random 24-byte (192-bit) secrets handed out by the login route:

	token, err := auth.GenerateBearerToken()

Only an HMAC-SHA256 digest of the token is stored:

	digest := auth.HashToken(token, salt)

Incoming Authorization headers are parsed with ParseBearer. Whether a token
is required at all is a router decision (-require-auth).

# Promo Codes

Random base62 codes for promo campaigns:

	code, err := auth.GeneratePromoCode()
*/
package auth
