// Package auth issues and validates JWT access tokens and handles
// registration and login against the user store.
package auth
