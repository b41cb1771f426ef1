// Package auth hashes and verifies account passwords.
//
// Request identity is not established here: the fronting proxy
// authenticates users and passes the name in a header (IDENTITY_HEADER),
// which internal/http resolves. Passwords matter only to the accounts
// created with the create-user command.
//
//	AUTH_BCRYPT_COST=12  # bcrypt cost factor
package auth
