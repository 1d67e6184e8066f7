// Package auth holds the credential and session primitives used by the HTTP
// layer: bcrypt password hashing, signed session tokens, the identity carried
// on a request context, and the ownership rule for mutating resources.
package auth
