// Package auth issues and verifies the bearer tokens that protect the
// OSCLeash status API.
//
// Tokens are HS256 JWTs signed with security.jwt.secret and minted by the
// "oscleash token" command. Two roles exist: viewer tokens may read status,
// devices, settings and the audit log; operator tokens may also replace
// settings.
package auth
