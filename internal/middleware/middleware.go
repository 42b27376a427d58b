// Package middleware holds the HTTP middleware shared by the API routes.
package middleware

type contextKey string
