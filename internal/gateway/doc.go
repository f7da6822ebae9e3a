/*
Package gateway implements the edge endpoint between the chat frontend and
the completion API.

# Architecture Overview

The gateway follows a fixed per-request pipeline:

 1. HTTP Handlers (handlers.go)
    - Answer CORS preflight and bare OPTIONS probes
    - Validate the typed request body at the boundary
    - Drive the authorize -> fetch prompt -> relay pipeline and map every
      failure to exactly one HTTP status

 2. CORS (cors.go)
    - Pure classification of preflight versus probe requests
    - A fresh fixed header set per response, no shared header state

 3. Session Pre-Check (session.go)
    - Local expiry check on JWT-shaped session tokens
    - Authoritative session verification stays in the backend

 4. Configuration (config.go)
    - Environment-backed, read once, never mutated at runtime

Key validation and entitlement demotion live in internal/auth, the backend
client in internal/backend, and the stream tee in internal/relay. Nothing in
this package is shared between requests except read-only configuration and
the concurrency-safe rate limiter and stream registry.
*/
package gateway
