// internal/handlers/ws_codes.go
package handlers

// Subprotocol is the only WebSocket subprotocol the room endpoint speaks.
const Subprotocol = "uno"

// Custom WebSocket close codes used by the room handler.
// These provide more specific reasons for closure than standard codes.
const (
	BadSubprotocolError = 3000 // Client connected with an unsupported subprotocol.
	RateLimitedError    = 3004 // Client kept flooding after being warned.
)
