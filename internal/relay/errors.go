package relay

import "errors"

// errNotReady covers the startup window between the gateway accepting
// traffic and the engine binding its stores.
var errNotReady = errors.New("relay: engine not ready")
