// Package service exposes the engine's two public facades: team formation
// and negotiation. The facades wrap the underlying managers with tracing,
// metrics and logging; library users that need neither can use the
// formation and negotiation packages directly.
package service
