// Package identify provides the identification engine: given a plant photo
// it names the species or offers candidates, and given a confirmed species
// it researches care details. Two implementations exist, an in-process
// Gemini-backed engine and a remote HTTP engine.
package identify

import (
	"context"
	"fmt"
	"time"

	"sprout/internal/config"
	"sprout/internal/store"
)

// Identification is the outcome of the photo stage. Either Species is set
// with a confidence at or above the engine's threshold, or Suggestions holds
// the candidate list for the user to disambiguate.
type Identification struct {
	Species        string
	ScientificName string
	Confidence     float64
	Suggestions    []store.Suggestion
}

// Confident reports whether the identification needs no user input.
func (id *Identification) Confident(threshold float64) bool {
	return id.Species != "" && id.Confidence >= threshold
}

// Engine is the identification collaborator consumed by the workflow manager
// and the selection commit.
type Engine interface {
	// Identify names the species in a photo or returns candidates.
	Identify(ctx context.Context, photo []byte, contentType string) (*Identification, error)

	// Research produces care details for a confirmed species.
	Research(ctx context.Context, species, scientificName string) (*store.CareDetails, error)

	// Resume is the continuation trigger fired after a selection commit.
	// The caller's token is forwarded for engines that act remotely.
	Resume(ctx context.Context, sessionID, species, scientificName, authToken string) error

	Close() error
}

// NewConfiguredEngine builds the engine named by the configuration.
func NewConfiguredEngine(ctx context.Context, cfg *config.Config) (Engine, error) {
	switch cfg.Engine.Mode {
	case config.EngineModeGemini:
		return NewGeminiEngine(ctx, cfg)
	case config.EngineModeRemote:
		return NewRemoteEngine(
			cfg.Engine.RemoteURL,
			WithRemoteToken(cfg.Engine.RemoteToken),
			WithRemoteTimeout(time.Duration(cfg.Engine.TimeoutSeconds)*time.Second),
		), nil
	default:
		return nil, fmt.Errorf("unknown engine mode %q", cfg.Engine.Mode)
	}
}
