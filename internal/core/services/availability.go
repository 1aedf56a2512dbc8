package services

import (
	"context"

	log "github.com/sirupsen/logrus"

	"sia-service/internal/core/domain"
	"sia-service/internal/core/ports"
)

// Availability is the VOSI-availability state of one collection's backing
// repository.
type Availability struct {
	Available bool
	Note      string
}

// AvailabilityService checks whether a collection's repository is
// reachable, using a prober per butler type. A probe failure is reported
// as unavailable with a note, never as an HTTP error.
type AvailabilityService struct {
	probers map[domain.ButlerType]ports.AvailabilityProber
}

func NewAvailabilityService(direct, remote ports.AvailabilityProber) *AvailabilityService {
	probers := make(map[domain.ButlerType]ports.AvailabilityProber, 2)
	if direct != nil {
		probers[domain.ButlerDirect] = direct
	}
	if remote != nil {
		probers[domain.ButlerRemote] = remote
	}
	return &AvailabilityService{probers: probers}
}

// Check probes the collection's repository.
func (s *AvailabilityService) Check(ctx context.Context, collection *domain.Collection) Availability {
	prober, ok := s.probers[collection.ButlerType]
	if !ok {
		// Nothing to probe; report the service itself as up.
		return Availability{Available: true}
	}
	if err := prober.Probe(ctx, collection); err != nil {
		log.WithError(err).WithField("collection", collection.Identifier()).
			Warn("availability probe failed")
		return Availability{Available: false, Note: err.Error()}
	}
	return Availability{Available: true}
}
