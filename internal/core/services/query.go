package services

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"sia-service/internal/core/domain"
	"sia-service/internal/core/ports"
)

// QueryService translates a validated query descriptor into a backend
// query against the collection's configured engine. Execution is
// synchronous; the returned iterator streams rows as the caller consumes
// them.
type QueryService struct {
	engines       map[domain.ButlerType]ports.QueryEngine
	defaultMaxRec int
	maxMaxRec     int
}

func NewQueryService(direct, remote ports.QueryEngine, defaultMaxRec, maxMaxRec int) *QueryService {
	engines := make(map[domain.ButlerType]ports.QueryEngine, 2)
	if direct != nil {
		engines[domain.ButlerDirect] = direct
	}
	if remote != nil {
		engines[domain.ButlerRemote] = remote
	}
	return &QueryService{
		engines:       engines,
		defaultMaxRec: defaultMaxRec,
		maxMaxRec:     maxMaxRec,
	}
}

// Execute resolves the record limit and runs the query against the
// collection's engine. Remote collections require the caller's bearer
// token; its absence fails before any backend I/O.
func (s *QueryService) Execute(ctx context.Context, collection *domain.Collection, query *domain.Query, token string) (ports.RowIterator, error) {
	if query.SelfDescribe() {
		return nil, fmt.Errorf("self-description query reached the query engine")
	}

	engine, ok := s.engines[collection.ButlerType]
	if !ok {
		return nil, domain.ServerFault(nil, "no query engine configured for butler type %s", collection.ButlerType)
	}

	if collection.ButlerType == domain.ButlerRemote && token == "" {
		return nil, domain.AuthorizationFault("%s", domain.ErrMissingToken.Error())
	}

	resolved := *query
	maxrec := s.ResolveMaxRec(query.MaxRec)
	resolved.MaxRec = &maxrec

	log.WithFields(log.Fields{
		"collection": collection.Identifier(),
		"butler":     string(collection.ButlerType),
		"query":      resolved.Summary(),
	}).Info("executing query")

	it, err := engine.Query(ctx, collection, &resolved, token)
	if err != nil {
		return nil, err
	}
	return it, nil
}

// ResolveMaxRec applies the configured default and upper bound to a
// client-requested record limit.
func (s *QueryService) ResolveMaxRec(requested *int) int {
	maxrec := s.defaultMaxRec
	if requested != nil {
		maxrec = *requested
	}
	if maxrec > s.maxMaxRec {
		maxrec = s.maxMaxRec
	}
	return maxrec
}

// MaxRecLimit returns the hard upper bound on returned rows.
func (s *QueryService) MaxRecLimit() int {
	return s.maxMaxRec
}
