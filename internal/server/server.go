package server

// Server aggregates the entity-specific HTTP servers behind one route
// registration.
type Server struct {
	RunServer
	OpportunityServer
	QuotaServer
}

func NewServer(
	runServer RunServer,
	opportunityServer OpportunityServer,
	quotaServer QuotaServer,
) Server {
	return Server{
		RunServer:         runServer,
		OpportunityServer: opportunityServer,
		QuotaServer:       quotaServer,
	}
}
