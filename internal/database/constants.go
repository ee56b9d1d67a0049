package database

// HNSW parameters for the optional approximate matcher index
const (
	// HNSWMaxNeighbors (M) is the maximum number of neighbors per node.
	// Higher values improve recall but increase memory and build time.
	HNSWMaxNeighbors = 16

	// HNSWEfSearch is the search candidate pool size.
	// Higher values improve recall but slow down search.
	HNSWEfSearch = 100

	// HNSWMinCandidates is the minimum number of neighbours fetched per query
	// before exact re-ranking.
	HNSWMinCandidates = 32
)

// Storage driver names accepted by DATABASE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMariaDB  = "mariadb"
)
