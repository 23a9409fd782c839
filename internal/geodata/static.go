package geodata

// StaticSource is an in-memory HistoricalSource with fixed data. It is the
// default when no database is configured and the implementation tests use
// to pin scorer outputs.
type StaticSource struct {
	Stats    GridStats
	Clusters []Cluster
	History  AccidentHistory
	Flags    AreaFlags
}

// NewStaticSource returns a source describing an unremarkable location: no
// recorded accidents, no nearby hotspots, no area modifiers.
func NewStaticSource() *StaticSource {
	return &StaticSource{}
}

func (s *StaticSource) GridStats(lat, lon float64) (GridStats, error) {
	return s.Stats, nil
}

func (s *StaticSource) NearbyClusters(lat, lon float64) ([]Cluster, error) {
	return s.Clusters, nil
}

func (s *StaticSource) AccidentHistory(lat, lon float64) (AccidentHistory, error) {
	return s.History, nil
}

func (s *StaticSource) AreaFlags(lat, lon float64) (AreaFlags, error) {
	return s.Flags, nil
}
