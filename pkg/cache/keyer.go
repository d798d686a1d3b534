package cache

// Keyer derives cache keys. Implementations must be deterministic: equal
// inputs always give equal keys.
type Keyer interface {
	// CircuitKey identifies a parsed circuit.
	CircuitKey(root, name string, opts CircuitKeyOpts) string

	// ArtifactKey identifies a rendered view of a floorplan snapshot.
	ArtifactKey(snapshotHash string, opts ArtifactKeyOpts) string
}

// CircuitKeyOpts holds everything besides the circuit location that changes
// the parsed result.
type CircuitKeyOpts struct {
	AreaUtil   float64 `json:"area_util"`
	HaloWidth  float64 `json:"halo_width"`
	HaloHeight float64 `json:"halo_height"`
	// Fingerprint summarises the input files (size and modification time)
	// so edits on disk invalidate the entry.
	Fingerprint string `json:"fingerprint"`
}

// ArtifactKeyOpts holds the rendering parameters.
type ArtifactKeyOpts struct {
	Format    string  `json:"format"`
	Terminals bool    `json:"terminals"`
	Partners  bool    `json:"partners"`
	Layer     int     `json:"layer"`
	Scale     float64 `json:"scale"`
}

// DefaultKeyer hashes key components into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// CircuitKey implements [Keyer].
func (DefaultKeyer) CircuitKey(root, name string, opts CircuitKeyOpts) string {
	return hashKey("circuit", root, name, opts)
}

// ArtifactKey implements [Keyer].
func (DefaultKeyer) ArtifactKey(snapshotHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact:"+opts.Format, snapshotHash, opts)
}
