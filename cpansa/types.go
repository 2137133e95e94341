package cpansa

// Advisory is one CPANSA record. The pipeline only ever reads Distribution;
// everything else is carried through to the snapshot untouched.
type Advisory struct {
	ID               string      `yaml:"id" json:"id,omitempty"`
	Distribution     string      `yaml:"distribution" json:"distribution,omitempty"`
	Description      string      `yaml:"description" json:"description,omitempty"`
	AffectedVersions interface{} `yaml:"affected_versions" json:"affected_versions,omitempty"`
	FixedVersions    interface{} `yaml:"fixed_versions" json:"fixed_versions,omitempty"`
	CVEs             []string    `yaml:"cves" json:"cves,omitempty"`
	References       []string    `yaml:"references" json:"references,omitempty"`
	Reported         string      `yaml:"reported" json:"reported,omitempty"`
	Severity         string      `yaml:"severity" json:"severity,omitempty"`
	Comment          string      `yaml:"comment" json:"comment,omitempty"`
}

// document is the {distribution, advisories} shape of a CPANSA file. The
// other accepted shape is a bare sequence of advisories.
type document struct {
	Distribution string     `yaml:"distribution"`
	Advisories   []Advisory `yaml:"advisories"`
}
