package domain

// Namespace is the URI of an XML/RDF vocabulary.
type Namespace string

// MappingTag is a stored mapping tag awaiting namespace classification.
type MappingTag struct {
	ID        int64   `db:"id"`
	Tag       string  `db:"tag"`
	Namespace *string `db:"namespace"`
}
