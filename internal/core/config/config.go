package config

import (
	"github.com/europeana/metis-tools/internal/core/namespace"
	"github.com/europeana/metis-tools/internal/core/retry"
	redisclient "github.com/europeana/metis-tools/internal/infra/redis"
	"github.com/europeana/metis-tools/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Database       postgres.Config    `yaml:"database"`
	SourceDatabase postgres.Config    `yaml:"source_database"`
	Redis          redisclient.Config `yaml:"redis"`
	Logging        LoggingConfig      `yaml:"logging"`
	Retry          retry.Policy       `yaml:"retry"`
	Namespaces     NamespaceConfig    `yaml:"namespaces"`
	Jobs           JobsConfig         `yaml:"jobs"`
	Report         ReportConfig       `yaml:"report"`
	Metrics        MetricsConfig      `yaml:"metrics"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// NamespaceConfig holds the prefix bindings used to classify mapping tags.
type NamespaceConfig struct {
	Separator string              `yaml:"separator"`
	Bindings  []namespace.Binding `yaml:"bindings"`
}

// JobsConfig holds settings shared by the batch jobs.
type JobsConfig struct {
	BatchSize int `yaml:"batch_size"`
}

// ReportConfig controls where the outcome summary is written.
type ReportConfig struct {
	Output string `yaml:"output"` // empty = stdout only
}

// MetricsConfig holds the optional Prometheus endpoint settings.
type MetricsConfig struct {
	Port int `yaml:"port"` // 0 = disabled
}

// DefaultNamespaceBindings are the vocabularies used by EDM mappings.
var DefaultNamespaceBindings = []namespace.Binding{
	{Prefix: "edm", Namespace: "http://www.europeana.eu/schemas/edm/"},
	{Prefix: "dc", Namespace: "http://purl.org/dc/elements/1.1/"},
	{Prefix: "dcterms", Namespace: "http://purl.org/dc/terms/"},
	{Prefix: "skos", Namespace: "http://www.w3.org/2004/02/skos/core#"},
	{Prefix: "rdf", Namespace: "http://www.w3.org/1999/02/22-rdf-syntax-ns#"},
	{Prefix: "rdfs", Namespace: "http://www.w3.org/2000/01/rdf-schema#"},
	{Prefix: "ore", Namespace: "http://www.openarchives.org/ore/terms/"},
	{Prefix: "owl", Namespace: "http://www.w3.org/2002/07/owl#"},
	{Prefix: "foaf", Namespace: "http://xmlns.com/foaf/0.1/"},
	{Prefix: "wgs84_pos", Namespace: "http://www.w3.org/2003/01/geo/wgs84_pos#"},
	{Prefix: "rdaGr2", Namespace: "http://rdvocab.info/ElementsGr2/"},
	{Prefix: "cc", Namespace: "http://creativecommons.org/ns#"},
	{Prefix: "odrl", Namespace: "http://www.w3.org/ns/odrl/2/"},
	{Prefix: "svcs", Namespace: "http://rdfs.org/sioc/services#"},
	{Prefix: "doap", Namespace: "http://usefulinc.com/ns/doap#"},
}
