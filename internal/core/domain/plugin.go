package domain

import "sort"

// PluginType identifies the processing step an execution ran.
type PluginType string

const (
	PluginTypeHarvest            PluginType = "HARVEST"
	PluginTypeOAIPMHHarvest      PluginType = "OAIPMH_HARVEST"
	PluginTypeHTTPHarvest        PluginType = "HTTP_HARVEST"
	PluginTypeValidationExternal PluginType = "VALIDATION_EXTERNAL"
	PluginTypeTransformation     PluginType = "TRANSFORMATION"
	PluginTypeValidationInternal PluginType = "VALIDATION_INTERNAL"
	PluginTypeNormalization      PluginType = "NORMALIZATION"
	PluginTypeEnrichment         PluginType = "ENRICHMENT"
	PluginTypeMediaProcess       PluginType = "MEDIA_PROCESS"
	PluginTypeLinkChecking       PluginType = "LINK_CHECKING"
	PluginTypePreview            PluginType = "PREVIEW"
	PluginTypePublish            PluginType = "PUBLISH"
	PluginTypeDepublish          PluginType = "DEPUBLISH"
)

// AllPluginTypes lists every known plugin type in workflow order.
var AllPluginTypes = []PluginType{
	PluginTypeHarvest,
	PluginTypeOAIPMHHarvest,
	PluginTypeHTTPHarvest,
	PluginTypeValidationExternal,
	PluginTypeTransformation,
	PluginTypeValidationInternal,
	PluginTypeNormalization,
	PluginTypeEnrichment,
	PluginTypeMediaProcess,
	PluginTypeLinkChecking,
	PluginTypePreview,
	PluginTypePublish,
	PluginTypeDepublish,
}

// ParsePluginType returns the plugin type with the given name.
func ParsePluginType(s string) (PluginType, bool) {
	for _, p := range AllPluginTypes {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// SortPluginTypes sorts plugin types by name in place.
func SortPluginTypes(types []PluginType) {
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
}
