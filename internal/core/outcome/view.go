package outcome

import (
	"encoding/json"
	"sort"

	"github.com/europeana/metis-tools/internal/core/domain"
)

// View is an immutable snapshot of the outcomes retained for one category,
// ordered by ascending dataset id.
type View struct {
	category domain.PluginType
	outcomes []domain.Outcome
}

func (v View) Category() domain.PluginType {
	return v.category
}

func (v View) Len() int {
	return len(v.outcomes)
}

// At returns the i-th outcome.
func (v View) At(i int) domain.Outcome {
	return v.outcomes[i]
}

// Lookup returns the outcome retained for datasetID.
func (v View) Lookup(datasetID string) (domain.Outcome, bool) {
	i := sort.Search(len(v.outcomes), func(i int) bool {
		return v.outcomes[i].DatasetID >= datasetID
	})
	if i < len(v.outcomes) && v.outcomes[i].DatasetID == datasetID {
		return v.outcomes[i], true
	}
	return domain.Outcome{}, false
}

// Outcomes returns a copy of the outcomes in the view.
func (v View) Outcomes() []domain.Outcome {
	out := make([]domain.Outcome, len(v.outcomes))
	copy(out, v.outcomes)
	return out
}

func (v View) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.outcomes)
}
