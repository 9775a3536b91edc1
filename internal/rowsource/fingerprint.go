package rowsource

import (
	"bytes"
	"encoding/json"

	"gridDashboard/internal/models"
)

// Fingerprint is a canonical encoding of the fields that define a query:
// sort, filter, grouping, aggregation and pivot. The page window is left
// out so every page of one query shares a fingerprint. Object keys are
// sorted; arrays keep their order.
func Fingerprint(req models.RowRequest) string {
	sortModel := req.SortModel
	if sortModel == nil {
		sortModel = []models.SortModelItem{}
	}

	var filterModel interface{}
	if len(req.FilterModel) > 0 {
		filterModel = req.FilterModel
	}

	key := map[string]interface{}{
		"sortModel":    sortModel,
		"filterModel":  filterModel,
		"rowGroupCols": nilIfEmpty(req.RowGroupCols),
		"groupKeys":    nilIfEmptyStrings(req.GroupKeys),
		"valueCols":    nilIfEmpty(req.ValueCols),
		"pivotCols":    nilIfEmpty(req.PivotCols),
		"pivotMode":    req.PivotMode,
	}
	return canonicalJSON(key)
}

func nilIfEmpty(cols []models.ColumnVO) interface{} {
	if len(cols) == 0 {
		return nil
	}
	return cols
}

func nilIfEmptyStrings(values []string) interface{} {
	if len(values) == 0 {
		return nil
	}
	return values
}

// canonicalJSON re-encodes v through generic maps so that every object,
// including struct-typed ones, comes out with sorted keys.
func canonicalJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "!" + err.Error()
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var generic interface{}
	if err := dec.Decode(&generic); err != nil {
		return "!" + err.Error()
	}

	out, err := json.Marshal(generic)
	if err != nil {
		return "!" + err.Error()
	}
	return string(out)
}
