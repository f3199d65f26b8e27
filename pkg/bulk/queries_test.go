package bulk

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapRows(rows ...map[string]any) []any {
	data := make([]any, len(rows))
	for i, r := range rows {
		data[i] = r
	}
	return data
}

func TestCreateNodesQueryMappingRows(t *testing.T) {
	data := mapRows(map[string]any{"name": "Alice", "age": 33})

	statement, params, err := CreateNodesQuery(data, nil, "Person")
	require.NoError(t, err)

	assert.Equal(t, "UNWIND $data AS r\nCREATE (_:Person)\nSET _ += r", statement)
	assert.Len(t, params, 1)
}

func TestCreateNodesQueryLabelSortDeterminism(t *testing.T) {
	data := mapRows(map[string]any{"name": "Alice"})

	first, _, err := CreateNodesQuery(data, nil, "Employee", "Person")
	require.NoError(t, err)
	second, _, err := CreateNodesQuery(data, nil, "Person", "Employee")
	require.NoError(t, err)

	assert.Equal(t, first, second, "label order must not leak into statement text")
	assert.Equal(t, "UNWIND $data AS r\nCREATE (_:Employee:Person)\nSET _ += r", first)
}

func TestCreateNodesQueryNoLabels(t *testing.T) {
	statement, _, err := CreateNodesQuery(mapRows(map[string]any{"a": 1}), nil)
	require.NoError(t, err)
	assert.Equal(t, "UNWIND $data AS r\nCREATE (_)\nSET _ += r", statement)
}

func TestCreateNodesQueryPositionalRows(t *testing.T) {
	data := []any{[]any{"Alice", 33}}

	statement, _, err := CreateNodesQuery(data, []string{"name", "age"})
	require.NoError(t, err)

	// field order must match keys order exactly
	assert.Equal(t, "UNWIND $data AS r\nCREATE (_)\nSET _ += {name: r[0], age: r[1]}", statement)
}

func TestCreateNodesQueryParamsAliasInput(t *testing.T) {
	row := map[string]any{"name": "Alice"}
	data := mapRows(row)

	_, params, err := CreateNodesQuery(data, nil, "Person")
	require.NoError(t, err)

	passed := params["data"].([]any)
	require.Len(t, passed, 1)

	// the parameter slice must share the caller's backing array, not copy it
	row["name"] = "Overwritten"
	assert.Equal(t, "Overwritten", passed[0].(map[string]any)["name"])
}

func TestMergeNodesQuerySingleKey(t *testing.T) {
	data := mapRows(map[string]any{"name": "Alice"})

	statement, params, err := MergeNodesQuery(data, NodeKey{Label: "Person", Keys: []string{"name"}}, nil, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "UNWIND $data AS r\nMERGE (_:Person {name:r['name']})\nSET _ += r", statement)
	assert.Len(t, params["data"], 1)
}

func TestMergeNodesQueryLabelOnly(t *testing.T) {
	statement, _, err := MergeNodesQuery(mapRows(map[string]any{"a": 1}), NodeKey{Label: "Person"}, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "UNWIND $data AS r\nMERGE (_:Person)\nSET _ += r", statement)
}

func TestMergeNodesQueryCompositeKeyOrderPreserved(t *testing.T) {
	data := mapRows(map[string]any{"surname": "Smith", "name": "Alice"})

	// merge-key order reflects composite-index column order; never sorted
	statement, _, err := MergeNodesQuery(data, NodeKey{Label: "Person", Keys: []string{"surname", "name"}}, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "UNWIND $data AS r\nMERGE (_:Person {surname:r['surname'], name:r['name']})\nSET _ += r", statement)
}

func TestMergeNodesQuerySecondaryLabels(t *testing.T) {
	data := mapRows(map[string]any{"name": "Alice"})

	statement, _, err := MergeNodesQuery(data, NodeKey{Label: "Person", Keys: []string{"name"}}, nil,
		[]string{"Person", "Employee", "Customer"}, nil)
	require.NoError(t, err)

	assert.Equal(t,
		"UNWIND $data AS r\nMERGE (_:Person {name:r['name']})\nSET _ += r\nSET _:Customer:Employee",
		statement)
}

func TestMergeNodesQueryPositionalWithPreserve(t *testing.T) {
	data := []any{[]any{"Alice", 33, "Berlin"}}

	statement, _, err := MergeNodesQuery(data, NodeKey{Label: "Person", Keys: []string{"name"}},
		[]string{"name", "age", "city"}, nil, []string{"age"})
	require.NoError(t, err)

	// preserved keys are set on create only and excluded from the refresh
	assert.Equal(t,
		"UNWIND $data AS r\nMERGE (_:Person {name:r[0]})\nON CREATE SET _.age = r[1]\nSET _ += {name: r[0], city: r[2]}",
		statement)
}

func TestMergeNodesQueryPreserveRequiresKeys(t *testing.T) {
	_, _, err := MergeNodesQuery(mapRows(map[string]any{"name": "Alice"}),
		NodeKey{Label: "Person", Keys: []string{"name"}}, nil, nil, []string{"age"})

	var spec *InvalidBulkSpecError
	require.ErrorAs(t, err, &spec)
}

func TestMergeNodesQueryEscaping(t *testing.T) {
	data := mapRows(map[string]any{"full name": "Alice Smith"})

	statement, _, err := MergeNodesQuery(data, NodeKey{Label: "Person", Keys: []string{"full name"}}, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "UNWIND $data AS r\nMERGE (_:Person {`full name`:r['full name']})\nSET _ += r", statement)
}

func TestQueryValidation(t *testing.T) {
	tests := []struct {
		name string
		data []any
		keys []string
	}{
		{name: "positional rows without keys", data: []any{[]any{"Alice"}}, keys: nil},
		{name: "empty keys with positional rows", data: []any{[]any{"Alice"}}, keys: []string{}},
		{name: "mapping rows with keys", data: mapRows(map[string]any{"a": 1}), keys: []string{"a"}},
		{name: "row length mismatch", data: []any{[]any{"Alice"}}, keys: []string{"name", "age"}},
		{name: "scalar row", data: []any{"Alice"}, keys: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := CreateNodesQuery(tt.data, tt.keys, "Person")
			var spec *InvalidBulkSpecError
			require.ErrorAs(t, err, &spec, "must fail fast before building statement text")
		})
	}
}

func relRow(start, detail, end any) []any {
	return []any{start, detail, end}
}

func TestNormalizeRelRows(t *testing.T) {
	rows := []any{
		relRow([]any{"Alice"}, map[string]any{"since": 1999}, []any{"ACME"}),
		relRow([]any{"Alice", "Smith"}, map[string]any{}, "ACME"),
	}

	normalized, err := NormalizeRelRows(rows)
	require.NoError(t, err)

	// 1-element sequences unwrap to their sole element
	first := normalized[0].([]any)
	assert.Equal(t, "Alice", first[0])
	assert.Equal(t, "ACME", first[2])

	// composite key values pass through untouched
	second := normalized[1].([]any)
	assert.Equal(t, []any{"Alice", "Smith"}, second[0])
	assert.Equal(t, "ACME", second[2])
}

func TestNormalizeRelRowsRejectsNonTriples(t *testing.T) {
	_, err := NormalizeRelRows([]any{[]any{"only", "two"}})
	var spec *InvalidBulkSpecError
	require.ErrorAs(t, err, &spec)

	_, err = NormalizeRelRows([]any{"not a row"})
	require.ErrorAs(t, err, &spec)
}

func TestCreateRelationshipsQueryByInternalID(t *testing.T) {
	data := []any{relRow(1, map[string]any{"since": 1999}, 2)}

	statement, _, err := CreateRelationshipsQuery(data, "KNOWS", nil, nil, nil)
	require.NoError(t, err)

	assert.Equal(t,
		"UNWIND $data AS r\nMATCH (a) WHERE id(a) = r[0]\nMATCH (b) WHERE id(b) = r[2]\nCREATE (a)-[_:KNOWS]->(b)\nSET _ += r[1]",
		statement)
}

func TestCreateRelationshipsQueryByKeys(t *testing.T) {
	data := []any{relRow("Alice", map[string]any{"since": 1999}, "ACME")}

	statement, _, err := CreateRelationshipsQuery(data, "WORKS_FOR",
		&NodeKey{Label: "Person", Keys: []string{"name"}},
		&NodeKey{Label: "Company", Keys: []string{"name"}}, nil)
	require.NoError(t, err)

	assert.Equal(t,
		"UNWIND $data AS r\nMATCH (a:Person {name:r[0]})\nMATCH (b:Company {name:r[2]})\nCREATE (a)-[_:WORKS_FOR]->(b)\nSET _ += r[1]",
		statement)
}

func TestCreateRelationshipsQueryCompositeEndpointKey(t *testing.T) {
	data := []any{relRow([]any{"Alice", "1981-01-01"}, map[string]any{}, "ACME")}

	statement, _, err := CreateRelationshipsQuery(data, "WORKS_FOR",
		&NodeKey{Label: "Person", Keys: []string{"name", "dob"}},
		&NodeKey{Label: "Company", Keys: []string{"name"}}, nil)
	require.NoError(t, err)

	assert.Equal(t,
		"UNWIND $data AS r\nMATCH (a:Person {name:r[0][0], dob:r[0][1]})\nMATCH (b:Company {name:r[2]})\nCREATE (a)-[_:WORKS_FOR]->(b)\nSET _ += r[1]",
		statement)
}

func TestCreateRelationshipsQueryLabelOnlyEndpoint(t *testing.T) {
	data := []any{relRow(nil, map[string]any{}, 7)}

	statement, _, err := CreateRelationshipsQuery(data, "PART_OF",
		&NodeKey{Label: "Singleton"}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t,
		"UNWIND $data AS r\nMATCH (a:Singleton)\nMATCH (b) WHERE id(b) = r[2]\nCREATE (a)-[_:PART_OF]->(b)\nSET _ += r[1]",
		statement)
}

func TestMergeRelationshipsQuery(t *testing.T) {
	data := []any{relRow("Alice", map[string]any{"since": 1999}, "ACME")}

	statement, _, err := MergeRelationshipsQuery(data, "WORKS_FOR",
		&NodeKey{Label: "Person", Keys: []string{"name"}},
		&NodeKey{Label: "Company", Keys: []string{"name"}},
		[]string{"since"}, nil)
	require.NoError(t, err)

	assert.Equal(t,
		"UNWIND $data AS r\nMATCH (a:Person {name:r[0]})\nMATCH (b:Company {name:r[2]})\nMERGE (a)-[_:WORKS_FOR {since:r[1]['since']}]->(b)\nSET _ += r[1]",
		statement)
}

func TestMergeRelationshipsQueryNoMergeKeys(t *testing.T) {
	data := []any{relRow("Alice", map[string]any{}, "ACME")}

	statement, _, err := MergeRelationshipsQuery(data, "WORKS_FOR",
		&NodeKey{Label: "Person", Keys: []string{"name"}},
		&NodeKey{Label: "Company", Keys: []string{"name"}}, nil, nil)
	require.NoError(t, err)

	assert.Contains(t, statement, "MERGE (a)-[_:WORKS_FOR]->(b)")
}

func TestRelationshipsQueryEmptyType(t *testing.T) {
	_, _, err := CreateRelationshipsQuery([]any{}, "", nil, nil, nil)
	var spec *InvalidBulkSpecError
	require.ErrorAs(t, err, &spec)
}

func TestRelationshipsQueryPositionalDetail(t *testing.T) {
	data := []any{relRow(1, []any{1999}, 2)}

	statement, _, err := CreateRelationshipsQuery(data, "KNOWS", nil, nil, []string{"since"})
	require.NoError(t, err)
	assert.Contains(t, statement, "SET _ += {since: r[1][0]}")
}

func TestRelationshipsQueryDetailValidation(t *testing.T) {
	// positional detail without keys must fail fast
	data := []any{relRow(1, []any{1999}, 2)}
	_, _, err := CreateRelationshipsQuery(data, "KNOWS", nil, nil, nil)
	var spec *InvalidBulkSpecError
	require.ErrorAs(t, err, &spec)

	// mapping detail with keys must fail fast too
	data = []any{relRow(1, map[string]any{"since": 1999}, 2)}
	_, _, err = CreateRelationshipsQuery(data, "KNOWS", nil, nil, []string{"since"})
	require.ErrorAs(t, err, &spec)
}

func TestInvalidBulkSpecErrorMessage(t *testing.T) {
	err := invalidSpec("row %d is broken", 3)
	assert.Contains(t, err.Error(), "invalid bulk specification")
	assert.Contains(t, err.Error(), "row 3 is broken")
	assert.True(t, errors.As(err, new(*InvalidBulkSpecError)))
}
