package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/medix/internal/domain/patient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeLike(t *testing.T) {
	tests := map[string]string{
		"flu":       "flu",
		"100%":      `100\%`,
		"type_2":    `type\_2`,
		`back\path`: `back\\path`,
	}
	for in, want := range tests {
		assert.Equal(t, want, escapeLike(in), in)
	}
}

func TestFilterClauses_OwnerOnly(t *testing.T) {
	clauses, err := filterClauses("drA", &patient.FilterQuery{})
	require.NoError(t, err)
	assert.Equal(t, []sqlClause{{SQL: "patients.doctor_id = ?", Args: []any{"drA"}}}, clauses)
}

func TestFilterClauses_AllCriteria(t *testing.T) {
	since := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	clauses, err := filterClauses("drA", &patient.FilterQuery{
		DiseaseName:    "type_2",
		Condition:      `he said "stable"`,
		DiagnosedSince: &since,
	})
	require.NoError(t, err)
	require.Len(t, clauses, 4)

	disease := clauses[1]
	assert.Contains(t, disease.SQL, "jsonb_array_elements")
	assert.Contains(t, disease.SQL, "d->>'disease' ILIKE ?")
	assert.Equal(t, []any{`%type\_2%`}, disease.Args)

	condition := clauses[2]
	assert.Equal(t, "patients.diagnoses_history @> ?::jsonb", condition.SQL)
	assert.Equal(t, []any{`[{"condition":"he said \"stable\""}]`}, condition.Args)

	date := clauses[3]
	assert.Contains(t, date.SQL, "(d->>'diagnosis_on')::timestamptz >= ?")
	assert.Equal(t, []any{since}, date.Args)

	for _, c := range clauses {
		assert.Equal(t, strings.Count(c.SQL, "?"), len(c.Args), c.SQL)
	}
}

func TestGroupQuery(t *testing.T) {
	query, args := groupQuery("drA", patient.GroupByCondition)

	assert.Equal(t, []any{"condition", "drA"}, args)
	assert.Equal(t, 2, strings.Count(query, "?"))
	assert.Contains(t, query, "CROSS JOIN LATERAL "+historyElements+" WITH ORDINALITY AS d(value, ord)")
	assert.Contains(t, query, "WHERE patients.doctor_id = ?")
	assert.Contains(t, query, "ORDER BY patients.created_at, patients.id, d.ord")
}
