package patient

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

type SortField string

const (
	SortByID                  SortField = "id"
	SortByHeight              SortField = "height"
	SortByWeight              SortField = "weight"
	SortByAge                 SortField = "age"
	SortByLatestDiagnosisDate SortField = "latest_diagnosis_date"
	SortByLatestCondition     SortField = "latest_condition"
)

// SortFields is the accepted set, in the order it is reported to callers.
var SortFields = []SortField{
	SortByID,
	SortByHeight,
	SortByWeight,
	SortByAge,
	SortByLatestDiagnosisDate,
	SortByLatestCondition,
}

func (f SortField) IsValid() bool {
	return slices.Contains(SortFields, f)
}

type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

func (o SortOrder) IsValid() bool {
	return o == OrderAsc || o == OrderDesc
}

// SortPatients orders ps in place. The sort is stable. Absent values
// compare lower than any present value, so they lead in ascending order and
// trail in descending order.
func SortPatients(ps []*Patient, field SortField, order SortOrder) {
	slices.SortStableFunc(ps, func(a, b *Patient) int {
		c := compareBy(field, a, b)
		if order == OrderDesc {
			return -c
		}
		return c
	})
}

func compareBy(field SortField, a, b *Patient) int {
	switch field {
	case SortByID:
		return cmp.Compare(a.ID, b.ID)
	case SortByAge:
		return cmp.Compare(a.Age, b.Age)
	case SortByHeight:
		return compareOptional(a.Height, b.Height, cmp.Compare[float64])
	case SortByWeight:
		return compareOptional(a.Weight, b.Weight, cmp.Compare[float64])
	case SortByLatestDiagnosisDate:
		return compareOptional(a.LatestDiagnosisDate(), b.LatestDiagnosisDate(), func(x, y time.Time) int {
			return x.Compare(y)
		})
	case SortByLatestCondition:
		return compareOptional(a.LatestCondition(), b.LatestCondition(), strings.Compare)
	}
	return 0
}

func compareOptional[T any](a, b *T, compare func(T, T) int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return compare(*a, *b)
}

// FilterQuery narrows the caller's patients. Every criterion is optional;
// the ones present must all hold, each against any diagnosis entry.
type FilterQuery struct {
	DiseaseName    string     // case-insensitive substring of a disease
	Condition      string     // exact match of a condition
	DiagnosedSince *time.Time // some entry dated on or after this day
}

func (q *FilterQuery) Matches(p *Patient) bool {
	if q.DiseaseName != "" {
		needle := strings.ToLower(q.DiseaseName)
		if !slices.ContainsFunc(p.DiagnosesHistory, func(d DiagnosisEntry) bool {
			return strings.Contains(strings.ToLower(d.Disease), needle)
		}) {
			return false
		}
	}
	if q.Condition != "" {
		if !slices.ContainsFunc(p.DiagnosesHistory, func(d DiagnosisEntry) bool {
			return d.Condition == q.Condition
		}) {
			return false
		}
	}
	if q.DiagnosedSince != nil {
		since := *q.DiagnosedSince
		if !slices.ContainsFunc(p.DiagnosesHistory, func(d DiagnosisEntry) bool {
			return !d.DiagnosisOn.Before(since)
		}) {
			return false
		}
	}
	return true
}

// DaysPerMonth is the fixed month length used by the "diagnosed after N
// months" filter. It is an approximation, not calendar arithmetic.
const DaysPerMonth = 30

// DiagnosedSinceCutoff returns the first day that counts as "within the
// last months months" relative to now.
func DiagnosedSinceCutoff(now time.Time, months int) time.Time {
	return DateOnly(now).AddDate(0, 0, -DaysPerMonth*months)
}

type GroupDimension string

const (
	GroupByDisease   GroupDimension = "disease"
	GroupByCondition GroupDimension = "condition"
)

func (g GroupDimension) IsValid() bool {
	return g == GroupByDisease || g == GroupByCondition
}

func (g GroupDimension) keyOf(d DiagnosisEntry) string {
	if g == GroupByCondition {
		return d.Condition
	}
	return d.Disease
}

// GroupByDiagnosis expands every diagnosis entry into its own row and
// buckets the rows by disease or condition. A patient appears once per
// entry, so it may show up in several groups or several times in one.
func GroupByDiagnosis(ps []*Patient, dim GroupDimension) map[string][]Summary {
	groups := make(map[string][]Summary)
	for _, p := range ps {
		for _, d := range p.DiagnosesHistory {
			key := dim.keyOf(d)
			groups[key] = append(groups[key], Summary{
				ID:        p.ID,
				Name:      p.Name,
				City:      p.City,
				Age:       p.Age,
				Gender:    p.Gender,
				Diagnosis: d,
			})
		}
	}
	return groups
}
