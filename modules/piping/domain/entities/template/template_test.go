package template

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStandard_WeightsSumTo100(t *testing.T) {
	t.Parallel()

	standard := Standard()
	require.Len(t, standard, 5)

	names := make(map[string]bool, len(standard))
	for _, tpl := range standard {
		names[tpl.Name] = true

		var sum float64
		for _, m := range tpl.Milestones {
			sum += m.Weight
		}
		require.InDeltaf(t, 100, sum, WeightTolerance, "template %q", tpl.Name)
		require.NoError(t, tpl.Validate())
	}

	for _, want := range []string{Full, Reduced, FieldWeld, Insulation, Paint} {
		require.Truef(t, names[want], "missing standard template %q", want)
	}
}

func TestValidate_RejectsBadWeightSum(t *testing.T) {
	t.Parallel()

	tpl := &Template{
		Name: "Broken",
		Milestones: []Milestone{
			{Name: "Received", Weight: 40},
			{Name: "Installed", Weight: 40},
		},
	}
	require.Error(t, tpl.Validate())

	tpl.Milestones = append(tpl.Milestones, Milestone{Name: "Tested", Weight: 20 + math.Nextafter(0, 0.001)})
	require.NoError(t, tpl.Validate())
}
