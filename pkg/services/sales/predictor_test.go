package sales

import (
	"fmt"
	"testing"

	"github.com/bi-tools/insighthub/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// linearSalesDataset produces rows following total = 2 + 3q + 0.5p - 10d
// exactly, so the fit should recover the relation.
func linearSalesDataset(n int) *domain.Dataset {
	ds := &domain.Dataset{
		Columns: []string{"quantity", "price", "discount", "total_amount"},
	}
	for i := 0; i < n; i++ {
		q := float64(1 + i%7)
		p := float64(10 + 3*(i%5))
		d := float64(i%4) / 10
		total := 2 + 3*q + 0.5*p - 10*d
		ds.Rows = append(ds.Rows, []string{
			fmt.Sprintf("%g", q),
			fmt.Sprintf("%g", p),
			fmt.Sprintf("%g", d),
			fmt.Sprintf("%g", total),
		})
	}
	return ds
}

func TestPredictor_RecoversLinearRelation(t *testing.T) {
	p := NewPredictor()
	require.NoError(t, p.Train(linearSalesDataset(40)))
	require.True(t, p.Trained())

	got, err := p.Predict(4, 20, 0.2)
	require.NoError(t, err)
	assert.InDelta(t, 2+3*4+0.5*20-10*0.2, got, 1e-6)
}

func TestPredictor_UntrainedErrors(t *testing.T) {
	p := NewPredictor()
	_, err := p.Predict(1, 2, 3)
	assert.ErrorIs(t, err, domain.ErrNoData)
}

func TestPredictor_MissingColumns(t *testing.T) {
	p := NewPredictor()
	ds := &domain.Dataset{Columns: []string{"quantity"}, Rows: [][]string{{"1"}}}
	assert.ErrorIs(t, p.Train(ds), domain.ErrSchema)
}

func TestPredictor_TooFewUsableRows(t *testing.T) {
	p := NewPredictor()
	ds := &domain.Dataset{
		Columns: []string{"quantity", "price", "discount", "total_amount"},
		Rows: [][]string{
			{"1", "10", "0", "13"},
			{"bad", "10", "0", "13"},
		},
	}
	assert.ErrorIs(t, p.Train(ds), domain.ErrNoData)
}

func TestPredictor_RetrainReplacesModel(t *testing.T) {
	p := NewPredictor()
	require.NoError(t, p.Train(linearSalesDataset(40)))

	// A flat dataset: total is always 100 regardless of features.
	flat := &domain.Dataset{
		Columns: []string{"quantity", "price", "discount", "total_amount"},
	}
	for i := 0; i < 20; i++ {
		flat.Rows = append(flat.Rows, []string{
			fmt.Sprintf("%d", 1+i%5),
			fmt.Sprintf("%d", 10+i%3),
			fmt.Sprintf("%g", float64(i%2)/10),
			"100",
		})
	}
	require.NoError(t, p.Train(flat))

	got, err := p.Predict(3, 11, 0)
	require.NoError(t, err)
	assert.InDelta(t, 100, got, 1e-6)
}
