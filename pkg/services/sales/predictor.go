package sales

import (
	"fmt"
	"sync"

	"github.com/bi-tools/insighthub/pkg/models/domain"
	"gonum.org/v1/gonum/mat"
)

var predictorFeatures = []string{domain.ColQuantity, domain.ColPrice, domain.ColDiscount}

// Predictor is a linear model estimating total_amount from quantity, price
// and discount. It is retrained from scratch every time a sales dataset is
// loaded.
type Predictor struct {
	mu        sync.RWMutex
	intercept float64
	coef      []float64
	trained   bool
}

func NewPredictor() *Predictor {
	return &Predictor{}
}

// Train fits the model by least squares. Rows with any unparseable feature
// or target cell are excluded; fewer remaining rows than coefficients is an
// error and leaves any previous fit intact.
func (p *Predictor) Train(ds *domain.Dataset) error {
	if ds == nil || ds.RowCount() == 0 {
		return fmt.Errorf("%w: cannot train predictor", domain.ErrNoData)
	}
	for _, col := range predictorFeatures {
		if !ds.HasColumn(col) {
			return fmt.Errorf("%w: predictor needs column %q", domain.ErrSchema, col)
		}
	}
	if !ds.HasColumn(domain.ColTotalAmount) {
		return fmt.Errorf("%w: predictor needs column %q", domain.ErrSchema, domain.ColTotalAmount)
	}

	var rows [][4]float64
	var targets []float64
	for i := 0; i < ds.RowCount(); i++ {
		var feats [4]float64
		feats[0] = 1 // intercept
		ok := true
		for j, col := range predictorFeatures {
			v, parsed := domain.NumericValue(ds.Cell(i, col))
			if !parsed {
				ok = false
				break
			}
			feats[j+1] = v
		}
		if !ok {
			continue
		}
		y, parsed := domain.NumericValue(ds.Cell(i, domain.ColTotalAmount))
		if !parsed {
			continue
		}
		rows = append(rows, feats)
		targets = append(targets, y)
	}
	if len(rows) < len(predictorFeatures)+1 {
		return fmt.Errorf("%w: only %d usable rows for training", domain.ErrNoData, len(rows))
	}

	a := mat.NewDense(len(rows), 4, nil)
	for i, r := range rows {
		a.SetRow(i, r[:])
	}
	b := mat.NewVecDense(len(targets), targets)

	var qr mat.QR
	qr.Factorize(a)
	var solution mat.VecDense
	if err := qr.SolveVecTo(&solution, false, b); err != nil {
		return fmt.Errorf("fitting sales model: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.intercept = solution.AtVec(0)
	p.coef = []float64{solution.AtVec(1), solution.AtVec(2), solution.AtVec(3)}
	p.trained = true
	return nil
}

// Predict estimates total_amount for one hypothetical order.
func (p *Predictor) Predict(quantity, price, discount float64) (float64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.trained {
		return 0, fmt.Errorf("%w: prediction model not trained", domain.ErrNoData)
	}
	return p.intercept + p.coef[0]*quantity + p.coef[1]*price + p.coef[2]*discount, nil
}

func (p *Predictor) Trained() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.trained
}
