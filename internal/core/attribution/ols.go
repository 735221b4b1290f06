package attribution

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// rcond is the relative singular value cutoff used to pick the effective
// rank of the training matrix.
const rcond = 1e-10

var errFactorize = errors.New("svd factorization failed")

// scaler standardizes columns by the training mean and population
// standard deviation. Constant columns keep a scale of 1.
type scaler struct {
	mean  []float64
	scale []float64
}

func fitScaler(x [][]float64, p int) scaler {
	s := scaler{mean: make([]float64, p), scale: make([]float64, p)}
	col := make([]float64, len(x))
	for j := 0; j < p; j++ {
		for i, row := range x {
			col[i] = row[j]
		}
		mean, variance := stat.PopMeanVariance(col, nil)
		s.mean[j] = mean
		s.scale[j] = math.Sqrt(variance)
		if s.scale[j] == 0 || math.IsNaN(s.scale[j]) {
			s.scale[j] = 1
		}
	}
	return s
}

func (s scaler) transform(x [][]float64) *mat.Dense {
	p := len(s.mean)
	out := mat.NewDense(len(x), p, nil)
	for i, row := range x {
		for j := 0; j < p; j++ {
			out.Set(i, j, (row[j]-s.mean[j])/s.scale[j])
		}
	}
	return out
}

// linearModel is a multi-target least squares fit: y = x·coef + intercept.
type linearModel struct {
	coef      *mat.Dense // p×k
	intercept []float64  // k
}

// fitLinear solves all targets at once with the minimum-norm SVD solution,
// which stays defined for rank-deficient and wide (p > n) designs.
func fitLinear(x *mat.Dense, y [][]float64) (*linearModel, error) {
	n, p := x.Dims()
	k := len(y[0])

	m := &linearModel{intercept: make([]float64, k)}
	yc := mat.NewDense(n, k, nil)
	col := make([]float64, n)
	for t := 0; t < k; t++ {
		for i := range y {
			col[i] = y[i][t]
		}
		m.intercept[t] = stat.Mean(col, nil)
		for i := range y {
			yc.Set(i, t, col[i]-m.intercept[t])
		}
	}

	var svd mat.SVD
	if !svd.Factorize(x, mat.SVDFull) {
		return nil, errFactorize
	}
	rank := svd.Rank(rcond)
	if rank == 0 {
		m.coef = mat.NewDense(p, k, nil)
		return m, nil
	}
	var coef mat.Dense
	svd.SolveTo(&coef, yc, rank)
	m.coef = &coef
	return m, nil
}

func (m *linearModel) predict(x *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.Mul(x, m.coef)
	r, c := out.Dims()
	for i := 0; i < r; i++ {
		for t := 0; t < c; t++ {
			out.Set(i, t, out.At(i, t)+m.intercept[t])
		}
	}
	return &out
}

// r2 is the coefficient of determination of target t on the given rows.
func r2(pred *mat.Dense, y [][]float64, t int) float64 {
	est := make([]float64, len(y))
	obs := make([]float64, len(y))
	for i := range y {
		est[i] = pred.At(i, t)
		obs[i] = y[i][t]
	}
	return stat.RSquaredFrom(est, obs, nil)
}
