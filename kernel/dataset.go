// SPDX-License-Identifier: MIT

package kernel

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Dataset is a labelled set of sparse examples addressed by id 0..Len()-1.
type Dataset struct {
	X     []SparseVector
	Y     []float64
	norms []float64 // cached squared norms for distance kernels
}

// NewDataset builds a dataset from dense rows; zero entries are dropped.
func NewDataset(x [][]float64, y []float64) *Dataset {
	ds := &Dataset{Y: y, X: make([]SparseVector, len(x))}
	for i, row := range x {
		var v SparseVector
		for j, f := range row {
			if f != 0 {
				v.Index = append(v.Index, j)
				v.Value = append(v.Value, f)
			}
		}
		ds.X[i] = v
	}

	return ds
}

// Len returns the number of examples.
func (ds *Dataset) Len() int { return len(ds.X) }

// Label returns the label of example i.
func (ds *Dataset) Label(i int) float64 { return ds.Y[i] }

// Concat returns a dataset holding the examples of ds followed by those of
// other, so that one kernel can address both: example i of other gets id
// ds.Len()+i.
func (ds *Dataset) Concat(other *Dataset) *Dataset {
	out := &Dataset{
		X: make([]SparseVector, 0, ds.Len()+other.Len()),
		Y: make([]float64, 0, ds.Len()+other.Len()),
	}
	out.X = append(append(out.X, ds.X...), other.X...)
	out.Y = append(append(out.Y, ds.Y...), other.Y...)

	return out
}

func (ds *Dataset) squaredNorm(i int) float64 {
	if ds.norms == nil {
		ds.norms = make([]float64, len(ds.X))
		for k, v := range ds.X {
			ds.norms[k] = v.SquaredNorm()
		}
	}

	return ds.norms[i]
}

// ReadLibSVM parses the LIBSVM text format: one example per line,
// "label index:value index:value ...", indices ascending. Blank lines and
// lines starting with '#' are skipped. Labels are mapped to ±1 by sign.
func ReadLibSVM(r io.Reader) (*Dataset, error) {
	ds := &Dataset{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		label, err := strconv.ParseFloat(fields[0], 64)
		if err != nil || label == 0 {
			return nil, fmt.Errorf("line %d: label %q: %w", line, fields[0], ErrBadLine)
		}
		var v SparseVector
		last := -1
		for _, f := range fields[1:] {
			idx, val, ok := strings.Cut(f, ":")
			if !ok {
				return nil, fmt.Errorf("line %d: feature %q: %w", line, f, ErrBadLine)
			}
			k, err := strconv.Atoi(idx)
			if err != nil || k <= last {
				return nil, fmt.Errorf("line %d: index %q: %w", line, idx, ErrBadLine)
			}
			x, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: value %q: %w", line, val, ErrBadLine)
			}
			last = k
			v.Index = append(v.Index, k)
			v.Value = append(v.Value, x)
		}
		y := 1.0
		if label < 0 {
			y = -1
		}
		ds.X = append(ds.X, v)
		ds.Y = append(ds.Y, y)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(ds.X) == 0 {
		return nil, ErrEmptyDataset
	}

	return ds, nil
}
