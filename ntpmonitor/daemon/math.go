/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package daemon

import (
	"fmt"
	"math"
	"slices"

	"github.com/Knetic/govaluate"
	"github.com/eclesh/welford"
)

// MathHelp is a help message used by flags in main
const MathHelp = `When composing the PPS quality formula, here is what you can do:
supported operations:
  evaluation is done with govaluate, please check https://github.com/Knetic/govaluate/blob/master/MANUAL.md
supported variables:
  offset (list of last PPS peer offsets, in ms, newest first)
  delay (list of last PPS peer delays, in ms, newest first)
  jitter (list of last PPS peer jitter values, in ms, newest first)
supported functions:
  abs(value) - absolute value of single float64, for example abs(-1) = 1
  mean(values, number) - mean of first 'number' values of the list
  variance(values, number) - variance of first 'number' values of the list
  stddev(values, number) - standard deviation of first 'number' values of the list
  max(values, number) - maximum of first 'number' values of the list`

// MathDefaultQuality is a default formula to calculate PPS quality
const MathDefaultQuality = "abs(mean(offset, 60)) + 1.0 * stddev(offset, 60) + mean(jitter, 60)"

// Math stores PPS quality expression in two forms: string and parsed
type Math struct {
	Quality     string // lower is better, in ms
	qualityExpr *govaluate.EvaluableExpression
}

// Prepare will prepare all math expressions. Empty formula disables quality evaluation.
func (m *Math) Prepare() error {
	if m.Quality == "" {
		m.qualityExpr = nil
		return nil
	}
	var err error
	m.qualityExpr, err = prepareExpression(m.Quality)
	if err != nil {
		return fmt.Errorf("evaluating Quality: %w", err)
	}
	return nil
}

// Enabled tells if quality expression is prepared
func (m *Math) Enabled() bool {
	return m.qualityExpr != nil
}

// EvalQuality evaluates prepared quality expression over PPS samples, newest first
func (m *Math) EvalQuality(samples []*ppsSample) (float64, error) {
	if m.qualityExpr == nil {
		return 0, fmt.Errorf("quality expression is not prepared")
	}
	if len(samples) == 0 {
		return 0, fmt.Errorf("no PPS samples")
	}
	res, err := m.qualityExpr.Evaluate(mapOfInterface(prepareMathParameters(samples)))
	if err != nil {
		return 0, err
	}
	v, ok := res.(float64)
	if !ok {
		return 0, fmt.Errorf("quality expression returned %T, want float64", res)
	}
	return v, nil
}

func mean(input []float64) float64 {
	s := welford.New()
	for _, v := range input {
		s.Add(v)
	}
	return s.Mean()
}

func variance(input []float64) float64 {
	s := welford.New()
	for _, v := range input {
		s.Add(v)
	}
	return s.Variance()
}

func stddev(input []float64) float64 {
	s := welford.New()
	for _, v := range input {
		s.Add(v)
	}
	return s.Stddev()
}

var supportedVariables = []string{
	"offset",
	"delay",
	"jitter",
}

// listFunction wraps aggregation over first N values into govaluate function
func listFunction(name string, f func([]float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("%s: wrong number of arguments: want 2, got %d", name, len(args))
		}
		vals, ok := args[0].([]float64)
		if !ok {
			return nil, fmt.Errorf("%s: first argument must be a list", name)
		}
		nSamples, ok := args[1].(float64)
		if !ok {
			return nil, fmt.Errorf("%s: second argument must be a number", name)
		}
		if math.IsNaN(nSamples) || math.IsInf(nSamples, 0) || nSamples < 0 {
			return nil, fmt.Errorf("%s: number of samples must be a non-negative finite number, got %v", name, nSamples)
		}
		if len(vals) > int(nSamples) {
			vals = vals[:int(nSamples)]
		}
		return f(vals), nil
	}
}

// all the functions we support in expressions
var functions = map[string]govaluate.ExpressionFunction{
	"abs": func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("abs: wrong number of arguments: want 1, got %d", len(args))
		}
		val, ok := args[0].(float64)
		if !ok {
			return nil, fmt.Errorf("abs: argument must be a number")
		}
		return math.Abs(val), nil
	},
	"mean":     listFunction("mean", mean),
	"variance": listFunction("variance", variance),
	"stddev":   listFunction("stddev", stddev),
	"max": listFunction("max", func(vals []float64) float64 {
		if len(vals) == 0 {
			return 0
		}
		return slices.Max(vals)
	}),
}

func prepareExpression(exprStr string) (*govaluate.EvaluableExpression, error) {
	expr, err := govaluate.NewEvaluableExpressionWithFunctions(exprStr, functions)
	if err != nil {
		return nil, err
	}
	for _, v := range expr.Vars() {
		if !slices.Contains(supportedVariables, v) {
			return nil, fmt.Errorf("unsupported variable %q", v)
		}
	}
	return expr, nil
}

func prepareMathParameters(samples []*ppsSample) map[string][]float64 {
	offsets := make([]float64, len(samples))
	delays := make([]float64, len(samples))
	jitters := make([]float64, len(samples))
	for i, s := range samples {
		offsets[i] = s.OffsetMs
		delays[i] = s.DelayMs
		jitters[i] = s.JitterMs
	}
	return map[string][]float64{
		"offset": offsets,
		"delay":  delays,
		"jitter": jitters,
	}
}

func mapOfInterface(m map[string][]float64) map[string]interface{} {
	mm := make(map[string]interface{}, len(m))
	for k, v := range m {
		mm[k] = v
	}
	return mm
}
