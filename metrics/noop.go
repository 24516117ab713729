// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package metrics

type noopProvider struct{}

// Noop returns a Provider whose instruments discard every recorded value.
// This is the batcher package's default when no Provider is configured.
func Noop() Provider { return noopProvider{} }

func (noopProvider) Counter(string, ...InstrumentOption) Counter { return noopInstrument{} }
func (noopProvider) UpDownCounter(string, ...InstrumentOption) UpDownCounter {
	return noopInstrument{}
}
func (noopProvider) Histogram(string, ...InstrumentOption) Histogram { return noopInstrument{} }

type noopInstrument struct{}

func (noopInstrument) Add(int64)      {}
func (noopInstrument) Record(float64) {}
