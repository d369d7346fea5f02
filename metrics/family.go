package metrics

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
)

// bucketLabel is the reserved histogram label holding the bucket upper bound.
const bucketLabel = "le"

func isInf(v float64) bool {
	return math.IsInf(v, +1)
}

// family owns all series of one registered metric. The mutex guards the
// series map; series state itself is updated atomically or under the series'
// own lock, so a scrape rendering one family never blocks updates on another.
type family struct {
	def Definition

	mu     sync.RWMutex
	series map[string]*series
}

func newFamily(def Definition) *family {
	return &family{
		def:    def,
		series: make(map[string]*series),
	}
}

// getOrCreate returns the series for the given label value tuple, creating it
// at zero state on first use. Fast path is a read lock.
func (f *family) getOrCreate(values []string) *series {
	key := seriesKey(values)

	f.mu.RLock()
	s := f.series[key]
	f.mu.RUnlock()
	if s != nil {
		return s
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if s = f.series[key]; s != nil {
		return s
	}
	s = &series{labelValues: append([]string(nil), values...)}
	if f.def.Type == TypeHistogram {
		// One count per configured bound plus the implicit +Inf bucket.
		s.bucketCounts = make([]uint64, len(f.def.Buckets)+1)
	}
	f.series[key] = s
	return s
}

// snapshot returns the family's series sorted by label value tuple, for
// deterministic exposition output.
func (f *family) snapshot() []*series {
	f.mu.RLock()
	keys := make([]string, 0, len(f.series))
	for k := range f.series {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*series, len(keys))
	for i, k := range keys {
		out[i] = f.series[k]
	}
	f.mu.RUnlock()
	return out
}

// series holds the mutable state for one label value tuple. Counter and gauge
// values live in bits as IEEE 754 bits updated atomically; histogram and
// summary state is multi-field and guarded by mu.
type series struct {
	labelValues []string

	bits atomic.Uint64

	mu           sync.Mutex
	bucketCounts []uint64 // cumulative; last entry is the +Inf bucket
	count        uint64
	sum          float64
}

func (s *series) value() float64 {
	return math.Float64frombits(s.bits.Load())
}

// add atomically adds delta to the float value via a CAS loop.
func (s *series) add(delta float64) {
	for {
		old := s.bits.Load()
		newV := math.Float64bits(math.Float64frombits(old) + delta)
		if s.bits.CompareAndSwap(old, newV) {
			return
		}
	}
}

// set atomically overwrites the float value, last-write-wins.
func (s *series) set(v float64) {
	s.bits.Store(math.Float64bits(v))
}

// observeHistogram records v with cumulative bucket semantics: every bucket
// whose upper bound is >= v is incremented (inclusive upper bound), always
// including +Inf.
func (s *series) observeHistogram(bounds []float64, v float64) {
	idx := sort.SearchFloat64s(bounds, v)

	s.mu.Lock()
	for i := idx; i < len(s.bucketCounts); i++ {
		s.bucketCounts[i]++
	}
	s.count++
	s.sum += v
	s.mu.Unlock()
}

// observeSummary records v into the running count and sum.
func (s *series) observeSummary(v float64) {
	s.mu.Lock()
	s.count++
	s.sum += v
	s.mu.Unlock()
}

// histogramState returns a consistent copy of bucket counts, count and sum.
func (s *series) histogramState() (bucketCounts []uint64, count uint64, sum float64) {
	s.mu.Lock()
	bucketCounts = append([]uint64(nil), s.bucketCounts...)
	count = s.count
	sum = s.sum
	s.mu.Unlock()
	return bucketCounts, count, sum
}

// summaryState returns a consistent copy of count and sum.
func (s *series) summaryState() (count uint64, sum float64) {
	s.mu.Lock()
	count = s.count
	sum = s.sum
	s.mu.Unlock()
	return count, sum
}
