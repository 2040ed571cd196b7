package pipeline

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
)

var (
	// ErrNotInitialized is returned by Run when the pipeline has no initializer.
	ErrNotInitialized = errors.New("pipeline not initialized")

	// ErrTypeMismatch is returned when a sequence-oriented step (PipeSliced,
	// PipeEach, PipeEachFiltered, Sort) encounters data that is not a slice.
	ErrTypeMismatch = errors.New("step requires sequence data")
)

// Initializer produces the first data value from the caller state.
type Initializer[S any] func(ctx context.Context, state S) (any, error)

// StepFunc transforms the entire data value.
type StepFunc[S any] func(ctx context.Context, data any, state S) (any, error)

// SliceFunc transforms one contiguous batch of a sequence. offset is the
// index of the first element of the batch within the full sequence.
type SliceFunc[S any] func(ctx context.Context, batch []any, offset int, state S) ([]any, error)

// EachFunc transforms a single element of a sequence.
type EachFunc[S any] func(ctx context.Context, item any, state S, index int) (any, error)

// Comparator orders two elements: negative if a < b, zero if equal,
// positive if a > b.
type Comparator func(a, b any) int

// Sink is the persistence collaborator used by SaveAs checkpoints.
type Sink interface {
	Save(name string, data any) error
}

type stepKind int

const (
	kindWhole stepKind = iota
	kindSliced
	kindEach
	kindEachFiltered
	kindSort
	kindCheckpoint
)

func (k stepKind) String() string {
	switch k {
	case kindWhole:
		return "pipe"
	case kindSliced:
		return "pipeSliced"
	case kindEach:
		return "pipeEach"
	case kindEachFiltered:
		return "pipeEachFiltered"
	case kindSort:
		return "sort"
	case kindCheckpoint:
		return "saveAs"
	default:
		return "unknown"
	}
}

// step is a tagged union over the executor's step variants; Run dispatches
// on kind, so exactly one of the function fields is set per step.
type step[S any] struct {
	kind      stepKind
	whole     StepFunc[S]
	sliced    SliceFunc[S]
	sliceSize int
	each      EachFunc[S]
	cmp       Comparator
	sink      Sink
	sinkName  string
}

// Pipeline is a staged executor over caller state S. Build one with Start,
// append steps with the Pipe* methods, then execute with Run. The zero value
// is not usable.
type Pipeline[S any] struct {
	init  Initializer[S]
	state S
	steps []step[S]
}

// Start begins a pipeline with the given initializer and caller state.
func Start[S any](init Initializer[S], state S) *Pipeline[S] {
	return &Pipeline[S]{init: init, state: state}
}

// Pipe appends a step that receives the entire data value.
func (p *Pipeline[S]) Pipe(fn StepFunc[S]) *Pipeline[S] {
	p.steps = append(p.steps, step[S]{kind: kindWhole, whole: fn})
	return p
}

// PipeSliced appends a batching step. The current sequence is walked in
// fixed-size, non-overlapping windows in source order (the final window may
// be shorter); each window's results are concatenated into the new sequence.
func (p *Pipeline[S]) PipeSliced(fn SliceFunc[S], sliceSize int) *Pipeline[S] {
	p.steps = append(p.steps, step[S]{kind: kindSliced, sliced: fn, sliceSize: sliceSize})
	return p
}

// PipeEach appends a per-element step; results are collected in source order.
func (p *Pipeline[S]) PipeEach(fn EachFunc[S]) *Pipeline[S] {
	p.steps = append(p.steps, step[S]{kind: kindEach, each: fn})
	return p
}

// PipeEachFiltered appends a per-element step that drops elements whose
// result is falsy (nil, false, zero number, empty string/slice/map).
func (p *Pipeline[S]) PipeEachFiltered(fn EachFunc[S]) *Pipeline[S] {
	p.steps = append(p.steps, step[S]{kind: kindEachFiltered, each: fn})
	return p
}

// Sort appends a step that orders the current sequence with cmp.
func (p *Pipeline[S]) Sort(cmp Comparator) *Pipeline[S] {
	p.steps = append(p.steps, step[S]{kind: kindSort, cmp: cmp})
	return p
}

// SaveAs appends a checkpoint: the current data is handed unchanged to the
// sink under the given name, then execution continues with the same data.
// Checkpoints already written are not rolled back if a later step fails.
func (p *Pipeline[S]) SaveAs(sink Sink, name string) *Pipeline[S] {
	p.steps = append(p.steps, step[S]{kind: kindCheckpoint, sink: sink, sinkName: name})
	return p
}

// Run executes the initializer and then every registered step in order.
// The first failing step aborts the run; its error is returned wrapped with
// the step's position.
func (p *Pipeline[S]) Run(ctx context.Context) (any, error) {
	if p.init == nil {
		return nil, ErrNotInitialized
	}

	data, err := p.init(ctx, p.state)
	if err != nil {
		return nil, fmt.Errorf("initializer: %w", err)
	}

	for i, s := range p.steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err = p.runStep(ctx, s, data)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, s.kind, err)
		}
	}

	return data, nil
}

func (p *Pipeline[S]) runStep(ctx context.Context, s step[S], data any) (any, error) {
	switch s.kind {
	case kindWhole:
		return s.whole(ctx, data, p.state)

	case kindSliced:
		if s.sliceSize <= 0 {
			return nil, fmt.Errorf("invalid slice size %d", s.sliceSize)
		}
		seq, ok := toSequence(data)
		if !ok {
			return nil, ErrTypeMismatch
		}
		out := make([]any, 0, len(seq))
		for offset := 0; offset < len(seq); offset += s.sliceSize {
			end := offset + s.sliceSize
			if end > len(seq) {
				end = len(seq)
			}
			batch, err := s.sliced(ctx, seq[offset:end], offset, p.state)
			if err != nil {
				return nil, err
			}
			out = append(out, batch...)
		}
		return out, nil

	case kindEach:
		seq, ok := toSequence(data)
		if !ok {
			return nil, ErrTypeMismatch
		}
		out := make([]any, 0, len(seq))
		for i, item := range seq {
			res, err := s.each(ctx, item, p.state, i)
			if err != nil {
				return nil, err
			}
			out = append(out, res)
		}
		return out, nil

	case kindEachFiltered:
		seq, ok := toSequence(data)
		if !ok {
			return nil, ErrTypeMismatch
		}
		out := make([]any, 0, len(seq))
		for i, item := range seq {
			res, err := s.each(ctx, item, p.state, i)
			if err != nil {
				return nil, err
			}
			if isFalsy(res) {
				continue
			}
			out = append(out, res)
		}
		return out, nil

	case kindSort:
		seq, ok := toSequence(data)
		if !ok {
			return nil, ErrTypeMismatch
		}
		sorted := make([]any, len(seq))
		copy(sorted, seq)
		sort.SliceStable(sorted, func(i, j int) bool {
			return s.cmp(sorted[i], sorted[j]) < 0
		})
		return sorted, nil

	case kindCheckpoint:
		if err := s.sink.Save(s.sinkName, data); err != nil {
			return nil, err
		}
		return data, nil

	default:
		return nil, fmt.Errorf("unknown step kind %d", s.kind)
	}
}

// toSequence normalizes any slice or array value into []any. Strings are not
// sequences for batching purposes.
func toSequence(data any) ([]any, bool) {
	if data == nil {
		return nil, false
	}
	if seq, ok := data.([]any); ok {
		return seq, true
	}
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, false
	}
	seq := make([]any, v.Len())
	for i := 0; i < v.Len(); i++ {
		seq[i] = v.Index(i).Interface()
	}
	return seq, true
}

// isFalsy reports whether a step result should be dropped by
// PipeEachFiltered: nil, false, numeric zero, and empty strings,
// slices, arrays and maps.
func isFalsy(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return !rv.Bool()
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() == 0
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
