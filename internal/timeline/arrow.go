package timeline

import (
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/jhsa24/randomwalk/internal/lineage"
)

// Column names of the Arrow schema, in order.
const (
	ColX         = "x"
	ColY         = "y"
	ColIteration = "iteration"
	ColAngle     = "angle"
	ColWalkerID  = "walker_id"
	ColParentID  = "parent_id"
	ColSampleID  = "sample_id"
)

// Schema is the Arrow schema of an exported timeline. parent_id is null
// for root walkers.
var Schema = arrow.NewSchema([]arrow.Field{
	{Name: ColX, Type: arrow.PrimitiveTypes.Float64},
	{Name: ColY, Type: arrow.PrimitiveTypes.Float64},
	{Name: ColIteration, Type: arrow.PrimitiveTypes.Int64},
	{Name: ColAngle, Type: arrow.PrimitiveTypes.Float64},
	{Name: ColWalkerID, Type: arrow.PrimitiveTypes.Int64},
	{Name: ColParentID, Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	{Name: ColSampleID, Type: arrow.PrimitiveTypes.Int64},
}, nil)

// Record converts the timeline into a single Arrow record. The caller must
// Release it.
func (tl *Timeline) Record(mem memory.Allocator) arrow.Record {
	b := array.NewRecordBuilder(mem, Schema)
	defer b.Release()

	b.Field(0).(*array.Float64Builder).AppendValues(tl.X, nil)
	b.Field(1).(*array.Float64Builder).AppendValues(tl.Y, nil)
	b.Field(2).(*array.Int64Builder).AppendValues(toInt64(tl.Iteration), nil)
	b.Field(3).(*array.Float64Builder).AppendValues(tl.Angle, nil)
	b.Field(4).(*array.Int64Builder).AppendValues(toInt64(tl.WalkerID), nil)

	parents := b.Field(5).(*array.Int64Builder)
	for _, p := range tl.ParentID {
		if p == int(lineage.NoID) {
			parents.AppendNull()
		} else {
			parents.Append(int64(p))
		}
	}

	b.Field(6).(*array.Int64Builder).AppendValues(toInt64(tl.SampleID), nil)
	return b.NewRecord()
}

// WriteArrow writes the timeline to w as an Arrow IPC stream.
func (tl *Timeline) WriteArrow(w io.Writer) error {
	mem := memory.NewGoAllocator()
	rec := tl.Record(mem)
	defer rec.Release()

	wr := ipc.NewWriter(w, ipc.WithSchema(Schema), ipc.WithAllocator(mem))
	if err := wr.Write(rec); err != nil {
		wr.Close()
		return fmt.Errorf("writing arrow record: %w", err)
	}
	if err := wr.Close(); err != nil {
		return fmt.Errorf("closing arrow stream: %w", err)
	}
	return nil
}

// ReadArrow reads a timeline written by WriteArrow. Streams with several
// record batches are concatenated.
func ReadArrow(r io.Reader) (*Timeline, error) {
	mem := memory.NewGoAllocator()
	rd, err := ipc.NewReader(r, ipc.WithAllocator(mem))
	if err != nil {
		return nil, fmt.Errorf("opening arrow stream: %w", err)
	}
	defer rd.Release()

	if !rd.Schema().Equal(Schema) {
		return nil, fmt.Errorf("unexpected arrow schema: %s", rd.Schema())
	}

	tl := newTimeline(0)
	for rd.Next() {
		if err := tl.appendRecord(rd.Record()); err != nil {
			return nil, err
		}
	}
	if err := rd.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading arrow stream: %w", err)
	}
	return tl, nil
}

func (tl *Timeline) appendRecord(rec arrow.Record) error {
	xs, ok1 := rec.Column(0).(*array.Float64)
	ys, ok2 := rec.Column(1).(*array.Float64)
	iters, ok3 := rec.Column(2).(*array.Int64)
	angles, ok4 := rec.Column(3).(*array.Float64)
	walkers, ok5 := rec.Column(4).(*array.Int64)
	parents, ok6 := rec.Column(5).(*array.Int64)
	samples, ok7 := rec.Column(6).(*array.Int64)
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6 && ok7) {
		return fmt.Errorf("arrow record has unexpected column types")
	}

	for k := 0; k < int(rec.NumRows()); k++ {
		parent := int(lineage.NoID)
		if !parents.IsNull(k) {
			parent = int(parents.Value(k))
		}
		tl.X = append(tl.X, xs.Value(k))
		tl.Y = append(tl.Y, ys.Value(k))
		tl.Iteration = append(tl.Iteration, int(iters.Value(k)))
		tl.Angle = append(tl.Angle, angles.Value(k))
		tl.WalkerID = append(tl.WalkerID, int(walkers.Value(k)))
		tl.ParentID = append(tl.ParentID, parent)
		tl.SampleID = append(tl.SampleID, int(samples.Value(k)))
	}
	return nil
}

func toInt64(v []int) []int64 {
	out := make([]int64, len(v))
	for i, x := range v {
		out[i] = int64(x)
	}
	return out
}
