// Package pipeline processes raw recordings end to end: download, parse,
// group, serialize, upload. A Processor handles one artifact at a time; the
// Runner fans a reconciliation plan out over a bounded worker pool.
package pipeline

import (
	"bytes"
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wearlab/sensorsync/internal/model"
	"github.com/wearlab/sensorsync/internal/naming"
	"github.com/wearlab/sensorsync/internal/payload"
	"github.com/wearlab/sensorsync/internal/serialize"
	"github.com/wearlab/sensorsync/internal/series"
	"github.com/wearlab/sensorsync/pkg/blob"
)

// Options configure a Processor.
type Options struct {
	Codec             naming.Codec
	Format            serialize.Format
	Reader            payload.ReaderOptions
	DefaultIntervalMS float64
}

// Processor runs single artifacts through the pipeline against a blob store.
type Processor struct {
	store    blob.Store
	codec    naming.Codec
	format   serialize.Format
	reader   payload.ReaderOptions
	expander *series.Expander
}

// NewProcessor creates a Processor.
func NewProcessor(store blob.Store, opts Options) *Processor {
	return &Processor{
		store:    store,
		codec:    opts.Codec,
		format:   opts.Format,
		reader:   opts.Reader,
		expander: series.NewExpander(opts.DefaultIntervalMS),
	}
}

// Result is the outcome of one artifact.
type Result struct {
	Name       string
	State      model.ArtifactState
	RecordsIn  int
	RecordsOut int
	Outputs    int
	Duration   time.Duration
	Err        error
}

// ArtifactResult converts the result into its run-history row.
func (r Result) ArtifactResult(runID string) model.ArtifactResult {
	res := model.ArtifactResult{
		RunID:      runID,
		Name:       r.Name,
		State:      r.State,
		RecordsIn:  int64(r.RecordsIn),
		RecordsOut: int64(r.RecordsOut),
		Outputs:    int64(r.Outputs),
		DurationMS: r.Duration.Milliseconds(),
	}
	if r.Err != nil {
		res.Error = r.Err.Error()
	}
	return res
}

// output is one serialized object waiting for upload.
type output struct {
	name        string
	content     []byte
	contentType string
}

// Process runs one raw artifact through the pipeline. Location artifacts
// are copied verbatim to their pass-through name; recordings are parsed and
// serialized under the codec's convention. The returned result always
// carries a terminal state; Err is non-nil exactly when it is Failed.
func (p *Processor) Process(ctx context.Context, ref model.RawRef) Result {
	res := Result{Name: ref.Name, State: model.StatePending}
	start := time.Now()
	defer func() { res.Duration = time.Since(start) }()

	p.step(&res, model.StateDownloading)
	content, err := p.store.Download(ctx, ref.Name)
	if err != nil {
		return p.fail(res, err)
	}

	if ref.Location() {
		p.step(&res, model.StateUploading)
		if err := p.store.Upload(ctx, p.codec.Encode(ref.Key()), content, "text/csv"); err != nil {
			return p.fail(res, err)
		}
		res.Outputs = 1
		p.step(&res, model.StateDone)
		return res
	}

	p.step(&res, model.StateParsing)
	records, err := payload.ParseRecording(bytes.NewReader(content), p.reader)
	if err != nil {
		return p.fail(res, err)
	}
	res.RecordsIn = len(records)

	var outputs []output
	if p.codec.PerTag() {
		p.step(&res, model.StateGrouping)
		groups := series.GroupByTag(records)

		p.step(&res, model.StateSerializing)
		for _, tag := range groups.Tags() {
			if tag == model.LocationTag {
				// the location bucket is reserved for pass-through copies
				zap.L().Warn("dropping payload records with reserved type tag",
					zap.String("artifact", ref.Name), zap.String("tag", tag))
				continue
			}
			group := groups.Group(tag)
			series.SortByEpoch(group)
			expanded := p.expander.Expand(group)
			res.RecordsOut += len(expanded)

			var buf bytes.Buffer
			if err := serialize.WriteExpanded(&buf, p.format, expanded); err != nil {
				return p.fail(res, err)
			}
			key := model.ArtifactKey{Subject: ref.Subject, Date: ref.Date, Tag: tag}
			outputs = append(outputs, output{
				name:        p.codec.Encode(key),
				content:     buf.Bytes(),
				contentType: p.format.ContentType(),
			})
		}
	} else {
		p.step(&res, model.StateSerializing)
		var buf bytes.Buffer
		if err := serialize.WriteParsed(&buf, p.format, records); err != nil {
			return p.fail(res, err)
		}
		res.RecordsOut = len(records)
		outputs = append(outputs, output{
			name:        p.codec.Encode(ref.Key()),
			content:     buf.Bytes(),
			contentType: p.format.ContentType(),
		})
	}

	p.step(&res, model.StateUploading)
	for _, out := range outputs {
		if err := p.store.Upload(ctx, out.name, out.content, out.contentType); err != nil {
			return p.fail(res, err)
		}
		res.Outputs++
	}

	p.step(&res, model.StateDone)
	return res
}

// step advances the artifact state. Transitions are fixed by the pipeline
// shape, so an illegal one is a programming error worth failing loudly on.
func (p *Processor) step(res *Result, next model.ArtifactState) {
	if !model.CanTransition(res.State, next) {
		zap.L().DPanic("illegal artifact state transition",
			zap.String("artifact", res.Name),
			zap.String("from", string(res.State)), zap.String("to", string(next)))
	}
	res.State = next
}

func (p *Processor) fail(res Result, err error) Result {
	res.State = model.StateFailed
	res.Err = err
	return res
}
