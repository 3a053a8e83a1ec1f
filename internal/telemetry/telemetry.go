package telemetry

import (
	"context"
	"time"

	"github.com/s-dimaio/JavahOn-sub000/internal/appliance"
	"github.com/s-dimaio/JavahOn-sub000/internal/command"
	"github.com/s-dimaio/JavahOn-sub000/internal/parameter"
)

// PointWriter stores time-series points. *influxdb.Client satisfies it.
type PointWriter interface {
	WriteAttribute(mac, applianceType, key string, value float64, at time.Time)
	WriteCommand(mac, command string, success bool, at time.Time)
}

// Counters updates aggregate metrics. *metrics.Metrics satisfies it.
type Counters interface {
	CommandSent(mac, command string, success bool)
	CatalogLoaded(mac string, commands int, err error)
	AttributesChanged(mac string, n int)
}

// Options configures a Recorder. Every field is optional.
type Options struct {
	// Journal receives every send attempt before points and counters.
	Journal command.Recorder

	// Points is nil when time-series storage is disabled.
	Points PointWriter

	// Counters is nil when metrics are disabled.
	Counters Counters
}

// Recorder fans appliance activity out to the journal, time-series
// storage and metrics.
type Recorder struct {
	journal  command.Recorder
	points   PointWriter
	counters Counters
}

var _ command.Recorder = (*Recorder)(nil)

// New creates a recorder.
func New(opts Options) *Recorder {
	return &Recorder{
		journal:  opts.Journal,
		points:   opts.Points,
		counters: opts.Counters,
	}
}

// RecordSend implements command.Recorder. Only the journal can fail.
func (r *Recorder) RecordSend(ctx context.Context, rec command.Record) error {
	if r.counters != nil {
		r.counters.CommandSent(rec.MacAddress, rec.Command, rec.Success)
	}
	if r.points != nil {
		r.points.WriteCommand(rec.MacAddress, rec.Command, rec.Success, rec.SentAt)
	}
	if r.journal == nil {
		return nil
	}
	return r.journal.RecordSend(ctx, rec)
}

// Watch attaches the recorder to an appliance: it records its sends and
// follows its attribute and catalog events.
func (r *Recorder) Watch(a *appliance.Appliance) {
	a.SetRecorder(r)
	a.Subscribe(func(ev appliance.Event) { r.handleEvent(a, ev) })
}

// CatalogFailed counts a catalog load that kept the previous catalog.
func (r *Recorder) CatalogFailed(mac string, err error) {
	if r.counters != nil && err != nil {
		r.counters.CatalogLoaded(mac, 0, err)
	}
}

func (r *Recorder) handleEvent(a *appliance.Appliance, ev appliance.Event) {
	switch ev.Type {
	case appliance.EventCatalog:
		if r.counters != nil {
			r.counters.CatalogLoaded(ev.MacAddress, a.Catalog().Len(), nil)
		}
	case appliance.EventAttributes:
		if r.counters != nil {
			r.counters.AttributesChanged(ev.MacAddress, len(ev.Changes))
		}
		if r.points == nil {
			return
		}
		for _, ch := range ev.Changes {
			// Non-numeric attributes (program names, codes) are not stored.
			f, err := parameter.ParseNumber(ch.Value)
			if err != nil {
				continue
			}
			r.points.WriteAttribute(ev.MacAddress, a.Type(), ch.Key, f, ev.Timestamp)
		}
	}
}
