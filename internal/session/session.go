// Package session models the UI session as a plain state value plus a pure
// transition function. The frontend and the network layer push events in;
// the returned effect tells the caller what to do next. Keeping the
// transitions free of I/O makes the ordering rules testable on their own.
package session

import (
	"sentinel-desktop/internal/aoi"
	"sentinel-desktop/internal/geometry"
	"sentinel-desktop/internal/process"
)

// ImageryResult is one fetched raster together with the fetch it answers.
// Bounds are the AOI bounds captured when the fetch was dispatched, so the
// overlay stays put even if the user moved the AOI while the request was in
// flight.
type ImageryResult struct {
	Seq         uint64               `json:"seq"`
	Bounds      geometry.BoundingBox `json:"bounds"`
	From        string               `json:"from"`
	To          string               `json:"to"`
	ScriptID    string               `json:"scriptId"`
	ContentType string               `json:"contentType"`
	Data        []byte               `json:"-"`
}

// PendingFetch records the inputs of the most recently dispatched fetch
type PendingFetch struct {
	Seq      uint64
	Bounds   geometry.BoundingBox
	From     string
	To       string
	ScriptID string
}

// State is the whole session. It is copied on every transition; Apply never
// mutates the pointers it carries, it only swaps them out.
type State struct {
	AOI        *aoi.AOI
	ScriptID   string
	From       string
	To         string
	Dispatched uint64 // count of fetches dispatched so far, also the last seq
	Pending    *PendingFetch
	Result     *ImageryResult
}

// Fetching reports whether a dispatched fetch has not resolved yet
func (s State) Fetching() bool {
	return s.Pending != nil
}

// Event is something that happened: a UI action or a fetch resolving
type Event interface{ isEvent() }

// AOISelected replaces the current area of interest
type AOISelected struct{ AOI *aoi.AOI }

// AOICleared removes the current area of interest
type AOICleared struct{}

// ScriptSelected picks the processing script for the next fetch
type ScriptSelected struct{ ID string }

// DateRangeSet picks the from/to dates for the next fetch
type DateRangeSet struct{ From, To string }

// FetchRequested is the user asking for imagery with the current inputs
type FetchRequested struct{}

// FetchSucceeded reports raster bytes for a dispatched fetch
type FetchSucceeded struct {
	Seq         uint64
	Data        []byte
	ContentType string
}

// FetchFailed reports a dispatched fetch that returned an error
type FetchFailed struct {
	Seq uint64
	Err error
}

func (AOISelected) isEvent()    {}
func (AOICleared) isEvent()     {}
func (ScriptSelected) isEvent() {}
func (DateRangeSet) isEvent()   {}
func (FetchRequested) isEvent() {}
func (FetchSucceeded) isEvent() {}
func (FetchFailed) isEvent()    {}

// Effect is what the caller must do after a transition. A nil effect means
// nothing beyond keeping the new state.
type Effect interface{ isEffect() }

// AOIChanged tells the caller to notify the map. AOI is nil after a clear.
type AOIChanged struct{ AOI *aoi.AOI }

// StartFetch tells the caller to dispatch a process request
type StartFetch struct {
	Seq      uint64
	AOI      *aoi.AOI
	From     string
	To       string
	ScriptID string
}

// RejectFetch tells the caller the fetch request was refused before any
// network traffic
type RejectFetch struct{ Err error }

// ShowResult tells the caller to display a freshly resolved raster
type ShowResult struct{ Result *ImageryResult }

// ReportError tells the caller to surface a failed fetch. The previously
// displayed result stays current.
type ReportError struct {
	Seq uint64
	Err error
}

// DiscardStale tells the caller a resolution arrived for a fetch that was
// superseded. Worth a log line, nothing else.
type DiscardStale struct{ Seq uint64 }

func (AOIChanged) isEffect()   {}
func (StartFetch) isEffect()   {}
func (RejectFetch) isEffect()  {}
func (ShowResult) isEffect()   {}
func (ReportError) isEffect()  {}
func (DiscardStale) isEffect() {}

// Apply runs one transition. It has no side effects and never blocks.
func Apply(s State, e Event) (State, Effect) {
	switch event := e.(type) {
	case AOISelected:
		s.AOI = event.AOI
		return s, AOIChanged{AOI: event.AOI}

	case AOICleared:
		s.AOI = nil
		return s, AOIChanged{}

	case ScriptSelected:
		s.ScriptID = event.ID
		return s, nil

	case DateRangeSet:
		s.From = event.From
		s.To = event.To
		return s, nil

	case FetchRequested:
		if s.AOI == nil {
			return s, RejectFetch{Err: process.ErrNoAOI}
		}
		seq := s.Dispatched + 1
		s.Dispatched = seq
		s.Pending = &PendingFetch{
			Seq:      seq,
			Bounds:   s.AOI.Bounds,
			From:     s.From,
			To:       s.To,
			ScriptID: s.ScriptID,
		}
		return s, StartFetch{
			Seq:      seq,
			AOI:      s.AOI,
			From:     s.From,
			To:       s.To,
			ScriptID: s.ScriptID,
		}

	case FetchSucceeded:
		if s.Pending == nil || event.Seq != s.Pending.Seq {
			return s, DiscardStale{Seq: event.Seq}
		}
		result := &ImageryResult{
			Seq:         event.Seq,
			Bounds:      s.Pending.Bounds,
			From:        s.Pending.From,
			To:          s.Pending.To,
			ScriptID:    s.Pending.ScriptID,
			ContentType: event.ContentType,
			Data:        event.Data,
		}
		s.Pending = nil
		s.Result = result
		return s, ShowResult{Result: result}

	case FetchFailed:
		if s.Pending == nil || event.Seq != s.Pending.Seq {
			return s, DiscardStale{Seq: event.Seq}
		}
		s.Pending = nil
		return s, ReportError{Seq: event.Seq, Err: event.Err}
	}

	return s, nil
}
