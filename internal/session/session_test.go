package session

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"

	"sentinel-desktop/internal/aoi"
	"sentinel-desktop/internal/geometry"
	"sentinel-desktop/internal/process"
)

func testAOI(t *testing.T, south, west, north, east float64) *aoi.AOI {
	t.Helper()

	ring := orb.Ring{
		{west, south}, {east, south}, {east, north}, {west, north}, {west, south},
	}
	parsed := &aoi.AOI{
		Geometry: orb.Polygon{ring},
		Bounds:   geometry.BoundingBox{South: south, West: west, North: north, East: east},
	}
	return parsed
}

func TestAOISelection(t *testing.T) {
	area := testAOI(t, 10, 20, 30, 40)

	state, effect := Apply(State{}, AOISelected{AOI: area})

	if state.AOI != area {
		t.Error("state does not carry the selected AOI")
	}
	changed, ok := effect.(AOIChanged)
	if !ok {
		t.Fatalf("effect = %T, want AOIChanged", effect)
	}
	if changed.AOI != area {
		t.Error("effect does not carry the selected AOI")
	}
}

func TestAOICleared(t *testing.T) {
	state := State{AOI: testAOI(t, 0, 0, 1, 1)}

	state, effect := Apply(state, AOICleared{})

	if state.AOI != nil {
		t.Error("AOI still set after clear")
	}
	changed, ok := effect.(AOIChanged)
	if !ok {
		t.Fatalf("effect = %T, want AOIChanged", effect)
	}
	if changed.AOI != nil {
		t.Error("clear effect should carry a nil AOI")
	}
}

func TestFetchWithoutAOIRejected(t *testing.T) {
	state := State{ScriptID: "true-color", From: "2024-05-01", To: "2024-05-31"}

	next, effect := Apply(state, FetchRequested{})

	reject, ok := effect.(RejectFetch)
	if !ok {
		t.Fatalf("effect = %T, want RejectFetch", effect)
	}
	if !errors.Is(reject.Err, process.ErrNoAOI) {
		t.Errorf("reject error = %v, want ErrNoAOI", reject.Err)
	}
	if next.Dispatched != 0 {
		t.Errorf("dispatched = %d, want 0 after a rejected fetch", next.Dispatched)
	}
	if next.Pending != nil {
		t.Error("rejected fetch must not leave a pending entry")
	}
}

func TestFetchDispatch(t *testing.T) {
	state := State{
		AOI:      testAOI(t, 10, 20, 30, 40),
		ScriptID: "ndvi",
		From:     "2024-05-01",
		To:       "2024-05-31",
	}

	state, effect := Apply(state, FetchRequested{})

	start, ok := effect.(StartFetch)
	if !ok {
		t.Fatalf("effect = %T, want StartFetch", effect)
	}
	if start.Seq != 1 {
		t.Errorf("seq = %d, want 1", start.Seq)
	}
	if start.ScriptID != "ndvi" || start.From != "2024-05-01" || start.To != "2024-05-31" {
		t.Errorf("start carries %q %q..%q, want the session inputs", start.ScriptID, start.From, start.To)
	}
	if !state.Fetching() {
		t.Error("state should report an in-flight fetch")
	}

	want := geometry.BoundingBox{South: 10, West: 20, North: 30, East: 40}
	if state.Pending.Bounds != want {
		t.Errorf("pending bounds = %+v, want %+v", state.Pending.Bounds, want)
	}
}

func TestSequenceNumbersIncrease(t *testing.T) {
	state := State{AOI: testAOI(t, 0, 0, 1, 1)}

	state, first := Apply(state, FetchRequested{})
	state, second := Apply(state, FetchRequested{})

	if first.(StartFetch).Seq != 1 || second.(StartFetch).Seq != 2 {
		t.Errorf("seqs = %d, %d, want 1, 2", first.(StartFetch).Seq, second.(StartFetch).Seq)
	}
	if state.Dispatched != 2 {
		t.Errorf("dispatched = %d, want 2", state.Dispatched)
	}
}

// The overlay must stay at the bounds captured when the fetch went out,
// even if the user picked a different AOI while it was in flight.
func TestResultKeepsDispatchBounds(t *testing.T) {
	first := testAOI(t, 10, 20, 30, 40)
	second := testAOI(t, -5, -5, 5, 5)

	state, _ := Apply(State{}, AOISelected{AOI: first})
	state, effect := Apply(state, FetchRequested{})
	seq := effect.(StartFetch).Seq

	// AOI changes while the fetch is still in flight
	state, _ = Apply(state, AOISelected{AOI: second})

	state, effect = Apply(state, FetchSucceeded{Seq: seq, Data: []byte{1}, ContentType: "image/png"})

	show, ok := effect.(ShowResult)
	if !ok {
		t.Fatalf("effect = %T, want ShowResult", effect)
	}
	want := geometry.BoundingBox{South: 10, West: 20, North: 30, East: 40}
	if show.Result.Bounds != want {
		t.Errorf("result bounds = %+v, want the dispatch-time %+v", show.Result.Bounds, want)
	}
	if state.AOI != second {
		t.Error("current AOI should remain the newer selection")
	}
}

// When two fetches overlap, only the newest one may paint the screen
func TestStaleResultDiscarded(t *testing.T) {
	state := State{AOI: testAOI(t, 0, 0, 1, 1)}

	state, first := Apply(state, FetchRequested{})
	state, second := Apply(state, FetchRequested{})

	state, effect := Apply(state, FetchSucceeded{
		Seq: first.(StartFetch).Seq, Data: []byte{1}, ContentType: "image/png",
	})
	if _, ok := effect.(DiscardStale); !ok {
		t.Fatalf("effect = %T, want DiscardStale for the superseded fetch", effect)
	}
	if state.Result != nil {
		t.Error("stale result must not be displayed")
	}

	state, effect = Apply(state, FetchSucceeded{
		Seq: second.(StartFetch).Seq, Data: []byte{2}, ContentType: "image/png",
	})
	show, ok := effect.(ShowResult)
	if !ok {
		t.Fatalf("effect = %T, want ShowResult for the newest fetch", effect)
	}
	if show.Result.Seq != second.(StartFetch).Seq {
		t.Errorf("shown seq = %d, want %d", show.Result.Seq, second.(StartFetch).Seq)
	}
	if state.Result != show.Result {
		t.Error("state should keep the shown result")
	}
}

func TestFetchFailureKeepsPriorResult(t *testing.T) {
	state := State{AOI: testAOI(t, 0, 0, 1, 1)}

	state, effect := Apply(state, FetchRequested{})
	seq := effect.(StartFetch).Seq
	state, _ = Apply(state, FetchSucceeded{Seq: seq, Data: []byte{1}, ContentType: "image/png"})
	prior := state.Result

	state, effect = Apply(state, FetchRequested{})
	seq = effect.(StartFetch).Seq

	state, effect = Apply(state, FetchFailed{Seq: seq, Err: errors.New("upstream said no")})

	report, ok := effect.(ReportError)
	if !ok {
		t.Fatalf("effect = %T, want ReportError", effect)
	}
	if report.Seq != seq {
		t.Errorf("reported seq = %d, want %d", report.Seq, seq)
	}
	if state.Result != prior {
		t.Error("a failed fetch must not replace the displayed result")
	}
	if state.Fetching() {
		t.Error("failed fetch should clear the pending entry")
	}
}

func TestStaleFailureIgnored(t *testing.T) {
	state := State{AOI: testAOI(t, 0, 0, 1, 1)}

	state, first := Apply(state, FetchRequested{})
	state, _ = Apply(state, FetchRequested{})

	state, effect := Apply(state, FetchFailed{
		Seq: first.(StartFetch).Seq, Err: errors.New("slow failure"),
	})
	if _, ok := effect.(DiscardStale); !ok {
		t.Fatalf("effect = %T, want DiscardStale", effect)
	}
	if !state.Fetching() {
		t.Error("newest fetch should still be pending")
	}
}

func TestScriptAndDateEvents(t *testing.T) {
	state, effect := Apply(State{}, ScriptSelected{ID: "swir"})
	if effect != nil {
		t.Errorf("effect = %T, want nil", effect)
	}
	state, _ = Apply(state, DateRangeSet{From: "2024-01-01", To: "2024-02-01"})

	if state.ScriptID != "swir" {
		t.Errorf("script = %q, want swir", state.ScriptID)
	}
	if state.From != "2024-01-01" || state.To != "2024-02-01" {
		t.Errorf("dates = %q..%q, want the set range", state.From, state.To)
	}
}
