package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"sync"
	"time"

	"github.com/posthog/posthog-go"
	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"sentinel-desktop/internal/aoi"
	"sentinel-desktop/internal/cache"
	"sentinel-desktop/internal/common"
	"sentinel-desktop/internal/config"
	"sentinel-desktop/internal/evalscript"
	"sentinel-desktop/internal/export"
	"sentinel-desktop/internal/geometry"
	"sentinel-desktop/internal/handlers/resultserver"
	"sentinel-desktop/internal/history"
	"sentinel-desktop/internal/imagery"
	"sentinel-desktop/internal/process"
	"sentinel-desktop/internal/ratelimit"
	"sentinel-desktop/internal/session"
	"sentinel-desktop/internal/utils/naming"
)

// Linker flags
var (
	PostHogKey  string
	PostHogHost string
	AppVersion  string = "0.0.0-dev"
)

// AOIView is the frontend-facing summary of the current area of interest
type AOIView struct {
	GeoJSON string               `json:"geojson"`
	Bounds  geometry.BoundingBox `json:"bounds"`
	// LatLng holds [[southLat,westLng],[northLat,eastLng]] ready for the
	// map widget, which wants latitude first
	LatLng [2][2]float64 `json:"latLng"`
	// Center is the box midpoint as [lat, lng]
	Center [2]float64 `json:"center"`
}

// ImageryReady is emitted to the frontend when a fetch resolves. Bounds are
// the AOI bounds captured at dispatch, in both axis orders.
type ImageryReady struct {
	Seq         uint64               `json:"seq"`
	URL         string               `json:"url"`
	Bounds      geometry.BoundingBox `json:"bounds"`
	LatLng      [2][2]float64        `json:"latLng"`
	ContentType string               `json:"contentType"`
	FromCache   bool                 `json:"fromCache"`
}

// App struct
type App struct {
	ctx          context.Context
	mu           sync.Mutex
	devMode      bool // Enable verbose logging in dev mode only
	settings     *config.UserSettings
	scripts      []evalscript.Script
	state        session.State
	client       *process.Client
	resultCache  *cache.ResultCache
	fetchHistory *history.Store
	rateLimits   *ratelimit.Handler
	resultServer *resultserver.Server
	batch        *imagery.BatchFetcher
	phClient     posthog.Client
}

// NewApp creates a new App application struct
func NewApp() *App {
	// Load user settings
	settings, err := config.LoadSettings()
	if err != nil {
		log.Printf("Failed to load settings, using defaults: %v", err)
		settings = config.DefaultSettings()
	}
	log.Printf("Settings loaded from: %s", config.GetSettingsPath())

	// Load the script catalog and merge user-defined entries
	builtin, err := evalscript.BuiltIn()
	if err != nil {
		log.Printf("Failed to load script catalog: %v", err)
	}
	scripts := evalscript.Merge(builtin, customScripts(settings))

	// Initialize the result cache with settings
	cacheDir := cache.GetCacheDir()
	resultCache, err := cache.NewResultCache(cacheDir, &cache.Config{
		MaxSizeMB: settings.CacheMaxSizeMB,
		TTLDays:   settings.CacheTTLDays,
	})
	if err != nil {
		log.Printf("Failed to initialize result cache: %v", err)
		resultCache = nil // Continue without cache
	} else {
		log.Printf("Result cache initialized at %s (max %d MB)", cacheDir, settings.CacheMaxSizeMB)
	}

	// Initialize PostHog
	var phClient posthog.Client
	if PostHogKey != "" {
		phConfig := posthog.Config{
			Endpoint: PostHogHost,
		}
		client, err := posthog.NewWithConfig(PostHogKey, phConfig)
		if err != nil {
			log.Printf("Failed to initialize PostHog: %v", err)
		} else {
			phClient = client
		}
	}

	a := &App{
		settings:     settings,
		scripts:      scripts,
		resultCache:  resultCache,
		fetchHistory: history.NewStore(config.GetHistoryDir()),
		rateLimits:   ratelimit.NewHandler(nil),
		phClient:     phClient,
		state: session.State{
			ScriptID: settings.DefaultScriptID,
		},
	}
	a.rebuildClientLocked()
	a.batch = imagery.NewBatchFetcher(settings.BatchWorkers, a.client)

	return a
}

// customScripts converts settings entries into catalog scripts
func customScripts(settings *config.UserSettings) []evalscript.Script {
	scripts := make([]evalscript.Script, 0, len(settings.CustomScripts))
	for _, s := range settings.CustomScripts {
		scripts = append(scripts, evalscript.Script{
			ID:          s.ID,
			Name:        s.Name,
			IconURL:     s.IconURL,
			Description: s.Description,
			Source:      s.Source,
		})
	}
	return scripts
}

// rebuildClientLocked builds the process client from current settings.
// Caller holds a.mu (or is still single-threaded in NewApp).
func (a *App) rebuildClientLocked() {
	var tokens process.TokenSource
	switch a.settings.AuthMode {
	case config.AuthModeEndpoint:
		tokens = process.NewEndpointTokenSource(a.settings.TokenEndpoint)
	case config.AuthModeStatic:
		tokens = process.StaticTokenSource(a.settings.StaticToken)
	default:
		tokens = process.NewClientCredentialsTokenSource(
			a.settings.ResolveTokenURL(), a.settings.ClientID, a.settings.ClientSecret)
	}

	client := process.NewClient(a.settings.ResolveProcessEndpoint(), tokens)
	provider := a.settings.Provider
	client.SetOnRateLimited(func(retryAfter time.Duration) {
		a.rateLimits.RecordRateLimit(provider, 429, retryAfter)
	})
	a.client = client
	if a.batch != nil {
		a.batch = imagery.NewBatchFetcher(a.settings.BatchWorkers, client)
	}
}

// startup is called when the app starts
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	// Create download directory if it doesn't exist
	os.MkdirAll(a.settings.DownloadPath, 0755)

	// Start the local result bridge so the map can load rasters by URL
	a.resultServer = resultserver.NewServer(a.resolveResult, a.resolveAOI, a.devMode)
	if err := a.resultServer.Start(); err != nil {
		wailsRuntime.LogError(ctx, fmt.Sprintf("Failed to start result server: %v", err))
	}

	// Forward rate limit state to the frontend
	a.rateLimits.SetOnRateLimit(func(event ratelimit.RateLimitEvent) {
		wailsRuntime.EventsEmit(ctx, "rate-limit-update", event)
	})
	a.rateLimits.SetOnCleared(func(provider string) {
		wailsRuntime.EventsEmit(ctx, "rate-limit-cleared", provider)
	})

	// Batch progress to the frontend
	a.batch.SetOnProgress(func(progress imagery.BatchProgress) {
		wailsRuntime.EventsEmit(ctx, "batch-progress", progress)
	})

	// Track app start
	a.TrackEvent("app_started", map[string]interface{}{
		"version": a.GetAppVersion(),
		"os":      goruntime.GOOS,
		"arch":    goruntime.GOARCH,
	})
}

// TrackEvent sends an event to PostHog
func (a *App) TrackEvent(event string, props map[string]interface{}) {
	if a.phClient != nil {
		a.phClient.Enqueue(posthog.Capture{
			DistinctId: "backend_user",
			Event:      event,
			Properties: props,
		})
	}
}

// Shutdown cleans up resources
func (a *App) Shutdown(ctx context.Context) {
	if a.rateLimits != nil {
		a.rateLimits.Close()
	}
	if a.phClient != nil {
		a.phClient.Close()
	}
}

// GetAppVersion returns the current application version
func (a *App) GetAppVersion() string {
	return AppVersion
}

// emitLog sends a log message to the frontend (only in dev mode)
func (a *App) emitLog(message string) {
	if a.devMode {
		wailsRuntime.EventsEmit(a.ctx, "fetch-log", message)
	}
}

// resolveResult serves the result bridge. "current" maps to the session's
// displayed result, anything else is looked up in the cache by key.
func (a *App) resolveResult(id string) ([]byte, string, bool) {
	if id == "current" {
		a.mu.Lock()
		result := a.state.Result
		a.mu.Unlock()
		if result == nil {
			return nil, "", false
		}
		return result.Data, result.ContentType, true
	}

	if a.resultCache == nil {
		return nil, "", false
	}
	return a.resultCache.Get(id)
}

// resolveAOI serves the current area of interest as GeoJSON
func (a *App) resolveAOI() ([]byte, bool) {
	a.mu.Lock()
	area := a.state.AOI
	a.mu.Unlock()
	if area == nil {
		return nil, false
	}

	data, err := json.Marshal(area.GeoJSON())
	if err != nil {
		return nil, false
	}
	return data, true
}

// ==================
// AOI management
// ==================

// applyAOI runs the session transition for a freshly built AOI and notifies
// the map. Caller does not hold a.mu.
func (a *App) applyAOI(area *aoi.AOI) AOIView {
	a.mu.Lock()
	newState, effect := session.Apply(a.state, session.AOISelected{AOI: area})
	a.state = newState
	a.mu.Unlock()

	view := aoiView(area)
	if changed, ok := effect.(session.AOIChanged); ok && changed.AOI != nil {
		wailsRuntime.EventsEmit(a.ctx, "aoi-changed", view)
	}
	log.Printf("[AOI] Selected: S=%.4f W=%.4f N=%.4f E=%.4f",
		area.Bounds.South, area.Bounds.West, area.Bounds.North, area.Bounds.East)
	return view
}

func aoiView(area *aoi.AOI) AOIView {
	geo, _ := json.Marshal(area.GeoJSON())
	lat, lng := area.Bounds.Center()
	return AOIView{
		GeoJSON: string(geo),
		Bounds:  area.Bounds,
		LatLng:  area.Bounds.LatLngPairs(),
		Center:  [2]float64{lat, lng},
	}
}

// SetDrawnAOI consumes a finished draw event from the map widget. The shape
// arrives as GeoJSON text.
func (a *App) SetDrawnAOI(geojsonText string) (*AOIView, error) {
	area, err := aoi.FromDrawn([]byte(geojsonText))
	if err != nil {
		log.Printf("[AOI] Rejected drawn shape: %v", err)
		return nil, err
	}

	view := a.applyAOI(area)
	a.TrackEvent("aoi_selected", map[string]interface{}{"channel": "draw"})
	return &view, nil
}

// ImportAOIFile consumes a single uploaded file of the declared MIME type
func (a *App) ImportAOIFile(name, declaredType string, data []byte) (*AOIView, error) {
	area, err := aoi.FromFile(name, declaredType, data)
	if err != nil {
		log.Printf("[AOI] Rejected file %s: %v", name, err)
		return nil, err
	}

	view := a.applyAOI(area)
	a.TrackEvent("aoi_selected", map[string]interface{}{"channel": "file"})
	return &view, nil
}

// ImportAOIArchive consumes an uploaded ZIP of geodata files
func (a *App) ImportAOIArchive(name string, data []byte) (*AOIView, error) {
	area, err := aoi.FromArchive(data)
	if err != nil {
		log.Printf("[AOI] Rejected archive %s: %v", name, err)
		return nil, err
	}

	view := a.applyAOI(area)
	a.TrackEvent("aoi_selected", map[string]interface{}{"channel": "archive"})
	return &view, nil
}

// ClearAOI removes the current area of interest. The displayed imagery, if
// any, stays on the map.
func (a *App) ClearAOI() {
	a.mu.Lock()
	newState, _ := session.Apply(a.state, session.AOICleared{})
	a.state = newState
	a.mu.Unlock()

	wailsRuntime.EventsEmit(a.ctx, "aoi-changed", nil)
	log.Printf("[AOI] Cleared")
}

// GetCurrentAOI returns the current area of interest, or nil when none is set
func (a *App) GetCurrentAOI() *AOIView {
	a.mu.Lock()
	area := a.state.AOI
	a.mu.Unlock()

	if area == nil {
		return nil
	}
	view := aoiView(area)
	return &view
}

// ExportAOI saves the current area of interest to the download folder.
// Format is "geojson" or "kml".
func (a *App) ExportAOI(format string) (string, error) {
	a.mu.Lock()
	area := a.state.AOI
	downloadPath := a.settings.DownloadPath
	a.mu.Unlock()

	if area == nil {
		return "", process.ErrNoAOI
	}

	var path string
	var err error
	switch format {
	case "kml":
		path, err = export.SaveAOIKML(downloadPath, area)
	case "geojson":
		path, err = export.SaveAOIGeoJSON(downloadPath, area)
	default:
		return "", fmt.Errorf("invalid AOI export format: %s (must be geojson or kml)", format)
	}
	if err != nil {
		return "", err
	}

	log.Printf("[AOI] Exported to %s", path)
	return path, nil
}

// ==================
// Script catalog
// ==================

// GetEvalscripts returns the catalog in display order, built-ins first
func (a *App) GetEvalscripts() []evalscript.Script {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]evalscript.Script, len(a.scripts))
	copy(out, a.scripts)
	return out
}

// SelectEvalscript picks the script used by the next fetch
func (a *App) SelectEvalscript(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := evalscript.Find(a.scripts, id); err != nil {
		return err
	}

	newState, _ := session.Apply(a.state, session.ScriptSelected{ID: id})
	a.state = newState
	return nil
}

// SetDateRange picks the from/to dates (YYYY-MM-DD) for the next fetch. The
// dates expand here to the first and last whole second of their days; the
// process layer passes the expanded instants through verbatim.
func (a *App) SetDateRange(fromDate, toDate string) error {
	from, err := common.DayStartRFC3339(fromDate)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	to, err := common.DayEndRFC3339(toDate)
	if err != nil {
		return fmt.Errorf("invalid end date: %w", err)
	}
	if to < from {
		return fmt.Errorf("end date %s is before start date %s", toDate, fromDate)
	}

	a.mu.Lock()
	newState, _ := session.Apply(a.state, session.DateRangeSet{From: from, To: to})
	a.state = newState
	a.mu.Unlock()
	return nil
}

// ==================
// Fetching
// ==================

// FetchImagery dispatches one imagery fetch for the current AOI, script and
// date range. The call returns once the fetch is dispatched; the result
// arrives as an imagery-ready or imagery-error event.
func (a *App) FetchImagery() error {
	a.mu.Lock()

	// Fetch the state once: the cooldown may expire between a limited
	// check and the state read.
	if limited := a.rateLimits.GetCurrentState(a.settings.Provider); a.state.AOI != nil && limited != nil {
		a.mu.Unlock()
		return fmt.Errorf("%s", limited.Message)
	}

	script, err := evalscript.Find(a.scripts, a.state.ScriptID)
	if err == nil && a.state.From == "" {
		err = fmt.Errorf("no date range selected")
	}
	if err != nil && a.state.AOI != nil {
		a.mu.Unlock()
		return err
	}

	newState, effect := session.Apply(a.state, session.FetchRequested{})
	a.state = newState
	// Captured under the lock: SaveSettings swaps both pointers, and the
	// fetch goroutine must see one consistent pair.
	settings := a.settings
	client := a.client
	a.mu.Unlock()

	switch eff := effect.(type) {
	case session.RejectFetch:
		log.Printf("[Process] Fetch rejected: %v", eff.Err)
		return eff.Err

	case session.StartFetch:
		record := history.NewRecord(eff.Seq, settings.Provider, eff.ScriptID, eff.From, eff.To, eff.AOI.Bounds)
		if err := a.fetchHistory.Save(record); err != nil {
			log.Printf("[History] Failed to save record: %v", err)
		}

		a.emitLog(fmt.Sprintf("Fetch %d dispatched (%s, %s to %s)", eff.Seq, eff.ScriptID, eff.From, eff.To))
		go a.runFetch(eff, script, settings, client, record)
		return nil
	}

	return nil
}

// runFetch performs one dispatched fetch off the UI thread. It works on
// the settings and client captured at dispatch so a concurrent settings
// save cannot swap them mid-fetch.
func (a *App) runFetch(fetch session.StartFetch, script evalscript.Script, settings *config.UserSettings, client *process.Client, record *history.Record) {
	params := process.FetchParams{
		Geometry:         fetch.AOI.GeoJSON(),
		From:             fetch.From,
		To:               fetch.To,
		Evalscript:       script.Source,
		MosaickingOrder:  settings.MosaickingOrder,
		MaxCloudCoverage: cloudCoverage(settings),
	}

	key, keyErr := cache.Key(client.Endpoint(), params)

	// Cache first; a hit resolves without network traffic
	if keyErr == nil && a.resultCache != nil {
		if data, contentType, ok := a.resultCache.Get(key); ok {
			a.emitLog(fmt.Sprintf("Fetch %d served from cache", fetch.Seq))
			a.resolveFetch(fetch.Seq, data, contentType, key, settings, record, true)
			return
		}
	}

	result, err := client.Fetch(params)
	if err != nil {
		a.failFetch(fetch.Seq, err, settings, record)
		return
	}

	a.rateLimits.RecordSuccess(settings.Provider)

	if keyErr == nil && a.resultCache != nil {
		cacheErr := a.resultCache.Set(key, cache.ResultMetadata{
			Provider:    settings.Provider,
			ScriptID:    record.ScriptID,
			From:        fetch.From,
			To:          fetch.To,
			ContentType: result.ContentType,
		}, result.Data)
		if cacheErr != nil {
			log.Printf("[Cache] Failed to store result: %v", cacheErr)
		}
	}

	a.resolveFetch(fetch.Seq, result.Data, result.ContentType, key, settings, record, false)
}

// resolveFetch applies a successful resolution. Stale sequences are
// discarded by the session transition.
func (a *App) resolveFetch(seq uint64, data []byte, contentType, cacheKey string, settings *config.UserSettings, record *history.Record, fromCache bool) {
	a.mu.Lock()
	newState, effect := session.Apply(a.state, session.FetchSucceeded{
		Seq:         seq,
		Data:        data,
		ContentType: contentType,
	})
	a.state = newState
	a.mu.Unlock()

	switch eff := effect.(type) {
	case session.ShowResult:
		record.MarkSucceeded(cacheKey, contentType)
		if err := a.fetchHistory.Save(record); err != nil {
			log.Printf("[History] Failed to update record: %v", err)
		}
		if err := a.fetchHistory.Prune(settings.HistoryMaxEntries); err != nil {
			log.Printf("[History] Failed to prune: %v", err)
		}

		wailsRuntime.EventsEmit(a.ctx, "imagery-ready", ImageryReady{
			Seq:         eff.Result.Seq,
			URL:         a.resultServer.ResultURL("current"),
			Bounds:      eff.Result.Bounds,
			LatLng:      eff.Result.Bounds.LatLngPairs(),
			ContentType: eff.Result.ContentType,
			FromCache:   fromCache,
		})
		log.Printf("[Process] Fetch %d resolved (%d bytes)", seq, len(data))
		a.TrackEvent("fetch_complete", map[string]interface{}{
			"provider":  settings.Provider,
			"script":    record.ScriptID,
			"fromCache": fromCache,
			"bytes":     len(data),
		})

	case session.DiscardStale:
		// A newer fetch was dispatched while this one was in flight
		record.MarkSucceeded(cacheKey, contentType)
		if err := a.fetchHistory.Save(record); err != nil {
			log.Printf("[History] Failed to update record: %v", err)
		}
		log.Printf("[Process] Discarding stale result for fetch %d", seq)
	}
}

// failFetch applies a failed resolution
func (a *App) failFetch(seq uint64, fetchErr error, settings *config.UserSettings, record *history.Record) {
	a.mu.Lock()
	newState, effect := session.Apply(a.state, session.FetchFailed{Seq: seq, Err: fetchErr})
	a.state = newState
	a.mu.Unlock()

	record.MarkFailed(fetchErr)
	if err := a.fetchHistory.Save(record); err != nil {
		log.Printf("[History] Failed to update record: %v", err)
	}

	switch eff := effect.(type) {
	case session.ReportError:
		wailsRuntime.EventsEmit(a.ctx, "imagery-error", map[string]interface{}{
			"seq":   eff.Seq,
			"error": eff.Err.Error(),
		})
		log.Printf("[Process] Fetch %d failed: %v", seq, fetchErr)
		a.TrackEvent("fetch_failed", map[string]interface{}{
			"provider": settings.Provider,
			"error":    fetchErr.Error(),
		})

	case session.DiscardStale:
		log.Printf("[Process] Discarding stale failure for fetch %d", seq)
	}
}

func cloudCoverage(settings *config.UserSettings) *float64 {
	if settings.MaxCloudCoverage >= 100 {
		return nil
	}
	v := settings.MaxCloudCoverage
	return &v
}

// FetchTimeRange fetches one rendered frame per step across the selected
// date range and saves each frame to the download folder. This is the
// timelapse path; it bypasses the single-result display.
func (a *App) FetchTimeRange(fromDate, toDate string, stepCount int) ([]string, error) {
	a.mu.Lock()
	area := a.state.AOI
	scriptID := a.state.ScriptID
	settings := a.settings
	a.mu.Unlock()

	if area == nil {
		return nil, process.ErrNoAOI
	}
	if limited := a.rateLimits.GetCurrentState(settings.Provider); limited != nil {
		return nil, fmt.Errorf("%s", limited.Message)
	}

	script, err := evalscript.Find(a.scripts, scriptID)
	if err != nil {
		return nil, err
	}

	steps, err := imagery.PlanSteps(fromDate, toDate, stepCount)
	if err != nil {
		return nil, err
	}

	if days, err := imagery.StepDays(steps[0]); err == nil {
		a.emitLog(fmt.Sprintf("Batch fetch: %d steps of ~%d days from %s to %s",
			len(steps), days, fromDate, toDate))
	}

	results, err := a.batch.FetchAll(imagery.BatchParams{
		Geometry:         area.GeoJSON(),
		Steps:            steps,
		Evalscript:       script.Source,
		MosaickingOrder:  settings.MosaickingOrder,
		MaxCloudCoverage: cloudCoverage(settings),
	})
	if err != nil {
		return nil, err
	}

	format, err := common.ParseExportFormat(settings.ExportFormat)
	if err != nil {
		format = common.ExportFormat{SaveRaster: true, SaveWorldFile: true}
	}

	// Each batch gets its own subdirectory so step frames stay together
	batchDir := filepath.Join(settings.DownloadPath,
		naming.GenerateBatchDirName(settings.Provider, scriptID, fromDate, toDate))

	bounds := area.Bounds
	var saved []string
	failed := 0
	for _, step := range results {
		if !step.Success {
			failed++
			a.emitLog(fmt.Sprintf("Step %s failed: %v", step.From, step.Error))
			continue
		}
		paths, err := export.SaveResult(batchDir, settings.Provider, &session.ImageryResult{
			Bounds:      bounds,
			From:        step.From,
			To:          step.To,
			ScriptID:    scriptID,
			ContentType: step.ContentType,
			Data:        step.Data,
		}, format)
		if err != nil {
			failed++
			log.Printf("[Batch] Failed to save step %s: %v", step.From, err)
			continue
		}
		saved = append(saved, paths...)
	}

	log.Printf("[Batch] %d/%d steps saved (%d failed)", len(results)-failed, len(results), failed)
	a.TrackEvent("batch_complete", map[string]interface{}{
		"provider": settings.Provider,
		"steps":    len(results),
		"failed":   failed,
	})

	if settings.AutoOpenAfter && len(saved) > 0 {
		if err := a.OpenDownloadFolder(); err != nil {
			log.Printf("Failed to open download folder: %v", err)
		}
	}

	return saved, nil
}

// ==================
// Results
// ==================

// SaveResult writes the currently displayed raster and its georeferencing
// sidecars to the download folder
func (a *App) SaveResult() ([]string, error) {
	a.mu.Lock()
	result := a.state.Result
	settings := a.settings
	a.mu.Unlock()

	if result == nil {
		return nil, fmt.Errorf("no result to save")
	}

	format, err := common.ParseExportFormat(settings.ExportFormat)
	if err != nil {
		return nil, err
	}

	paths, err := export.SaveResult(settings.DownloadPath, settings.Provider, result, format)
	if err != nil {
		return nil, err
	}
	log.Printf("[Export] Saved %d files", len(paths))

	if settings.AutoOpenAfter {
		if err := a.OpenDownloadFolder(); err != nil {
			log.Printf("Failed to open download folder: %v", err)
		}
	}

	return paths, nil
}

// GetFetchHistory returns past fetches, newest first
func (a *App) GetFetchHistory() ([]*history.Record, error) {
	return a.fetchHistory.List()
}

// ShowHistoryResult re-displays a past fetch from the cache. Returns the
// bridge URL and emits imagery-ready with the recorded bounds.
func (a *App) ShowHistoryResult(id string) (string, error) {
	record, err := a.fetchHistory.Load(id)
	if err != nil {
		return "", err
	}
	if record.Status != history.StatusSucceeded || record.CacheKey == "" {
		return "", fmt.Errorf("record %s has no stored raster", id)
	}
	if a.resultCache == nil {
		return "", fmt.Errorf("result cache is unavailable")
	}

	_, contentType, ok := a.resultCache.Get(record.CacheKey)
	if !ok {
		return "", fmt.Errorf("raster for record %s has been evicted from the cache", id)
	}

	url := a.resultServer.ResultURL(record.CacheKey)
	wailsRuntime.EventsEmit(a.ctx, "imagery-ready", ImageryReady{
		Seq:         record.Seq,
		URL:         url,
		Bounds:      record.Bounds,
		LatLng:      record.Bounds.LatLngPairs(),
		ContentType: contentType,
		FromCache:   true,
	})
	return url, nil
}

// DeleteHistoryEntry removes one record from the fetch history
func (a *App) DeleteHistoryEntry(id string) error {
	return a.fetchHistory.Delete(id)
}

// ==================
// Folders
// ==================

// SelectDownloadFolder opens a folder picker dialog
func (a *App) SelectDownloadFolder() (string, error) {
	a.mu.Lock()
	current := a.settings.DownloadPath
	a.mu.Unlock()

	path, err := wailsRuntime.OpenDirectoryDialog(a.ctx, wailsRuntime.OpenDialogOptions{
		Title:            "Select Download Folder",
		DefaultDirectory: current,
	})
	if err != nil {
		return "", err
	}

	if path != "" {
		a.mu.Lock()
		a.settings.DownloadPath = path
		err = config.SaveSettings(a.settings)
		a.mu.Unlock()
		if err != nil {
			return "", err
		}
	}

	return path, nil
}

// OpenDownloadFolder opens the download folder in the system file manager
func (a *App) OpenDownloadFolder() error {
	a.mu.Lock()
	path := a.settings.DownloadPath
	a.mu.Unlock()
	return a.OpenFolder(path)
}

// OpenFolder opens a specific folder in the OS file explorer
func (a *App) OpenFolder(path string) error {
	// Verify the path exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("folder does not exist: %s", path)
	}

	var cmd *exec.Cmd
	switch goruntime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("explorer", path)
	default: // Linux and others
		cmd = exec.Command("xdg-open", path)
	}
	return cmd.Start()
}
