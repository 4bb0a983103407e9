// Package risk is a supplemented trajectory/approach heuristic: it
// observes bbox frames as they are enqueued (internal/bbox), tracks each
// vehicle's recent centroid history, and flags a vehicle whose distance to
// the baseline dots' centroid has shrunk by at least the distance
// threshold, when the vector from the dot nearest its oldest position to
// that centroid is near-parallel to a configured rule line. The vehicle's
// own heading is not compared. It never gates, delays, or filters bbox
// delivery — it is a passive observer.
//
// Grounded on original_source/metadata/logic.cpp's
// update_vehicle_positions / analyze_risk_and_alert /
// compute_cosine_similarity; CenterOfGravity there is the XML stream's
// own field, here it is adapted to the bbox centroid ((left+right)/2,
// (top+bottom)/2) since C6's extraction only carries the bounding box.
package risk

import (
	"math"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/fryholic/cctv-coordinator/internal/auditlog"
	"github.com/fryholic/cctv-coordinator/internal/metadata"
)

// Point is a 2D pixel coordinate.
type Point struct {
	X float64
	Y float64
}

// Line is a configured rule line a vehicle may be judged to be
// approaching in parallel.
type Line struct {
	Name  string
	Start Point
	End   Point
}

func (l Line) vector() Point {
	return Point{X: l.End.X - l.Start.X, Y: l.End.Y - l.Start.Y}
}

// vehicleTypes accepted from the metadata stream's classifier output.
var vehicleTypes = map[string]bool{"Vehicle": true}

// trajectory is the bounded recent-position history of one tracked object.
type trajectory struct {
	history []Point
}

// Tracker evaluates incoming bbox frames against a set of configured
// baseline dots and rule lines.
type Tracker struct {
	mu sync.Mutex

	distThreshold        float64
	parallelismThreshold float64
	historySize          int

	dots      []Point
	dotCenter Point
	lines     []Line

	trajectories *lru.Cache[int, *trajectory]
	publisher    *auditlog.Publisher
}

// NewTracker builds a Tracker. frameCacheSize bounds the number of
// concurrently tracked objects (adapting the original's separate raw-XML
// frame cache into the trajectory cache's own eviction capacity);
// historySize bounds each trajectory's retained positions.
func NewTracker(distThreshold, parallelismThreshold float64, frameCacheSize, historySize int, publisher *auditlog.Publisher) (*Tracker, error) {
	cache, err := lru.New[int, *trajectory](frameCacheSize)
	if err != nil {
		return nil, err
	}
	return &Tracker{
		distThreshold:        distThreshold,
		parallelismThreshold: parallelismThreshold,
		historySize:          historySize,
		trajectories:         cache,
		publisher:            publisher,
	}, nil
}

// SetGeometry installs the baseline dots (their centroid is the
// approach-reference point) and the rule lines to evaluate against. Safe
// to call again if the store's configuration changes (e.g. after request
// 3's reconciliation).
func (t *Tracker) SetGeometry(dots []Point, lines []Line) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.dots = dots
	t.lines = lines
	t.dotCenter = centroid(dots)
}

func centroid(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}
	var sx, sy float64
	for _, p := range points {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(points))
	return Point{X: sx / n, Y: sy / n}
}

// Observe updates trajectory history from one bbox frame and evaluates
// every tracked vehicle against the configured lines.
func (t *Tracker) Observe(frame metadata.Frame) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.dots) == 0 {
		return // geometry not yet configured
	}

	for _, ev := range frame.Events {
		if !vehicleTypes[ev.Type] {
			continue
		}
		center := Point{X: float64(ev.Left+ev.Right) / 2, Y: float64(ev.Top+ev.Bottom) / 2}
		t.track(ev.ObjectID, center)
	}

	t.evaluateLocked()
}

func (t *Tracker) track(objectID int, center Point) {
	state, ok := t.trajectories.Get(objectID)
	if !ok {
		state = &trajectory{}
		t.trajectories.Add(objectID, state)
	}
	state.history = append(state.history, center)
	if len(state.history) > t.historySize {
		state.history = state.history[len(state.history)-t.historySize:]
	}
}

// evaluateLocked must be called with t.mu held.
func (t *Tracker) evaluateLocked() {
	for _, objectID := range t.trajectories.Keys() {
		state, ok := t.trajectories.Peek(objectID)
		if !ok || len(state.history) < 2 {
			continue
		}
		oldest := state.history[0]
		newest := state.history[len(state.history)-1]

		closest := t.closestDot(oldest)
		distOld := distance(oldest, t.dotCenter)
		distNew := distance(newest, t.dotCenter)
		if distNew > distOld-t.distThreshold {
			continue
		}

		vehicleVector := Point{X: t.dotCenter.X - closest.X, Y: t.dotCenter.Y - closest.Y}
		for _, line := range t.lines {
			similarity := cosineSimilarity(vehicleVector, line.vector())
			if math.Abs(similarity) >= t.parallelismThreshold {
				t.publish(objectID, line.Name, similarity)
			}
		}
	}
}

func (t *Tracker) closestDot(from Point) Point {
	closest := t.dots[0]
	minDistSq := math.MaxFloat64
	for _, dot := range t.dots {
		dx, dy := from.X-dot.X, from.Y-dot.Y
		d := dx*dx + dy*dy
		if d < minDistSq {
			minDistSq = d
			closest = dot
		}
	}
	return closest
}

func (t *Tracker) publish(objectID int, lineName string, similarity float64) {
	if t.publisher == nil {
		return
	}
	t.publisher.Publish(auditlog.NewEvent("risk_alert", map[string]any{
		"object_id":  objectID,
		"line":       lineName,
		"similarity": similarity,
	}))
}

func distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func cosineSimilarity(a, b Point) float64 {
	dot := a.X*b.X + a.Y*b.Y
	magA := math.Hypot(a.X, a.Y)
	magB := math.Hypot(b.X, b.Y)
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (magA * magB)
}
