package tlsserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fryholic/cctv-coordinator/internal/apperr"
	"github.com/fryholic/cctv-coordinator/internal/auditlog"
	"github.com/fryholic/cctv-coordinator/internal/cameraclient"
	"github.com/fryholic/cctv-coordinator/internal/risk"
	"github.com/fryholic/cctv-coordinator/internal/store"
)

type lineWire struct {
	Index int64  `json:"index"`
	X1    int64  `json:"x1"`
	Y1    int64  `json:"y1"`
	X2    int64  `json:"x2"`
	Y2    int64  `json:"y2"`
	Name  string `json:"name"`
	Mode  string `json:"mode"`
}

func toWire(l store.CrossLine) lineWire {
	return lineWire{Index: l.Index, X1: l.X1, Y1: l.Y1, X2: l.X2, Y2: l.Y2, Name: l.Name, Mode: string(l.Mode)}
}

func toLinesWire(lines []store.CrossLine) []lineWire {
	out := make([]lineWire, len(lines))
	for i, l := range lines {
		out[i] = toWire(l)
	}
	return out
}

// handleInsertLine is request 2: insert a CrossLine, and if the configured
// camera_type is "CCTV", push the line to the physical camera with
// coordinates scaled ×4 per spec.md §4.4.
func handleInsertLine(ctx context.Context, c *connection, data json.RawMessage) (int, any, error) {
	var in struct {
		lineWire
		CameraType string `json:"camera_type"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return 0, nil, apperr.Wrap(apperr.KindFraming, "decode request 2", err)
	}

	line := store.CrossLine{Index: in.Index, X1: in.X1, Y1: in.Y1, X2: in.X2, Y2: in.Y2, Name: in.Name, Mode: store.LineMode(in.Mode)}

	c.deps.Store.Mu.Lock()
	err := c.deps.Store.InsertLine(ctx, line)
	c.deps.Store.Mu.Unlock()
	if err != nil {
		return 0, nil, apperr.Wrap(apperr.KindStore, "insert line", err)
	}

	if in.CameraType == "CCTV" && c.deps.Camera != nil {
		_, status, err := c.deps.Camera.PutLines(ctx,
			line.Index, line.X1*4, line.Y1*4, line.X2*4, line.Y2*4, line.Name, string(line.Mode))
		mappingSuccess := err == nil && isSuccess(status)
		if !mappingSuccess {
			c.log.Warn().Err(err).Int("status", status).Msg("camera line mapping failed")
		}
		refreshRiskGeometry(ctx, c)
		return respMappingSuccess, map[string]any{"mapping_success": mappingSuccess}, nil
	}

	c.deps.Store.Mu.Lock()
	all, err := c.deps.Store.SelectAllLines(ctx)
	c.deps.Store.Mu.Unlock()
	if err != nil {
		return 0, nil, apperr.Wrap(apperr.KindStore, "select lines after insert", err)
	}
	refreshRiskGeometry(ctx, c)
	return respInsertLine, map[string]any{"lines": toLinesWire(all)}, nil
}

func isSuccess(status int) bool { return status >= 200 && status < 300 }

// refreshRiskGeometry reloads the baseline dots and rule lines from the
// store and reinstalls them on the risk tracker. Called after any request
// that changes the lines or baseLines tables, since the tracker only
// observes geometry it has been explicitly given.
func refreshRiskGeometry(ctx context.Context, c *connection) {
	if c.deps.Risk == nil {
		return
	}

	c.deps.Store.Mu.Lock()
	baseLines, err := c.deps.Store.SelectAllBaseLines(ctx)
	var lines []store.CrossLine
	if err == nil {
		lines, err = c.deps.Store.SelectAllLines(ctx)
	}
	c.deps.Store.Mu.Unlock()
	if err != nil {
		c.log.Warn().Err(err).Msg("refresh risk geometry")
		return
	}

	dots := make([]risk.Point, 0, len(baseLines)*2)
	for _, b := range baseLines {
		dots = append(dots,
			risk.Point{X: float64(b.X1), Y: float64(b.Y1)},
			risk.Point{X: float64(b.X2), Y: float64(b.Y2)},
		)
	}
	riskLines := make([]risk.Line, 0, len(lines))
	for _, l := range lines {
		riskLines = append(riskLines, risk.Line{
			Name:  l.Name,
			Start: risk.Point{X: float64(l.X1), Y: float64(l.Y1)},
			End:   risk.Point{X: float64(l.X2), Y: float64(l.Y2)},
		})
	}
	c.deps.Risk.SetGeometry(dots, riskLines)
}

// handleReconcileLines is request 3: intersect the camera's current lines
// with the store's, replace the store's set with that intersection, and
// report the result.
func handleReconcileLines(ctx context.Context, c *connection, data json.RawMessage) (int, any, error) {
	if c.deps.Camera == nil {
		return 0, nil, apperr.Wrap(apperr.KindCamera, "reconcile lines", fmt.Errorf("camera client not configured"))
	}

	raw, status, err := c.deps.Camera.GetLines(ctx)
	if err == nil && !isSuccess(status) {
		err = fmt.Errorf("%w: status %d", cameraclient.ErrCameraStatus, status)
	}
	if err != nil {
		return 0, nil, apperr.Wrap(apperr.KindCamera, "fetch camera lines", err)
	}
	var cameraLines struct {
		Lines []struct {
			Index int64 `json:"index"`
		} `json:"lines"`
	}
	if err := json.Unmarshal(raw, &cameraLines); err != nil {
		return 0, nil, apperr.Wrap(apperr.KindCamera, "decode camera lines", err)
	}
	onCamera := make(map[int64]bool, len(cameraLines.Lines))
	for _, l := range cameraLines.Lines {
		onCamera[l.Index] = true
	}

	c.deps.Store.Mu.Lock()
	stored, err := c.deps.Store.SelectAllLines(ctx)
	if err != nil {
		c.deps.Store.Mu.Unlock()
		return 0, nil, apperr.Wrap(apperr.KindStore, "select lines for reconciliation", err)
	}

	var kept []store.CrossLine
	for _, l := range stored {
		if onCamera[l.Index] {
			kept = append(kept, l)
		}
	}
	if err := c.deps.Store.ReplaceLines(ctx, kept); err != nil {
		c.deps.Store.Mu.Unlock()
		return 0, nil, apperr.Wrap(apperr.KindStore, "replace lines", err)
	}
	c.deps.Store.Mu.Unlock()

	if c.deps.Audit != nil {
		c.deps.Audit.Publish(auditlog.NewEvent("line_reconciliation", map[string]any{
			"kept_count": len(kept), "dropped_count": len(stored) - len(kept),
		}))
	}

	refreshRiskGeometry(ctx, c)
	return respReconcile, map[string]any{"lines": toLinesWire(kept)}, nil
}

// handleTeardown is request 4: delete every camera-side line and empty the
// lines, baseLines, and verticalLineEquations tables.
func handleTeardown(ctx context.Context, c *connection, data json.RawMessage) (int, any, error) {
	c.deps.Store.Mu.Lock()
	lines, err := c.deps.Store.SelectAllLines(ctx)
	c.deps.Store.Mu.Unlock()
	if err != nil {
		return 0, nil, apperr.Wrap(apperr.KindStore, "select lines for teardown", err)
	}

	deleteSuccess := true
	if c.deps.Camera != nil {
		for _, l := range lines {
			if _, status, err := c.deps.Camera.DeleteLine(ctx, l.Index); err != nil || !isSuccess(status) {
				deleteSuccess = false
				c.log.Warn().Err(err).Int64("index", l.Index).Msg("camera line delete failed")
			}
		}
	}

	c.deps.Store.Mu.Lock()
	err = firstErr(
		c.deps.Store.DeleteAllLines(ctx),
		c.deps.Store.DeleteAllBaseLines(ctx),
		c.deps.Store.DeleteAllVerticalEquations(ctx),
	)
	c.deps.Store.Mu.Unlock()
	if err != nil {
		return 0, nil, apperr.Wrap(apperr.KindStore, "teardown tables", err)
	}

	if c.deps.Audit != nil {
		c.deps.Audit.Publish(auditlog.NewEvent("teardown", nil))
	}

	refreshRiskGeometry(ctx, c)
	return respTeardown, map[string]any{"delete_success": deleteSuccess}, nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// handleInsertBaseLine is request 5.
func handleInsertBaseLine(ctx context.Context, c *connection, data json.RawMessage) (int, any, error) {
	var in struct {
		Index      int64 `json:"index"`
		MatrixNum1 int64 `json:"matrix_num1"`
		X1         int64 `json:"x1"`
		Y1         int64 `json:"y1"`
		MatrixNum2 int64 `json:"matrix_num2"`
		X2         int64 `json:"x2"`
		Y2         int64 `json:"y2"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return 0, nil, apperr.Wrap(apperr.KindFraming, "decode request 5", err)
	}

	c.deps.Store.Mu.Lock()
	inserted, updated, err := c.deps.Store.InsertBaseLine(ctx, store.BaseLine{
		Index: in.Index, MatrixNum1: in.MatrixNum1, X1: in.X1, Y1: in.Y1, MatrixNum2: in.MatrixNum2, X2: in.X2, Y2: in.Y2,
	})
	c.deps.Store.Mu.Unlock()
	if err != nil {
		return 0, nil, apperr.Wrap(apperr.KindStore, "insert baseline", err)
	}
	refreshRiskGeometry(ctx, c)
	return respInsertBaseLine, map[string]any{"insert_success": inserted, "update_success": updated}, nil
}

// handleInsertVertical is request 6.
func handleInsertVertical(ctx context.Context, c *connection, data json.RawMessage) (int, any, error) {
	var in struct {
		Index int64   `json:"index"`
		A     float64 `json:"a"`
		B     float64 `json:"b"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return 0, nil, apperr.Wrap(apperr.KindFraming, "decode request 6", err)
	}

	c.deps.Store.Mu.Lock()
	err := c.deps.Store.InsertVerticalEquation(ctx, store.VerticalLineEquation{Index: in.Index, A: in.A, B: in.B})
	c.deps.Store.Mu.Unlock()
	if err != nil {
		return 0, nil, apperr.Wrap(apperr.KindStore, "insert vertical equation", err)
	}
	return respInsertBaseLine, map[string]any{"insert_success": true}, nil
}

// handleSelectBaseLines is request 7.
func handleSelectBaseLines(ctx context.Context, c *connection, data json.RawMessage) (int, any, error) {
	c.deps.Store.Mu.Lock()
	all, err := c.deps.Store.SelectAllBaseLines(ctx)
	c.deps.Store.Mu.Unlock()
	if err != nil {
		return 0, nil, apperr.Wrap(apperr.KindStore, "select baselines", err)
	}

	out := make([]map[string]any, len(all))
	for i, b := range all {
		out[i] = map[string]any{
			"index": b.Index, "matrix_num1": b.MatrixNum1, "x1": b.X1, "y1": b.Y1,
			"matrix_num2": b.MatrixNum2, "x2": b.X2, "y2": b.Y2,
		}
	}
	return respBaseLines, map[string]any{"base_lines": out}, nil
}
