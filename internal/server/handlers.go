package server

import (
	"encoding/json"
	"net/http"

	"github.com/matzehuels/anchor/pkg/buildinfo"
	errs "github.com/matzehuels/anchor/pkg/errors"
	"github.com/matzehuels/anchor/pkg/geometry"
	"github.com/matzehuels/anchor/pkg/measure"
	"github.com/matzehuels/anchor/pkg/placement"
	"github.com/matzehuels/anchor/pkg/position"
	"github.com/matzehuels/anchor/pkg/render"
)

const (
	triggerHandle  measure.Handle = "trigger"
	floatingHandle measure.Handle = "floating"
)

// =============================================================================
// Wire Types
// =============================================================================

// optionsRequest overrides the configured defaults field by field.
type optionsRequest struct {
	Side         *geometry.Side      `json:"side,omitempty"`
	Align        *geometry.Alignment `json:"align,omitempty"`
	Offset       *float64            `json:"offset,omitempty"`
	CursorOffset *geometry.Point     `json:"cursor_offset,omitempty"`
	Margin       *float64            `json:"margin,omitempty"`
	Tolerance    *float64            `json:"tolerance,omitempty"`
}

func (o *optionsRequest) apply(base placement.Options) placement.Options {
	if o == nil {
		return base
	}
	if o.Side != nil {
		base.Side = *o.Side
	}
	if o.Align != nil {
		base.Align = *o.Align
	}
	if o.Offset != nil {
		base.Offset = *o.Offset
	}
	if o.CursorOffset != nil {
		base.CursorOffset = *o.CursorOffset
	}
	if o.Margin != nil {
		base.Margin = *o.Margin
	}
	if o.Tolerance != nil {
		base.Tolerance = *o.Tolerance
	}
	return base
}

// Rects only need x, y, width and height; edges are recomputed.
type aroundRequest struct {
	Trigger  geometry.Rect         `json:"trigger"`
	Floating geometry.Rect         `json:"floating"`
	Viewport geometry.ViewportSize `json:"viewport"`
	Options  *optionsRequest       `json:"options,omitempty"`
}

type cursorRequest struct {
	Cursor   geometry.Point        `json:"cursor"`
	Floating geometry.Rect         `json:"floating"`
	Viewport geometry.ViewportSize `json:"viewport"`
	Options  *optionsRequest       `json:"options,omitempty"`
}

type placeResponse struct {
	Mode      placement.Mode `json:"mode"`
	X         float64        `json:"x"`
	Y         float64        `json:"y"`
	Side      *geometry.Side `json:"side,omitempty"`
	Fallback  bool           `json:"fallback"`
	FlipX     bool           `json:"flip_x"`
	FlipY     bool           `json:"flip_y"`
	Clamped   bool           `json:"clamped"`
	Transform string         `json:"transform"`
}

type errorResponse struct {
	Code    errs.Code `json:"code"`
	Message string    `json:"message"`
}

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Current()})
}

func (s *Server) handleAround(w http.ResponseWriter, r *http.Request) {
	var req aroundRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	opts := req.Options.apply(s.defaults)

	scene := measure.NewStatic(req.Viewport)
	scene.Set(triggerHandle, req.Trigger)
	scene.Set(floatingHandle, req.Floating)

	res, err := position.NewService(scene, s.logger).Around(r.Context(), triggerHandle, floatingHandle, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.respond(w, r, render.Frame{
		Viewport: req.Viewport,
		Floating: req.Floating,
		Options:  opts,
		Result:   res,
		Trigger:  &req.Trigger,
	})
}

func (s *Server) handleCursor(w http.ResponseWriter, r *http.Request) {
	var req cursorRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	opts := req.Options.apply(s.defaults)

	scene := measure.NewStatic(req.Viewport)
	scene.Set(floatingHandle, req.Floating)

	res, err := position.NewService(scene, s.logger).AtCursor(r.Context(), floatingHandle, req.Cursor, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.respond(w, r, render.Frame{
		Viewport: req.Viewport,
		Floating: req.Floating,
		Options:  opts,
		Result:   res,
		Cursor:   &req.Cursor,
	})
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, f render.Frame) {
	if r.URL.Query().Get("format") == "svg" {
		w.Header().Set("Content-Type", "image/svg+xml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(render.RenderSVG(f, render.WithMarginGuide(), render.WithRejected(), render.WithLabels()))
		return
	}

	res := f.Result
	out := placeResponse{
		Mode:      res.Mode,
		X:         res.Position.X,
		Y:         res.Position.Y,
		Fallback:  res.Fallback,
		FlipX:     res.FlipX,
		FlipY:     res.FlipY,
		Clamped:   res.Clamped,
		Transform: measure.TransformCSS(res.Position),
	}
	if res.Mode == placement.ModeAround {
		side := res.Side
		out.Side = &side
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// Encoding
// =============================================================================

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errs.GetCode(err) != "" {
			return err
		}
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "decode request")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	code := errs.GetCode(err)
	if code == "" {
		code = errs.ErrCodeInternal
	}
	writeJSON(w, status, errorResponse{Code: code, Message: errs.UserMessage(err)})
}

func statusFor(err error) int {
	switch errs.GetCode(err) {
	case errs.ErrCodeInvalidInput, errs.ErrCodeInvalidHandle:
		return http.StatusBadRequest
	case errs.ErrCodeInvalidGeometry, errs.ErrCodeInvalidSide, errs.ErrCodeInvalidAlignment:
		return http.StatusUnprocessableEntity
	case errs.ErrCodeNotFound, errs.ErrCodeElementNotFound:
		return http.StatusNotFound
	case errs.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
