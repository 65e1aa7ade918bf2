package measure

import (
	_ "embed"
	"encoding/json"
	"os"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"

	errs "github.com/matzehuels/anchor/pkg/errors"
	"github.com/matzehuels/anchor/pkg/geometry"
)

//go:embed scene.schema.json
var sceneSchemaJSON []byte

var (
	sceneSchema     *gojsonschema.Schema
	sceneSchemaErr  error
	sceneSchemaOnce sync.Once
)

func loadSceneSchema() (*gojsonschema.Schema, error) {
	sceneSchemaOnce.Do(func() {
		sceneSchema, sceneSchemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(sceneSchemaJSON))
	})
	return sceneSchema, sceneSchemaErr
}

// Scene is a geometry snapshot captured from a host: the viewport, the rects
// of named elements and optionally a pointer position.
type Scene struct {
	Viewport geometry.ViewportSize    `json:"viewport"`
	Elements map[Handle]geometry.Rect `json:"elements"`
	Cursor   *geometry.Point          `json:"cursor,omitempty"`
}

// LoadScene parses a scene document. When root is non-empty it is a gjson
// path selecting the scene inside a larger capture (e.g. "frames.3.scene").
// The document is validated against the embedded schema, which rejects
// negative sizes, and element rects have their edges filled in.
func LoadScene(data []byte, root string) (*Scene, error) {
	if !gjson.ValidBytes(data) {
		return nil, errs.New(errs.ErrCodeInvalidScene, "scene is not valid JSON")
	}
	if root != "" {
		res := gjson.GetBytes(data, root)
		if !res.Exists() {
			return nil, errs.New(errs.ErrCodeInvalidScene, "scene root %q not found", root)
		}
		if !res.IsObject() {
			return nil, errs.New(errs.ErrCodeInvalidScene, "scene root %q is not an object", root)
		}
		data = []byte(res.Raw)
	}

	schema, err := loadSceneSchema()
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "compile scene schema")
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidScene, err, "validate scene")
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.Field()+": "+desc.Description())
		}
		return nil, errs.New(errs.ErrCodeInvalidScene, "scene validation failed: %s", strings.Join(msgs, "; "))
	}

	var s Scene
	if err := json.Unmarshal(data, &s); err != nil {
		if errs.GetCode(err) != "" {
			return nil, err
		}
		return nil, errs.Wrap(errs.ErrCodeInvalidScene, err, "decode scene")
	}
	for h := range s.Elements {
		if err := errs.ValidateHandle(string(h)); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// LoadSceneFile reads and parses a scene from path.
func LoadSceneFile(path, root string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrCodeNotFound, err, "scene file %s", path)
		}
		return nil, errs.Wrap(errs.ErrCodeInvalidScene, err, "read scene %s", path)
	}
	return LoadScene(data, root)
}

// Provider returns a Static provider seeded with the scene.
func (s *Scene) Provider() *Static {
	p := NewStatic(s.Viewport)
	for h, r := range s.Elements {
		p.Set(h, r)
	}
	return p
}

// Rect returns the rect for h, or ELEMENT_NOT_FOUND.
func (s *Scene) Rect(h Handle) (geometry.Rect, error) {
	r, ok := s.Elements[h]
	if !ok {
		return geometry.Rect{}, errs.New(errs.ErrCodeElementNotFound, "element %q not found in scene", h)
	}
	return r, nil
}
