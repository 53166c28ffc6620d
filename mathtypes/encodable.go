// Package mathtypes decodes the engine's small value types: vectors,
// matrices, colours and the transforms built from them.
//
// These classes write their own compact binary layout instead of a field
// segment, so the decoder needs a hook per class. Register installs them;
// RegisterFields installs the field hooks that derive the cached state of
// transforms and fill in defaults for a few config classes.
package mathtypes

import (
	"fmt"

	"github.com/Neumenon/clyde/binio"
	"github.com/Neumenon/clyde/clyde"
	"github.com/Neumenon/clyde/shadow"
)

// Class names.
const (
	Vector2f     = "com.threerings.math.Vector2f"
	Vector3f     = "com.threerings.math.Vector3f"
	Vector4f     = "com.threerings.math.Vector4f"
	Quaternion   = "com.threerings.math.Quaternion"
	Matrix3f     = "com.threerings.math.Matrix3f"
	Matrix4f     = "com.threerings.math.Matrix4f"
	Plane        = "com.threerings.math.Plane"
	SphereCoords = "com.threerings.math.SphereCoords"
	Transform2D  = "com.threerings.math.Transform2D"
	Transform3D  = "com.threerings.math.Transform3D"
	Color4f      = "com.threerings.opengl.renderer.Color4f"
	Coord        = "com.threerings.tudey.util.Coord"
)

// Register adds the encodable hooks for every value type in this package.
func Register(h *clyde.EncodableHooks) {
	h.Register(Vector2f, floats("x", "y"))
	h.Register(Vector3f, floats("x", "y", "z"))
	h.Register(Vector4f, floats("x", "y", "z", "w"))
	h.Register(Quaternion, floats("x", "y", "z", "w"))
	h.Register(Color4f, floats("r", "g", "b", "a"))
	h.Register(SphereCoords, floats("azimuth", "elevation", "distance"))
	h.Register(Matrix3f, floats(matrixFields(3)...))
	h.Register(Matrix4f, floats(matrixFields(4)...))
	h.Register(Coord, decodeCoord)
	h.Register(Plane, decodePlane)
}

// floats decodes a run of big-endian float32 values into the named fields.
func floats(names ...string) clyde.EncodableHook {
	return func(inst *shadow.Instance, r *binio.Reader) error {
		for _, name := range names {
			v, err := r.ReadF32()
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			if err := inst.Set(name, shadow.Float(v)); err != nil {
				return err
			}
		}
		return nil
	}
}

// matrixFields lists "mRC" names in the column-major order matrices are
// written in.
func matrixFields(n int) []string {
	out := make([]string, 0, n*n)
	for col := 0; col < n; col++ {
		for row := 0; row < n; row++ {
			out = append(out, fmt.Sprintf("m%d%d", row, col))
		}
	}
	return out
}

func decodeCoord(inst *shadow.Instance, r *binio.Reader) error {
	for _, name := range []string{"x", "y"} {
		v, err := r.ReadI32()
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if err := inst.Set(name, shadow.Int(v)); err != nil {
			return err
		}
	}
	return nil
}

// decodePlane reads the normal as three floats followed by the constant.
// The normal is stored as a Vector3f instance.
func decodePlane(inst *shadow.Instance, r *binio.Reader) error {
	vec, err := newInstance(inst.Template(), Vector3f)
	if err != nil {
		return err
	}
	if err := floats("x", "y", "z")(vec, r); err != nil {
		return fmt.Errorf("normal: %w", err)
	}
	if err := inst.Set("_normal", shadow.ObjectValue(vec)); err != nil {
		return err
	}
	return floats("constant")(inst, r)
}

// newInstance clones the named template from the registry that owns t.
func newInstance(t *shadow.Template, name string) (*shadow.Instance, error) {
	reg := t.Registry()
	if reg == nil {
		return nil, fmt.Errorf("mathtypes: %s has no registry", t.Name())
	}
	return reg.Template(name).Clone()
}
